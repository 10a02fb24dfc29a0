package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"reelshelf/internal/database"
	"reelshelf/internal/filesystem"
	"reelshelf/internal/fingerprint"
	"reelshelf/internal/logging"
	"reelshelf/internal/metrics"
	"reelshelf/internal/poster"
	"reelshelf/internal/probe"
	"reelshelf/internal/scanner"
	"reelshelf/internal/titleparse"
)

// Resolution describes how a file was attached to a title.
type Resolution string

const (
	// ResolvedNewTitle means a title was created for the file.
	ResolvedNewTitle Resolution = "new_title"
	// ResolvedExistingTitle means the file joined a title found by
	// fingerprint (its own row) or by title and year.
	ResolvedExistingTitle Resolution = "existing_title"
	// ResolvedRename means the file's content was already cataloged under a
	// path that no longer exists, and that row was moved.
	ResolvedRename Resolution = "rename"
	// ResolvedDuplicate means the content is cataloged under another path
	// that still exists.
	ResolvedDuplicate Resolution = "duplicate"
)

// Outcome is what happened to one scanned file.
type Outcome struct {
	Path        string
	MovieID     int64
	Resolution  Resolution
	NewFile     bool
	Fingerprint string
	Probed      bool
	// PosterSource is empty when no poster was produced.
	PosterSource string
}

// Summary counts the outcomes of a scan.
type Summary struct {
	TotalFiles int `json:"totalFiles"`
	NewMovies  int `json:"newMovies"`
	NewFiles   int `json:"newFiles"`
	Duplicates int `json:"duplicates"`
	Renames    int `json:"renames"`
	Probed     int `json:"probed"`
	Posters    int `json:"posters"`
	// Placeholders counts posters that fell back to the placeholder image.
	Placeholders int `json:"placeholders"`
}

// Add folds one outcome into the summary. TotalFiles is not touched; it is
// the number of files the scanner returned, processed or not.
func (s Summary) Add(o Outcome) Summary {
	switch o.Resolution {
	case ResolvedNewTitle:
		s.NewMovies++
	case ResolvedDuplicate:
		s.Duplicates++
	case ResolvedRename:
		s.Renames++
	}
	if o.NewFile {
		s.NewFiles++
	}
	if o.Probed {
		s.Probed++
	}
	switch o.PosterSource {
	case "":
	case poster.SourcePlaceholder:
		s.Posters++
		s.Placeholders++
	default:
		s.Posters++
	}
	return s
}

// Options controls one ScanAndIndex call.
type Options struct {
	Roots       []string
	IgnoreRules []string
	// Workers bounds the scanner's stat pool.
	Workers int
	// Fingerprint enables content fingerprints, and with them duplicate and
	// rename detection and posters.
	Fingerprint bool
	// Progress, when set, is called after each file with the 1-based index
	// and the total.
	Progress func(done, total int)
}

// Reconciler merges scanned files into the catalog.
type Reconciler struct {
	db      *database.Database
	prober  probe.Prober
	posters *poster.Synthesizer

	fingerprint func(path string) (string, error)
	exists      func(path string) bool
	retry       filesystem.RetryConfig
}

// NewReconciler returns a Reconciler. prober and posters may be nil, which
// skips probing and poster generation respectively.
func NewReconciler(db *database.Database, prober probe.Prober, posters *poster.Synthesizer) *Reconciler {
	return &Reconciler{
		db:          db,
		prober:      prober,
		posters:     posters,
		fingerprint: fingerprint.Partial,
		exists:      filesystem.Exists,
		retry:       filesystem.DefaultRetryConfig(),
	}
}

// Database returns the catalog the reconciler writes to.
func (r *Reconciler) Database() *database.Database {
	return r.db
}

// Posters returns the poster synthesizer, or nil.
func (r *Reconciler) Posters() *poster.Synthesizer {
	return r.posters
}

// ScanAndIndex scans the roots and reconciles every file found. Files are
// handled one at a time in scan order, and ctx is checked between files;
// on cancellation the summary so far is returned with ctx's error. Catalog
// errors abort the scan. Fingerprint, probe and poster failures are logged
// and never abort it.
func (r *Reconciler) ScanAndIndex(ctx context.Context, opts Options) (Summary, error) {
	sc := scanner.New(scanner.Config{
		Roots:       opts.Roots,
		IgnoreRules: opts.IgnoreRules,
		Workers:     opts.Workers,
		Retry:       r.retry,
	})

	files, err := sc.Scan(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{TotalFiles: len(files)}
	total := len(files)
	logging.Info("Reconciling %d files from %d roots", total, len(opts.Roots))

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			logging.Info("Scan cancelled after %d of %d files", i, total)
			return summary, err
		}

		outcome, err := r.reconcileFile(ctx, f, opts.Fingerprint)
		if err != nil {
			return summary, err
		}
		summary = summary.Add(outcome)
		metrics.ReconcileOutcomes.WithLabelValues(string(outcome.Resolution)).Inc()

		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	return summary, nil
}

func (r *Reconciler) reconcileFile(ctx context.Context, f scanner.File, withFingerprint bool) (Outcome, error) {
	out := Outcome{Path: f.Path}

	parsed := titleparse.Parse(filepath.Base(f.Path))
	if strings.TrimSpace(parsed.Title) == "" {
		// A leading year token is part of the name, so the year is dropped.
		parsed = titleparse.Result{Title: titleparse.FallbackTitle(filepath.Base(f.Path))}
		if parsed.Title == "" {
			parsed.Title = strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
		}
	}

	if withFingerprint {
		fp, err := r.fingerprint(f.Path)
		if err != nil {
			logging.Warn("Fingerprint failed for %s: %v", f.Path, err)
		} else {
			out.Fingerprint = fp
		}
	}

	row := &database.MediaFile{
		Path:        f.Path,
		SizeBytes:   f.Size,
		MtimeNS:     f.ModTimeNS(),
		Inode:       f.Inode,
		Device:      f.Device,
		Fingerprint: out.Fingerprint,
	}

	movieID, resolution, err := r.resolve(ctx, parsed, row)
	if err != nil {
		return out, err
	}
	out.MovieID = movieID
	out.Resolution = resolution
	row.MovieID = movieID

	out.NewFile, err = r.db.UpsertMediaFile(ctx, row)
	if err != nil {
		return out, err
	}

	duration, err := r.probeFile(ctx, row, &out)
	if err != nil {
		return out, err
	}

	if out.Fingerprint != "" && r.posters != nil {
		src, err := r.attachPoster(ctx, movieID, f.Path, out.Fingerprint, duration)
		if err != nil {
			return out, err
		}
		out.PosterSource = src
	}

	return out, nil
}

// resolve finds or creates the title for row. A rename moves the existing
// row to the new path before returning.
func (r *Reconciler) resolve(ctx context.Context, parsed titleparse.Result, row *database.MediaFile) (int64, Resolution, error) {
	if row.Fingerprint != "" {
		matches, err := r.db.MediaFilesByFingerprint(ctx, row.Fingerprint)
		if err != nil {
			return 0, "", err
		}
		if len(matches) > 0 {
			return r.resolveByFingerprint(ctx, matches, row)
		}
	}

	existing, err := r.db.FindMovieByTitleYear(ctx, parsed.Title, parsed.Year)
	switch {
	case err == nil:
		return existing.ID, ResolvedExistingTitle, nil
	case !errors.Is(err, database.ErrNotFound):
		return 0, "", err
	}

	m := &database.Movie{
		CanonicalTitle: parsed.Title,
		Year:           parsed.Year,
		SortTitle:      titleparse.SortTitle(parsed.Title),
		Edition:        parsed.Edition,
		Source:         database.SourceScan,
	}
	id, err := r.db.AddMovie(ctx, m)
	if err != nil {
		return 0, "", err
	}
	logging.Debug("New title %q (%d) from %s", m.CanonicalTitle, m.Year, row.Path)
	return id, ResolvedNewTitle, nil
}

func (r *Reconciler) resolveByFingerprint(ctx context.Context, matches []database.MediaFile, row *database.MediaFile) (int64, Resolution, error) {
	movieID := matches[0].MovieID

	var others []database.MediaFile
	for _, m := range matches {
		if m.Path != row.Path {
			others = append(others, m)
		}
	}

	// A file matching only its own row was simply seen before.
	if len(others) == 0 {
		return movieID, ResolvedExistingTitle, nil
	}

	if len(matches) == 1 && !r.exists(others[0].Path) {
		moved := *row
		moved.ID = others[0].ID
		if err := r.db.UpdateMediaFilePathAndStats(ctx, &moved); err != nil {
			return 0, "", err
		}
		logging.Info("Renamed %s -> %s", others[0].Path, row.Path)
		return movieID, ResolvedRename, nil
	}

	logging.Debug("Duplicate content %s (also at %s)", row.Path, others[0].Path)
	return movieID, ResolvedDuplicate, nil
}

// probeFile stores probe metadata and fills in the title's runtime when it
// is unknown. It returns the probed duration, zero when unknown.
func (r *Reconciler) probeFile(ctx context.Context, row *database.MediaFile, out *Outcome) (float64, error) {
	if r.prober == nil {
		return 0, nil
	}

	res := r.prober.Probe(ctx, row.Path)
	if !res.Probed() {
		logging.Debug("Probe unavailable for %s: %s", row.Path, res.Reason)
		return 0, nil
	}
	out.Probed = true

	if err := r.db.UpdateMediaFileMetadata(ctx, row.ID, res.Codec, res.Width, res.Height, res.Channels); err != nil {
		return 0, err
	}

	if !res.HasDuration() {
		return 0, nil
	}

	m, err := r.db.GetMovie(ctx, row.MovieID)
	if err != nil {
		return 0, fmt.Errorf("load movie %d: %w", row.MovieID, err)
	}
	if m.RuntimeSec == 0 {
		if err := r.db.SetMovieRuntime(ctx, m.ID, int(res.Duration)); err != nil {
			return 0, err
		}
	}
	return res.Duration, nil
}

// attachPoster generates the poster for a file and records it on the title
// unless the title already has a poster at that path. Generation failures
// are logged and reported as no poster.
func (r *Reconciler) attachPoster(ctx context.Context, movieID int64, mediaPath, fp string, duration float64) (string, error) {
	start := time.Now()
	res, err := r.posters.Generate(ctx, poster.Request{
		MediaPath:   mediaPath,
		Fingerprint: fp,
		Duration:    duration,
	})
	if err != nil {
		logging.Warn("Poster failed for %s: %v", mediaPath, err)
		return "", nil
	}
	logging.Debug("Poster for %s via %s in %v (cached=%v)", mediaPath, res.Strategy, time.Since(start), res.CacheHit)

	images, err := r.db.ImagesForMovie(ctx, movieID, database.ImageKindPoster)
	if err != nil {
		return "", err
	}
	for _, img := range images {
		if img.Path == res.Path {
			return res.Source, nil
		}
	}

	img := &database.Image{
		MovieID: movieID,
		Kind:    database.ImageKindPoster,
		Path:    res.Path,
		Src:     res.Source,
	}
	if info, err := poster.Inspect(res.Path); err == nil {
		img.Width, img.Height = info.Width, info.Height
	}
	if _, err := r.db.AddImage(ctx, img); err != nil {
		return "", err
	}
	return res.Source, nil
}
