package poster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelshelf/internal/artifactcache"
	"reelshelf/internal/logging"
	"reelshelf/internal/metrics"
)

// ErrExtractionFailed is returned when not even a placeholder could be
// written.
var ErrExtractionFailed = errors.New("poster extraction failed")

const (
	// Kind is the artifact kind used for cache keys and catalog images.
	Kind = "poster"

	// SourceFFmpeg marks a poster taken from a real frame.
	SourceFFmpeg = "ffmpeg"
	// SourcePlaceholder marks a stand-in image.
	SourcePlaceholder = "placeholder"

	statsWidth = 160
)

// Spec describes the output image.
type Spec struct {
	Height  int
	Quality int
}

// DefaultSpec returns a 1000px high, quality 90 poster spec.
func DefaultSpec() Spec {
	return Spec{Height: 1000, Quality: 90}
}

// Variant is the cache variant string for the spec.
func (s Spec) Variant() string {
	return "h" + strconv.Itoa(s.Height)
}

// QScale converts the 0-100 quality into ffmpeg's -q:v scale.
func (s Spec) QScale() int {
	return max(2, min(s.Quality/10, 31))
}

// Timeouts bound each kind of ffmpeg invocation.
type Timeouts struct {
	AutoThumbnail time.Duration
	Frame         time.Duration
	Stats         time.Duration
}

// DefaultTimeouts returns the standard per-invocation limits.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		AutoThumbnail: 30 * time.Second,
		Frame:         20 * time.Second,
		Stats:         6 * time.Second,
	}
}

// Options configures a Synthesizer.
type Options struct {
	// FFmpeg is the resolved ffmpeg executable. Empty disables extraction
	// and every poster becomes a placeholder.
	FFmpeg   string
	Runner   Runner
	Spec     Spec
	Timeouts Timeouts
}

// Request identifies the file to build a poster for.
type Request struct {
	MediaPath   string
	Fingerprint string
	// Duration in seconds; zero or negative means unknown.
	Duration float64
	// Force regenerates even when a cached artifact exists.
	Force bool
}

// Result describes a produced or cached poster.
type Result struct {
	Path     string
	Source   string
	Strategy string
	CacheHit bool
	// Timestamp of the extracted frame; zero when ffmpeg picked the frame or
	// no frame was extracted.
	Timestamp float64
}

// Job is the state shared by strategies while generating one poster.
type Job struct {
	MediaPath   string
	Fingerprint string
	Duration    float64
	Output      string
	Timestamp   float64

	candidates []float64
	scored     bool
	err        error
}

// Candidates returns the candidate timestamps, computed once per job.
func (j *Job) Candidates() []float64 {
	if j.candidates == nil {
		j.candidates = CandidateTimestamps(j.Fingerprint, j.Duration, CandidateCount)
	}
	return j.candidates
}

// Strategy is one step of the fallback chain. Run reports whether it left a
// usable image at job.Output.
type Strategy struct {
	Name   string
	Source string
	Run    func(ctx context.Context, j *Job) bool
}

// Synthesizer generates posters into an artifact cache.
type Synthesizer struct {
	cache      *artifactcache.Cache
	ffmpeg     string
	runner     Runner
	spec       Spec
	timeouts   Timeouts
	strategies []Strategy
}

// New returns a Synthesizer writing into cache.
func New(cache *artifactcache.Cache, opts Options) *Synthesizer {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Spec.Height <= 0 {
		opts.Spec.Height = DefaultSpec().Height
	}
	if opts.Spec.Quality <= 0 {
		opts.Spec.Quality = DefaultSpec().Quality
	}
	def := DefaultTimeouts()
	if opts.Timeouts.AutoThumbnail <= 0 {
		opts.Timeouts.AutoThumbnail = def.AutoThumbnail
	}
	if opts.Timeouts.Frame <= 0 {
		opts.Timeouts.Frame = def.Frame
	}
	if opts.Timeouts.Stats <= 0 {
		opts.Timeouts.Stats = def.Stats
	}

	s := &Synthesizer{
		cache:    cache,
		ffmpeg:   opts.FFmpeg,
		runner:   opts.Runner,
		spec:     opts.Spec,
		timeouts: opts.Timeouts,
	}
	s.strategies = []Strategy{
		{Name: "auto_thumbnail", Source: SourceFFmpeg, Run: s.autoThumbnail},
		{Name: "scored", Source: SourceFFmpeg, Run: s.scoredBest},
		{Name: "sequential", Source: SourceFFmpeg, Run: s.sequential},
		{Name: "placeholder", Source: SourcePlaceholder, Run: s.placeholder},
	}
	return s
}

// Strategies returns the strategy names in the order they are tried.
func (s *Synthesizer) Strategies() []string {
	names := make([]string, len(s.strategies))
	for i, st := range s.strategies {
		names[i] = st.Name
	}
	return names
}

// Spec returns the output spec.
func (s *Synthesizer) Spec() Spec {
	return s.spec
}

// FFmpegAvailable reports whether frame extraction is possible.
func (s *Synthesizer) FFmpegAvailable() bool {
	return s.ffmpeg != ""
}

// Path returns the cache path of the poster for a fingerprint.
func (s *Synthesizer) Path(fingerprint string) (string, error) {
	return s.cache.Path(Kind, fingerprint, s.spec.Variant(), "jpg")
}

// Generate returns the poster for req, reusing the cached file unless
// req.Force is set. Tool failures fall through to the next strategy; the
// returned error is non-nil only when the cache is unwritable or ctx is
// done.
func (s *Synthesizer) Generate(ctx context.Context, req Request) (Result, error) {
	if req.Fingerprint == "" {
		return Result{}, fmt.Errorf("poster for %s: fingerprint required", req.MediaPath)
	}

	out, err := s.Path(req.Fingerprint)
	if err != nil {
		return Result{}, err
	}

	if !req.Force && artifactcache.Exists(out) {
		metrics.PosterCacheHits.Inc()
		return Result{Path: out, Source: sourceOf(out), CacheHit: true}, nil
	}

	job := &Job{
		MediaPath:   req.MediaPath,
		Fingerprint: req.Fingerprint,
		Duration:    req.Duration,
		Output:      out,
	}

	for _, st := range s.strategies {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		start := time.Now()
		ok := st.Run(ctx, job)
		metrics.PosterStrategyDuration.WithLabelValues(st.Name).Observe(time.Since(start).Seconds())
		if !ok {
			metrics.PosterStrategyTotal.WithLabelValues(st.Name, "failure").Inc()
			logging.Debug("Poster strategy %s failed for %s", st.Name, req.MediaPath)
			continue
		}

		metrics.PosterStrategyTotal.WithLabelValues(st.Name, "success").Inc()
		logging.Debug("Poster for %s produced by %s", req.MediaPath, st.Name)
		return Result{
			Path:      out,
			Source:    st.Source,
			Strategy:  st.Name,
			Timestamp: job.Timestamp,
		}, nil
	}

	if job.err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, req.MediaPath, job.err)
	}
	return Result{}, fmt.Errorf("%w: %s", ErrExtractionFailed, req.MediaPath)
}

func (s *Synthesizer) autoThumbnail(ctx context.Context, j *Job) bool {
	if s.ffmpeg == "" {
		return false
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", j.MediaPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("thumbnail,scale=-2:%d", s.spec.Height),
		"-q:v", strconv.Itoa(s.spec.QScale()),
	}
	return s.extract(ctx, s.timeouts.AutoThumbnail, j.Output, args)
}

func (s *Synthesizer) scoredBest(ctx context.Context, j *Job) bool {
	if s.ffmpeg == "" {
		return false
	}

	best, bestTS := -1.0, 0.0
	for _, ts := range j.Candidates() {
		if ctx.Err() != nil {
			return false
		}
		base, err := s.frameStats(ctx, j.MediaPath, ts, false)
		if err != nil {
			logging.Debug("No frame stats for %s at %.2fs: %v", j.MediaPath, ts, err)
			continue
		}
		edge, err := s.frameStats(ctx, j.MediaPath, ts, true)
		if err != nil {
			logging.Debug("No edge stats for %s at %.2fs: %v", j.MediaPath, ts, err)
			continue
		}

		score := Score(base, edge)
		metrics.PosterCandidateScores.Observe(score)
		j.scored = true
		// Candidates are ascending, so strict comparison keeps the earlier
		// timestamp on ties.
		if score > best {
			best, bestTS = score, ts
		}
	}

	if !j.scored {
		return false
	}
	if s.extractAt(ctx, j, bestTS) {
		j.Timestamp = bestTS
		return true
	}
	return false
}

func (s *Synthesizer) sequential(ctx context.Context, j *Job) bool {
	if s.ffmpeg == "" || j.scored {
		return false
	}
	for _, ts := range j.Candidates() {
		if ctx.Err() != nil {
			return false
		}
		if s.extractAt(ctx, j, ts) {
			j.Timestamp = ts
			return true
		}
	}
	return false
}

func (s *Synthesizer) placeholder(_ context.Context, j *Job) bool {
	if err := WritePlaceholder(j.Output, s.spec.Quality); err != nil {
		logging.Warn("Failed to write placeholder poster %s: %v", j.Output, err)
		j.err = err
		return false
	}
	return true
}

func (s *Synthesizer) extractAt(ctx context.Context, j *Job, ts float64) bool {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatTimestamp(ts),
		"-i", j.MediaPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=-2:%d", s.spec.Height),
		"-q:v", strconv.Itoa(s.spec.QScale()),
	}
	return s.extract(ctx, s.timeouts.Frame, j.Output, args)
}

// extract runs ffmpeg with a temporary output file appended to args and
// moves the result into place when it is non-empty.
func (s *Synthesizer) extract(ctx context.Context, timeout time.Duration, out string, args []string) bool {
	tmp := partialPath(out)
	defer func() { _ = os.Remove(tmp) }()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	full := make([]string, 0, len(args)+1)
	full = append(full, args...)
	full = append(full, tmp)

	output, err := s.runner.Run(cctx, s.ffmpeg, full...)
	if err != nil {
		logging.Debug("ffmpeg failed: %v: %s", err, lastLine(output))
		return false
	}

	info, err := os.Stat(tmp)
	if err != nil || info.Size() == 0 {
		logging.Debug("ffmpeg produced no output at %s", tmp)
		return false
	}
	if err := os.Rename(tmp, out); err != nil {
		logging.Warn("Failed to move poster into cache %s: %v", out, err)
		return false
	}
	return true
}

func (s *Synthesizer) frameStats(ctx context.Context, path string, ts float64, edges bool) (FrameStats, error) {
	filter := fmt.Sprintf("scale=%d:-2,signalstats,metadata=print", statsWidth)
	if edges {
		filter = fmt.Sprintf("scale=%d:-2,edgedetect,signalstats,metadata=print", statsWidth)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeouts.Stats)
	defer cancel()

	output, err := s.runner.Run(cctx, s.ffmpeg,
		"-hide_banner", "-nostats",
		"-ss", formatTimestamp(ts),
		"-i", path,
		"-frames:v", "1",
		"-vf", filter,
		"-f", "null", "-",
	)
	if err != nil {
		return FrameStats{}, fmt.Errorf("signalstats: %w", err)
	}
	return parseSignalStats(output)
}

func formatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 2, 64)
}

func partialPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + ".partial" + ext
}

func lastLine(output []byte) string {
	text := strings.TrimSpace(string(output))
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		return text[i+1:]
	}
	return text
}

// sourceOf infers the provenance of a cached poster from its dimensions.
func sourceOf(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return SourceFFmpeg
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err == nil && IsPlaceholderSize(cfg.Width, cfg.Height) {
		return SourcePlaceholder
	}
	return SourceFFmpeg
}
