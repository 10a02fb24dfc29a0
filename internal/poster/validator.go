package poster

import (
	"context"
	"fmt"

	"reelshelf/internal/artifactcache"
	"reelshelf/internal/filesystem"
	"reelshelf/internal/logging"
	"reelshelf/internal/metrics"
)

// Target is a catalog poster to validate, together with what is needed to
// rebuild it.
type Target struct {
	MovieID int64
	Path    string
	Src     string
	Width   int
	Height  int
	// MediaPath and Fingerprint come from one of the title's media files.
	// An empty fingerprint means the poster cannot be rebuilt.
	MediaPath   string
	Fingerprint string
	Duration    float64
}

// Store is the catalog access the validator needs.
type Store interface {
	PosterTargets(ctx context.Context) ([]Target, error)
	SavePoster(ctx context.Context, movieID int64, path, src string, width, height int) error
}

// ValidationReport counts the outcome of a validation pass. Missing,
// Placeholder and Corrupt count what was found; Regenerated and Failed
// count what happened to those.
type ValidationReport struct {
	Checked     int
	OK          int
	Missing     int
	Placeholder int
	Corrupt     int
	Regenerated int
	Failed      int
}

// Validator checks posters on disk against the catalog.
type Validator struct {
	synth *Synthesizer
	store Store
}

// NewValidator returns a Validator that regenerates through synth.
func NewValidator(synth *Synthesizer, store Store) *Validator {
	return &Validator{synth: synth, store: store}
}

// ValidateAll checks every poster. Posters that are missing, placeholders,
// or undecodable are regenerated with Force; decodable ones get their
// dimensions recorded. Catalog errors abort the pass.
func (v *Validator) ValidateAll(ctx context.Context) (ValidationReport, error) {
	var report ValidationReport

	targets, err := v.store.PosterTargets(ctx)
	if err != nil {
		return report, fmt.Errorf("list posters: %w", err)
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		reason, info := v.check(t)
		if reason == "" {
			report.OK++
			metrics.PosterValidationTotal.WithLabelValues("ok").Inc()
			if info.Width != t.Width || info.Height != t.Height {
				if err := v.store.SavePoster(ctx, t.MovieID, t.Path, t.Src, info.Width, info.Height); err != nil {
					return report, fmt.Errorf("save poster for movie %d: %w", t.MovieID, err)
				}
			}
			continue
		}

		metrics.PosterValidationTotal.WithLabelValues(reason).Inc()
		switch reason {
		case "missing":
			report.Missing++
		case "placeholder":
			report.Placeholder++
		case "corrupt":
			report.Corrupt++
		}

		ok, err := v.regenerate(ctx, t)
		if err != nil {
			return report, err
		}
		if ok {
			report.Regenerated++
			metrics.PosterValidationTotal.WithLabelValues("regenerated").Inc()
		} else {
			report.Failed++
			metrics.PosterValidationTotal.WithLabelValues("failed").Inc()
		}
	}

	logging.Info("Poster validation: %d checked, %d ok, %d regenerated, %d failed",
		report.Checked, report.OK, report.Regenerated, report.Failed)
	return report, nil
}

// check returns "" and the decoded size for a healthy poster, otherwise the
// problem found.
func (v *Validator) check(t Target) (string, ImageInfo) {
	if !artifactcache.Exists(t.Path) {
		return "missing", ImageInfo{}
	}
	if t.Src == SourcePlaceholder {
		return "placeholder", ImageInfo{}
	}
	info, err := Inspect(t.Path)
	if err != nil {
		logging.Debug("Poster %s does not decode: %v", t.Path, err)
		return "corrupt", ImageInfo{}
	}
	if IsPlaceholderSize(info.Width, info.Height) {
		return "placeholder", info
	}
	return "", info
}

// regenerate rebuilds one poster. The bool reports whether a real frame now
// backs the poster; the error is reserved for catalog failures.
func (v *Validator) regenerate(ctx context.Context, t Target) (bool, error) {
	if t.Fingerprint == "" || !filesystem.Exists(t.MediaPath) {
		logging.Debug("Cannot regenerate poster for movie %d: source unavailable", t.MovieID)
		return false, nil
	}

	res, err := v.synth.Generate(ctx, Request{
		MediaPath:   t.MediaPath,
		Fingerprint: t.Fingerprint,
		Duration:    t.Duration,
		Force:       true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logging.Warn("Poster regeneration failed for %s: %v", t.MediaPath, err)
		return false, nil
	}

	width, height := 0, 0
	if info, err := Inspect(res.Path); err == nil {
		width, height = info.Width, info.Height
	}
	if err := v.store.SavePoster(ctx, t.MovieID, res.Path, res.Source, width, height); err != nil {
		return false, fmt.Errorf("save poster for movie %d: %w", t.MovieID, err)
	}
	return res.Source == SourceFFmpeg, nil
}
