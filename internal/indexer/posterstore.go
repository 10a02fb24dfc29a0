package indexer

import (
	"context"

	"reelshelf/internal/database"
	"reelshelf/internal/poster"
)

// PosterStore exposes catalog posters to poster.Validator.
type PosterStore struct {
	db *database.Database
}

// NewPosterStore wraps db.
func NewPosterStore(db *database.Database) *PosterStore {
	return &PosterStore{db: db}
}

// PosterTargets lists every catalog poster with the media it can be rebuilt
// from.
func (s *PosterStore) PosterTargets(ctx context.Context) ([]poster.Target, error) {
	records, err := s.db.PosterRecords(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]poster.Target, 0, len(records))
	for _, r := range records {
		targets = append(targets, poster.Target{
			MovieID:     r.Image.MovieID,
			Path:        r.Image.Path,
			Src:         r.Image.Src,
			Width:       r.Image.Width,
			Height:      r.Image.Height,
			MediaPath:   r.MediaPath,
			Fingerprint: r.Fingerprint,
			Duration:    float64(r.RuntimeSec),
		})
	}
	return targets, nil
}

// SavePoster records the poster for a movie.
func (s *PosterStore) SavePoster(ctx context.Context, movieID int64, path, src string, width, height int) error {
	_, err := s.db.AddImage(ctx, &database.Image{
		MovieID: movieID,
		Kind:    database.ImageKindPoster,
		Path:    path,
		Src:     src,
		Width:   width,
		Height:  height,
	})
	return err
}

// ValidatePosters runs a validation pass over the catalog's posters.
func ValidatePosters(ctx context.Context, db *database.Database, synth *poster.Synthesizer) (poster.ValidationReport, error) {
	return poster.NewValidator(synth, NewPosterStore(db)).ValidateAll(ctx)
}
