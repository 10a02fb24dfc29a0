package database

import (
	"context"

	"reelshelf/internal/metrics"
)

// Stats counts movies, media files and posters by provenance.
func (d *Database) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := d.read(ctx, "stats", func(ctx context.Context) error {
		return d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM movie),
			(SELECT COUNT(*) FROM media_file),
			(SELECT COUNT(*) FROM image WHERE kind = ?),
			(SELECT COUNT(*) FROM image WHERE kind = ? AND src = 'placeholder')`,
			ImageKindPoster, ImageKindPoster,
		).Scan(&s.Movies, &s.MediaFiles, &s.PosterImages, &s.PlaceholderImages)
	})
	return s, err
}

// CollectStats adapts Stats for the metrics collector.
func (d *Database) CollectStats() (metrics.Stats, error) {
	s, err := d.Stats(context.Background())
	if err != nil {
		return metrics.Stats{}, err
	}
	d.UpdateDBMetrics()
	return metrics.Stats{
		Movies:            s.Movies,
		MediaFiles:        s.MediaFiles,
		PosterImages:      s.PosterImages,
		PlaceholderImages: s.PlaceholderImages,
	}, nil
}
