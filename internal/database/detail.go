package database

import (
	"context"
	"errors"
)

// MovieDetail is a movie with its files, poster and play state.
type MovieDetail struct {
	Movie
	Files     []MediaFile `json:"files"`
	Poster    *Image      `json:"poster,omitempty"`
	PlayState *PlayState  `json:"playState,omitempty"`
}

// GetMovieDetail loads a movie and everything attached to it, or returns
// ErrNotFound.
func (d *Database) GetMovieDetail(ctx context.Context, id int64) (*MovieDetail, error) {
	m, err := d.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &MovieDetail{Movie: *m}

	if detail.Files, err = d.MediaFilesForMovie(ctx, id); err != nil {
		return nil, err
	}
	if detail.Files == nil {
		detail.Files = []MediaFile{}
	}

	images, err := d.ImagesForMovie(ctx, id, ImageKindPoster)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		detail.Poster = &images[0]
	}

	st, err := d.PlayState(ctx, id)
	switch {
	case err == nil:
		detail.PlayState = st
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return detail, nil
}
