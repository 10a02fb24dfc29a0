package database

import (
	"context"
	"database/sql"
)

// PlayState returns the movie's play state or ErrNotFound.
func (d *Database) PlayState(ctx context.Context, movieID int64) (*PlayState, error) {
	st := &PlayState{MovieID: movieID}
	err := d.read(ctx, "play_state", func(ctx context.Context) error {
		var watched int
		err := d.db.QueryRowContext(ctx,
			"SELECT position_sec, watched FROM play_state WHERE movie_id = ?", movieID,
		).Scan(&st.PositionSec, &watched)
		st.Watched = watched != 0
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// SetPlayState stores st, replacing any previous state for the movie.
func (d *Database) SetPlayState(ctx context.Context, st PlayState) error {
	return d.withTx(ctx, "set_play_state", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO play_state (movie_id, position_sec, watched) VALUES (?, ?, ?)
			ON CONFLICT(movie_id) DO UPDATE SET position_sec = excluded.position_sec, watched = excluded.watched`,
			st.MovieID, max(st.PositionSec, 0), boolInt(st.Watched),
		)
		return err
	})
}

// SetWatched flags a movie as watched or unwatched, keeping its position.
func (d *Database) SetWatched(ctx context.Context, movieID int64, watched bool) error {
	return d.withTx(ctx, "set_play_state", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO play_state (movie_id, position_sec, watched) VALUES (?, 0, ?)
			ON CONFLICT(movie_id) DO UPDATE SET watched = excluded.watched`,
			movieID, boolInt(watched),
		)
		return err
	})
}

// ResetProgress clears the position and watched flag.
func (d *Database) ResetProgress(ctx context.Context, movieID int64) error {
	return d.SetPlayState(ctx, PlayState{MovieID: movieID})
}

// ContinueWatchingIDs returns unwatched movies with a saved position,
// furthest along first.
func (d *Database) ContinueWatchingIDs(ctx context.Context) ([]int64, error) {
	return d.queryIDs(ctx, "continue_watching",
		"SELECT movie_id FROM play_state WHERE watched = 0 AND position_sec > 0 ORDER BY position_sec DESC, movie_id")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
