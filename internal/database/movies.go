package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const movieColumns = "id, canonical_title, year, sort_title, edition, runtime_sec, source, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*Movie, error) {
	var (
		m                  Movie
		year, runtime      sql.NullInt64
		sortTitle, edition sql.NullString
		source             sql.NullString
		created, updated   sql.NullString
	)
	if err := row.Scan(&m.ID, &m.CanonicalTitle, &year, &sortTitle, &edition, &runtime, &source, &created, &updated); err != nil {
		return nil, err
	}
	m.Year = int(year.Int64)
	m.SortTitle = sortTitle.String
	m.Edition = edition.String
	m.RuntimeSec = int(runtime.Int64)
	m.Source = source.String
	m.CreatedAt = parseTime(created)
	m.UpdatedAt = parseTime(updated)
	return &m, nil
}

// AddMovie inserts m and sets m.ID.
func (d *Database) AddMovie(ctx context.Context, m *Movie) (int64, error) {
	if strings.TrimSpace(m.CanonicalTitle) == "" {
		return 0, fmt.Errorf("add movie: empty title")
	}
	err := d.withTx(ctx, "add_movie", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO movie (canonical_title, year, sort_title, edition, runtime_sec, source)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.CanonicalTitle, nullInt(int64(m.Year)), nullString(m.SortTitle),
			nullString(m.Edition), nullInt(int64(m.RuntimeSec)), nullString(m.Source),
		)
		if err != nil {
			return err
		}
		m.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add movie %q: %w", m.CanonicalTitle, err)
	}
	return m.ID, nil
}

// GetMovie returns the movie with id or ErrNotFound.
func (d *Database) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	var m *Movie
	err := d.read(ctx, "get_movie", func(ctx context.Context) error {
		var err error
		m, err = scanMovie(d.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movie WHERE id = ?", id))
		return err
	})
	return m, err
}

// FindMovieByTitleYear looks a movie up by exact title and year. A zero year
// matches only movies without a year.
func (d *Database) FindMovieByTitleYear(ctx context.Context, title string, year int) (*Movie, error) {
	var m *Movie
	err := d.read(ctx, "find_movie", func(ctx context.Context) error {
		var row *sql.Row
		if year == 0 {
			row = d.db.QueryRowContext(ctx,
				"SELECT "+movieColumns+" FROM movie WHERE canonical_title = ? AND year IS NULL ORDER BY id LIMIT 1", title)
		} else {
			row = d.db.QueryRowContext(ctx,
				"SELECT "+movieColumns+" FROM movie WHERE canonical_title = ? AND year = ? ORDER BY id LIMIT 1", title, year)
		}
		var err error
		m, err = scanMovie(row)
		return err
	})
	return m, err
}

// UpdateMovieTitle renames a movie. The search index follows through
// triggers.
func (d *Database) UpdateMovieTitle(ctx context.Context, id int64, title, sortTitle string) error {
	return d.withTx(ctx, "update_movie_title", func(tx *sql.Tx) error {
		return expectOne(tx.ExecContext(ctx,
			"UPDATE movie SET canonical_title = ?, sort_title = ?, updated_at = datetime('now') WHERE id = ?",
			title, nullString(sortTitle), id))
	})
}

// SetMovieRuntime records the runtime in seconds.
func (d *Database) SetMovieRuntime(ctx context.Context, id int64, runtimeSec int) error {
	return d.withTx(ctx, "set_runtime", func(tx *sql.Tx) error {
		return expectOne(tx.ExecContext(ctx,
			"UPDATE movie SET runtime_sec = ?, updated_at = datetime('now') WHERE id = ?",
			nullInt(int64(runtimeSec)), id))
	})
}

// ListMovies returns up to limit movies in the given order. A limit of zero
// or less returns all movies.
func (d *Database) ListMovies(ctx context.Context, order ListOrder, limit int) ([]Movie, error) {
	orderBy := "sort_title COLLATE NOCASE, year, id"
	switch order {
	case OrderRecent:
		orderBy = "created_at DESC, id DESC"
	case OrderYear:
		orderBy = "year IS NULL, year, sort_title COLLATE NOCASE, id"
	}

	query := "SELECT " + movieColumns + " FROM movie ORDER BY " + orderBy
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var movies []Movie
	err := d.read(ctx, "list_movies", func(ctx context.Context) error {
		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanMovie(rows)
			if err != nil {
				return err
			}
			movies = append(movies, *m)
		}
		return rows.Err()
	})
	return movies, err
}

// MoviesByIDs returns the movies for ids in the order given, skipping ids
// that do not exist.
func (d *Database) MoviesByIDs(ctx context.Context, ids []int64) ([]Movie, error) {
	movies := make([]Movie, 0, len(ids))
	for _, id := range ids {
		m, err := d.GetMovie(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		movies = append(movies, *m)
	}
	return movies, nil
}

// AllMovieIDs returns every movie id in ascending order.
func (d *Database) AllMovieIDs(ctx context.Context) ([]int64, error) {
	return d.queryIDs(ctx, "all_movie_ids", "SELECT id FROM movie ORDER BY id")
}

// MovieIDsByPathPrefix returns the distinct movies with a media file under
// the directory prefix. Backslashes are treated as separators.
func (d *Database) MovieIDsByPathPrefix(ctx context.Context, prefix string) ([]int64, error) {
	p := strings.TrimRight(strings.ReplaceAll(prefix, `\`, "/"), "/")
	pattern := escapeLike(p) + "/%"
	return d.queryIDs(ctx, "movies_by_path_prefix",
		`SELECT DISTINCT movie_id FROM media_file
		WHERE REPLACE(path, '\', '/') LIKE ? ESCAPE '!' ORDER BY movie_id`, pattern)
}

func (d *Database) queryIDs(ctx context.Context, operation, query string, args ...any) ([]int64, error) {
	var ids []int64
	err := d.read(ctx, operation, func(ctx context.Context) error {
		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	return ids, err
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// expectOne turns an update that touched no rows into ErrNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
