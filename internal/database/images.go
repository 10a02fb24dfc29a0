package database

import (
	"context"
	"database/sql"
	"fmt"
)

// AddImage stores img as the movie's image of that kind, replacing any
// previous one, and sets img.ID.
func (d *Database) AddImage(ctx context.Context, img *Image) (int64, error) {
	err := d.withTx(ctx, "add_image", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO image (movie_id, kind, path, width, height, src) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(movie_id, kind) DO UPDATE SET
				path = excluded.path,
				width = excluded.width,
				height = excluded.height,
				src = excluded.src`,
			img.MovieID, img.Kind, img.Path,
			nullInt(int64(img.Width)), nullInt(int64(img.Height)), nullString(img.Src),
		)
		if err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			"SELECT id FROM image WHERE movie_id = ? AND kind = ?", img.MovieID, img.Kind,
		).Scan(&img.ID)
	})
	if err != nil {
		return 0, fmt.Errorf("add %s image for movie %d: %w", img.Kind, img.MovieID, err)
	}
	return img.ID, nil
}

// ImagesForMovie returns the movie's images, optionally filtered by kind.
func (d *Database) ImagesForMovie(ctx context.Context, movieID int64, kind string) ([]Image, error) {
	query := "SELECT id, movie_id, kind, path, width, height, src FROM image WHERE movie_id = ?"
	args := []any{movieID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY id"

	var images []Image
	err := d.read(ctx, "images_for_movie", func(ctx context.Context) error {
		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			img, err := scanImage(rows)
			if err != nil {
				return err
			}
			images = append(images, img)
		}
		return rows.Err()
	})
	return images, err
}

func scanImage(row rowScanner) (Image, error) {
	var (
		img           Image
		width, height sql.NullInt64
		src           sql.NullString
	)
	if err := row.Scan(&img.ID, &img.MovieID, &img.Kind, &img.Path, &width, &height, &src); err != nil {
		return Image{}, err
	}
	img.Width = int(width.Int64)
	img.Height = int(height.Int64)
	img.Src = src.String
	return img, nil
}

// PosterRecords lists every poster with the runtime of its movie and the
// oldest fingerprinted media file, if any.
func (d *Database) PosterRecords(ctx context.Context) ([]PosterRecord, error) {
	var records []PosterRecord
	err := d.read(ctx, "poster_records", func(ctx context.Context) error {
		rows, err := d.db.QueryContext(ctx, `
		SELECT i.id, i.movie_id, i.kind, i.path, i.width, i.height, i.src,
			m.runtime_sec, f.path, f.fingerprint
		FROM image i
		JOIN movie m ON m.id = i.movie_id
		LEFT JOIN media_file f ON f.id = (
			SELECT id FROM media_file
			WHERE movie_id = i.movie_id AND fingerprint IS NOT NULL
			ORDER BY id LIMIT 1
		)
		WHERE i.kind = ?
		ORDER BY i.movie_id`, ImageKindPoster)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				r             PosterRecord
				width, height sql.NullInt64
				src           sql.NullString
				runtime       sql.NullInt64
				path, fp      sql.NullString
			)
			if err := rows.Scan(&r.Image.ID, &r.Image.MovieID, &r.Image.Kind, &r.Image.Path,
				&width, &height, &src, &runtime, &path, &fp); err != nil {
				return err
			}
			r.Image.Width = int(width.Int64)
			r.Image.Height = int(height.Int64)
			r.Image.Src = src.String
			r.RuntimeSec = int(runtime.Int64)
			r.MediaPath = path.String
			r.Fingerprint = fp.String
			records = append(records, r)
		}
		return rows.Err()
	})
	return records, err
}
