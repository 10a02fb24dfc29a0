package database

import (
	"context"
	"database/sql"
	"fmt"
)

const mediaFileColumns = "id, movie_id, path, size_bytes, mtime_ns, inode, device, fingerprint, video_codec, width, height, audio_channels"

func scanMediaFile(row rowScanner) (*MediaFile, error) {
	var (
		f                      MediaFile
		inode, device          sql.NullInt64
		fingerprint, codec     sql.NullString
		width, height, channel sql.NullInt64
	)
	if err := row.Scan(&f.ID, &f.MovieID, &f.Path, &f.SizeBytes, &f.MtimeNS,
		&inode, &device, &fingerprint, &codec, &width, &height, &channel); err != nil {
		return nil, err
	}
	f.Inode = uint64(inode.Int64)
	f.Device = uint64(device.Int64)
	f.Fingerprint = fingerprint.String
	f.VideoCodec = codec.String
	f.Width = int(width.Int64)
	f.Height = int(height.Int64)
	f.AudioChannels = int(channel.Int64)
	return &f, nil
}

func (d *Database) queryMediaFiles(ctx context.Context, operation, where string, args ...any) ([]MediaFile, error) {
	var files []MediaFile
	err := d.read(ctx, operation, func(ctx context.Context) error {
		rows, err := d.db.QueryContext(ctx, "SELECT "+mediaFileColumns+" FROM media_file WHERE "+where+" ORDER BY id", args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			f, err := scanMediaFile(rows)
			if err != nil {
				return err
			}
			files = append(files, *f)
		}
		return rows.Err()
	})
	return files, err
}

// GetMediaFileByPath returns the media file at path or ErrNotFound.
func (d *Database) GetMediaFileByPath(ctx context.Context, path string) (*MediaFile, error) {
	var f *MediaFile
	err := d.read(ctx, "get_media_file", func(ctx context.Context) error {
		var err error
		f, err = scanMediaFile(d.db.QueryRowContext(ctx, "SELECT "+mediaFileColumns+" FROM media_file WHERE path = ?", path))
		return err
	})
	return f, err
}

// MediaFilesByFingerprint returns all files sharing a fingerprint, oldest
// first.
func (d *Database) MediaFilesByFingerprint(ctx context.Context, fingerprint string) ([]MediaFile, error) {
	if fingerprint == "" {
		return nil, nil
	}
	return d.queryMediaFiles(ctx, "media_files_by_fingerprint", "fingerprint = ?", fingerprint)
}

// MediaFilesForMovie returns the files backing a movie, oldest first.
func (d *Database) MediaFilesForMovie(ctx context.Context, movieID int64) ([]MediaFile, error) {
	return d.queryMediaFiles(ctx, "media_files_for_movie", "movie_id = ?", movieID)
}

// UpsertMediaFile inserts f or, when a row with the same path exists,
// updates its movie, stats and fingerprint. It sets f.ID and reports whether
// a new row was created.
func (d *Database) UpsertMediaFile(ctx context.Context, f *MediaFile) (bool, error) {
	isNew := false
	err := d.withTx(ctx, "upsert_media_file", func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM media_file WHERE path = ?", f.Path).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			res, err := tx.ExecContext(ctx,
				`INSERT INTO media_file (movie_id, path, size_bytes, mtime_ns, inode, device, fingerprint)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				f.MovieID, f.Path, f.SizeBytes, f.MtimeNS,
				nullInt(int64(f.Inode)), nullInt(int64(f.Device)), nullString(f.Fingerprint),
			)
			if err != nil {
				return err
			}
			f.ID, err = res.LastInsertId()
			isNew = true
			return err
		case err != nil:
			return err
		}

		f.ID = id
		_, err = tx.ExecContext(ctx,
			`UPDATE media_file SET movie_id = ?, size_bytes = ?, mtime_ns = ?, inode = ?, device = ?, fingerprint = ?
			WHERE id = ?`,
			f.MovieID, f.SizeBytes, f.MtimeNS,
			nullInt(int64(f.Inode)), nullInt(int64(f.Device)), nullString(f.Fingerprint), id,
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("upsert media file %s: %w", f.Path, err)
	}
	return isNew, nil
}

// UpdateMediaFilePathAndStats moves an existing row to f.Path and refreshes
// its stats and fingerprint. The movie link is unchanged. A stale row
// already recorded at f.Path is dropped in the same transaction, since the
// file now there is the one being moved.
func (d *Database) UpdateMediaFilePathAndStats(ctx context.Context, f *MediaFile) error {
	err := d.withTx(ctx, "update_media_file_path", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM media_file WHERE path = ? AND id != ?", f.Path, f.ID); err != nil {
			return err
		}
		return expectOne(tx.ExecContext(ctx,
			`UPDATE media_file SET path = ?, size_bytes = ?, mtime_ns = ?, inode = ?, device = ?, fingerprint = ?
			WHERE id = ?`,
			f.Path, f.SizeBytes, f.MtimeNS,
			nullInt(int64(f.Inode)), nullInt(int64(f.Device)), nullString(f.Fingerprint), f.ID,
		))
	})
	if err != nil {
		return fmt.Errorf("move media file %d to %s: %w", f.ID, f.Path, err)
	}
	return nil
}

// UpdateMediaFileMetadata stores probe results for a file.
func (d *Database) UpdateMediaFileMetadata(ctx context.Context, id int64, codec string, width, height, channels int) error {
	return d.withTx(ctx, "update_media_metadata", func(tx *sql.Tx) error {
		return expectOne(tx.ExecContext(ctx,
			"UPDATE media_file SET video_codec = ?, width = ?, height = ?, audio_channels = ? WHERE id = ?",
			nullString(codec), nullInt(int64(width)), nullInt(int64(height)), nullInt(int64(channels)), id,
		))
	})
}

// RelinkMediaFileByPath points the row recorded at oldPath to newPath. It
// reports false when no row exists at oldPath.
func (d *Database) RelinkMediaFileByPath(ctx context.Context, oldPath, newPath string) (bool, error) {
	found := false
	err := d.withTx(ctx, "relink", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE media_file SET path = ? WHERE path = ?", newPath, oldPath)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("relink %s: %w", oldPath, err)
	}
	return found, nil
}
