package database

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"

	"reelshelf/internal/logging"
)

// SchemaVersion is the schema version written by this build.
const SchemaVersion = 3

type migration struct {
	version     int
	description string
	apply       func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{1, "core tables", migrateCoreTables},
	{2, "media file probe columns", migrateProbeColumns},
	{3, "image dimensions, provenance and uniqueness", migrateImageColumns},
}

// migrate brings the schema to SchemaVersion in one transaction, then
// ensures the search index when wanted.
func (d *Database) migrate(ctx context.Context, wantFTS bool) error {
	err := d.withTx(ctx, "migrate", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
			return fmt.Errorf("create schema_version: %w", err)
		}

		var version int
		err := tx.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (0)"); err != nil {
				return fmt.Errorf("seed schema_version: %w", err)
			}
		case err != nil:
			return fmt.Errorf("read schema_version: %w", err)
		}

		if version > SchemaVersion {
			return fmt.Errorf("catalog schema version %d is newer than supported version %d", version, SchemaVersion)
		}

		for _, m := range migrations {
			if m.version <= version {
				continue
			}
			logging.Info("Migrating catalog to version %d: %s", m.version, m.description)
			if err := m.apply(ctx, tx); err != nil {
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
			if _, err := tx.ExecContext(ctx, "UPDATE schema_version SET version = ?", m.version); err != nil {
				return fmt.Errorf("record migration %d: %w", m.version, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if wantFTS {
		return d.ensureSearchIndex(ctx)
	}
	return nil
}

// Version returns the catalog's schema version.
func (d *Database) Version(ctx context.Context) (int, error) {
	var v int
	err := d.read(ctx, "schema_version", func(ctx context.Context) error {
		return d.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	})
	return v, err
}

func migrateCoreTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS movie (
		id INTEGER PRIMARY KEY,
		canonical_title TEXT NOT NULL,
		year INTEGER,
		sort_title TEXT,
		edition TEXT,
		runtime_sec INTEGER,
		source TEXT,
		created_at TEXT DEFAULT (datetime('now')),
		updated_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_movie_title_year ON movie(canonical_title, year);
	CREATE INDEX IF NOT EXISTS idx_movie_sort_title ON movie(sort_title COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS media_file (
		id INTEGER PRIMARY KEY,
		movie_id INTEGER NOT NULL REFERENCES movie(id) ON DELETE CASCADE,
		path TEXT NOT NULL UNIQUE,
		size_bytes INTEGER NOT NULL,
		mtime_ns INTEGER NOT NULL,
		inode INTEGER,
		device INTEGER,
		fingerprint TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_media_file_fingerprint ON media_file(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_media_file_movie ON media_file(movie_id);

	CREATE TABLE IF NOT EXISTS image (
		id INTEGER PRIMARY KEY,
		movie_id INTEGER NOT NULL REFERENCES movie(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		path TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS play_state (
		movie_id INTEGER PRIMARY KEY REFERENCES movie(id) ON DELETE CASCADE,
		position_sec INTEGER NOT NULL DEFAULT 0,
		watched INTEGER NOT NULL DEFAULT 0
	);
	`)
	return err
}

func migrateProbeColumns(ctx context.Context, tx *sql.Tx) error {
	return addColumns(ctx, tx, "media_file", map[string]string{
		"video_codec":    "TEXT",
		"width":          "INTEGER",
		"height":         "INTEGER",
		"audio_channels": "INTEGER",
	})
}

func migrateImageColumns(ctx context.Context, tx *sql.Tx) error {
	if err := addColumns(ctx, tx, "image", map[string]string{
		"width":  "INTEGER",
		"height": "INTEGER",
		"src":    "TEXT",
	}); err != nil {
		return err
	}

	// Keep the lowest id per (movie_id, kind) so the unique index can be built.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM image WHERE id NOT IN (SELECT MIN(id) FROM image GROUP BY movie_id, kind)",
	); err != nil {
		return fmt.Errorf("deduplicate images: %w", err)
	}
	_, err := tx.ExecContext(ctx, "CREATE UNIQUE INDEX IF NOT EXISTS idx_image_unique ON image(movie_id, kind)")
	return err
}

// addColumns adds each missing column, so a partially applied migration can
// be re-run.
func addColumns(ctx context.Context, tx *sql.Tx, table string, columns map[string]string) error {
	existing := map[string]bool{}
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		existing[name] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, name := range sortedKeys(columns) {
		if existing[name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, name, columns[name])
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add %s.%s: %w", table, name, err)
		}
	}
	return nil
}

// ensureSearchIndex creates the FTS5 index and its triggers when the SQLite
// build supports FTS5. It is a no-op when the index already exists.
func (d *Database) ensureSearchIndex(ctx context.Context) error {
	if d.tableExists(ctx, "movie_fts") {
		return nil
	}

	return d.withTx(ctx, "ensure_fts", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "CREATE VIRTUAL TABLE temp.fts_probe USING fts5(x)"); err != nil {
			logging.Info("FTS5 unavailable, title search will use substring matching: %v", err)
			return nil
		}
		if _, err := tx.ExecContext(ctx, "DROP TABLE temp.fts_probe"); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
		CREATE VIRTUAL TABLE movie_fts USING fts5(
			canonical_title,
			content='movie',
			content_rowid='id',
			tokenize='unicode61 remove_diacritics 0'
		);

		CREATE TRIGGER IF NOT EXISTS movie_ai AFTER INSERT ON movie BEGIN
			INSERT INTO movie_fts(rowid, canonical_title) VALUES (new.id, new.canonical_title);
		END;

		CREATE TRIGGER IF NOT EXISTS movie_ad AFTER DELETE ON movie BEGIN
			INSERT INTO movie_fts(movie_fts, rowid, canonical_title) VALUES('delete', old.id, old.canonical_title);
		END;

		CREATE TRIGGER IF NOT EXISTS movie_au AFTER UPDATE OF canonical_title ON movie BEGIN
			INSERT INTO movie_fts(movie_fts, rowid, canonical_title) VALUES('delete', old.id, old.canonical_title);
			INSERT INTO movie_fts(rowid, canonical_title) VALUES (new.id, new.canonical_title);
		END;

		INSERT INTO movie_fts(movie_fts) VALUES('rebuild');
		`)
		if err != nil {
			return fmt.Errorf("create search index: %w", err)
		}
		logging.Info("Created FTS5 title index")
		return nil
	})
}

// RebuildSearchIndex rebuilds the FTS5 index from the movie table.
func (d *Database) RebuildSearchIndex(ctx context.Context) error {
	if !d.fts {
		return nil
	}
	return d.withTx(ctx, "rebuild_fts", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO movie_fts(movie_fts) VALUES('rebuild')")
		return err
	})
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
