package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"reelshelf/internal/logging"
	"reelshelf/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCatalogLocked is returned when another process holds the catalog
	// write lock.
	ErrCatalogLocked = errors.New("catalog is locked by another process")
	// ErrReadOnly is returned by writes on a read-only handle.
	ErrReadOnly = errors.New("catalog opened read-only")
)

// Options controls how a catalog is opened. A nil *Options means a
// writable handle with full-text search when available.
type Options struct {
	// ReadOnly skips the write lock and migrations; the catalog must exist.
	ReadOnly bool
	// DisableFTS forces substring search even when FTS5 is available.
	DisableFTS bool
}

// Database is a handle on one catalog file.
type Database struct {
	db       *sql.DB
	dbPath   string
	readOnly bool
	fts      bool
	lock     *flock.Flock
	mu       sync.RWMutex
}

// New opens the catalog at dbPath, creating and migrating it when writable.
// The parent directory is created if missing.
func New(ctx context.Context, dbPath string, opts *Options) (*Database, error) {
	if opts == nil {
		opts = &Options{}
	}
	logging.Debug("Catalog path: %s", dbPath)

	d := &Database{dbPath: dbPath, readOnly: opts.ReadOnly}

	if opts.ReadOnly {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", dbPath, err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
		if err := diagnoseDatabasePermissions(dbPath); err != nil {
			logging.Warn("Database permission diagnostics: %v", err)
		}

		d.lock = flock.New(dbPath + ".lock")
		locked, err := d.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock catalog: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s", ErrCatalogLocked, dbPath)
		}
	}

	// busy_timeout keeps readers from failing while the writer checkpoints.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)
	if opts.ReadOnly {
		connStr += "&_query_only=true"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		d.unlock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	d.db = db

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		d.closeOnError("ping")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if !opts.ReadOnly {
		if err := d.migrate(ctx, !opts.DisableFTS); err != nil {
			d.closeOnError("migration")
			return nil, fmt.Errorf("failed to initialize database schema: %w", err)
		}
	}

	if !opts.DisableFTS {
		d.fts = d.tableExists(ctx, "movie_fts")
	}

	logging.Info("Catalog opened at %s (fts: %v, read-only: %v)", dbPath, d.fts, d.readOnly)
	return d, nil
}

func (d *Database) closeOnError(stage string) {
	if closeErr := d.db.Close(); closeErr != nil {
		logging.Error("failed to close database after %s failure: %v", stage, closeErr)
	}
	d.unlock()
}

func (d *Database) unlock() {
	if d.lock == nil {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		logging.Warn("Failed to release catalog lock: %v", err)
	}
	// The lock file stays on disk so every process locks the same inode.
	d.lock = nil
}

// Close closes the database connection and releases the write lock.
func (d *Database) Close() error {
	err := d.db.Close()
	d.unlock()
	return err
}

// Path returns the catalog file path.
func (d *Database) Path() string {
	return d.dbPath
}

// FTSEnabled reports whether title search uses the FTS5 index.
func (d *Database) FTSEnabled() bool {
	return d.fts
}

// ReadOnly reports whether the handle rejects writes.
func (d *Database) ReadOnly() bool {
	return d.readOnly
}

func (d *Database) tableExists(ctx context.Context, name string) bool {
	var n int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", name,
	).Scan(&n)
	return err == nil && n > 0
}

// withTx runs fn in a transaction under the write lock. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (d *Database) withTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() { recordQuery(operation, start, err) }()

	if d.readOnly {
		return ErrReadOnly
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	return endTx(tx, start, fn(tx))
}

// endTx commits or rolls back a transaction.
func endTx(tx *sql.Tx, start time.Time, err error) error {
	duration := time.Since(start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// read runs fn under the read lock with the default timeout.
func (d *Database) read(ctx context.Context, operation string, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	defer func() { recordQuery(operation, start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = fn(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return err
}

// recordQuery records database query metrics. ErrNotFound counts as success.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection and size metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))

	var total int64
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if info, err := os.Stat(d.dbPath + suffix); err == nil {
			total += info.Size()
		}
	}
	metrics.DBSizeBytes.Set(float64(total))
}

// Nullable column helpers. Zero values are stored as NULL.

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

const sqliteTimeLayout = "2006-01-02 15:04:05"

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.ParseInLocation(sqliteTimeLayout, s.String, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		logging.Debug("Catalog file exists: %s (mode: %v, size: %d bytes)", p, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only! Mode: %v - this will cause write failures", p, info.Mode())
			if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
				logging.Error("Failed to fix permissions on %s: %v", p, chmodErr)
			} else {
				logging.Info("Fixed permissions on %s", p)
			}
		}
	}

	return nil
}
