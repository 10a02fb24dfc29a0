// Package database is the SQLite catalog of titles, the media files that
// back them, derived images, and play state.
//
// A writable handle holds an exclusive file lock on "<catalog>.lock" for its
// lifetime, so only one process writes a catalog at a time. Within the
// process, writes are serialized by a mutex while reads run concurrently.
// The schema is versioned through the schema_version table and migrated on
// open.
//
// Title search uses an FTS5 index when the SQLite build supports it and
// falls back to substring matching otherwise. Both paths return the same set
// of movie ids.
package database
