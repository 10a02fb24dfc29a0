// Package config loads the reelshelf TOML configuration, fills in defaults,
// and applies environment overrides.
//
// The file lives at <data>/config.toml unless REELSHELF_CONFIG or an explicit
// path says otherwise. The data directory also holds the catalog
// (db.sqlite3), the artifact cache (cache/) and logs (logs/).
package config
