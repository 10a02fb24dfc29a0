// Package main provides the entry point for the reelshelf command.
//
// reelshelf indexes folders of movie files into a local SQLite catalog. Each
// file is identified by a sampled content fingerprint, so moves and renames
// are followed instead of producing new titles, and every title gets a
// poster cut from a frame of the film.
//
// # Commands
//
//   - scan: walk library roots and reconcile files with the catalog
//   - list, search, show: read the catalog
//   - relink, progress: small catalog edits
//   - validate-posters: check and regenerate posters
//   - serve: read-only HTTP API with scheduled and watched rescans
//   - config: show, init, add-root, remove-root
//   - version: build information
//
// # Serve Lifecycle
//
//  1. Memory Configuration: applies memory_limit unless GOMEMLIMIT is set
//  2. Directories and Tools: data, cache and log directories are created and
//     ffmpeg/ffprobe are checked
//  3. Catalog: opens the SQLite catalog and takes the write lock
//  4. Indexer: runs the initial scan in the background and installs the
//     scan_schedule cron entry and the optional filesystem watcher
//  5. HTTP Server: routes, logging, compression and metrics middleware
//  6. Graceful Shutdown: SIGINT/SIGTERM stops the indexer at the next file
//     and drains the server
//
// # Environment Variables
//
//   - REELSHELF_CONFIG: configuration file path
//   - REELSHELF_DATA_DIR: data directory holding the catalog and cache
//   - REELSHELF_FFMPEG, REELSHELF_FFPROBE: tool paths
//   - REELSHELF_SCAN_WORKERS: scanner worker count
//   - LOG_LEVEL, DEBUG: log verbosity
//   - GOMEMLIMIT: memory limit, wins over memory_limit
package main
