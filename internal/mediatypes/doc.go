// Package mediatypes holds the dependency-free file classification rules
// shared by the scanner, the watcher and the HTTP layer.
//
// # Extension Detection
//
//	if mediatypes.IsVideo(filepath.Ext(name)) {
//	    // indexed container
//	}
//
// # Pruning
//
// IsPrunedDir and IsSkippedFile encode the directory and file exclusions
// applied before any caller-supplied ignore rule: hidden entries, extras and
// sample folders, sample.* files, and operating-system artifacts such as
// Thumbs.db.
package mediatypes
