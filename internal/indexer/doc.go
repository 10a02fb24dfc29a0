// Package indexer keeps the catalog in step with the library roots.
//
// Reconciler.ScanAndIndex is one pass: the scanner lists video files, and
// each file in turn is parsed into a title and year, fingerprinted, attached
// to a title, upserted, probed, and given a poster. A file resolves to a
// title in this order:
//   - a cataloged file with the same fingerprint: a rename when it is the
//     only match and its old path is gone, otherwise a duplicate
//   - an existing title with the same canonical title and year
//   - a new title
//
// Indexer runs those passes in the background, at startup, on a cron
// schedule, when the optional filesystem watcher sees a change, and on
// demand. Only one pass runs at a time, and Stop cancels a running pass
// between files.
package indexer
