// Package scanner enumerates video files under the configured library roots.
//
// A scan has two phases. The walk is sequential per root and prunes hidden,
// extras and sample directories before descending; it keeps only files with
// an indexed video extension that match no ignore rule. The stat phase then
// runs on a bounded worker pool (or inline when Workers <= 1) using
// filesystem.StatWithRetry, so stale NFS handles are retried. A file whose
// stat still fails is logged and skipped instead of aborting the scan.
package scanner
