/*
Package filesystem wraps os.Stat and os.Open with retry logic for stale NFS
file handles (ESTALE), which show up when a library lives on a network share
and the server re-exports it mid-scan.

Only ESTALE is retried. Every other error is returned on the first attempt,
so a missing file costs a single syscall.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Metrics are reported through an Observer registered once at startup:

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "library": "/srv/movies",
	    "cache":   cacheDir,
	}))
*/
package filesystem
