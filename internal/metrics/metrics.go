package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelshelf_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_db_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelshelf_db_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelshelf_db_transaction_duration_seconds",
			Help:    "Catalog transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"result"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelshelf_db_connections_open",
			Help: "Number of open catalog connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelshelf_db_size_bytes",
			Help: "Size of SQLite catalog files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Scan and reconciliation metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_scan_runs_total",
			Help: "Total number of library scans by trigger",
		},
		[]string{"trigger"}, // "startup", "schedule", "watcher", "manual", "cli"
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelshelf_scan_running",
			Help: "Whether a library scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelshelf_scan_last_run_timestamp",
			Help: "Timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelshelf_scan_last_run_duration_seconds",
			Help: "Duration of the last completed scan in seconds",
		},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelshelf_scan_errors_total",
			Help: "Total number of scans aborted by a catalog error",
		},
	)

	ReconcileOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_reconcile_outcomes_total",
			Help: "Per-file reconciliation outcomes",
		},
		[]string{"outcome"}, // "new_title", "existing_title", "rename", "duplicate"
	)

	ScannerWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelshelf_scanner_workers",
			Help: "Number of workers used by the last filesystem scan",
		},
	)

	ScannerFilesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelshelf_scanner_files_found_total",
			Help: "Total number of video files found by the scanner",
		},
	)

	ScannerStatFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelshelf_scanner_stat_failures_total",
			Help: "Total number of files skipped because stat failed",
		},
	)
)

// Fingerprint and probe metrics
var (
	FingerprintDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelshelf_fingerprint_duration_seconds",
			Help:    "Time taken to compute a partial content fingerprint",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	FingerprintErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelshelf_fingerprint_errors_total",
			Help: "Total number of fingerprint failures",
		},
	)

	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_probe_total",
			Help: "Total number of media probes by status",
		},
		[]string{"status"}, // "probed", "unavailable"
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelshelf_probe_duration_seconds",
			Help:    "Time taken by ffprobe",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Poster metrics
var (
	PosterCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelshelf_poster_cache_hits_total",
			Help: "Total number of poster requests served from the artifact cache",
		},
	)

	PosterStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_poster_strategy_total",
			Help: "Poster strategy attempts by strategy and status",
		},
		[]string{"strategy", "status"},
	)

	PosterStrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelshelf_poster_strategy_duration_seconds",
			Help:    "Time spent in each poster strategy",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	PosterCandidateScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelshelf_poster_candidate_score",
			Help:    "Distribution of poster candidate frame scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	PosterValidationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_poster_validation_total",
			Help: "Poster validation results",
		},
		[]string{"result"}, // "ok", "missing", "placeholder", "corrupt", "regenerated", "failed"
	)
)

// Catalog size metrics, refreshed by the Collector
var (
	CatalogMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelshelf_catalog_movies",
			Help: "Number of titles in the catalog",
		},
	)

	CatalogMediaFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelshelf_catalog_media_files",
			Help: "Number of media file rows in the catalog",
		},
	)

	CatalogImages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelshelf_catalog_images",
			Help: "Number of poster images in the catalog by provenance",
		},
		[]string{"src"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_watcher_events_total",
			Help: "Filesystem events seen by the watcher",
		},
		[]string{"kind"}, // "create", "remove", "write", "ignored"
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelshelf_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by volume",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_filesystem_retry_attempts_total",
			Help: "Retry attempts after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelshelf_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelshelf_filesystem_stale_errors_total",
			Help: "Stale file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)
)
