// Package metrics provides Prometheus instrumentation for reelshelf.
//
// All metrics are prefixed with "reelshelf_" and registered through promauto
// at package initialization, so importing the package is enough to expose
// them on the /metrics endpoint served by the API.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Catalog Metrics
//
//   - DBQueryTotal / DBQueryDuration: per-operation query accounting
//   - DBTransactionDuration: commit and rollback latency
//   - CatalogMovies, CatalogMediaFiles, CatalogImages: refreshed by Collector
//
// ## Scan Metrics
//
//   - ScanRunsTotal by trigger, ScanIsRunning, ScanLastRun*
//   - ReconcileOutcomes: new_title, existing_title, rename, duplicate
//   - ScannerWorkers, ScannerFilesFound, ScannerStatFailures
//
// ## Poster Metrics
//
//   - PosterStrategyTotal / PosterStrategyDuration per fallback strategy
//   - PosterCandidateScores: distribution of frame scores
//   - PosterCacheHits, PosterValidationTotal
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer implemented in observer.go so
// that the filesystem package does not import this one.
//
// # Usage
//
//	metrics.InitializeMetrics()
//	http.Handle("/metrics", promhttp.Handler())
package metrics
