// Package handlers provides the HTTP API over the catalog.
//
// Routes:
//   - GET /healthz, /livez, /readyz: health probes
//   - GET /metrics: Prometheus metrics
//   - GET /api/version, /api/stats
//   - GET /api/movies?order=title|recent|year&limit=N
//   - GET /api/movies/search?q=
//   - GET /api/movies/continue
//   - GET /api/movies/{id}, /api/movies/{id}/poster
//   - POST /api/scan, GET /api/scan/status
//
// The API never modifies the catalog directly; POST /api/scan only asks the
// indexer for a rescan.
package handlers
