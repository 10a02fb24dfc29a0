package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reelshelf/internal/database"
	"reelshelf/internal/indexer"
	"reelshelf/internal/middleware"
)

// Handlers serves the catalog API.
type Handlers struct {
	db      *database.Database
	indexer *indexer.Indexer
}

// New creates Handlers. idx may be nil, in which case the scan endpoints
// report 503.
func New(db *database.Database, idx *indexer.Indexer) *Handlers {
	return &Handlers{
		db:      db,
		indexer: idx,
	}
}

// NewRouter registers every route on a new router with request metrics.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	api.HandleFunc("/movies", h.ListMovies).Methods(http.MethodGet)
	api.HandleFunc("/movies/search", h.SearchMovies).Methods(http.MethodGet)
	api.HandleFunc("/movies/continue", h.ContinueWatching).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}", h.GetMovie).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}/poster", h.GetPoster).Methods(http.MethodGet, http.MethodHead)

	api.HandleFunc("/scan", h.TriggerScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/status", h.ScanStatus).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "not found", http.StatusNotFound)
	})

	return r
}

// Wrap adds compression and request logging around the router. Logging is
// outermost so unmatched routes are logged too.
func Wrap(router http.Handler, logConfig middleware.LoggingConfig) http.Handler {
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(router)
	return middleware.Logger(logConfig)(handler)
}
