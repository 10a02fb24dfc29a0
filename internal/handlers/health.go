package handlers

import (
	"net/http"
	"runtime"
	"time"

	"reelshelf/internal/database"
	"reelshelf/internal/logging"
	"reelshelf/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status            string `json:"status"`
	Ready             bool   `json:"ready"`
	Version           string `json:"version"`
	Uptime            string `json:"uptime"`
	Indexing          bool   `json:"indexing"`
	LastIndexed       string `json:"lastIndexed,omitempty"`
	InitialIndexError string `json:"initialIndexError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	Catalog *database.Stats `json:"catalog,omitempty"`
}

// HealthCheck returns the health status of the service. It answers 503
// until the initial scan has finished.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Version:      startup.Version,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		Ready:        true,
		Status:       statusHealthy,
	}

	if h.indexer != nil {
		hs := h.indexer.GetHealthStatus()
		response.Ready = hs.Ready
		response.Uptime = hs.Uptime
		response.Indexing = hs.Indexing
		if !hs.LastIndexed.IsZero() {
			response.LastIndexed = hs.LastIndexed.Format(time.RFC3339)
		}
		if !hs.Ready {
			response.Status = statusStarting
		}
		if hs.InitialIndexError != "" {
			response.InitialIndexError = hs.InitialIndexError
			response.Status = statusDegraded
		}
	}

	if stats, err := h.db.Stats(r.Context()); err == nil {
		response.Catalog = &stats
	} else {
		logging.Warn("health check: catalog stats failed: %v", err)
		response.Status = statusDegraded
	}

	statusCode := http.StatusOK
	if !response.Ready {
		statusCode = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if r.Method != http.MethodHead {
		writeJSON(w, response)
	}
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only once the initial scan has completed
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := h.indexer == nil || h.indexer.IsReady()
	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": status})
	}
}
