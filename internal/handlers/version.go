package handlers

import (
	"net/http"

	"reelshelf/internal/startup"
)

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, http.StatusOK, startup.GetBuildInfo())
}

// GetStats returns catalog counts.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.Stats(r.Context())
	if err != nil {
		writeJSONError(w, "failed to read catalog stats", http.StatusInternalServerError)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, stats)
}
