package handlers

import (
	"net/http"

	"reelshelf/internal/indexer"
)

// ScanStatusResponse reports the indexer state.
type ScanStatusResponse struct {
	Indexing bool                   `json:"indexing"`
	Progress *indexer.IndexProgress `json:"progress,omitempty"`
	LastRun  *indexer.RunResult     `json:"lastRun,omitempty"`
	Schedule string                 `json:"schedule,omitempty"`
	Watching bool                   `json:"watching"`
}

// TriggerScan starts a background scan. It answers 202 when the scan
// starts and 409 when one is already running.
func (h *Handlers) TriggerScan(w http.ResponseWriter, _ *http.Request) {
	if h.indexer == nil {
		writeJSONError(w, "indexer not running", http.StatusServiceUnavailable)
		return
	}
	if !h.indexer.TriggerIndex(indexer.TriggerManual) {
		writeJSONError(w, indexer.ErrIndexInProgress.Error(), http.StatusConflict)
		return
	}
	writeJSONStatusCode(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// ScanStatus returns the scan in flight, if any, and the last finished run.
func (h *Handlers) ScanStatus(w http.ResponseWriter, _ *http.Request) {
	if h.indexer == nil {
		writeJSONError(w, "indexer not running", http.StatusServiceUnavailable)
		return
	}

	hs := h.indexer.GetHealthStatus()
	writeJSONStatusCode(w, http.StatusOK, ScanStatusResponse{
		Indexing: hs.Indexing,
		Progress: hs.IndexProgress,
		LastRun:  hs.LastRun,
		Schedule: hs.Schedule,
		Watching: hs.Watching,
	})
}
