package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/pipeline"
)

// StatusHandler reports the latest snapshot and pauses or resumes tracking.
type StatusHandler struct {
	tracker Tracker
}

// NewStatusHandler creates a new StatusHandler for the given tracker.
func NewStatusHandler(t Tracker) *StatusHandler {
	return &StatusHandler{tracker: t}
}

type statusResponse struct {
	Enabled   bool              `json:"enabled"`
	SessionID string            `json:"session_id,omitempty"`
	Snapshot  pipeline.Snapshot `json:"snapshot"`
}

type updateStatusRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.status())
	case http.MethodPut:
		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.tracker.SetEnabled(*req.Enabled)
		writeJSON(w, http.StatusOK, h.status())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StatusHandler) status() statusResponse {
	return statusResponse{
		Enabled:   h.tracker.IsEnabled(),
		SessionID: h.tracker.SessionID(),
		Snapshot:  h.tracker.Snapshot(),
	}
}
