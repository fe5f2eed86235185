// Package api provides HTTP API handlers for the mudra controller.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/mudra/internal/pipeline"
)

// Tracker is the running application as seen by the API.
type Tracker interface {
	Snapshot() pipeline.Snapshot
	Settings() pipeline.Settings
	Configure(s pipeline.Settings) []string
	IsEnabled() bool
	SetEnabled(enabled bool)
	SessionID() string
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// limitParam reads ?limit=, falling back to def for a missing or bad value.
func limitParam(r *http.Request, def int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
