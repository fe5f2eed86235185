package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ayusman/mudra/internal/pipeline"
)

// SettingsHandler exposes the live pipeline settings.
type SettingsHandler struct {
	tracker Tracker

	// mu serializes updates so a partial PUT never overwrites a concurrent one.
	mu sync.Mutex
}

// NewSettingsHandler creates a new SettingsHandler for the given tracker.
func NewSettingsHandler(t Tracker) *SettingsHandler {
	return &SettingsHandler{tracker: t}
}

type settingsResponse struct {
	Settings pipeline.Settings `json:"settings"`
	// Notes lists every field that was clamped or rejected on update.
	Notes []string `json:"notes"`
}

// ServeHTTP handles GET and PUT /api/settings.
//
// PUT accepts a partial document: fields left out keep their current value.
// Out-of-range values are clamped rather than rejected and reported in notes.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, settingsResponse{Settings: h.tracker.Settings(), Notes: []string{}})
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.tracker.Settings()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings: "+err.Error())
		return
	}

	notes := h.tracker.Configure(s)
	if notes == nil {
		notes = []string{}
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: h.tracker.Settings(), Notes: notes})
}
