// Package hook runs external programs when modulation is toggled or a
// tracking session starts or ends.
package hook

import (
	"encoding/json"
	"slices"
)

// Event names sent to hooks.
const (
	EventModulationOn  = "modulation.on"
	EventModulationOff = "modulation.off"
	EventSessionStart  = "session.start"
	EventSessionEnd    = "session.end"
)

// Manifest describes a hook, read from hook.json in its directory.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Events lists the events the hook wants. Empty means every event.
	Events []string        `json:"events"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Request is written as JSON to the hook's stdin.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id,omitempty"`
	Value     *int            `json:"value,omitempty"`
	Timestamp int64           `json:"timestamp_ms"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read as JSON from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribed to event.
func (h *Hook) Handles(event string) bool {
	return len(h.Manifest.Events) == 0 || slices.Contains(h.Manifest.Events, event)
}
