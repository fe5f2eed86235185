package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// RecordingHandler handles HTTP requests for recording resources.
type RecordingHandler struct {
	store *store.Store
}

// NewRecordingHandler creates a new RecordingHandler with the given store.
func NewRecordingHandler(s *store.Store) *RecordingHandler {
	return &RecordingHandler{store: s}
}

type recordingResponse struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Mirrored   bool          `json:"mirrored"`
	FrameCount int           `json:"frame_count"`
	DurationMS int64         `json:"duration_ms"`
	CreatedAt  string        `json:"created_at"`
	Frames     []store.Frame `json:"frames,omitempty"`
}

type listRecordingsResponse struct {
	Recordings []recordingResponse `json:"recordings"`
}

func toRecordingResponse(rec *store.Recording) recordingResponse {
	return recordingResponse{
		ID:         rec.ID,
		Name:       rec.Name,
		Mirrored:   rec.Mirrored,
		FrameCount: rec.FrameCount,
		DurationMS: rec.Duration.Milliseconds(),
		CreatedAt:  formatTime(rec.CreatedAt),
	}
}

// ServeHTTP routes /api/recordings and /api/recordings/{id}.
func (h *RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/recordings")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodDelete:
		h.delete(w, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RecordingHandler) list(w http.ResponseWriter) {
	recs, err := h.store.Recordings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}

	resp := listRecordingsResponse{Recordings: make([]recordingResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Recordings = append(resp.Recordings, toRecordingResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// get returns one recording. With ?frames=true the landmark frames are included.
func (h *RecordingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.Recordings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recording not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get recording")
		return
	}

	resp := toRecordingResponse(rec)
	if r.URL.Query().Get("frames") == "true" {
		frames, err := h.store.Recordings().Frames(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load frames")
			return
		}
		resp.Frames = frames
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RecordingHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Recordings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recording not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete recording")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
