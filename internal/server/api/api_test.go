package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/store"
)

// fakeTracker stands in for the running app.
type fakeTracker struct {
	mu       sync.Mutex
	settings pipeline.Settings
	snapshot pipeline.Snapshot
	enabled  bool
	session  string
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{settings: pipeline.DefaultSettings(), enabled: true, session: "sess-1"}
}

func (f *fakeTracker) Snapshot() pipeline.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeTracker) Settings() pipeline.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeTracker) Configure(s pipeline.Settings) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var notes []string
	f.settings, notes = s.Normalize(f.settings)
	return notes
}

func (f *fakeTracker) IsEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeTracker) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

func (f *fakeTracker) SessionID() string { return f.session }

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestStatusHandler(t *testing.T) {
	tr := newFakeTracker()
	tr.snapshot = pipeline.Snapshot{ModulationOn: true, LastValue: 64, HasValue: true, Frame: 12}
	h := NewStatusHandler(tr)

	t.Run("get", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/status", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var resp statusResponse
		decode(t, rec, &resp)
		if !resp.Enabled || resp.SessionID != "sess-1" {
			t.Errorf("unexpected status: %+v", resp)
		}
		if !resp.Snapshot.ModulationOn || resp.Snapshot.LastValue != 64 || resp.Snapshot.Frame != 12 {
			t.Errorf("unexpected snapshot: %+v", resp.Snapshot)
		}
	})

	t.Run("pause", func(t *testing.T) {
		rec := serve(h, http.MethodPut, "/api/status", `{"enabled": false}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if tr.IsEnabled() {
			t.Error("expected tracking to be paused")
		}
	})

	t.Run("missing enabled", func(t *testing.T) {
		rec := serve(h, http.MethodPut, "/api/status", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := serve(h, http.MethodDelete, "/api/status", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestSettingsHandler_Get(t *testing.T) {
	h := NewSettingsHandler(newFakeTracker())

	rec := serve(h, http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var raw map[string]map[string]any
	decode(t, rec, &raw)
	s := raw["settings"]
	if s["control_hand"] != "Right" {
		t.Errorf("expected control_hand Right, got %v", s["control_hand"])
	}
	if s["thumb_strategy"] != "near_palm" {
		t.Errorf("expected thumb_strategy near_palm, got %v", s["thumb_strategy"])
	}
}

func TestSettingsHandler_Put(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantNotes int
		check     func(t *testing.T, s pipeline.Settings)
	}{
		{
			name:     "partial update keeps other fields",
			body:     `{"control_hand": "Left", "gesture_strictness": 8}`,
			wantCode: http.StatusOK,
			check: func(t *testing.T, s pipeline.Settings) {
				if s.ControlHand != detector.SideLeft || s.GestureStrictness != 8 {
					t.Errorf("update not applied: %+v", s)
				}
				if s.Cooldown != 1000 {
					t.Errorf("cooldown changed to %d", s.Cooldown)
				}
			},
		},
		{
			name:      "out of range values are clamped",
			body:      `{"gesture_strictness": 14, "channel": -3}`,
			wantCode:  http.StatusOK,
			wantNotes: 2,
			check: func(t *testing.T, s pipeline.Settings) {
				if s.GestureStrictness != 10 || s.Channel != 0 {
					t.Errorf("expected clamped values, got %+v", s)
				}
			},
		},
		{
			name:     "unrecognised control hand",
			body:     `{"control_hand": "Up"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "unknown control hand keeps the previous one",
			body:      `{"control_hand": "Unknown"}`,
			wantCode:  http.StatusOK,
			wantNotes: 1,
			check: func(t *testing.T, s pipeline.Settings) {
				if s.ControlHand != detector.SideRight {
					t.Errorf("expected Right, got %v", s.ControlHand)
				}
			},
		},
		{
			name:     "unknown field",
			body:     `{"volume": 11}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad thumb strategy",
			body:     `{"thumb_strategy": "sideways"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid json",
			body:     `{`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newFakeTracker()
			h := NewSettingsHandler(tr)

			rec := serve(h, http.MethodPut, "/api/settings", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var resp settingsResponse
			decode(t, rec, &resp)
			if len(resp.Notes) != tt.wantNotes {
				t.Errorf("expected %d notes, got %v", tt.wantNotes, resp.Notes)
			}
			tt.check(t, resp.Settings)
			tt.check(t, tr.Settings())
		})
	}
}

// slowTracker widens the window between reading and writing settings.
type slowTracker struct {
	*fakeTracker
}

func (s slowTracker) Settings() pipeline.Settings {
	time.Sleep(5 * time.Millisecond)
	return s.fakeTracker.Settings()
}

func TestSettingsHandler_ConcurrentPartialUpdates(t *testing.T) {
	tr := slowTracker{newFakeTracker()}
	h := NewSettingsHandler(tr)

	bodies := []string{
		`{"gesture_strictness": 7}`,
		`{"hand_open_strictness": 3}`,
		`{"channel": 5}`,
		`{"controller": 20}`,
		`{"multi_hand": true}`,
	}
	var wg sync.WaitGroup
	for _, body := range bodies {
		wg.Add(1)
		go func(body string) {
			defer wg.Done()
			if rec := serve(h, http.MethodPut, "/api/settings", body); rec.Code != http.StatusOK {
				t.Errorf("PUT %s: status %d", body, rec.Code)
			}
		}(body)
	}
	wg.Wait()

	s := tr.fakeTracker.Settings()
	if s.GestureStrictness != 7 || s.HandOpenStrictness != 3 || s.Channel != 5 || s.Controller != 20 || !s.MultiHand {
		t.Errorf("an update was lost: %+v", s)
	}
}

func TestSessionsHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewSessionsHandler(s)

	sess := &store.Session{Source: "camera", ControlHand: "Right"}
	if err := s.Sessions().Start(sess); err != nil {
		t.Fatal(err)
	}
	base := time.Now()
	for i, state := range []string{store.StateOn, store.StateOff} {
		ev := &store.Event{SessionID: sess.ID, State: state, OccurredAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.Events().Create(ev); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("list", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/sessions", "")
		var resp listSessionsResponse
		decode(t, rec, &resp)
		if len(resp.Sessions) != 1 || resp.Sessions[0].ID != sess.ID {
			t.Errorf("unexpected sessions: %+v", resp.Sessions)
		}
		if resp.Sessions[0].EndedAt != nil {
			t.Error("expected an open session")
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/sessions/"+sess.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("events", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/sessions/"+sess.ID+"/events", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var resp listEventsResponse
		decode(t, rec, &resp)
		if len(resp.Events) != 2 || resp.Events[0].State != "on" || resp.Events[1].State != "off" {
			t.Errorf("unexpected events: %+v", resp.Events)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		for _, target := range []string{"/api/sessions/nope", "/api/sessions/nope/events"} {
			rec := serve(h, http.MethodGet, target, "")
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s: expected status %d, got %d", target, http.StatusNotFound, rec.Code)
			}
		}
	})

	t.Run("bad path", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/sessions/"+sess.ID+"/frames", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/api/sessions", "{}")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestEventsHandler(t *testing.T) {
	s := newTestStore(t)
	sess := &store.Session{Source: "demo", ControlHand: "Right"}
	if err := s.Sessions().Start(sess); err != nil {
		t.Fatal(err)
	}
	base := time.Now()
	for i := 0; i < 4; i++ {
		state := store.StateOn
		if i%2 == 1 {
			state = store.StateOff
		}
		ev := &store.Event{SessionID: sess.ID, State: state, OccurredAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.Events().Create(ev); err != nil {
			t.Fatal(err)
		}
	}

	rec := serve(NewEventsHandler(s), http.MethodGet, "/api/events?limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp listEventsResponse
	decode(t, rec, &resp)
	if len(resp.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(resp.Events))
	}
	if resp.Events[0].State != "off" {
		t.Errorf("expected newest event first, got %+v", resp.Events[0])
	}
}

func TestRecordingHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewRecordingHandler(s)

	rec := &store.Recording{Name: "warmup"}
	frames := []store.Frame{
		{Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks()}},
		{Offset: 33 * time.Millisecond},
	}
	if err := s.Recordings().Create(rec, frames); err != nil {
		t.Fatal(err)
	}

	t.Run("list", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/api/recordings", "")
		var resp listRecordingsResponse
		decode(t, w, &resp)
		if len(resp.Recordings) != 1 {
			t.Fatalf("expected 1 recording, got %d", len(resp.Recordings))
		}
		got := resp.Recordings[0]
		if got.Name != "warmup" || got.FrameCount != 2 || got.DurationMS != 33 {
			t.Errorf("unexpected recording: %+v", got)
		}
		if got.Frames != nil {
			t.Error("list should not include frames")
		}
	})

	t.Run("get with frames", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/api/recordings/"+rec.ID+"?frames=true", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		var resp recordingResponse
		decode(t, w, &resp)
		if len(resp.Frames) != 2 || len(resp.Frames[0].Hands) != 1 {
			t.Errorf("unexpected frames: %+v", resp.Frames)
		}
	})

	t.Run("delete", func(t *testing.T) {
		w := serve(h, http.MethodDelete, "/api/recordings/"+rec.ID, "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
		}
		w = serve(h, http.MethodDelete, "/api/recordings/"+rec.ID, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d on second delete, got %d", http.StatusNotFound, w.Code)
		}
		w = serve(h, http.MethodGet, "/api/recordings/"+rec.ID, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := serve(h, http.MethodPost, "/api/recordings", "{}")
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
		}
	})
}
