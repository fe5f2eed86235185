package store

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

func TestSessionRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &Session{Source: "camera", ControlHand: "Right", StartedAt: start}
	if err := repo.Start(first); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected ID to be generated")
	}

	second := &Session{Source: "replay", ControlHand: "Left", MultiHand: true, StartedAt: start.Add(time.Hour)}
	if err := repo.Start(second); err != nil {
		t.Fatalf("Start: %v", err)
	}

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(second.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Source != "replay" || got.ControlHand != "Left" || !got.MultiHand {
			t.Errorf("unexpected session: %+v", got)
		}
		if !got.StartedAt.Equal(second.StartedAt) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, second.StartedAt)
		}
		if got.EndedAt != nil {
			t.Error("new session should be open")
		}
	})

	t.Run("End", func(t *testing.T) {
		end := start.Add(30 * time.Minute)
		if err := repo.End(first.ID, end); err != nil {
			t.Fatalf("End: %v", err)
		}
		got, err := repo.GetByID(first.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.EndedAt == nil || !got.EndedAt.Equal(end) {
			t.Errorf("EndedAt = %v, want %v", got.EndedAt, end)
		}
	})

	t.Run("List newest first", func(t *testing.T) {
		all, err := repo.List(0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 2 || all[0].ID != second.ID {
			t.Fatalf("expected newest session first, got %+v", all)
		}

		one, err := repo.List(1)
		if err != nil {
			t.Fatalf("List(1): %v", err)
		}
		if len(one) != 1 {
			t.Errorf("expected 1 session, got %d", len(one))
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := repo.End("missing", time.Now()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEventRepository(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sessA := &Session{Source: "camera", ControlHand: "Right", StartedAt: base}
	sessB := &Session{Source: "camera", ControlHand: "Right", StartedAt: base.Add(time.Hour)}
	for _, sess := range []*Session{sessA, sessB} {
		if err := s.Sessions().Start(sess); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}

	repo := s.Events()
	events := []*Event{
		{SessionID: sessA.ID, State: StateOn, OccurredAt: base.Add(1 * time.Second)},
		{SessionID: sessA.ID, State: StateOff, OccurredAt: base.Add(5 * time.Second)},
		{SessionID: sessB.ID, State: StateOn, OccurredAt: base.Add(time.Hour + time.Second)},
	}
	for _, e := range events {
		if err := repo.Create(e); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if e.ID == "" {
			t.Fatal("expected ID to be generated")
		}
	}

	t.Run("ListBySession in order", func(t *testing.T) {
		got, err := repo.ListBySession(sessA.ID)
		if err != nil {
			t.Fatalf("ListBySession: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d", len(got))
		}
		if got[0].State != StateOn || got[1].State != StateOff {
			t.Errorf("expected on then off, got %s then %s", got[0].State, got[1].State)
		}
	})

	t.Run("ListRecent newest first", func(t *testing.T) {
		got, err := repo.ListRecent(2)
		if err != nil {
			t.Fatalf("ListRecent: %v", err)
		}
		if len(got) != 2 || got[0].SessionID != sessB.ID {
			t.Errorf("expected session B event first, got %+v", got)
		}
	})

	t.Run("invalid state rejected", func(t *testing.T) {
		if err := repo.Create(&Event{SessionID: sessA.ID, State: "maybe"}); err == nil {
			t.Error("expected error for invalid state")
		}
	})

	t.Run("unknown session rejected", func(t *testing.T) {
		if err := repo.Create(&Event{SessionID: "missing", State: StateOn}); err == nil {
			t.Error("expected foreign key violation")
		}
	})
}

func TestRecordingRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Recordings()

	frames := []Frame{
		{Offset: 0, Hands: nil},
		{Offset: 33 * time.Millisecond, Hands: []detector.HandLandmarks{detector.PointingUpLandmarks()}},
		{Offset: 66 * time.Millisecond, Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks(), detector.FistLandmarks()}},
	}

	rec := &Recording{Name: "wave", Mirrored: true}
	if err := repo.Create(rec, frames); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" || rec.FrameCount != 3 || rec.Duration != 66*time.Millisecond {
		t.Fatalf("unexpected recording after create: %+v", rec)
	}

	t.Run("GetByName", func(t *testing.T) {
		got, err := repo.GetByName("wave")
		if err != nil {
			t.Fatalf("GetByName: %v", err)
		}
		if got.ID != rec.ID || !got.Mirrored || got.FrameCount != 3 || got.Duration != 66*time.Millisecond {
			t.Errorf("unexpected recording: %+v", got)
		}
	})

	t.Run("Frames round trip", func(t *testing.T) {
		got, err := repo.Frames(rec.ID)
		if err != nil {
			t.Fatalf("Frames: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 frames, got %d", len(got))
		}
		if len(got[0].Hands) != 0 {
			t.Errorf("frame 0: expected no hands, got %d", len(got[0].Hands))
		}
		if len(got[2].Hands) != 2 || got[2].Offset != 66*time.Millisecond {
			t.Errorf("frame 2: unexpected %+v", got[2])
		}
		tip := got[1].Hands[0].Points[detector.IndexTip]
		want := detector.PointingUpLandmarks().Points[detector.IndexTip]
		if tip != want {
			t.Errorf("index tip = %+v, want %+v", tip, want)
		}
		if got[1].Hands[0].Handedness != "Right" {
			t.Errorf("handedness lost: %q", got[1].Hands[0].Handedness)
		}
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		if err := repo.Create(&Recording{Name: "wave"}, nil); err == nil {
			t.Error("expected unique constraint violation")
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		if err := repo.Create(&Recording{}, nil); err == nil {
			t.Error("expected error for empty name")
		}
	})

	t.Run("List", func(t *testing.T) {
		all, err := repo.List()
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 recording, got %d", len(all))
		}
	})

	t.Run("Delete cascades", func(t *testing.T) {
		if err := repo.Delete(rec.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.GetByID(rec.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		var n int
		if err := s.DB().QueryRow(`SELECT COUNT(*) FROM recording_frames`).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("expected frames removed, %d left", n)
		}
		if err := repo.Delete(rec.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}
