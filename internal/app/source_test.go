package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

func testFrames() []store.Frame {
	return []store.Frame{
		{Sequence: 0, Offset: 0, Hands: []detector.HandLandmarks{detector.FistLandmarks()}},
		{Sequence: 1, Offset: 40 * time.Millisecond},
		{Sequence: 2, Offset: 80 * time.Millisecond, Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks()}},
	}
}

func TestReplaySource_Retimes(t *testing.T) {
	src := NewReplaySource(testFrames(), ReplayOptions{})
	src.now = func() time.Time { return t0 }
	if err := src.Open(); err != nil {
		t.Fatal(err)
	}

	want := []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond}
	for i, off := range want {
		obs, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() %d error = %v", i, err)
		}
		if !obs.Timestamp.Equal(t0.Add(off)) {
			t.Errorf("frame %d at %v, want %v", i, obs.Timestamp, t0.Add(off))
		}
	}

	if _, err := src.Next(context.Background()); !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted, got %v", err)
	}
}

func TestReplaySource_Loop(t *testing.T) {
	src := NewReplaySource(testFrames(), ReplayOptions{Loop: true})
	src.now = func() time.Time { return t0 }

	var last time.Time
	for i := 0; i < 7; i++ {
		obs, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() %d error = %v", i, err)
		}
		if i > 0 && !obs.Timestamp.After(last) {
			t.Fatalf("frame %d at %v is not after %v", i, obs.Timestamp, last)
		}
		last = obs.Timestamp
	}

	// Two full passes of 80ms plus a 40ms gap each, then the first frame.
	if want := t0.Add(240 * time.Millisecond); !last.Equal(want) {
		t.Errorf("seventh frame at %v, want %v", last, want)
	}
}

func TestReplaySource_DoesNotShareHands(t *testing.T) {
	frames := testFrames()
	src := NewReplaySource(frames, ReplayOptions{})

	obs, err := src.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	obs.Hands[0].Points[0].X = 42
	if frames[0].Hands[0].Points[0].X == 42 {
		t.Error("replayed hands alias the stored frames")
	}
}

func TestReplaySource_Realtime(t *testing.T) {
	src := NewReplaySource(testFrames(), ReplayOptions{Realtime: true})
	src.now = func() time.Time { return t0 }

	var waits []time.Duration
	src.waitFor = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	for i := 0; i < 3; i++ {
		if _, err := src.Next(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	want := []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src = NewReplaySource(testFrames(), ReplayOptions{Realtime: true})
	src.Next(ctx)
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReplaySource_Empty(t *testing.T) {
	src := NewReplaySource(nil, ReplayOptions{Loop: true})
	if _, err := src.Next(context.Background()); !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted, got %v", err)
	}
}

func TestCameraSource(t *testing.T) {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, false)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	src := NewCameraSource(cam, det)
	src.now = func() time.Time { return t0 }

	if _, err := src.Next(context.Background()); err == nil {
		t.Error("expected an error before Open")
	}
	if err := src.Open(); err != nil {
		t.Fatal(err)
	}

	obs, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(obs.Hands) != 1 || !obs.Timestamp.Equal(t0) {
		t.Errorf("unexpected observation: %d hands at %v", len(obs.Hands), obs.Timestamp)
	}

	if _, err := src.Next(context.Background()); !errors.Is(err, capture.ErrEndOfFrames) {
		t.Errorf("expected ErrEndOfFrames, got %v", err)
	}

	det.SetError(errors.New("estimator crashed"))
	cam.Reset()
	if _, err := src.Next(context.Background()); err == nil {
		t.Error("expected the detector error")
	}

	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDemoSource(t *testing.T) {
	src := NewDemoSource()
	if err := src.Open(); err != nil {
		t.Fatal(err)
	}

	seen := false
	for i := 0; i < 60; i++ {
		obs, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if len(obs.Hands) > 0 {
			seen = true
		}
	}
	if !seen {
		t.Error("expected the demo script to show a hand within 60 frames")
	}
}
