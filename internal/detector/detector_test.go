package detector

import (
	"errors"
	"math"
	"testing"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		label string
		want  Side
	}{
		{"Left", SideLeft},
		{"left", SideLeft},
		{" Right ", SideRight},
		{"R", SideRight},
		{"", SideUnknown},
		{"both", SideUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParseSide(tt.label); got != tt.want {
				t.Errorf("ParseSide(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestSide_Opposite(t *testing.T) {
	if SideLeft.Opposite() != SideRight {
		t.Error("expected Left.Opposite() to be Right")
	}
	if SideRight.Opposite() != SideLeft {
		t.Error("expected Right.Opposite() to be Left")
	}
	if SideUnknown.Opposite() != SideUnknown {
		t.Error("expected Unknown.Opposite() to stay Unknown")
	}
}

func TestSide_TextRoundTrip(t *testing.T) {
	text, err := SideRight.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "Right" {
		t.Errorf("expected \"Right\", got %q", text)
	}

	var s Side
	if err := s.UnmarshalText([]byte("left")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if s != SideLeft {
		t.Errorf("expected Left, got %v", s)
	}
}

func TestSide_UnmarshalTextRejectsUnknownLabels(t *testing.T) {
	tests := []struct {
		text    string
		want    Side
		wantErr bool
	}{
		{"Right", SideRight, false},
		{"", SideUnknown, false},
		{"Unknown", SideUnknown, false},
		{"Up", SideUnknown, true},
		{"both", SideUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s := SideLeft
			err := s.UnmarshalText([]byte(tt.text))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if tt.wantErr {
				if s != SideLeft {
					t.Errorf("failed decode changed the value to %v", s)
				}
				return
			}
			if s != tt.want {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.text, s, tt.want)
			}
		})
	}
}

func TestHandLandmarks_Validate(t *testing.T) {
	t.Run("well-formed hand passes", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		if err := hand.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("nil hand", func(t *testing.T) {
		var hand *HandLandmarks
		if err := hand.Validate(); !errors.Is(err, ErrTooFewLandmarks) {
			t.Errorf("expected ErrTooFewLandmarks, got %v", err)
		}
	})

	t.Run("too few points", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		hand.Points = hand.Points[:20]
		if err := hand.Validate(); !errors.Is(err, ErrTooFewLandmarks) {
			t.Errorf("expected ErrTooFewLandmarks, got %v", err)
		}
	})

	t.Run("NaN coordinate", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		hand.Points[IndexTip].Y = math.NaN()
		if err := hand.Validate(); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("expected ErrInvalidCoordinate, got %v", err)
		}
	})

	t.Run("infinite coordinate", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		hand.Points[Wrist].Z = math.Inf(-1)
		if err := hand.Validate(); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("expected ErrInvalidCoordinate, got %v", err)
		}
	})
}

func TestHandLandmarks_Clone(t *testing.T) {
	orig := PointingUpLandmarks()
	clone := orig.Clone()

	clone.Points[IndexTip].Y = 0.99
	if orig.Points[IndexTip].Y == 0.99 {
		t.Error("expected Clone to copy points, original was modified")
	}
	if clone.Handedness != orig.Handedness || clone.Score != orig.Score {
		t.Error("expected Clone to preserve handedness and score")
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("hands with partial points are kept", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Left","score":0.8}]}`)

		hands, err := parseResponse(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if len(hands[0].Points) != 1 {
			t.Errorf("expected 1 point, got %d", len(hands[0].Points))
		}
		if hands[0].Side() != SideLeft {
			t.Errorf("expected Left, got %v", hands[0].Side())
		}
	})

	t.Run("service error is surfaced", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"hands":[],"error":"decode failed"}`))
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte("not json")); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{PointingUpLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("returned hands are copies", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{PointingUpLandmarks()})

		first, _ := mock.Detect(nil)
		first[0].Points[Wrist].X = 0.01

		second, _ := mock.Detect(nil)
		if second[0].Points[Wrist].X == 0.01 {
			t.Error("expected Detect to return independent copies")
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("walks a looping script", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetScript([]Step{
			{Hands: nil, Frames: 2},
			{Hands: []HandLandmarks{OpenPalmLandmarks()}, Frames: 1},
		})

		want := []int{0, 0, 1, 0, 0, 1}
		for i, n := range want {
			hands, err := mock.Detect(nil)
			if err != nil {
				t.Fatalf("call %d: unexpected error: %v", i, err)
			}
			if len(hands) != n {
				t.Errorf("call %d: expected %d hands, got %d", i, n, len(hands))
			}
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestPresets(t *testing.T) {
	presets := map[string]HandLandmarks{
		"pointing up": PointingUpLandmarks(),
		"open palm":   OpenPalmLandmarks(),
		"fist":        FistLandmarks(),
	}

	for name, hand := range presets {
		t.Run(name, func(t *testing.T) {
			if err := hand.Validate(); err != nil {
				t.Fatalf("preset is malformed: %v", err)
			}
			if hand.Side() != SideRight {
				t.Errorf("expected Right hand, got %v", hand.Side())
			}
		})
	}

	t.Run("pointing index tip above its PIP", func(t *testing.T) {
		h := PointingUpLandmarks()
		if h.Points[IndexTip].Y >= h.Points[IndexPIP].Y {
			t.Error("expected index tip above PIP")
		}
		if h.Points[MiddleTip].Y <= h.Points[MiddlePIP].Y {
			t.Error("expected middle tip below PIP")
		}
	})

	t.Run("fist index tip below its PIP", func(t *testing.T) {
		h := FistLandmarks()
		if h.Points[IndexTip].Y <= h.Points[IndexPIP].Y {
			t.Error("expected index tip below PIP")
		}
	})

	t.Run("open palm fingers ordered left to right", func(t *testing.T) {
		h := OpenPalmLandmarks()
		tips := []int{IndexTip, MiddleTip, RingTip, PinkyTip}
		for i := 1; i < len(tips); i++ {
			if h.Points[tips[i]].X <= h.Points[tips[i-1]].X {
				t.Errorf("tip %d not right of tip %d", tips[i], tips[i-1])
			}
		}
	})
}

func TestDemoScript(t *testing.T) {
	steps := DemoScript()
	if len(steps) == 0 {
		t.Fatal("expected non-empty script")
	}
	for i, s := range steps {
		if s.Frames <= 0 {
			t.Errorf("step %d: expected positive frame count, got %d", i, s.Frames)
		}
		for _, h := range s.Hands {
			if err := h.Validate(); err != nil {
				t.Errorf("step %d: %v", i, err)
			}
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxHands != 2 {
		t.Errorf("expected MaxHands 2, got %d", cfg.MaxHands)
	}
	if cfg.MinConfidence <= 0 || cfg.MinConfidence > 1 {
		t.Errorf("MinConfidence out of range: %f", cfg.MinConfidence)
	}
}
