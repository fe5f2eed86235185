package pipeline

import (
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/midi"
	"github.com/ayusman/mudra/internal/modulation"
	"github.com/ayusman/mudra/internal/stabilizer"
	"github.com/ayusman/mudra/internal/toggle"
)

// Settings holds every knob that can change while frames are flowing.
type Settings struct {
	GestureStrictness  geometry.Strictness   `json:"gesture_strictness"`
	HandOpenStrictness geometry.Strictness   `json:"hand_open_strictness"`
	Thumb              gesture.ThumbStrategy `json:"thumb_strategy"`

	Modulation modulation.Config `json:"modulation"`

	// ControlHand drives toggling and modulation. In MultiHand mode the
	// other hand also modulates, emitting on SecondaryController.
	ControlHand detector.Side `json:"control_hand"`
	MultiHand   bool          `json:"multi_hand"`

	Stabilizer      stabilizer.Strategy `json:"stabilizer"`
	ConfirmFrames   int                 `json:"confirm_frames"`
	ConfirmDuration Millis              `json:"confirm_duration_ms"`
	Cooldown        Millis              `json:"cooldown_ms"`

	Channel             int `json:"channel"`
	Controller          int `json:"controller"`
	SecondaryController int `json:"secondary_controller"`

	// Mirrored means frames were flipped horizontally before pose estimation.
	Mirrored bool `json:"mirrored"`
}

// Millis is a duration that serializes as whole milliseconds.
type Millis int64

// Duration converts to time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// DefaultSettings returns the defaults for every knob.
func DefaultSettings() Settings {
	return Settings{
		GestureStrictness:   geometry.DefaultStrictness,
		HandOpenStrictness:  geometry.DefaultStrictness,
		Thumb:               gesture.ThumbNearPalm,
		Modulation:          modulation.DefaultConfig(),
		ControlHand:         detector.SideRight,
		Stabilizer:          stabilizer.FrameCount,
		ConfirmFrames:       stabilizer.DefaultFrames,
		ConfirmDuration:     Millis(stabilizer.DefaultDuration / time.Millisecond),
		Cooldown:            Millis(toggle.DefaultCooldown / time.Millisecond),
		Channel:             0,
		Controller:          midi.DefaultController,
		SecondaryController: midi.DefaultController + 1,
	}
}

// Normalize clamps s into valid ranges. Fields that cannot be repaired by
// clamping take their value from prev. The notes describe each adjustment.
func (s Settings) Normalize(prev Settings) (Settings, []string) {
	var notes []string
	note := func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	if c := s.GestureStrictness.Clamp(); c != s.GestureStrictness {
		note("gesture strictness %d clamped to %d", s.GestureStrictness, c)
		s.GestureStrictness = c
	}
	if c := s.HandOpenStrictness.Clamp(); c != s.HandOpenStrictness {
		note("hand-open strictness %d clamped to %d", s.HandOpenStrictness, c)
		s.HandOpenStrictness = c
	}

	switch s.Thumb {
	case gesture.ThumbNearPalm, gesture.ThumbOverIndex, gesture.ThumbCurledByAngle:
	default:
		note("unknown thumb strategy, keeping %v", prev.Thumb)
		s.Thumb = prev.Thumb
	}

	var modNotes []string
	s.Modulation, modNotes = s.Modulation.Normalize(prev.Modulation)
	notes = append(notes, modNotes...)

	if s.ControlHand != detector.SideLeft && s.ControlHand != detector.SideRight {
		note("control hand must be Left or Right, keeping %v", prev.ControlHand)
		s.ControlHand = prev.ControlHand
	}

	if s.Stabilizer != stabilizer.FrameCount && s.Stabilizer != stabilizer.Duration {
		note("unknown stabilizer strategy, keeping %v", prev.Stabilizer)
		s.Stabilizer = prev.Stabilizer
	}
	if s.ConfirmFrames < 1 {
		note("confirm frames %d raised to 1", s.ConfirmFrames)
		s.ConfirmFrames = 1
	}
	if s.ConfirmDuration < 0 {
		note("confirm duration %dms raised to 0", s.ConfirmDuration)
		s.ConfirmDuration = 0
	}
	if s.Cooldown < 0 {
		note("cooldown %dms raised to 0", s.Cooldown)
		s.Cooldown = 0
	}

	s.Channel = clampInt(s.Channel, 0, midi.MaxChannel, "channel", note)
	s.Controller = clampInt(s.Controller, 0, midi.MaxData, "controller", note)
	s.SecondaryController = clampInt(s.SecondaryController, 0, midi.MaxData, "secondary controller", note)

	return s, notes
}

func clampInt(v, lo, hi int, name string, note func(string, ...any)) int {
	if v < lo {
		note("%s %d clamped to %d", name, v, lo)
		return lo
	}
	if v > hi {
		note("%s %d clamped to %d", name, v, hi)
		return hi
	}
	return v
}

// StabilizerConfig builds the stabilizer configuration.
func (s Settings) StabilizerConfig() stabilizer.Config {
	return stabilizer.Config{
		Strategy: s.Stabilizer,
		Frames:   s.ConfirmFrames,
		Duration: s.ConfirmDuration.Duration(),
	}
}

// Classifier builds the gesture classifier.
func (s Settings) Classifier() gesture.Classifier {
	return gesture.Classifier{
		GestureStrictness:  s.GestureStrictness,
		HandOpenStrictness: s.HandOpenStrictness,
		Thumb:              s.Thumb,
	}
}

// drives reports whether frames from side feed a mapper and emit values.
func (s Settings) drives(side detector.Side) bool {
	return s.MultiHand || side == s.ControlHand
}

func (s Settings) controllerFor(side detector.Side) int {
	if s.MultiHand && side != s.ControlHand {
		return s.SecondaryController
	}
	return s.Controller
}
