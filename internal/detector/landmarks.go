// Package detector provides hand detection interfaces and landmark types.
package detector

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

var (
	// ErrTooFewLandmarks is returned when a hand has fewer than NumLandmarks points.
	ErrTooFewLandmarks = errors.New("too few landmarks")
	// ErrInvalidCoordinate is returned when a landmark coordinate is NaN or infinite.
	ErrInvalidCoordinate = errors.New("invalid landmark coordinate")
)

// Side identifies which hand an observation belongs to.
// SideUnknown means the pose estimator did not supply a label.
type Side int

const (
	SideUnknown Side = iota
	SideLeft
	SideRight
)

// ParseSide converts a handedness label ("Left", "right", ...) to a Side.
// Anything unrecognised maps to SideUnknown.
func ParseSide(label string) Side {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "left", "l":
		return SideLeft
	case "right", "r":
		return SideRight
	default:
		return SideUnknown
	}
}

// Opposite returns the other hand. SideUnknown stays unknown.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideUnknown
	}
}

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text and
// "Unknown" decode to SideUnknown; any other unrecognised label is an error.
func (s *Side) UnmarshalText(text []byte) error {
	label := strings.TrimSpace(string(text))
	side := ParseSide(label)
	if side == SideUnknown && label != "" && !strings.EqualFold(label, "unknown") {
		return fmt.Errorf("unknown hand side %q (want Left or Right)", label)
	}
	*s = side
	return nil
}

// Point3D represents a normalized landmark position.
// X and Y are in [0,1] image coordinates with Y growing downward; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Valid reports whether all coordinates are finite numbers.
func (p Point3D) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsNaN(p.Z) &&
		!math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) && !math.IsInf(p.Z, 0)
}

// HandLandmarks is one hand as reported by the pose estimator.
// A well-formed hand has exactly NumLandmarks points.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left", "Right" or empty
	Score      float64   `json:"score"`
}

// Side returns the parsed handedness label.
func (h *HandLandmarks) Side() Side {
	if h == nil {
		return SideUnknown
	}
	return ParseSide(h.Handedness)
}

// Validate checks the landmark count and that every coordinate is finite.
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hand", ErrTooFewLandmarks)
	}
	if len(h.Points) < NumLandmarks {
		return fmt.Errorf("%w: got %d, want %d", ErrTooFewLandmarks, len(h.Points), NumLandmarks)
	}
	for i, p := range h.Points[:NumLandmarks] {
		if !p.Valid() {
			return fmt.Errorf("%w at index %d", ErrInvalidCoordinate, i)
		}
	}
	return nil
}

// Clone returns a deep copy of the hand.
func (h HandLandmarks) Clone() HandLandmarks {
	pts := make([]Point3D, len(h.Points))
	copy(pts, h.Points)
	h.Points = pts
	return h
}
