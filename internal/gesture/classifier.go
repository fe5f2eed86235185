// Package gesture classifies single-frame hand poses.
package gesture

import (
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
)

// Endpoint pairs for the classifier thresholds (lenient, strict).
// Angles are in degrees; separations are normalized image units; thumb
// distances are multiples of the palm length.
var (
	IndexStraightness = geometry.Range{Lenient: 150, Strict: 180}
	TipSeparation     = geometry.Range{Lenient: 0.02, Strict: 0.05}
	ThumbStraightness = geometry.Range{Lenient: 140, Strict: 170}
	ThumbPalmRadius   = geometry.Range{Lenient: 0.9, Strict: 0.5}
	ThumbIndexOverlap = geometry.Range{Lenient: 0.6, Strict: 0.3}
)

// ThumbStrategy selects how a tucked thumb is recognised in the pointing pose.
type ThumbStrategy int

const (
	// ThumbNearPalm requires the thumb tip within a radius of the palm center.
	ThumbNearPalm ThumbStrategy = iota
	// ThumbOverIndex requires the thumb tip to overlap the index PIP joint.
	ThumbOverIndex
	// ThumbCurledByAngle applies the generic curl test to the thumb joints.
	ThumbCurledByAngle
)

var thumbStrategyNames = map[ThumbStrategy]string{
	ThumbNearPalm:      "near_palm",
	ThumbOverIndex:     "over_index",
	ThumbCurledByAngle: "curled_by_angle",
}

func (t ThumbStrategy) String() string {
	if name, ok := thumbStrategyNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ThumbStrategy(%d)", int(t))
}

// ParseThumbStrategy converts a configuration name to a ThumbStrategy.
func ParseThumbStrategy(s string) (ThumbStrategy, error) {
	for k, v := range thumbStrategyNames {
		if strings.EqualFold(v, strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return ThumbNearPalm, fmt.Errorf("unknown thumb strategy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ThumbStrategy) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ThumbStrategy) UnmarshalText(text []byte) error {
	v, err := ParseThumbStrategy(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// IsHandOpen reports whether all four fingers are extended, adjacent tips are
// spread apart and the thumb is straight.
func IsHandOpen(hand *detector.HandLandmarks, s geometry.Strictness) bool {
	for _, f := range []geometry.Finger{geometry.Index, geometry.Middle, geometry.Ring, geometry.Pinky} {
		if !geometry.IsExtended(hand, f, s) {
			return false
		}
	}

	pts := hand.Points
	minSep := TipSeparation.At(s)
	pairs := [][2]int{
		{detector.IndexTip, detector.MiddleTip},
		{detector.MiddleTip, detector.RingTip},
		{detector.RingTip, detector.PinkyTip},
	}
	for _, p := range pairs {
		if geometry.Distance(pts[p[0]], pts[p[1]], geometry.Dims2D) < minSep {
			return false
		}
	}

	thumb := geometry.Angle(pts[detector.ThumbMCP], pts[detector.ThumbIP], pts[detector.ThumbTip])
	return thumb >= ThumbStraightness.At(s)
}

// IsPointingUp reports whether the index finger points straight up while the
// other fingers are curled and the thumb is tucked per the given strategy.
func IsPointingUp(hand *detector.HandLandmarks, s geometry.Strictness, thumb ThumbStrategy) bool {
	pts := hand.Points

	pip, dip := geometry.JointAngles(hand, geometry.Index)
	minAngle := IndexStraightness.At(s)
	if pip < minAngle || dip < minAngle {
		return false
	}
	if !geometry.IsExtended(hand, geometry.Index, s) {
		return false
	}
	if pts[detector.IndexTip].Y >= pts[detector.Wrist].Y {
		return false
	}

	for _, f := range []geometry.Finger{geometry.Middle, geometry.Ring, geometry.Pinky} {
		if !geometry.IsCurled(hand, f, s) {
			return false
		}
	}

	return thumbTucked(hand, s, thumb)
}

func thumbTucked(hand *detector.HandLandmarks, s geometry.Strictness, strategy ThumbStrategy) bool {
	tip := hand.Points[detector.ThumbTip]
	palm := geometry.PalmLength(hand)

	switch strategy {
	case ThumbOverIndex:
		d := geometry.Distance(tip, hand.Points[detector.IndexPIP], geometry.Dims2D)
		return d <= ThumbIndexOverlap.At(s)*palm
	case ThumbCurledByAngle:
		return geometry.IsCurled(hand, geometry.Thumb, s)
	default:
		d := geometry.Distance(tip, geometry.PalmCenter(hand), geometry.Dims2D)
		return d <= ThumbPalmRadius.At(s)*palm
	}
}

// Result is the per-frame classification of one hand.
type Result struct {
	Open       bool
	PointingUp bool
}

// Classifier bundles the two strictness knobs and the thumb strategy.
type Classifier struct {
	GestureStrictness  geometry.Strictness
	HandOpenStrictness geometry.Strictness
	Thumb              ThumbStrategy
}

// NewClassifier returns a Classifier at default strictness with the palm thumb test.
func NewClassifier() Classifier {
	return Classifier{
		GestureStrictness:  geometry.DefaultStrictness,
		HandOpenStrictness: geometry.DefaultStrictness,
		Thumb:              ThumbNearPalm,
	}
}

// Classify validates the hand and runs both classifiers. A malformed hand
// yields a zero Result together with the validation error.
func (c Classifier) Classify(hand *detector.HandLandmarks) (Result, error) {
	if err := hand.Validate(); err != nil {
		return Result{}, err
	}
	return Result{
		Open:       IsHandOpen(hand, c.HandOpenStrictness.Clamp()),
		PointingUp: IsPointingUp(hand, c.GestureStrictness.Clamp(), c.Thumb),
	}, nil
}
