package geometry

// Strictness bounds.
const (
	MinStrictness Strictness = 1
	MaxStrictness Strictness = 10

	// DefaultStrictness is the mid-range setting used when nothing is configured.
	DefaultStrictness Strictness = 5
)

// Strictness is the 1..10 knob that tightens classifier thresholds.
// 1 is the most lenient setting, 10 the strictest.
type Strictness int

// Clamp returns s limited to [MinStrictness, MaxStrictness].
func (s Strictness) Clamp() Strictness {
	if s < MinStrictness {
		return MinStrictness
	}
	if s > MaxStrictness {
		return MaxStrictness
	}
	return s
}

// Factor maps the strictness onto [0,1]: (s-1)/9.
func (s Strictness) Factor() float64 {
	c := s.Clamp()
	return float64(c-MinStrictness) / float64(MaxStrictness-MinStrictness)
}

// Lerp interpolates between the lenient endpoint (strictness 1) and the
// strict endpoint (strictness 10).
func (s Strictness) Lerp(lenient, strict float64) float64 {
	return lenient + (strict-lenient)*s.Factor()
}

// Range is a threshold expressed as its lenient and strict endpoints.
type Range struct {
	Lenient float64
	Strict  float64
}

// At returns the threshold for the given strictness.
func (r Range) At(s Strictness) float64 {
	return s.Lerp(r.Lenient, r.Strict)
}

// Thresholds used by the finger predicates. Angles are in degrees, distances
// in normalized image units.
var (
	// ExtensionMargin is how far a fingertip must sit above its PIP joint:
	// 0.005 + 0.015*(s-1).
	ExtensionMargin = Range{Lenient: 0.005, Strict: 0.14}

	// CurlAngle is the joint angle below which a finger counts as curled.
	CurlAngle = Range{Lenient: 100, Strict: 70}

	// CurlRatio is the tip-to-wrist over MCP-to-wrist ratio below which a
	// finger counts as curled.
	CurlRatio = Range{Lenient: 0.8, Strict: 0.5}
)
