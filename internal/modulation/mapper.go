package modulation

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
)

// Raw computes the hand-distance metric for a hand.
func Raw(hand *detector.HandLandmarks, metric Metric) float64 {
	if metric == MetricPalmWidth {
		return geometry.PalmWidth(hand)
	}
	return geometry.BoundingBoxHeight(hand)
}

// Map clamps raw into the configured range, normalizes it, applies the
// reversal and scales it to an integer in [0, MaxValue].
func Map(raw float64, cfg Config) int {
	span := cfg.MaxDistance - cfg.MinDistance
	if span <= 0 || math.IsNaN(raw) {
		return 0
	}

	clamped := clamp(raw, cfg.MinDistance, cfg.MaxDistance)
	norm := clamp((clamped-cfg.MinDistance)/span, 0, 1)
	if cfg.Reverse {
		norm = 1 - norm
	}

	v := int(math.Floor(norm * MaxValue))
	if v < 0 {
		return 0
	}
	if v > MaxValue {
		return MaxValue
	}
	return v
}

// Mapper turns successive hands into smoothed control values.
// It is not safe for concurrent use.
type Mapper struct {
	config   Config
	smoother *Smoother
	last     int
	hasLast  bool
}

// NewMapper creates a Mapper. cfg is expected to be normalized.
func NewMapper(cfg Config) *Mapper {
	return &Mapper{
		config:   cfg,
		smoother: NewSmoother(cfg.SmoothingWindow),
	}
}

// Update maps the hand, pushes the value into the FIFO and returns the
// smoothed output.
func (m *Mapper) Update(hand *detector.HandLandmarks) int {
	v := Map(Raw(hand, m.config.Metric), m.config)
	m.last = m.smoother.Push(v)
	m.hasLast = true
	return m.last
}

// Last returns the most recent smoothed value and whether one exists.
func (m *Mapper) Last() (int, bool) {
	return m.last, m.hasLast
}

// Config returns the active configuration.
func (m *Mapper) Config() Config {
	return m.config
}

// SetConfig applies a new configuration, resizing the FIFO if needed.
func (m *Mapper) SetConfig(cfg Config) {
	m.config = cfg
	m.smoother.Resize(cfg.SmoothingWindow)
}

// Reset empties the FIFO. The last value stays readable.
func (m *Mapper) Reset() {
	m.smoother.Reset()
}

// History returns the FIFO contents oldest first.
func (m *Mapper) History() []int {
	return m.smoother.Values()
}
