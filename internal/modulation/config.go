// Package modulation maps a hand-distance metric onto a smoothed 0..127
// control value.
package modulation

import (
	"fmt"
	"math"
	"strings"
)

const (
	// MaxValue is the top of the control-value range.
	MaxValue = 127

	// RangeStep is the minimum gap kept between MinDistance and MaxDistance.
	RangeStep = 0.005

	DefaultMinDistance     = 0.2
	DefaultMaxDistance     = 0.6
	DefaultSmoothingWindow = 5
)

// Metric selects the raw hand-distance measure.
type Metric int

const (
	// MetricBoundingBox uses the landmark bounding-box height.
	MetricBoundingBox Metric = iota
	// MetricPalmWidth uses the index MCP to pinky MCP distance.
	MetricPalmWidth
)

func (m Metric) String() string {
	switch m {
	case MetricBoundingBox:
		return "bounding_box"
	case MetricPalmWidth:
		return "palm_width"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// ParseMetric converts a configuration name to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bounding_box", "bbox", "":
		return MetricBoundingBox, nil
	case "palm_width", "palm":
		return MetricPalmWidth, nil
	}
	return MetricBoundingBox, fmt.Errorf("unknown metric %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	v, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Config is the mapping range and smoothing setup.
type Config struct {
	MinDistance     float64 `json:"min_distance" yaml:"min_distance"`
	MaxDistance     float64 `json:"max_distance" yaml:"max_distance"`
	Reverse         bool    `json:"reverse" yaml:"reverse"`
	SmoothingWindow int     `json:"smoothing_window" yaml:"smoothing_window"`
	Metric          Metric  `json:"metric" yaml:"metric"`
}

// DefaultConfig returns the default range 0.2..0.6 with a window of 5.
func DefaultConfig() Config {
	return Config{
		MinDistance:     DefaultMinDistance,
		MaxDistance:     DefaultMaxDistance,
		SmoothingWindow: DefaultSmoothingWindow,
		Metric:          MetricBoundingBox,
	}
}

// Normalize returns c adjusted so that 0 <= MinDistance < MaxDistance <= 1
// and SmoothingWindow >= 1. prev is the last valid config: it decides which
// bound gives way when the range collapses, and supplies values for fields
// that are not numbers. The returned notes describe every adjustment.
func (c Config) Normalize(prev Config) (Config, []string) {
	var notes []string

	if c.SmoothingWindow < 1 {
		notes = append(notes, fmt.Sprintf("smoothing window %d raised to 1", c.SmoothingWindow))
		c.SmoothingWindow = 1
	}

	if c.Metric != MetricBoundingBox && c.Metric != MetricPalmWidth {
		notes = append(notes, fmt.Sprintf("unknown metric %d, keeping %v", int(c.Metric), prev.Metric))
		c.Metric = prev.Metric
	}

	if math.IsNaN(c.MinDistance) || math.IsInf(c.MinDistance, 0) {
		notes = append(notes, "min distance is not a number, keeping previous")
		c.MinDistance = prev.MinDistance
	}
	if math.IsNaN(c.MaxDistance) || math.IsInf(c.MaxDistance, 0) {
		notes = append(notes, "max distance is not a number, keeping previous")
		c.MaxDistance = prev.MaxDistance
	}

	if c.MinDistance < 0 || c.MinDistance > 1 {
		clamped := clamp(c.MinDistance, 0, 1)
		notes = append(notes, fmt.Sprintf("min distance %.3f clamped to %.3f", c.MinDistance, clamped))
		c.MinDistance = clamped
	}
	if c.MaxDistance < 0 || c.MaxDistance > 1 {
		clamped := clamp(c.MaxDistance, 0, 1)
		notes = append(notes, fmt.Sprintf("max distance %.3f clamped to %.3f", c.MaxDistance, clamped))
		c.MaxDistance = clamped
	}

	if c.MinDistance >= c.MaxDistance {
		minMoved := c.MinDistance != prev.MinDistance
		maxMoved := c.MaxDistance != prev.MaxDistance
		if minMoved && !maxMoved {
			c.MinDistance = c.MaxDistance - RangeStep
			notes = append(notes, fmt.Sprintf("min distance lowered to %.3f below max", c.MinDistance))
		} else {
			c.MaxDistance = c.MinDistance + RangeStep
			notes = append(notes, fmt.Sprintf("max distance raised to %.3f above min", c.MaxDistance))
		}

		if c.MaxDistance > 1 {
			c.MaxDistance = 1
			c.MinDistance = 1 - RangeStep
		}
		if c.MinDistance < 0 {
			c.MinDistance = 0
			c.MaxDistance = RangeStep
		}
	}

	return c, notes
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
