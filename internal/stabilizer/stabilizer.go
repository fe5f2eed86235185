// Package stabilizer debounces a noisy per-frame boolean into one-shot
// confirmed edges.
package stabilizer

import (
	"fmt"
	"strings"
	"time"
)

// Defaults for the two strategies.
const (
	DefaultFrames   = 10
	DefaultDuration = 200 * time.Millisecond
)

// Strategy selects how long a signal must hold before it is confirmed.
type Strategy int

const (
	// FrameCount confirms after a number of consecutive true frames.
	FrameCount Strategy = iota
	// Duration confirms once the signal has held for a span of time.
	Duration
)

func (s Strategy) String() string {
	switch s {
	case FrameCount:
		return "frames"
	case Duration:
		return "duration"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts "frames" or "duration" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frames", "frame_count", "":
		return FrameCount, nil
	case "duration", "time":
		return Duration, nil
	}
	return FrameCount, fmt.Errorf("unknown stabilizer strategy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Config holds the confirmation threshold for either strategy.
type Config struct {
	Strategy Strategy
	Frames   int
	Duration time.Duration
}

// DefaultConfig returns the frame-count strategy with a 10 frame threshold.
func DefaultConfig() Config {
	return Config{
		Strategy: FrameCount,
		Frames:   DefaultFrames,
		Duration: DefaultDuration,
	}
}

// Normalize clamps the thresholds to usable values.
func (c Config) Normalize() Config {
	if c.Frames < 1 {
		c.Frames = 1
	}
	if c.Duration < 0 {
		c.Duration = 0
	}
	return c
}

// State is the observable state of one Stabilizer. A zero SignalStart means
// the signal is not currently held.
type State struct {
	SignalCounter int
	SignalStart   time.Time
	Active        bool
}

// Stabilizer turns a per-frame signal into a single edge per sustained run.
// It is not safe for concurrent use.
type Stabilizer struct {
	config Config
	state  State
}

// New creates a Stabilizer in its zero state.
func New(config Config) *Stabilizer {
	return &Stabilizer{config: config.Normalize()}
}

// Update feeds one frame. It returns true exactly once per run of true
// signals, on the frame the threshold is reached. A false signal resets the
// counter and start time and re-arms the edge.
func (s *Stabilizer) Update(signal bool, now time.Time) bool {
	if !signal {
		s.state = State{}
		return false
	}

	s.state.SignalCounter++
	if s.state.SignalStart.IsZero() {
		s.state.SignalStart = now
	}

	if s.state.Active || !s.confirmed(now) {
		return false
	}
	s.state.Active = true
	return true
}

func (s *Stabilizer) confirmed(now time.Time) bool {
	if s.config.Strategy == Duration {
		return now.Sub(s.state.SignalStart) >= s.config.Duration
	}
	return s.state.SignalCounter >= s.config.Frames
}

// Progress reports how far the current run is toward confirmation, in [0,1].
// now is only consulted by the duration strategy.
func (s *Stabilizer) Progress(now time.Time) float64 {
	if s.state.Active {
		return 1
	}
	if s.state.SignalCounter == 0 {
		return 0
	}

	var p float64
	if s.config.Strategy == Duration {
		if s.config.Duration <= 0 {
			return 1
		}
		p = float64(now.Sub(s.state.SignalStart)) / float64(s.config.Duration)
	} else {
		p = float64(s.state.SignalCounter) / float64(s.config.Frames)
	}

	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Reset returns the stabilizer to its zero state.
func (s *Stabilizer) Reset() {
	s.state = State{}
}

// State returns a copy of the current state.
func (s *Stabilizer) State() State {
	return s.state
}

// Config returns the active configuration.
func (s *Stabilizer) Config() Config {
	return s.config
}

// SetConfig replaces the threshold. The current run is kept.
func (s *Stabilizer) SetConfig(config Config) {
	s.config = config.Normalize()
}
