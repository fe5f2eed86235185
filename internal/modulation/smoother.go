package modulation

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Smoother is a bounded FIFO of control values that reports the floor of
// the mean of its contents.
type Smoother struct {
	buf   []int
	pos   int
	count int
}

// NewSmoother creates a Smoother holding up to window values (at least 1).
func NewSmoother(window int) *Smoother {
	if window < 1 {
		window = 1
	}
	return &Smoother{buf: make([]int, window)}
}

// Push appends v, evicting the oldest value when full, and returns the
// smoothed output.
func (s *Smoother) Push(v int) int {
	s.buf[s.pos] = v
	s.pos = (s.pos + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
	return s.Value()
}

// Value returns floor(mean) of the stored values, or 0 if empty.
func (s *Smoother) Value() int {
	vals := s.Values()
	if len(vals) == 0 {
		return 0
	}
	xs := make([]float64, len(vals))
	for i, v := range vals {
		xs[i] = float64(v)
	}
	return int(math.Floor(stat.Mean(xs, nil)))
}

// Values returns the stored values oldest first.
func (s *Smoother) Values() []int {
	if s.count == 0 {
		return nil
	}
	result := make([]int, s.count)
	if s.count < len(s.buf) {
		copy(result, s.buf[:s.count])
	} else {
		n := copy(result, s.buf[s.pos:])
		copy(result[n:], s.buf[:s.pos])
	}
	return result
}

// Len returns the number of stored values.
func (s *Smoother) Len() int {
	return s.count
}

// Cap returns the window size.
func (s *Smoother) Cap() int {
	return len(s.buf)
}

// Resize changes the window, keeping the newest values that still fit.
func (s *Smoother) Resize(window int) {
	if window < 1 {
		window = 1
	}
	if window == len(s.buf) {
		return
	}
	vals := s.Values()
	if len(vals) > window {
		vals = vals[len(vals)-window:]
	}
	s.buf = make([]int, window)
	copy(s.buf, vals)
	s.count = len(vals)
	s.pos = s.count % window
}

// Reset empties the FIFO.
func (s *Smoother) Reset() {
	s.pos = 0
	s.count = 0
}
