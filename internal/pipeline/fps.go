package pipeline

import "time"

// FPSMeter counts frames and recomputes the rate once at least a second
// has passed.
type FPSMeter struct {
	frames int
	start  time.Time
	fps    float64
}

// Tick records a frame at now and returns the current rate.
func (m *FPSMeter) Tick(now time.Time) float64 {
	if m.start.IsZero() || now.Before(m.start) {
		m.start = now
		m.frames = 0
		return m.fps
	}
	m.frames++

	if elapsed := now.Sub(m.start); elapsed >= time.Second {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.start = now
	}
	return m.fps
}

// FPS returns the last computed rate.
func (m *FPSMeter) FPS() float64 {
	return m.fps
}
