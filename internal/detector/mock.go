package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// Step is one entry of a scripted MockDetector sequence: Hands is returned
// for Frames consecutive Detect calls.
type Step struct {
	Hands  []HandLandmarks
	Frames int
}

// MockDetector is a test implementation of the Detector interface.
// It returns fixed hands, or walks a looping script of steps.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error

	script []Step
	step   int
	served int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.script = nil
}

// SetScript replaces fixed hands with a looping sequence of steps.
func (m *MockDetector) SetScript(steps []Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = steps
	m.step = 0
	m.served = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands, the next scripted step, or the error.
// The frame is ignored and may be nil.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) == 0 {
		return cloneHands(m.hands), nil
	}

	cur := m.script[m.step]
	m.served++
	if m.served >= cur.Frames {
		m.served = 0
		m.step = (m.step + 1) % len(m.script)
	}
	return cloneHands(cur.Hands), nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

func cloneHands(hands []HandLandmarks) []HandLandmarks {
	if hands == nil {
		return nil
	}
	out := make([]HandLandmarks, len(hands))
	for i, h := range hands {
		out[i] = h.Clone()
	}
	return out
}

// DemoScript cycles through: no hand, pointing up (toggle on), open palm
// moving toward the camera, pointing up again (toggle off), a fist.
func DemoScript() []Step {
	near := OpenPalmLandmarks()
	for i := range near.Points {
		near.Points[i].Y = 0.85 - (0.85-near.Points[i].Y)*1.3
	}
	return []Step{
		{Hands: nil, Frames: 30},
		{Hands: []HandLandmarks{PointingUpLandmarks()}, Frames: 20},
		{Hands: []HandLandmarks{FistLandmarks()}, Frames: 70},
		{Hands: []HandLandmarks{OpenPalmLandmarks()}, Frames: 60},
		{Hands: []HandLandmarks{near}, Frames: 60},
		{Hands: []HandLandmarks{PointingUpLandmarks()}, Frames: 20},
		{Hands: []HandLandmarks{FistLandmarks()}, Frames: 40},
	}
}

// PointingUpLandmarks returns a right hand with the index finger straight up,
// the other fingers folded and the thumb tucked against the palm.
func PointingUpLandmarks() HandLandmarks {
	pts := make([]Point3D, NumLandmarks)

	pts[Wrist] = Point3D{X: 0.50, Y: 0.80}

	// Thumb folded across the palm
	pts[ThumbCMC] = Point3D{X: 0.42, Y: 0.76, Z: -0.01}
	pts[ThumbMCP] = Point3D{X: 0.40, Y: 0.70, Z: -0.02}
	pts[ThumbIP] = Point3D{X: 0.46, Y: 0.64, Z: -0.03}
	pts[ThumbTip] = Point3D{X: 0.47, Y: 0.70, Z: -0.03}

	// Index finger straight and vertical
	pts[IndexMCP] = Point3D{X: 0.45, Y: 0.60}
	pts[IndexPIP] = Point3D{X: 0.45, Y: 0.50}
	pts[IndexDIP] = Point3D{X: 0.45, Y: 0.43}
	pts[IndexTip] = Point3D{X: 0.45, Y: 0.36}

	// Middle, ring and pinky curled back toward the wrist
	pts[MiddleMCP] = Point3D{X: 0.50, Y: 0.60}
	pts[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: -0.04}
	pts[MiddleDIP] = Point3D{X: 0.53, Y: 0.56, Z: -0.05}
	pts[MiddleTip] = Point3D{X: 0.51, Y: 0.68, Z: -0.03}

	pts[RingMCP] = Point3D{X: 0.55, Y: 0.62}
	pts[RingPIP] = Point3D{X: 0.55, Y: 0.55, Z: -0.04}
	pts[RingDIP] = Point3D{X: 0.58, Y: 0.59, Z: -0.05}
	pts[RingTip] = Point3D{X: 0.55, Y: 0.70, Z: -0.03}

	pts[PinkyMCP] = Point3D{X: 0.60, Y: 0.65}
	pts[PinkyPIP] = Point3D{X: 0.60, Y: 0.59, Z: -0.03}
	pts[PinkyDIP] = Point3D{X: 0.63, Y: 0.63, Z: -0.04}
	pts[PinkyTip] = Point3D{X: 0.60, Y: 0.72, Z: -0.02}

	return HandLandmarks{Points: pts, Handedness: "Right", Score: 0.95}
}

// OpenPalmLandmarks returns a right hand with all five fingers extended and spread.
func OpenPalmLandmarks() HandLandmarks {
	pts := make([]Point3D, NumLandmarks)

	pts[Wrist] = Point3D{X: 0.50, Y: 0.85}

	// Thumb straight out to the side
	pts[ThumbCMC] = Point3D{X: 0.42, Y: 0.80, Z: 0.01}
	pts[ThumbMCP] = Point3D{X: 0.36, Y: 0.74, Z: 0.02}
	pts[ThumbIP] = Point3D{X: 0.31, Y: 0.69, Z: 0.02}
	pts[ThumbTip] = Point3D{X: 0.26, Y: 0.64, Z: 0.02}

	pts[IndexMCP] = Point3D{X: 0.42, Y: 0.62}
	pts[IndexPIP] = Point3D{X: 0.40, Y: 0.50}
	pts[IndexDIP] = Point3D{X: 0.39, Y: 0.42}
	pts[IndexTip] = Point3D{X: 0.38, Y: 0.34}

	pts[MiddleMCP] = Point3D{X: 0.49, Y: 0.60}
	pts[MiddlePIP] = Point3D{X: 0.49, Y: 0.47}
	pts[MiddleDIP] = Point3D{X: 0.49, Y: 0.38}
	pts[MiddleTip] = Point3D{X: 0.49, Y: 0.29}

	pts[RingMCP] = Point3D{X: 0.56, Y: 0.62}
	pts[RingPIP] = Point3D{X: 0.58, Y: 0.50}
	pts[RingDIP] = Point3D{X: 0.59, Y: 0.42}
	pts[RingTip] = Point3D{X: 0.60, Y: 0.35}

	pts[PinkyMCP] = Point3D{X: 0.62, Y: 0.66}
	pts[PinkyPIP] = Point3D{X: 0.65, Y: 0.57}
	pts[PinkyDIP] = Point3D{X: 0.67, Y: 0.50}
	pts[PinkyTip] = Point3D{X: 0.69, Y: 0.44}

	return HandLandmarks{Points: pts, Handedness: "Right", Score: 0.95}
}

// FistLandmarks returns a right hand with every finger folded.
func FistLandmarks() HandLandmarks {
	h := PointingUpLandmarks()
	pts := h.Points

	pts[IndexPIP] = Point3D{X: 0.45, Y: 0.52, Z: -0.04}
	pts[IndexDIP] = Point3D{X: 0.48, Y: 0.56, Z: -0.05}
	pts[IndexTip] = Point3D{X: 0.46, Y: 0.67, Z: -0.03}

	return h
}
