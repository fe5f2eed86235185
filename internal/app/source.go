package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/store"
)

// ErrSourceExhausted is returned by a source that has no more frames.
var ErrSourceExhausted = errors.New("frame source exhausted")

// FrameSource produces one pose-estimator result per call.
type FrameSource interface {
	// Open prepares the source. It is called once before the first Next.
	Open() error

	// Next returns the next observation. A source error is treated like
	// losing the hands for that tick.
	Next(ctx context.Context) (pipeline.FrameObservation, error)

	// Close releases the source.
	Close() error
}

// CameraSource reads frames from a camera and runs them through a detector.
type CameraSource struct {
	camera   capture.Camera
	detector detector.Detector
	now      func() time.Time
}

// NewCameraSource creates a source from a camera and a detector.
func NewCameraSource(camera capture.Camera, det detector.Detector) *CameraSource {
	return &CameraSource{camera: camera, detector: det, now: time.Now}
}

func (s *CameraSource) Open() error {
	return s.camera.Open()
}

func (s *CameraSource) Next(ctx context.Context) (pipeline.FrameObservation, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.FrameObservation{}, err
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		return pipeline.FrameObservation{}, fmt.Errorf("read frame: %w", err)
	}
	ts := s.now()

	hands, err := s.detector.Detect(frame)
	frame.Close()
	if err != nil {
		return pipeline.FrameObservation{}, fmt.Errorf("detect hands: %w", err)
	}
	return pipeline.FrameObservation{Hands: hands, Timestamp: ts}, nil
}

func (s *CameraSource) Close() error {
	camErr := s.camera.Close()
	detErr := s.detector.Close()
	return errors.Join(camErr, detErr)
}

// DetectorSource asks a detector for hands without reading a camera. It
// drives demo mode with a scripted MockDetector.
type DetectorSource struct {
	detector detector.Detector
	now      func() time.Time
}

// NewDemoSource returns a source that loops the built-in demo script.
func NewDemoSource() *DetectorSource {
	det := detector.NewMockDetector()
	det.SetScript(detector.DemoScript())
	return NewDetectorSource(det)
}

// NewDetectorSource wraps a detector that accepts a nil frame.
func NewDetectorSource(det detector.Detector) *DetectorSource {
	return &DetectorSource{detector: det, now: time.Now}
}

func (s *DetectorSource) Open() error { return nil }

func (s *DetectorSource) Next(ctx context.Context) (pipeline.FrameObservation, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.FrameObservation{}, err
	}
	hands, err := s.detector.Detect(nil)
	if err != nil {
		return pipeline.FrameObservation{}, fmt.Errorf("detect hands: %w", err)
	}
	return pipeline.FrameObservation{Hands: hands, Timestamp: s.now()}, nil
}

func (s *DetectorSource) Close() error {
	return s.detector.Close()
}

// ReplayOptions controls how a recording is played back.
type ReplayOptions struct {
	// Loop restarts the recording after the last frame.
	Loop bool
	// Realtime makes Next wait until each frame is due. Without it frames
	// are returned as fast as they are asked for, still carrying the
	// recorded spacing in their timestamps.
	Realtime bool
}

// defaultFrameGap separates the last and first frame of a looping replay
// when the recording has a single frame.
const defaultFrameGap = time.Second / capture.DefaultFPS

// ReplaySource plays back a stored recording. Timestamps are re-based so
// the first frame is stamped with the time of the first Next call.
type ReplaySource struct {
	frames []store.Frame
	opts   ReplayOptions

	mu      sync.Mutex
	index   int
	start   time.Time
	shift   time.Duration
	now     func() time.Time
	waitFor func(ctx context.Context, d time.Duration) error
}

// NewReplaySource creates a source over frames, which must be in recorded order.
func NewReplaySource(frames []store.Frame, opts ReplayOptions) *ReplaySource {
	return &ReplaySource{
		frames:  frames,
		opts:    opts,
		now:     time.Now,
		waitFor: sleepContext,
	}
}

// LoadReplaySource reads a recording by name from st.
func LoadReplaySource(st *store.Store, name string, opts ReplayOptions) (*ReplaySource, *store.Recording, error) {
	rec, err := st.Recordings().GetByName(name)
	if err != nil {
		return nil, nil, fmt.Errorf("recording %q: %w", name, err)
	}
	frames, err := st.Recordings().Frames(rec.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load frames of %q: %w", name, err)
	}
	return NewReplaySource(frames, opts), rec, nil
}

func (s *ReplaySource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
	s.start = time.Time{}
	s.shift = 0
	return nil
}

func (s *ReplaySource) Next(ctx context.Context) (pipeline.FrameObservation, error) {
	s.mu.Lock()
	if len(s.frames) == 0 {
		s.mu.Unlock()
		return pipeline.FrameObservation{}, ErrSourceExhausted
	}
	if s.index >= len(s.frames) {
		if !s.opts.Loop {
			s.mu.Unlock()
			return pipeline.FrameObservation{}, ErrSourceExhausted
		}
		s.shift += s.frames[len(s.frames)-1].Offset + s.frameGap()
		s.index = 0
	}
	if s.start.IsZero() {
		s.start = s.now()
	}

	f := s.frames[s.index]
	s.index++
	ts := s.start.Add(s.shift + f.Offset)
	s.mu.Unlock()

	if s.opts.Realtime {
		if err := s.waitFor(ctx, ts.Sub(s.now())); err != nil {
			return pipeline.FrameObservation{}, err
		}
	}

	hands := make([]detector.HandLandmarks, len(f.Hands))
	for i, h := range f.Hands {
		hands[i] = h.Clone()
	}
	return pipeline.FrameObservation{Hands: hands, Timestamp: ts}, nil
}

func (s *ReplaySource) Close() error { return nil }

// frameGap is the average spacing between recorded frames.
func (s *ReplaySource) frameGap() time.Duration {
	n := len(s.frames)
	if n < 2 {
		return defaultFrameGap
	}
	gap := s.frames[n-1].Offset / time.Duration(n-1)
	if gap <= 0 {
		return defaultFrameGap
	}
	return gap
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
