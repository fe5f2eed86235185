package midi

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultMinInterval is the minimum spacing between two emissions on the
// same controller.
const DefaultMinInterval = 10 * time.Millisecond

// ErrThrottled is returned when a send arrives inside the rate limit window.
// The value is dropped, not queued.
var ErrThrottled = errors.New("control change dropped by rate limit")

// Emitter rate-limits control changes toward an Output and tolerates a
// missing device. Each controller is limited on its own, so two hands
// driving different controllers in the same frame do not starve each other.
// It is safe for concurrent use.
type Emitter struct {
	mu          sync.Mutex
	out         Output
	channel     uint8
	minInterval time.Duration
	lastSend    map[uint8]time.Time
	missing     bool
	sent        uint64
	dropped     uint64

	now    func() time.Time
	logger *slog.Logger
}

// NewEmitter creates an Emitter. A nil out behaves as Disconnected.
func NewEmitter(out Output, channel uint8, minInterval time.Duration) *Emitter {
	if out == nil {
		out = Disconnected{}
	}
	if channel > MaxChannel {
		channel = MaxChannel
	}
	return &Emitter{
		out:         out,
		channel:     channel,
		minInterval: minInterval,
		lastSend:    make(map[uint8]time.Time),
		now:         time.Now,
		logger:      slog.Default().With("component", "emitter"),
	}
}

// Send clamps controller and value into 0..127 and forwards them unless the
// previous emission on that controller is younger than the minimum interval. With no device the
// message is dropped, logged once per disconnect, and ErrNoDevice returned.
func (e *Emitter) Send(controller, value int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cc := Clamp(controller)
	now := e.now()
	if last, ok := e.lastSend[cc]; ok && now.Sub(last) < e.minInterval {
		e.dropped++
		return ErrThrottled
	}
	e.lastSend[cc] = now

	err := e.out.SendControlChange(e.channel, cc, Clamp(value))
	if err != nil {
		e.dropped++
		if errors.Is(err, ErrNoDevice) {
			if !e.missing {
				e.logger.Warn("output device unavailable, dropping control values", "err", err)
				e.missing = true
			}
			return ErrNoDevice
		}
		e.logger.Error("send control change", "err", err)
		return err
	}

	if e.missing {
		e.logger.Info("output device available again")
		e.missing = false
	}
	e.sent++
	return nil
}

// SetOutput swaps the device. The previous output is returned unclosed.
func (e *Emitter) SetOutput(out Output) Output {
	if out == nil {
		out = Disconnected{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.out
	e.out = out
	return prev
}

// SetChannel changes the MIDI channel (0..15).
func (e *Emitter) SetChannel(channel uint8) {
	if channel > MaxChannel {
		channel = MaxChannel
	}
	e.mu.Lock()
	e.channel = channel
	e.mu.Unlock()
}

// Stats returns the number of sent and dropped messages.
func (e *Emitter) Stats() (sent, dropped uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sent, e.dropped
}

// Close closes the current output.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out.Close()
}
