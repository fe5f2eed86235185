package pipeline

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/modulation"
	"github.com/ayusman/mudra/internal/stabilizer"
	"github.com/ayusman/mudra/internal/toggle"
)

// Emitter receives control values. midi.Emitter satisfies it.
type Emitter interface {
	Send(controller, value int) error
	SetChannel(channel uint8)
}

// Pipeline owns all per-hand state and runs one frame at a time.
//
// Process and Stop are serialized. Configure, Settings, Snapshot and OnToggle
// may be called from other goroutines; configuration changes are picked up
// at the start of the next frame.
type Pipeline struct {
	frameMu sync.Mutex

	settings   Settings
	classifier gesture.Classifier
	stab       *stabilizer.Bank
	toggle     *toggle.Controller
	mappers    map[detector.Side]*modulation.Mapper
	emitter    Emitter
	fps        FPSMeter
	frames     uint64
	lastValue  int
	hasValue   bool

	mu        sync.Mutex
	accepted  Settings
	pending   bool
	snapshot  Snapshot
	listeners []func(toggle.Event)

	now    func() time.Time
	logger *slog.Logger
}

// New creates a Pipeline. settings are normalized against the defaults.
// A nil emitter discards values.
func New(settings Settings, emitter Emitter) *Pipeline {
	s, notes := settings.Normalize(DefaultSettings())

	p := &Pipeline{
		settings:   s,
		classifier: s.Classifier(),
		stab:       stabilizer.NewBank(s.StabilizerConfig()),
		toggle:     toggle.New(s.Cooldown.Duration()),
		mappers:    make(map[detector.Side]*modulation.Mapper),
		emitter:    emitter,
		accepted:   s,
		now:        time.Now,
		logger:     slog.Default().With("component", "pipeline"),
	}
	if emitter != nil {
		emitter.SetChannel(uint8(s.Channel))
	}
	for _, n := range notes {
		p.logger.Warn("settings adjusted", "note", n)
	}
	return p
}

// Configure validates s against the most recently accepted settings and
// queues it for the next frame. It returns a note for every adjusted field.
func (p *Pipeline) Configure(s Settings) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	normalized, notes := s.Normalize(p.accepted)
	p.accepted = normalized
	p.pending = true
	for _, n := range notes {
		p.logger.Info("settings adjusted", "note", n)
	}
	return notes
}

// Settings returns the most recently accepted settings, which may not be
// active until the next frame.
func (p *Pipeline) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accepted
}

// OnToggle registers a listener called from the frame goroutine for every
// accepted toggle. Listeners must not call Process or Stop.
func (p *Pipeline) OnToggle(fn func(toggle.Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Snapshot returns the view of the last processed frame.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// Stop resets every stabilizer entry so no partial run survives into the
// next tracking session. Toggle state, cooldown and smoothing history are kept.
func (p *Pipeline) Stop() {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	p.stab.ResetAll()

	p.mu.Lock()
	p.snapshot.Left = HandStatus{Value: p.snapshot.Left.Value, HasValue: p.snapshot.Left.HasValue}
	p.snapshot.Right = HandStatus{Value: p.snapshot.Right.Value, HasValue: p.snapshot.Right.HasValue}
	p.snapshot.Progress = 0
	p.mu.Unlock()
}

// Process runs one frame to completion and returns its snapshot. It never
// panics: a fault inside the frame is logged and the frame counts as having
// no gesture.
func (p *Pipeline) Process(frame FrameObservation) (snap Snapshot) {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()

	ts := frame.Timestamp
	if ts.IsZero() {
		ts = p.now()
	}

	var events []toggle.Event
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("frame fault", "frame", p.frames, "panic", fmt.Sprint(r))
			p.stab.ResetAll()
			snap = p.baseSnapshot(ts)
		}
		p.publish(snap, events)
	}()

	p.applyPending()
	p.frames++
	p.fps.Tick(ts)

	snap = p.baseSnapshot(ts)
	sides := ResolveSides(frame.Hands, p.settings.Mirrored)

	for _, side := range []detector.Side{detector.SideLeft, detector.SideRight} {
		obs := sides[slot(side)]
		status := p.handStatus(snap, side)

		if obs == nil {
			p.stab.Absent(side)
			status.Detected = false
			status.Open, status.PointingUp, status.Progress = false, false, 0
			p.setStatus(&snap, side, status)
			continue
		}

		res, err := p.classifier.Classify(&obs.Hand)
		if err != nil {
			p.logger.Warn("malformed hand", "side", side, "err", err)
		}
		status.Detected = true
		status.Open = res.Open
		status.PointingUp = res.PointingUp

		// Only the control hand toggles, even in multi-hand mode.
		if side == p.settings.ControlHand {
			if p.stab.Observe(side, res.PointingUp, ts) {
				if ev, ok := p.toggle.Confirm(ts); ok {
					p.logger.Info("modulation toggled", "side", side, "state", ev.To)
					events = append(events, ev)
				}
			}
			status.Progress = p.stab.Progress(side, ts)
		} else {
			status.Progress = 0
		}

		if p.settings.drives(side) && p.toggle.State() == toggle.On && res.Open && err == nil {
			v := p.mapper(side).Update(&obs.Hand)
			status.Value, status.HasValue = v, true
			p.lastValue, p.hasValue = v, true
			p.emit(p.settings.controllerFor(side), v)
		}

		p.setStatus(&snap, side, status)
	}

	snap.ModulationOn = p.toggle.State() == toggle.On
	snap.LastValue, snap.HasValue = p.lastValue, p.hasValue
	snap.Progress = p.controlProgress(snap)
	return snap
}

func (p *Pipeline) applyPending() {
	p.mu.Lock()
	if !p.pending {
		p.mu.Unlock()
		return
	}
	next := p.accepted
	p.pending = false
	p.mu.Unlock()

	prev := p.settings
	p.settings = next
	p.classifier = next.Classifier()
	p.stab.SetConfig(next.StabilizerConfig())
	p.toggle.SetCooldown(next.Cooldown.Duration())
	for _, m := range p.mappers {
		m.SetConfig(next.Modulation)
	}
	if p.emitter != nil && next.Channel != prev.Channel {
		p.emitter.SetChannel(uint8(next.Channel))
	}

	if next.ControlHand != prev.ControlHand || next.MultiHand != prev.MultiHand {
		p.logger.Info("control hand changed, clearing history",
			"control_hand", next.ControlHand, "multi_hand", next.MultiHand)
		p.stab.ResetAll()
		for _, m := range p.mappers {
			m.Reset()
		}
	}
}

func (p *Pipeline) mapper(side detector.Side) *modulation.Mapper {
	m, ok := p.mappers[side]
	if !ok {
		m = modulation.NewMapper(p.settings.Modulation)
		p.mappers[side] = m
	}
	return m
}

func (p *Pipeline) emit(controller, value int) {
	if p.emitter == nil {
		return
	}
	// Drops and missing devices are handled and logged by the emitter.
	_ = p.emitter.Send(controller, value)
}

// baseSnapshot carries the per-side values forward with no hands detected.
func (p *Pipeline) baseSnapshot(ts time.Time) Snapshot {
	p.mu.Lock()
	prev := p.snapshot
	p.mu.Unlock()

	return Snapshot{
		Left:         HandStatus{Value: prev.Left.Value, HasValue: prev.Left.HasValue},
		Right:        HandStatus{Value: prev.Right.Value, HasValue: prev.Right.HasValue},
		ModulationOn: p.toggle.State() == toggle.On,
		LastValue:    p.lastValue,
		HasValue:     p.hasValue,
		FPS:          p.fps.FPS(),
		Frame:        p.frames,
		Timestamp:    ts,
	}
}

func (p *Pipeline) controlProgress(snap Snapshot) float64 {
	return p.handStatus(snap, p.settings.ControlHand).Progress
}

func (p *Pipeline) handStatus(snap Snapshot, side detector.Side) HandStatus {
	if side == detector.SideLeft {
		return snap.Left
	}
	return snap.Right
}

func (p *Pipeline) setStatus(snap *Snapshot, side detector.Side, st HandStatus) {
	if side == detector.SideLeft {
		snap.Left = st
	} else {
		snap.Right = st
	}
}

func (p *Pipeline) publish(snap Snapshot, events []toggle.Event) {
	p.mu.Lock()
	p.snapshot = snap
	listeners := p.listeners
	p.mu.Unlock()

	for _, ev := range events {
		for _, fn := range listeners {
			p.notify(fn, ev)
		}
	}
}

func (p *Pipeline) notify(fn func(toggle.Event), ev toggle.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("toggle listener fault", "panic", fmt.Sprint(r))
		}
	}()
	fn(ev)
}
