// Package app runs the frame loop that feeds hand observations into the
// modulation pipeline and fans its results out to storage, hooks and
// subscribers.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/hook"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/toggle"
)

// Config holds configuration options for the application.
type Config struct {
	Settings pipeline.Settings
	// FPS is the frame loop rate (default capture.DefaultFPS).
	FPS int
	// SourceName is recorded with each session ("camera", "demo", "replay:<name>").
	SourceName string

	// Emitter receives control values. Nil discards them.
	Emitter pipeline.Emitter
	// Store journals sessions and toggles when set.
	Store *store.Store
	// Hooks receives session and toggle events when set.
	Hooks *hook.Dispatcher
}

// App is the main application that drives a FrameSource through the pipeline.
type App struct {
	config   Config
	source   FrameSource
	pipeline *pipeline.Pipeline

	mu       sync.RWMutex
	enabled  bool
	running  bool
	session  *store.Session
	failing  bool
	subs     map[int]chan pipeline.Snapshot
	nextSub  int
	interval time.Duration
}

// New creates an App reading from source. Tracking starts enabled.
func New(config Config, source FrameSource) *App {
	fps := config.FPS
	if fps <= 0 {
		fps = capture.DefaultFPS
	}

	a := &App{
		config:   config,
		source:   source,
		pipeline: pipeline.New(config.Settings, config.Emitter),
		enabled:  true,
		subs:     make(map[int]chan pipeline.Snapshot),
		interval: time.Second / time.Duration(fps),
	}
	a.pipeline.OnToggle(a.handleToggle)
	return a
}

// SetEnabled pauses or resumes tracking. Pausing clears any partially
// confirmed gesture so it cannot complete across the pause.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed && !enabled {
		a.pipeline.Stop()
		a.publish(a.pipeline.Snapshot())
	}
	if changed {
		log.Printf("Tracking enabled: %v", enabled)
	}
}

// IsEnabled returns whether tracking is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Snapshot returns the view of the last processed frame.
func (a *App) Snapshot() pipeline.Snapshot {
	return a.pipeline.Snapshot()
}

// Settings returns the most recently accepted settings.
func (a *App) Settings() pipeline.Settings {
	return a.pipeline.Settings()
}

// Configure queues new settings for the next frame and returns a note for
// every adjusted field.
func (a *App) Configure(s pipeline.Settings) []string {
	return a.pipeline.Configure(s)
}

// SessionID returns the ID of the running session, or "" when none is journaled.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return ""
	}
	return a.session.ID
}

// Subscribe returns a channel that receives the latest snapshot after every
// frame, and a function to cancel the subscription. A slow reader only ever
// sees the most recent snapshot.
func (a *App) Subscribe() (<-chan pipeline.Snapshot, func()) {
	ch := make(chan pipeline.Snapshot, 1)

	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}

// Run opens the source and processes frames until ctx is cancelled or the
// source is exhausted. It returns nil in both cases.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("app is already running")
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if err := a.source.Open(); err != nil {
		return err
	}
	defer func() {
		if err := a.source.Close(); err != nil {
			log.Printf("Error closing frame source: %v", err)
		}
	}()

	a.startSession()
	defer a.endSession()

	log.Printf("Tracking started (source %s, %v per frame)", a.config.SourceName, a.interval)
	defer log.Println("Tracking stopped")

	return a.loop(ctx, func(pipeline.FrameObservation) {})
}

// loop ticks at the configured rate, pulling one observation per tick.
// Every processed observation is also handed to observe.
func (a *App) loop(ctx context.Context, observe func(pipeline.FrameObservation)) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			obs, err := a.source.Next(ctx)
			if err != nil {
				if errors.Is(err, ErrSourceExhausted) {
					return nil
				}
				if ctx.Err() != nil {
					return nil
				}
				a.sourceFailed(err)
				continue
			}
			a.sourceRecovered()

			observe(obs)
			a.publish(a.pipeline.Process(obs))
		}
	}
}

// sourceFailed handles a tick without an observation: the camera may have
// gone away or the estimator crashed. Partial gestures are cleared and the
// error is logged once per failure episode.
func (a *App) sourceFailed(err error) {
	a.mu.Lock()
	first := !a.failing
	a.failing = true
	a.mu.Unlock()

	if first {
		log.Printf("Frame source error, tracking paused until it recovers: %v", err)
		a.pipeline.Stop()
		a.publish(a.pipeline.Snapshot())
	}
}

func (a *App) sourceRecovered() {
	a.mu.Lock()
	was := a.failing
	a.failing = false
	a.mu.Unlock()

	if was {
		log.Println("Frame source recovered")
	}
}

func (a *App) publish(snap pipeline.Snapshot) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, ch := range a.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale snapshot the reader has not taken yet.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (a *App) handleToggle(ev toggle.Event) {
	state, name := store.StateOff, hook.EventModulationOff
	if ev.To == toggle.On {
		state, name = store.StateOn, hook.EventModulationOn
	}

	sessionID := a.SessionID()
	if a.config.Store != nil && sessionID != "" {
		err := a.config.Store.Events().Create(&store.Event{
			SessionID:  sessionID,
			State:      state,
			OccurredAt: ev.At,
		})
		if err != nil {
			log.Printf("Failed to journal toggle: %v", err)
		}
	}

	req := hook.Request{Event: name, SessionID: sessionID, Timestamp: ev.At.UnixMilli()}
	if snap := a.pipeline.Snapshot(); snap.HasValue {
		v := snap.LastValue
		req.Value = &v
	}
	a.dispatch(req)
}

func (a *App) startSession() {
	if a.config.Store != nil {
		s := a.pipeline.Settings()
		sess := &store.Session{
			Source:      a.config.SourceName,
			ControlHand: s.ControlHand.String(),
			MultiHand:   s.MultiHand,
		}
		if err := a.config.Store.Sessions().Start(sess); err != nil {
			log.Printf("Failed to start session: %v", err)
		} else {
			a.mu.Lock()
			a.session = sess
			a.mu.Unlock()
		}
	}

	a.dispatch(hook.Request{
		Event:     hook.EventSessionStart,
		SessionID: a.SessionID(),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (a *App) endSession() {
	a.pipeline.Stop()
	now := time.Now()
	id := a.SessionID()

	a.dispatch(hook.Request{Event: hook.EventSessionEnd, SessionID: id, Timestamp: now.UnixMilli()})

	if a.config.Store != nil && id != "" {
		if err := a.config.Store.Sessions().End(id, now); err != nil {
			log.Printf("Failed to end session: %v", err)
		}
	}
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
}

func (a *App) dispatch(req hook.Request) {
	if a.config.Hooks != nil {
		a.config.Hooks.Dispatch(req)
	}
}
