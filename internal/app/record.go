package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/store"
)

// Record captures observations from the source for duration and stores them
// under name. Frames still run through the pipeline so the live view keeps
// updating, but no session is journaled. Record must not be called while Run
// is active.
func (a *App) Record(ctx context.Context, name string, duration time.Duration) (*store.Recording, error) {
	if a.config.Store == nil {
		return nil, errors.New("recording requires a store")
	}
	if name == "" {
		return nil, errors.New("recording name is empty")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("invalid recording duration %v", duration)
	}
	if _, err := a.config.Store.Recordings().GetByName(name); err == nil {
		return nil, fmt.Errorf("recording %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil, errors.New("app is already running")
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if err := a.source.Open(); err != nil {
		return nil, err
	}
	defer func() {
		if err := a.source.Close(); err != nil {
			log.Printf("Error closing frame source: %v", err)
		}
	}()

	recCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	var (
		frames []store.Frame
		first  time.Time
	)
	log.Printf("Recording %q for %v", name, duration)
	err := a.loop(recCtx, func(obs pipeline.FrameObservation) {
		if first.IsZero() {
			first = obs.Timestamp
		}
		frames = append(frames, store.Frame{
			Sequence: len(frames),
			Offset:   obs.Timestamp.Sub(first),
			Hands:    obs.Hands,
		})
	})
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(frames) == 0 {
		return nil, errors.New("no frames captured")
	}

	rec := &store.Recording{Name: name, Mirrored: a.pipeline.Settings().Mirrored}
	if err := a.config.Store.Recordings().Create(rec, frames); err != nil {
		return nil, fmt.Errorf("save recording: %w", err)
	}
	log.Printf("Recorded %q: %d frames over %v", name, rec.FrameCount, rec.Duration)
	return rec, nil
}
