package hook

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Runner executes one hook. *Executor implements it.
type Runner interface {
	Execute(ctx context.Context, h *Hook, req *Request) (*Response, error)
}

// Dispatcher delivers events to subscribed hooks on a background goroutine
// so that the frame loop never waits on a hook.
type Dispatcher struct {
	mgr    *Manager
	runner Runner
	queue  chan Request

	dropped atomic.Uint64
	ran     atomic.Uint64

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher with room for size queued events.
func NewDispatcher(mgr *Manager, runner Runner, size int) *Dispatcher {
	if size < 1 {
		size = 1
	}
	return &Dispatcher{
		mgr:    mgr,
		runner: runner,
		queue:  make(chan Request, size),
		done:   make(chan struct{}),
	}
}

// Run delivers queued events until ctx is cancelled or Close is called.
// Hooks for one event run in name order; events run in arrival order.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, req)
		}
	}
}

// Dispatch queues req and returns immediately. It reports false when the
// queue is full and the event was dropped.
func (d *Dispatcher) Dispatch(req Request) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return false
	}

	select {
	case d.queue <- req:
		return true
	default:
		d.dropped.Add(1)
		log.Printf("hook: queue full, dropping %s", req.Event)
		return false
	}
}

// Close stops accepting events and waits for Run to drain the queue.
// Run must have been started.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

// Stats returns the number of hook executions and dropped events.
func (d *Dispatcher) Stats() (ran, dropped uint64) {
	return d.ran.Load(), d.dropped.Load()
}

func (d *Dispatcher) deliver(ctx context.Context, req Request) {
	for _, h := range d.mgr.For(req.Event) {
		resp, err := d.runner.Execute(ctx, h, &req)
		d.ran.Add(1)
		if err != nil {
			log.Printf("hook: %s on %s: %v", h.Manifest.Name, req.Event, err)
			continue
		}
		if !resp.Success {
			log.Printf("hook: %s on %s reported failure: %s", h.Manifest.Name, req.Event, resp.Error)
		}
	}
}
