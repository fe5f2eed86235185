// Package toggle implements the two-state modulation switch driven by
// confirmed gesture edges.
package toggle

import "time"

// DefaultCooldown is the minimum spacing between two accepted toggles.
const DefaultCooldown = 1000 * time.Millisecond

// State is the switch position.
type State bool

const (
	Off State = false
	On  State = true
)

func (s State) String() string {
	if s {
		return "on"
	}
	return "off"
}

// Event describes one accepted toggle.
type Event struct {
	From State
	To   State
	At   time.Time
}

// Controller is a two-state machine that starts Off. The only way to change
// state is Confirm, which honours the cooldown.
type Controller struct {
	cooldown   time.Duration
	state      State
	lastToggle time.Time
}

// New creates a Controller in the Off state.
func New(cooldown time.Duration) *Controller {
	if cooldown < 0 {
		cooldown = 0
	}
	return &Controller{cooldown: cooldown}
}

// Confirm handles a confirmed gesture edge at now. It flips the state and
// returns the event, unless the previous toggle is younger than the cooldown,
// in which case the edge is ignored.
func (c *Controller) Confirm(now time.Time) (Event, bool) {
	if !c.lastToggle.IsZero() && now.Sub(c.lastToggle) < c.cooldown {
		return Event{}, false
	}

	ev := Event{From: c.state, To: !c.state, At: now}
	c.state = ev.To
	c.lastToggle = now
	return ev, true
}

// State returns the current position.
func (c *Controller) State() State {
	return c.state
}

// LastToggle returns the time of the last accepted toggle, zero if none.
func (c *Controller) LastToggle() time.Time {
	return c.lastToggle
}

// Cooldown returns the configured cooldown.
func (c *Controller) Cooldown() time.Duration {
	return c.cooldown
}

// SetCooldown changes the cooldown for subsequent edges.
func (c *Controller) SetCooldown(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.cooldown = d
}
