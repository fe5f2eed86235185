package toggle

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestController(t *testing.T) {
	t.Run("starts off", func(t *testing.T) {
		c := New(DefaultCooldown)
		if c.State() != Off {
			t.Errorf("expected Off, got %v", c.State())
		}
		if !c.LastToggle().IsZero() {
			t.Error("expected zero last toggle")
		}
	})

	t.Run("first edge flips on", func(t *testing.T) {
		c := New(DefaultCooldown)

		ev, ok := c.Confirm(t0)
		if !ok {
			t.Fatal("expected edge to be accepted")
		}
		if ev.From != Off || ev.To != On || !ev.At.Equal(t0) {
			t.Errorf("unexpected event %+v", ev)
		}
		if c.State() != On {
			t.Errorf("expected On, got %v", c.State())
		}
	})

	t.Run("edge within cooldown is ignored", func(t *testing.T) {
		c := New(1000 * time.Millisecond)

		c.Confirm(t0)
		if _, ok := c.Confirm(t0.Add(500 * time.Millisecond)); ok {
			t.Error("expected edge at 500ms to be ignored")
		}
		if c.State() != On {
			t.Errorf("expected state to remain On, got %v", c.State())
		}
		if !c.LastToggle().Equal(t0) {
			t.Error("ignored edge must not move the last toggle time")
		}
	})

	t.Run("edge after cooldown flips back", func(t *testing.T) {
		c := New(1000 * time.Millisecond)

		c.Confirm(t0)
		ev, ok := c.Confirm(t0.Add(1000 * time.Millisecond))
		if !ok {
			t.Fatal("expected edge at exactly the cooldown to be accepted")
		}
		if ev.To != Off || c.State() != Off {
			t.Errorf("expected Off, got %v", c.State())
		}
	})

	t.Run("no two accepted edges closer than the cooldown", func(t *testing.T) {
		c := New(DefaultCooldown)

		var accepted []time.Time
		for ms := 0; ms < 10000; ms += 150 {
			if ev, ok := c.Confirm(t0.Add(time.Duration(ms) * time.Millisecond)); ok {
				accepted = append(accepted, ev.At)
			}
		}
		for i := 1; i < len(accepted); i++ {
			if gap := accepted[i].Sub(accepted[i-1]); gap < DefaultCooldown {
				t.Errorf("edges %d and %d only %v apart", i-1, i, gap)
			}
		}
		if len(accepted) < 2 {
			t.Errorf("expected several accepted edges, got %d", len(accepted))
		}
	})

	t.Run("zero cooldown accepts every edge", func(t *testing.T) {
		c := New(0)
		c.Confirm(t0)
		if _, ok := c.Confirm(t0); !ok {
			t.Error("expected edge to be accepted")
		}
		if c.State() != Off {
			t.Errorf("expected Off after two flips, got %v", c.State())
		}
	})

	t.Run("set cooldown", func(t *testing.T) {
		c := New(DefaultCooldown)
		c.SetCooldown(-time.Second)
		if c.Cooldown() != 0 {
			t.Errorf("expected negative cooldown clamped to 0, got %v", c.Cooldown())
		}
	})
}
