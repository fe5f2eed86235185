package stabilizer

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Bank holds one Stabilizer per hand side. Entries are created on the first
// observation of a side.
type Bank struct {
	config  Config
	entries map[detector.Side]*Stabilizer
}

// NewBank creates an empty Bank.
func NewBank(config Config) *Bank {
	return &Bank{
		config:  config.Normalize(),
		entries: make(map[detector.Side]*Stabilizer),
	}
}

// Observe feeds the signal for a side that is present in the frame and
// returns true on a confirmed edge.
func (b *Bank) Observe(side detector.Side, signal bool, now time.Time) bool {
	st, ok := b.entries[side]
	if !ok {
		st = New(b.config)
		b.entries[side] = st
	}
	return st.Update(signal, now)
}

// Absent resets the entry for a side missing from the frame.
func (b *Bank) Absent(side detector.Side) {
	if st, ok := b.entries[side]; ok {
		st.Reset()
	}
}

// Progress returns the confirmation progress for a side, 0 if never seen.
func (b *Bank) Progress(side detector.Side, now time.Time) float64 {
	if st, ok := b.entries[side]; ok {
		return st.Progress(now)
	}
	return 0
}

// State returns the state for a side and whether an entry exists.
func (b *Bank) State(side detector.Side) (State, bool) {
	if st, ok := b.entries[side]; ok {
		return st.State(), true
	}
	return State{}, false
}

// ResetAll returns every entry to its zero state.
func (b *Bank) ResetAll() {
	for _, st := range b.entries {
		st.Reset()
	}
}

// SetConfig applies a new threshold to existing and future entries.
func (b *Bank) SetConfig(config Config) {
	b.config = config.Normalize()
	for _, st := range b.entries {
		st.SetConfig(b.config)
	}
}

// Len returns the number of sides seen so far.
func (b *Bank) Len() int {
	return len(b.entries)
}
