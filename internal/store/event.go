package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Toggle states as stored.
const (
	StateOn  = "on"
	StateOff = "off"
)

// Event is one accepted modulation toggle.
type Event struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	State      string    `json:"state"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventRepository provides access to toggle events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the toggle event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event. ID is filled in when empty.
func (r *EventRepository) Create(e *Event) error {
	if e.State != StateOn && e.State != StateOff {
		return fmt.Errorf("invalid toggle state %q", e.State)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO toggle_events (id, session_id, state, occurred_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.SessionID, e.State, e.OccurredAt,
	)
	return err
}

// ListBySession returns a session's events in the order they happened.
func (r *EventRepository) ListBySession(sessionID string) ([]*Event, error) {
	return r.query(
		`SELECT id, session_id, state, occurred_at FROM toggle_events
		 WHERE session_id = ? ORDER BY occurred_at ASC`,
		sessionID,
	)
}

// ListRecent returns up to limit events across sessions, newest first.
func (r *EventRepository) ListRecent(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.query(
		`SELECT id, session_id, state, occurred_at FROM toggle_events
		 ORDER BY occurred_at DESC LIMIT ?`,
		limit,
	)
}

func (r *EventRepository) query(q string, args ...any) ([]*Event, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.State, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
