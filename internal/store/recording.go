package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/detector"
)

// Recording is a named capture of landmark frames that can be replayed.
type Recording struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Mirrored   bool          `json:"mirrored"`
	FrameCount int           `json:"frame_count"`
	Duration   time.Duration `json:"duration_ns"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Frame is one recorded detector result. Offset is relative to the first frame.
type Frame struct {
	Sequence int                      `json:"sequence"`
	Offset   time.Duration            `json:"offset_ns"`
	Hands    []detector.HandLandmarks `json:"hands"`
}

// RecordingRepository provides access to recordings.
type RecordingRepository struct {
	db *sql.DB
}

// Recordings returns the recording repository for this store.
func (s *Store) Recordings() *RecordingRepository {
	return &RecordingRepository{db: s.db}
}

// Create inserts a recording with its frames in a single transaction.
// FrameCount and Duration are derived from frames.
func (r *RecordingRepository) Create(rec *Recording, frames []Frame) error {
	if rec.Name == "" {
		return errors.New("recording name is empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now()
	rec.FrameCount = len(frames)
	rec.Duration = 0
	if len(frames) > 0 {
		rec.Duration = frames[len(frames)-1].Offset
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO recordings (id, name, mirrored, frame_count, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Mirrored, rec.FrameCount, rec.Duration.Milliseconds(), rec.CreatedAt,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO recording_frames (recording_id, sequence, offset_ms, hands) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range frames {
		hands := f.Hands
		if hands == nil {
			hands = []detector.HandLandmarks{}
		}
		data, err := json.Marshal(hands)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		if _, err := stmt.Exec(rec.ID, i, f.Offset.Milliseconds(), string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a recording by its ID.
func (r *RecordingRepository) GetByID(id string) (*Recording, error) {
	return r.get(`WHERE id = ?`, id)
}

// GetByName retrieves a recording by its name.
func (r *RecordingRepository) GetByName(name string) (*Recording, error) {
	return r.get(`WHERE name = ?`, name)
}

func (r *RecordingRepository) get(where string, arg any) (*Recording, error) {
	row := r.db.QueryRow(
		`SELECT id, name, mirrored, frame_count, duration_ms, created_at FROM recordings `+where,
		arg,
	)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns all recordings, newest first.
func (r *RecordingRepository) List() ([]*Recording, error) {
	rows, err := r.db.Query(
		`SELECT id, name, mirrored, frame_count, duration_ms, created_at
		 FROM recordings ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// Frames returns a recording's frames in sequence order.
func (r *RecordingRepository) Frames(recordingID string) ([]Frame, error) {
	rows, err := r.db.Query(
		`SELECT sequence, offset_ms, hands FROM recording_frames
		 WHERE recording_id = ? ORDER BY sequence`,
		recordingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		var offsetMS int64
		var data string
		if err := rows.Scan(&f.Sequence, &offsetMS, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &f.Hands); err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", f.Sequence, err)
		}
		f.Offset = time.Duration(offsetMS) * time.Millisecond
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// Delete removes a recording and its frames.
func (r *RecordingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func scanRecording(row scanner) (*Recording, error) {
	rec := &Recording{}
	var durationMS int64
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Mirrored, &rec.FrameCount, &durationMS, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}
