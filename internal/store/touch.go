package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is one run of the pipeline.
type Session struct {
	ID           string     `json:"id"`
	CameraSource string     `json:"camera_source"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// TouchEvent is a touch delivered to the controller.
type TouchEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
}

// JournalRepository records sessions and the touches seen during them.
type JournalRepository struct {
	db *sql.DB
}

// Journal returns the journal repository for this store.
func (s *Store) Journal() *JournalRepository {
	return &JournalRepository{db: s.db}
}

// StartSession inserts a new open session.
func (r *JournalRepository) StartSession(cameraSource string) (*Session, error) {
	sess := &Session{
		ID:           uuid.New().String(),
		CameraSource: cameraSource,
		StartedAt:    time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, camera_source, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.CameraSource, sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// EndSession stamps the end time on a session.
func (r *JournalRepository) EndSession(id string) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetSession retrieves a session by its ID.
func (r *JournalRepository) GetSession(id string) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, camera_source, started_at, ended_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.CameraSource, &sess.StartedAt, &ended)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if ended.Valid {
		sess.EndedAt = &ended.Time
	}
	return sess, nil
}

// RecordTouch appends a touch to a session.
func (r *JournalRepository) RecordTouch(sessionID, event string, at time.Time) (*TouchEvent, error) {
	e := &TouchEvent{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Event:      event,
		OccurredAt: at.UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO touch_events (id, session_id, event, occurred_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Event, e.OccurredAt,
	)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// ListTouches returns up to limit touches, newest first.
func (r *JournalRepository) ListTouches(limit int) ([]TouchEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, event, occurred_at
		 FROM touch_events
		 ORDER BY occurred_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []TouchEvent
	for rows.Next() {
		var e TouchEvent
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Event, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountTouches returns the number of touches recorded for a session.
func (r *JournalRepository) CountTouches(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM touch_events WHERE session_id = ?`,
		sessionID,
	).Scan(&n)
	return n, err
}
