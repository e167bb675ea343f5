package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when a session ID has no row
var ErrSessionNotFound = errors.New("session not found")

// Session is one agent run on one device
type Session struct {
	ID           string
	DeviceSerial string
	Mode         string
	StartedAt    time.Time
	EndedAt      *time.Time
	StopReason   string
}

// Duration returns how long the session ran, up to now when still open
func (s *Session) Duration() time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

// SessionSummary aggregates the journal of one session
type SessionSummary struct {
	Session
	Engagements  int
	Follows      int
	Respawns     int
	Failures     int
	StateChanges int
	Taps         int
}

// StartSession inserts an open session
func (db *DB) StartSession(id, deviceSerial, mode string, startedAt time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO combat_sessions (id, device_serial, mode, started_at)
		VALUES (?, ?, ?, ?)
	`, id, deviceSerial, mode, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// EndSession closes a session
func (db *DB) EndSession(id, reason string, endedAt time.Time) error {
	result, err := db.conn.Exec(`
		UPDATE combat_sessions SET ended_at = ?, stop_reason = ?
		WHERE id = ?
	`, endedAt.UTC(), reason, id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// RecordEvent appends one journal row. An empty sessionID stores NULL.
func (db *DB) RecordEvent(sessionID, deviceSerial, eventType, payload string, occurredAt time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO combat_events (session_id, device_serial, event_type, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, nullString(sessionID), nullString(deviceSerial), eventType, payload, occurredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.conn.QueryRow(`
		SELECT id, device_serial, mode, started_at, ended_at, stop_reason
		FROM combat_sessions WHERE id = ?
	`, id)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// RecentSessions lists the newest sessions first
func (db *DB) RecentSessions(limit int) ([]*Session, error) {
	rows, err := db.conn.Query(`
		SELECT id, device_serial, mode, started_at, ended_at, stop_reason
		FROM combat_sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSessionSummary counts the journal events of one session by type
func (db *DB) GetSessionSummary(id string) (*SessionSummary, error) {
	session, err := db.GetSession(id)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(`
		SELECT event_type, COUNT(*) FROM combat_events
		WHERE session_id = ? GROUP BY event_type
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize session: %w", err)
	}
	defer rows.Close()

	summary := &SessionSummary{Session: *session}
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		switch eventType {
		case "agent.target_engaged":
			summary.Engagements = count
		case "agent.followed":
			summary.Follows = count
		case "agent.respawned":
			summary.Respawns = count
		case "agent.cycle_failed":
			summary.Failures = count
		case "agent.state_changed":
			summary.StateChanges = count
		case "agent.template_tapped":
			summary.Taps = count
		}
	}
	return summary, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var s Session
	var ended sql.NullTime
	var reason sql.NullString
	if err := row.Scan(&s.ID, &s.DeviceSerial, &s.Mode, &s.StartedAt, &ended, &reason); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	s.StopReason = reason.String
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
