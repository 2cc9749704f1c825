// Package ledger provides an append-only history of duty-cycle transitions.
// It is used for auditing only; nothing is restored from it on startup.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event in the ledger
type EventType string

const (
	EventCycleOn      EventType = "cycle_on"
	EventCycleOff     EventType = "cycle_off"
	EventDeviceFailed EventType = "device_failed"
)

// Entry represents a single event in the ledger
type Entry struct {
	ID        int64
	EventType EventType
	Timestamp time.Time
	RunID     string
	Cycle     int
	LightID   string // only for device events
	Payload   map[string]any
}

// Ledger provides append-only event logging scoped to a single process run
type Ledger struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// New creates a new Ledger using the provided database connection.
// Every entry written through it carries a fresh run ID.
func New(db *sql.DB) *Ledger {
	return &Ledger{
		db:    db,
		runID: uuid.NewString(),
		now:   time.Now,
	}
}

// RunID returns the identifier stamped on entries written by this ledger.
func (l *Ledger) RunID() string {
	return l.runID
}

// Append adds a new event to the ledger
func (l *Ledger) Append(eventType EventType, cycle int, lightID string, payload map[string]any) error {
	var payloadJSON []byte
	var err error

	if payload != nil {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	var light sql.NullString
	if lightID != "" {
		light = sql.NullString{String: lightID, Valid: true}
	}

	_, err = l.db.Exec(
		`INSERT INTO cycle_ledger (event_type, timestamp, run_id, cycle, light_id, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		string(eventType), l.now().UTC().Unix(), l.runID, cycle, light, string(payloadJSON),
	)
	return err
}

// GetByType returns entries filtered by event type, newest first
func (l *Ledger) GetByType(eventType EventType, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, timestamp, run_id, cycle, light_id, payload
		FROM cycle_ledger
		WHERE event_type = ?
		ORDER BY id DESC
		LIMIT ?
	`, string(eventType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetByRun returns entries written during one run, oldest first
func (l *Ledger) GetByRun(runID string, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, timestamp, run_id, cycle, light_id, payload
		FROM cycle_ledger
		WHERE run_id = ?
		ORDER BY id ASC
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).Unix()
	result, err := l.db.Exec(`
		DELETE FROM cycle_ledger WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var payloadStr, lightID sql.NullString
		var timestamp int64

		err := rows.Scan(
			&entry.ID, &entry.EventType, &timestamp, &entry.RunID, &entry.Cycle, &lightID, &payloadStr,
		)
		if err != nil {
			return nil, err
		}

		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		if lightID.Valid {
			entry.LightID = lightID.String
		}

		if payloadStr.Valid && payloadStr.String != "" {
			entry.Payload = make(map[string]any)
			if err := json.Unmarshal([]byte(payloadStr.String), &entry.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
