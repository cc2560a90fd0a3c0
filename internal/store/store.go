// Package store persists console-local state: operator preferences, the
// action audit log, and status-check history.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DBFile is the default database file name under the console state dir.
const DBFile = "console.db"

// autoPollKeyPrefix namespaces the persisted auto-polling flags.
const autoPollKeyPrefix = "poll.auto."

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the console database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open console db: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	// Best-effort migrations for existing dbs (no-op if column exists).
	_, _ = db.Exec(`ALTER TABLE action_log ADD COLUMN detail TEXT DEFAULT ''`)
	_, _ = db.Exec(`ALTER TABLE status_history ADD COLUMN error TEXT DEFAULT ''`)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetSetting returns a setting value by key.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetSetting persists a setting value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

// AutoPoll returns the persisted auto-polling preference for a component.
// ok is false when no preference has been stored yet; callers treat that as
// enabled.
func (s *Store) AutoPoll(component string) (enabled bool, ok bool) {
	val, err := s.GetSetting(autoPollKeyPrefix + component)
	if err != nil {
		return false, false
	}
	return val == "true", true
}

// SetAutoPoll persists the auto-polling preference for a component.
func (s *Store) SetAutoPoll(component string, enabled bool) error {
	val := "false"
	if enabled {
		val = "true"
	}
	return s.SetSetting(autoPollKeyPrefix+component, val)
}

// AppendAction records one console operation in the audit log.
// A missing ID or timestamp is filled in.
func (s *Store) AppendAction(e ActionEntry) error {
	if strings.TrimSpace(e.Command) == "" {
		return fmt.Errorf("command is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}
	_, err := s.db.Exec(`
		INSERT INTO action_log (id, at, command, target, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.At, e.Command, e.Target, e.Outcome, e.Detail)
	return err
}

// ListActions returns the most recent audit entries, newest first.
func (s *Store) ListActions(limit int) ([]ActionEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, at, command, COALESCE(target, ''), outcome, COALESCE(detail, '')
		FROM action_log ORDER BY at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ActionEntry
	for rows.Next() {
		var e ActionEntry
		if err := rows.Scan(&e.ID, &e.At, &e.Command, &e.Target, &e.Outcome, &e.Detail); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordStatus appends one status sample and prunes rows beyond keep for the
// same component, oldest first.
func (s *Store) RecordStatus(sample StatusSample, keep int) error {
	if strings.TrimSpace(sample.Component) == "" {
		return fmt.Errorf("component is required")
	}
	if sample.CheckedAt.IsZero() {
		sample.CheckedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO status_history (component, connected, latency_ms, error, checked_at)
		VALUES (?, ?, ?, ?, ?)
	`, sample.Component, sample.Connected, sample.LatencyMs, sample.Error, sample.CheckedAt)
	if err != nil {
		return err
	}
	if keep <= 0 {
		return nil
	}
	_, err = s.db.Exec(`
		DELETE FROM status_history
		WHERE component = ? AND id NOT IN (
			SELECT id FROM status_history WHERE component = ?
			ORDER BY checked_at DESC, id DESC LIMIT ?
		)
	`, sample.Component, sample.Component, keep)
	return err
}

// StatusHistory returns recent samples for a component, newest first.
func (s *Store) StatusHistory(component string, limit int) ([]StatusSample, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, component, connected, latency_ms, COALESCE(error, ''), checked_at
		FROM status_history WHERE component = ?
		ORDER BY checked_at DESC, id DESC LIMIT ?
	`, component, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []StatusSample
	for rows.Next() {
		var sm StatusSample
		if err := rows.Scan(&sm.ID, &sm.Component, &sm.Connected, &sm.LatencyMs, &sm.Error, &sm.CheckedAt); err != nil {
			return nil, err
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}
