package store

import (
	"time"
)

// ActionEntry is one audited console operation.
type ActionEntry struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Command string    `json:"command"`
	Target  string    `json:"target,omitempty"`
	Outcome string    `json:"outcome"`
	Detail  string    `json:"detail,omitempty"`
}

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeDenied = "denied"
)

// StatusSample is one completed status check of a monitored component.
type StatusSample struct {
	ID        int64     `json:"id"`
	Component string    `json:"component"`
	Connected bool      `json:"connected"`
	LatencyMs int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

const Schema = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS action_log (
	id TEXT PRIMARY KEY,
	at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	command TEXT NOT NULL,
	target TEXT DEFAULT '',
	outcome TEXT NOT NULL DEFAULT 'ok',
	detail TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_action_log_at ON action_log(at);

CREATE TABLE IF NOT EXISTS status_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	component TEXT NOT NULL,
	connected BOOLEAN NOT NULL,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	error TEXT DEFAULT '',
	checked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_status_history_component ON status_history(component, checked_at);
`
