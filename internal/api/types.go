package api

import "encoding/json"

// Response shapes mirror the runtime's JSON contracts. Timestamps stay as the
// RFC 3339 strings the backend sends; the console only displays them.

// AdminStatus is the admin-gate response.
type AdminStatus struct {
	Admin  bool   `json:"admin"`
	UserID string `json:"user_id"`
}

// AgentStatus describes the assistant runtime loop.
type AgentStatus struct {
	State         string `json:"state"`
	Model         string `json:"model"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	QueueDepth    int    `json:"queue_depth"`
}

// Session is one conversation with the assistant.
type Session struct {
	ID           string `json:"id"`
	Channel      string `json:"channel"`
	UserID       string `json:"user_id"`
	Title        string `json:"title,omitempty"`
	StartedAt    string `json:"started_at"`
	LastActiveAt string `json:"last_active_at"`
	MessageCount int    `json:"message_count"`
}

// Message is one transcript or chat-history entry.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// ChatReply is the response to a sent chat message.
type ChatReply struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

// MemoryNote is one assistant self-memory entry.
type MemoryNote struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// UserMemoryEntry is one per-user memory record.
type UserMemoryEntry struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
}

// UserFact is one extracted user fact.
type UserFact struct {
	ID      string `json:"id"`
	Fact    string `json:"fact"`
	Source  string `json:"source,omitempty"`
	AddedAt string `json:"added_at"`
}

// TelegramStatus is the Telegram integration panel payload.
type TelegramStatus struct {
	Connected    bool   `json:"connected"`
	BotUsername  string `json:"bot_username"`
	LastUpdateAt string `json:"last_update_at"`
}

// DiscordStatus is the Discord bot panel payload.
type DiscordStatus struct {
	Connected bool  `json:"connected"`
	Guilds    int   `json:"guilds"`
	LatencyMS int64 `json:"latency_ms"`
}

// CalendarStatus is the calendar integration panel payload.
type CalendarStatus struct {
	Connected  bool   `json:"connected"`
	CalendarID string `json:"calendar_id"`
	LastSyncAt string `json:"last_sync_at"`
}

// CalendarEvent is one upcoming calendar entry.
type CalendarEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location,omitempty"`
}

// Models lists the configured models and the active one.
type Models struct {
	Models []string `json:"models"`
	Active string   `json:"active"`
}

// Setting is one backend configuration entry.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LogEntry is one backend log line.
type LogEntry struct {
	At      string `json:"at"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// LogPage is a page of log entries with a resume cursor for follow mode.
type LogPage struct {
	Entries []LogEntry `json:"entries"`
	Cursor  string     `json:"cursor"`
}

// User is one known end user of the assistant.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Channel  string `json:"channel,omitempty"`
	Admin    bool   `json:"admin"`
	LastSeen string `json:"last_seen,omitempty"`
}

// Tool is one registered tool.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolResult is the output of a tool invocation.
type ToolResult struct {
	Output string          `json:"output"`
	Error  string          `json:"error,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}
