package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- agent ---

// AgentState fetches the runtime loop status.
func (c *Client) AgentState(ctx context.Context) (*AgentStatus, error) {
	var status AgentStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/agent/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AgentPause suspends the runtime loop.
func (c *Client) AgentPause(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/agent/pause", nil, nil, nil)
}

// AgentResume resumes a paused runtime loop.
func (c *Client) AgentResume(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/agent/resume", nil, nil, nil)
}

// AgentProbe is a poller check built on the agent status endpoint.
func (c *Client) AgentProbe(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := c.AgentState(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// --- sessions / chat ---

// Sessions lists conversations.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var payload struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Sessions, nil
}

// Session fetches one conversation.
func (c *Client) Session(ctx context.Context, id string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(id), nil, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a conversation and its transcript.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+url.PathEscape(id), nil, nil, nil)
}

// Transcript fetches the message history of one conversation.
func (c *Client) Transcript(ctx context.Context, id string) ([]Message, error) {
	var payload struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(id)+"/transcript", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Messages, nil
}

// SendChat sends an operator message. An empty sessionID starts a new
// conversation.
func (c *Client) SendChat(ctx context.Context, sessionID, text string) (*ChatReply, error) {
	body := map[string]string{"text": text}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	var reply ChatReply
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat", nil, body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ChatHistory fetches recent chat messages, optionally scoped to a session.
func (c *Client) ChatHistory(ctx context.Context, sessionID string) ([]Message, error) {
	query := url.Values{}
	if sessionID != "" {
		query.Set("session", sessionID)
	}
	var payload struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/chat/history", query, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Messages, nil
}

// --- memory ---

// SelfMemory lists the assistant's own notes.
func (c *Client) SelfMemory(ctx context.Context) ([]MemoryNote, error) {
	var payload struct {
		Notes []MemoryNote `json:"notes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/self-memory", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Notes, nil
}

// AddSelfMemory appends a note to the assistant's self-memory.
func (c *Client) AddSelfMemory(ctx context.Context, content string) (*MemoryNote, error) {
	var note MemoryNote
	if err := c.do(ctx, http.MethodPost, "/api/v1/self-memory", nil, map[string]string{"content": content}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteSelfMemory removes one self-memory note.
func (c *Client) DeleteSelfMemory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/self-memory/"+url.PathEscape(id), nil, nil, nil)
}

// UserMemory lists per-user memory entries.
func (c *Client) UserMemory(ctx context.Context, userID string) ([]UserMemoryEntry, error) {
	query := url.Values{}
	if userID != "" {
		query.Set("user", userID)
	}
	var payload struct {
		Entries []UserMemoryEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/user-memory", query, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Entries, nil
}

// UserFacts lists extracted facts for a user.
func (c *Client) UserFacts(ctx context.Context, userID string) ([]UserFact, error) {
	query := url.Values{}
	if userID != "" {
		query.Set("user", userID)
	}
	var payload struct {
		Facts []UserFact `json:"facts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/user-memory/facts", query, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Facts, nil
}

// DeleteUserFact removes one extracted fact.
func (c *Client) DeleteUserFact(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/user-memory/facts/"+url.PathEscape(id), nil, nil, nil)
}

// UserPreferences fetches the stored preference map for a user.
func (c *Client) UserPreferences(ctx context.Context, userID string) (map[string]string, error) {
	query := url.Values{}
	if userID != "" {
		query.Set("user", userID)
	}
	var payload struct {
		Preferences map[string]string `json:"preferences"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/user-memory/preferences", query, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Preferences, nil
}

// --- integrations ---

// Telegram fetches the Telegram integration status.
func (c *Client) Telegram(ctx context.Context) (*TelegramStatus, error) {
	var status TelegramStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/telegram/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TelegramProbe is a poller check that fails when the bot reports itself
// disconnected even though the backend answered.
func (c *Client) TelegramProbe(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	status, err := c.Telegram(ctx)
	if err != nil {
		return 0, err
	}
	if !status.Connected {
		return 0, fmt.Errorf("bot disconnected")
	}
	return time.Since(start), nil
}

// Discord fetches the Discord bot status.
func (c *Client) Discord(ctx context.Context) (*DiscordStatus, error) {
	var status DiscordStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/discord/bot/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DiscordProbe is a poller check that fails when the bot gateway is down.
func (c *Client) DiscordProbe(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	status, err := c.Discord(ctx)
	if err != nil {
		return 0, err
	}
	if !status.Connected {
		return 0, fmt.Errorf("gateway disconnected")
	}
	return time.Since(start), nil
}

// CalendarState fetches the calendar integration status.
func (c *Client) CalendarState(ctx context.Context) (*CalendarStatus, error) {
	var status CalendarStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/calendar/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CalendarEvents lists events in [from, to). Zero times are omitted and the
// backend applies its defaults.
func (c *Client) CalendarEvents(ctx context.Context, from, to time.Time) ([]CalendarEvent, error) {
	query := url.Values{}
	if !from.IsZero() {
		query.Set("from", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		query.Set("to", to.UTC().Format(time.RFC3339))
	}
	var payload struct {
		Events []CalendarEvent `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/calendar/events", query, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

// --- models / settings ---

// ListModels fetches the configured models and the active selection.
func (c *Client) ListModels(ctx context.Context) (*Models, error) {
	var models Models
	if err := c.do(ctx, http.MethodGet, "/api/v1/settings/models", nil, nil, &models); err != nil {
		return nil, err
	}
	return &models, nil
}

// SetActiveModel switches the runtime's active model.
func (c *Client) SetActiveModel(ctx context.Context, model string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/settings/models/active", nil, map[string]string{"model": model}, nil)
}

// Settings fetches all backend settings.
func (c *Client) Settings(ctx context.Context) (map[string]string, error) {
	var payload struct {
		Settings map[string]string `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/settings", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Settings, nil
}

// Setting fetches one backend setting.
func (c *Client) Setting(ctx context.Context, key string) (*Setting, error) {
	var setting Setting
	if err := c.do(ctx, http.MethodGet, "/api/v1/settings/"+url.PathEscape(key), nil, nil, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting updates one backend setting.
func (c *Client) SetSetting(ctx context.Context, key, value string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/settings/"+url.PathEscape(key), nil, map[string]string{"value": value}, nil)
}

// --- logs / users / tools ---

// Logs fetches backend log entries. since is the cursor from a previous page;
// empty starts from the tail.
func (c *Client) Logs(ctx context.Context, level string, limit int, since string) (*LogPage, error) {
	query := url.Values{}
	if level != "" {
		query.Set("level", level)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if since != "" {
		query.Set("since", since)
	}
	var page LogPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/logs", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Users lists known end users.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var payload struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Users, nil
}

// PromoteUser grants a user the admin flag.
func (c *Client) PromoteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/users/"+url.PathEscape(id)+"/promote", nil, nil, nil)
}

// DemoteUser removes a user's admin flag.
func (c *Client) DemoteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/users/"+url.PathEscape(id)+"/demote", nil, nil, nil)
}

// Tools lists the registered tools.
func (c *Client) Tools(ctx context.Context) ([]Tool, error) {
	var payload struct {
		Tools []Tool `json:"tools"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tools", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Tools, nil
}

// RunTool invokes a registered tool with JSON arguments.
func (c *Client) RunTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	var result ToolResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/tools/"+url.PathEscape(name)+"/run", nil, map[string]any{"args": args}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
