// Package config provides configuration types and loading for ares.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Backend, Identity, Console, Alerts, Events, Logging.
type Config struct {
	Backend  BackendConfig  `json:"backend"`
	Identity IdentityConfig `json:"identity"`
	Console  ConsoleConfig  `json:"console"`
	Alerts   AlertsConfig   `json:"alerts"`
	Events   EventsConfig   `json:"events"`
	Logging  LoggingConfig  `json:"logging"`
}

// ---------------------------------------------------------------------------
// Backend – runtime REST API
// ---------------------------------------------------------------------------

// BackendConfig locates the assistant runtime's admin API.
type BackendConfig struct {
	BaseURL        string `json:"baseUrl" envconfig:"BASE_URL"`
	TimeoutSeconds int    `json:"timeoutSeconds" envconfig:"TIMEOUT_SECONDS"`
}

// Timeout returns the request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ---------------------------------------------------------------------------
// Identity – OAuth device-flow provider
// ---------------------------------------------------------------------------

// IdentityConfig configures the identity provider used for operator login.
type IdentityConfig struct {
	Issuer         string `json:"issuer" envconfig:"ISSUER"`
	ClientID       string `json:"clientId" envconfig:"CLIENT_ID"`
	Scope          string `json:"scope" envconfig:"SCOPE"`
	DeviceAuthPath string `json:"deviceAuthPath" envconfig:"DEVICE_AUTH_PATH"`
	TokenPath      string `json:"tokenPath" envconfig:"TOKEN_PATH"`
}

// ---------------------------------------------------------------------------
// Console – polling and display behaviour
// ---------------------------------------------------------------------------

// ConsoleConfig contains poller and dashboard settings.
type ConsoleConfig struct {
	PollIntervalSeconds int    `json:"pollIntervalSeconds" envconfig:"POLL_INTERVAL_SECONDS"`
	HistoryLimit        int    `json:"historyLimit" envconfig:"HISTORY_LIMIT"`
	Theme               string `json:"theme" envconfig:"THEME"`
}

// PollInterval returns the poll interval as a duration, clamped to [5s, 60s].
func (c ConsoleConfig) PollInterval() time.Duration {
	s := c.PollIntervalSeconds
	if s < 5 {
		s = 5
	}
	if s > 60 {
		s = 60
	}
	return time.Duration(s) * time.Second
}

// ---------------------------------------------------------------------------
// Alerts – Slack notifications on status transitions
// ---------------------------------------------------------------------------

// AlertsConfig configures transition alerting. BotToken+Channel wins over
// WebhookURL when both are set.
type AlertsConfig struct {
	Enabled            bool   `json:"enabled" envconfig:"ENABLED"`
	WebhookURL         string `json:"webhookUrl" envconfig:"WEBHOOK_URL"`
	BotToken           string `json:"botToken" envconfig:"BOT_TOKEN"`
	Channel            string `json:"channel" envconfig:"CHANNEL"`
	MinIntervalSeconds int    `json:"minIntervalSeconds" envconfig:"MIN_INTERVAL_SECONDS"`
}

// MinInterval returns the anti-flap floor between repeat alerts for the same
// component.
func (a AlertsConfig) MinInterval() time.Duration {
	if a.MinIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.MinIntervalSeconds) * time.Second
}

// ---------------------------------------------------------------------------
// Events – runtime event stream
// ---------------------------------------------------------------------------

// EventsConfig configures the Kafka tail of runtime events.
type EventsConfig struct {
	Brokers []string `json:"brokers" envconfig:"BROKERS"`
	Topic   string   `json:"topic" envconfig:"TOPIC"`
	GroupID string   `json:"groupId" envconfig:"GROUP_ID"`
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

// LoggingConfig controls diagnostic output. File empty means stderr.
type LoggingConfig struct {
	Level string `json:"level" envconfig:"LEVEL"`
	File  string `json:"file,omitempty" envconfig:"FILE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:18791",
			TimeoutSeconds: 30,
		},
		Identity: IdentityConfig{
			Scope:          "openid profile ares.admin",
			DeviceAuthPath: "/oauth/device/code",
			TokenPath:      "/oauth/token",
		},
		Console: ConsoleConfig{
			PollIntervalSeconds: 15,
			HistoryLimit:        500,
			Theme:               "dark",
		},
		Alerts: AlertsConfig{
			Enabled:            false,
			MinIntervalSeconds: 60,
		},
		Events: EventsConfig{
			Topic:   "ares.runtime.events",
			GroupID: "ares-console",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
