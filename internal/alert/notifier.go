package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/ares-console/ares/internal/config"
)

// Event describes one status transition worth telling an operator about.
type Event struct {
	Component string
	Up        bool
	Err       string // failure description when !Up
	Latency   time.Duration
	At        time.Time
}

// Message renders the one-line alert text sent to Slack.
func (ev Event) Message() string {
	ts := ev.At.UTC().Format("15:04:05 UTC")
	if ev.Up {
		if ev.Latency > 0 {
			return fmt.Sprintf(":large_green_circle: ARES: %s recovered at %s (latency %s)",
				ev.Component, ts, ev.Latency.Round(time.Millisecond))
		}
		return fmt.Sprintf(":large_green_circle: ARES: %s recovered at %s", ev.Component, ts)
	}
	reason := strings.TrimSpace(ev.Err)
	if reason == "" {
		reason = "unknown"
	}
	return fmt.Sprintf(":red_circle: ARES: %s DOWN at %s (%s)", ev.Component, ts, reason)
}

// Notifier delivers a transition alert.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// New picks the notifier for the current alert settings. Slack delivery is
// used when alerts are enabled and a destination is configured; otherwise
// transitions only reach the log.
func New(cfg config.AlertsConfig) Notifier {
	if cfg.Enabled && (strings.TrimSpace(cfg.BotToken) != "" || strings.TrimSpace(cfg.WebhookURL) != "") {
		return NewSlackNotifier(cfg)
	}
	return logNotifier{}
}

// SlackNotifier posts alerts to a Slack channel. A bot token plus channel is
// preferred; an incoming webhook URL works as fallback.
type SlackNotifier struct {
	client  *slack.Client
	channel string
	webhook string
}

// NewSlackNotifier creates a notifier from the alert settings.
func NewSlackNotifier(cfg config.AlertsConfig) *SlackNotifier {
	n := &SlackNotifier{
		channel: strings.TrimSpace(cfg.Channel),
		webhook: strings.TrimSpace(cfg.WebhookURL),
	}
	if token := strings.TrimSpace(cfg.BotToken); token != "" {
		n.client = slack.New(token, slack.OptionHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	}
	return n
}

// Notify delivers ev. Rate-limited posts are retried once after the
// server-provided delay.
func (n *SlackNotifier) Notify(ctx context.Context, ev Event) error {
	text := ev.Message()
	if n.client != nil && n.channel != "" {
		return n.post(ctx, text)
	}
	if n.webhook != "" {
		if err := slack.PostWebhookContext(ctx, n.webhook, &slack.WebhookMessage{Text: text}); err != nil {
			return fmt.Errorf("slack webhook: %w", err)
		}
		return nil
	}
	return errors.New("slack alerts not configured: need botToken+channel or webhookUrl")
}

func (n *SlackNotifier) post(ctx context.Context, text string) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	var rle *slack.RateLimitedError
	if errors.As(err, &rle) && rle != nil {
		if rle.RetryAfter > 0 {
			time.Sleep(rle.RetryAfter)
		}
		_, _, err = n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	}
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

// logNotifier records transitions in the log when Slack is not configured.
type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, ev Event) error {
	if ev.Up {
		slog.Info("Component recovered", "component", ev.Component, "latency", ev.Latency)
	} else {
		slog.Warn("Component down", "component", ev.Component, "error", ev.Err)
	}
	return nil
}
