package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ares-console/ares/internal/api"
	"github.com/ares-console/ares/internal/auth"
	"github.com/ares-console/ares/internal/config"
	"github.com/ares-console/ares/internal/status"
	"github.com/ares-console/ares/internal/store"
)

// loadConfig returns the resolved configuration. A broken config file is
// reported but never fatal: read-only panels still work on defaults.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config warning: %v (using defaults)\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// newClient wires config, stored credentials and the HTTP client together,
// then verifies the signed-in account passes the backend admin gate. Every
// panel that talks to the backend goes through here.
func newClient(ctx context.Context) (*api.Client, *config.Config, error) {
	cfg := loadConfig()
	tokens := auth.NewTokenSource(auth.NewFlow(cfg.Identity))
	client := api.NewClient(cfg.Backend, tokens)
	if err := client.RequireAdmin(ctx); err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// openStore opens the console-local database under the config directory.
func openStore() (*store.Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := config.EnsureDir(dir); err != nil {
		return nil, err
	}
	return store.Open(filepath.Join(dir, "console.db"))
}

// audit appends one action log row. Best-effort: a mutation must not fail
// because the local audit database is unavailable.
func audit(command, target, outcome, detail string) {
	st, err := openStore()
	if err != nil {
		slog.Warn("Audit log unavailable", "error", err)
		return
	}
	defer st.Close()
	if err := st.AppendAction(store.ActionEntry{
		At:      time.Now().UTC(),
		Command: command,
		Target:  target,
		Outcome: outcome,
		Detail:  detail,
	}); err != nil {
		slog.Warn("Audit append failed", "command", command, "error", err)
	}
}

// signalContext returns a context cancelled by Ctrl-C or SIGTERM, for
// commands that run until interrupted.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

type componentProbe struct {
	name  string
	check status.CheckFunc
}

// monitoredComponents is the fixed set of health targets shown by status,
// watch and the dashboard.
func monitoredComponents(client *api.Client) []componentProbe {
	return []componentProbe{
		{"backend", client.Healthy},
		{"agent", client.AgentProbe},
		{"telegram", client.TelegramProbe},
		{"discord", client.DiscordProbe},
	}
}

// recordSample persists one finished check into the local status history.
func recordSample(st *store.Store, keep int, component string, s status.Status) {
	if err := st.RecordStatus(store.StatusSample{
		Component: component,
		Connected: s.Connected,
		LatencyMs: s.Latency.Milliseconds(),
		Error:     s.Err,
		CheckedAt: s.CheckedAt,
	}, keep); err != nil {
		slog.Warn("Status history write failed", "component", component, "error", err)
	}
}
