// Package dash implements the full-screen terminal dashboard. The overview
// tab is fed by the same component pollers the status and watch commands
// use; the other tabs render one snapshot of backend state per refresh
// round plus a rolling feed of runtime events.
package dash

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ares-console/ares/internal/alert"
	"github.com/ares-console/ares/internal/api"
	"github.com/ares-console/ares/internal/config"
	"github.com/ares-console/ares/internal/events"
	"github.com/ares-console/ares/internal/status"
	"github.com/ares-console/ares/internal/store"
)

// Options carries the dashboard's collaborators. Events may be nil when no
// Kafka brokers are configured; the events tab then says how to enable it.
type Options struct {
	Client  *api.Client
	Config  *config.Config
	Store   *store.Store
	Events  events.Consumer
	Version string
}

// Run opens the dashboard and blocks until the user quits or ctx is
// cancelled. The component pollers run for the life of the program,
// recording history and dispatching transition alerts exactly like the
// watch command.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keep := 500
	if opts.Config != nil {
		keep = opts.Config.Console.HistoryLimit
	}
	var dispatcher *alert.Dispatcher
	if opts.Config != nil {
		dispatcher = alert.NewDispatcher(alert.New(opts.Config.Alerts), opts.Config.Alerts.MinInterval())
	}

	var wg sync.WaitGroup
	for _, p := range m.pollers {
		name := p.Component()
		if opts.Store != nil {
			st := opts.Store
			p.Recorder = func(component string, s status.Status) {
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
		}
		if dispatcher != nil {
			p.OnTransition = func(_, to status.Status) {
				dispatcher.Dispatch(pctx, alert.Event{
					Component: name,
					Up:        to.Connected,
					Err:       to.Err,
					Latency:   to.Latency,
					At:        to.CheckedAt,
				})
			}
		}

		wg.Add(1)
		go func(p *status.Poller) {
			defer wg.Done()
			_ = p.Run(pctx)
		}(p)
	}

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	cancel()
	wg.Wait()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Ctrl-C lands here via the signal context; that is a normal exit.
		return nil
	}
	return err
}
