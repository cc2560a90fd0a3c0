package cli

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/alert"
	"github.com/ares-console/ares/internal/status"
)

var (
	watchInterval int
	watchNoAuto   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll component health until interrupted, reporting transitions",
	Run:   runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchInterval, "interval", 0, "Poll interval in seconds (default from config, clamped to 5..60)")
	watchCmd.Flags().BoolVar(&watchNoAuto, "no-auto", false, "Disable scheduled polling for all components before starting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) {
	ctx, cancel := signalContext()
	defer cancel()

	client, cfg, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	go client.Tokens().KeepFresh(ctx)

	st, err := openStore()
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	interval := cfg.Console.PollInterval()
	if watchInterval > 0 {
		interval = time.Duration(watchInterval) * time.Second
		if interval < 5*time.Second {
			interval = 5 * time.Second
		}
		if interval > 60*time.Second {
			interval = 60 * time.Second
		}
	}

	dispatcher := alert.NewDispatcher(alert.New(cfg.Alerts), cfg.Alerts.MinInterval())
	keep := cfg.Console.HistoryLimit

	printHeader("📡 ARES Watch")
	fmt.Printf("Polling every %s; Ctrl-C to stop.\n\n", interval)

	var wg sync.WaitGroup
	for _, cp := range monitoredComponents(client) {
		p := status.New(cp.name, cp.check, interval, st)
		if watchNoAuto {
			if err := p.SetAuto(false); err != nil {
				slog.Warn("Could not persist polling preference", "component", cp.name, "error", err)
			}
		}

		name := cp.name
		var first sync.Once
		p.Recorder = func(component string, s status.Status) {
			recordSample(st, keep, component, s)
			first.Do(func() {
				fmt.Println(statusLine(component, s))
			})
		}
		p.OnTransition = func(_, to status.Status) {
			fmt.Println(transitionLine(name, to))
			dispatcher.Dispatch(ctx, alert.Event{
				Component: name,
				Up:        to.Connected,
				Err:       to.Err,
				Latency:   to.Latency,
				At:        to.CheckedAt,
			})
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Run(ctx)
		}()
	}
	wg.Wait()
	fmt.Println("\nStopped.")
}

// transitionLine renders an up/down flip with its local wall time.
func transitionLine(component string, to status.Status) string {
	ts := to.CheckedAt.Local().Format("15:04:05")
	if to.Connected {
		return fmt.Sprintf("[%s] %s %s", ts, component,
			color.GreenString("recovered (%s)", to.Latency.Round(time.Millisecond)))
	}
	reason := to.Err
	if reason == "" {
		reason = "unknown"
	}
	return fmt.Sprintf("[%s] %s %s", ts, component, color.RedString("down (%s)", reason))
}
