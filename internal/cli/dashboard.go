package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/dash"
	"github.com/ares-console/ares/internal/events"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Open the full-screen terminal dashboard",
	Run:     runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(_ *cobra.Command, _ []string) {
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

	// The alternate screen owns the terminal; without a log file, poller
	// diagnostics would smear over the dashboard.
	if cfg.Logging.File == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	opts := dash.Options{
		Client:  client,
		Config:  cfg,
		Store:   st,
		Version: version,
	}
	if len(cfg.Events.Brokers) > 0 {
		consumer := events.NewKafkaConsumer(cfg.Events)
		defer consumer.Close()
		opts.Events = consumer
	}

	if err := dash.Run(ctx, opts); err != nil {
		fatal(err)
	}
}
