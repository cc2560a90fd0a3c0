package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/config"
)

// Overridden at release time via
// go build -ldflags "-X github.com/ares-console/ares/internal/cli.version=..."
var (
	version = "0.3.0"
	commit  = "none"
	date    = "unknown"
)

var logo = `
     _    ____  _____ ____
    / \  |  _ \| ____/ ___|
   / _ \ | |_) |  _| \___ \
  / ___ \|  _ <| |___ ___) |
 /_/   \_\_| \_\_____|____/
`

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ares",
	Short: "ARES - admin console for your personal assistant",
	Long: color.CyanString(logo) + `
Remote control and monitoring for the assistant runtime: status, sessions,
memory, integrations, settings and a live event stream.

Start with 'ares login', then 'ares status' or 'ares dashboard'.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogging()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// initLogging routes slog to stderr or the configured log file. Stdout stays
// reserved for panel output so pipes and --json remain clean.
func initLogging() {
	level := slog.LevelInfo
	var out io.Writer = os.Stderr

	if cfg, err := config.Load(); err == nil {
		switch strings.ToLower(cfg.Logging.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		if cfg.Logging.File != "" {
			if f, ferr := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); ferr == nil {
				out = f
			}
		}
	}
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
}
