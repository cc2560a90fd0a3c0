package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/api"
)

var (
	logsLevel  string
	logsLimit  int
	logsFollow bool
	logsJSON   bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent backend logs",
	Run:   runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Minimum level (debug, info, warn, error)")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 50, "Maximum entries per fetch")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Keep polling for new entries")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(_ *cobra.Command, _ []string) {
	ctx, cancel := signalContext()
	defer cancel()

	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}

	page, err := client.Logs(ctx, logsLevel, logsLimit, "")
	if err != nil {
		fatal(err)
	}
	printLogPage(page)

	if !logsFollow {
		return
	}

	cursor := page.Cursor
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			page, err := client.Logs(ctx, logsLevel, logsLimit, cursor)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("Log fetch failed, will retry", "error", err)
				continue
			}
			printLogPage(page)
			if page.Cursor != "" {
				cursor = page.Cursor
			}
		}
	}
}

func printLogPage(page *api.LogPage) {
	for _, e := range page.Entries {
		if logsJSON {
			printJSON(e)
			continue
		}
		fmt.Println(logLine(e))
	}
}

// logLine renders one entry as "[time] LEVEL source message" with the level
// colorized.
func logLine(e api.LogEntry) string {
	level := strings.ToUpper(e.Level)
	switch strings.ToLower(e.Level) {
	case "error":
		level = color.RedString("%-5s", level)
	case "warn", "warning":
		level = color.YellowString("%-5s", level)
	default:
		level = fmt.Sprintf("%-5s", level)
	}
	src := e.Source
	if src != "" {
		src = " " + src
	}
	return fmt.Sprintf("[%s] %s%s %s", formatWhen(e.At), level, src, e.Message)
}
