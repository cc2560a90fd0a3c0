package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/status"
	"github.com/ares-console/ares/internal/store"
)

var (
	statusHistory bool
	statusWatch   bool
	statusJSON    bool
	statusLimit   int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check backend, agent and integration health right now",
	Run:   runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("ares %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusHistory, "history", false, "Show recent samples from the local history instead of checking")
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Keep polling until interrupted (same as 'ares watch')")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Samples per component with --history")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	if statusWatch {
		runWatch(cmd, args)
		return
	}

	ctx := context.Background()
	client, cfg, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	st, err := openStore()
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	if statusHistory {
		printStatusHistory(st)
		return
	}

	keep := cfg.Console.HistoryLimit
	snapshots := make(map[string]status.Status)
	var order []string
	for _, cp := range monitoredComponents(client) {
		p := status.New(cp.name, cp.check, cfg.Console.PollInterval(), st)
		p.Recorder = func(component string, s status.Status) {
			recordSample(st, keep, component, s)
		}
		p.CheckNow(ctx)
		order = append(order, cp.name)
		snapshots[cp.name] = p.Snapshot()
	}

	if statusJSON {
		printJSON(snapshots)
		return
	}
	printHeader("📡 ARES Status")
	for _, name := range order {
		fmt.Println(statusLine(name, snapshots[name]))
	}
}

// statusLine renders one component row for the status and watch panels.
func statusLine(name string, s status.Status) string {
	mode := "auto"
	if !s.Auto {
		mode = "manual"
	}
	if !s.Connected {
		reason := s.Err
		if reason == "" {
			reason = "not checked yet"
		}
		return fmt.Sprintf("%-10s %s (%s) [%s]", name, color.RedString("✗ down"), reason, mode)
	}
	return fmt.Sprintf("%-10s %s %s [%s]", name, color.GreenString("✓ connected"),
		s.Latency.Round(time.Millisecond), mode)
}

func printStatusHistory(st *store.Store) {
	printHeader("📡 Status History")
	for _, name := range []string{"backend", "agent", "telegram", "discord"} {
		samples, err := st.StatusHistory(name, statusLimit)
		if err != nil {
			fatal(err)
		}
		fmt.Println(name + ":")
		if len(samples) == 0 {
			fmt.Println("  (no samples)")
			continue
		}
		for _, smp := range samples {
			mark := color.GreenString("up")
			detail := fmt.Sprintf("%dms", smp.LatencyMs)
			if !smp.Connected {
				mark = color.RedString("down")
				detail = smp.Error
			}
			fmt.Printf("  %s  %-4s %s\n", smp.CheckedAt.Local().Format("2006-01-02 15:04:05"), mark, detail)
		}
	}
}
