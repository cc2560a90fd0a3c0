package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/api"
)

var (
	integrationJSON bool
	calendarFrom    string
	calendarTo      string
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Telegram bridge status",
}

var telegramStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Telegram connection state and probe latency",
	Run:   runTelegramStatus,
}

var discordCmd = &cobra.Command{
	Use:   "discord",
	Short: "Discord bridge status",
}

var discordStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Discord connection state and probe latency",
	Run:   runDiscordStatus,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Calendar integration",
}

var calendarStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show calendar sync state",
	Run:   runCalendarStatus,
}

var calendarEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List upcoming calendar events",
	Run:   runCalendarEvents,
}

func init() {
	for _, c := range []*cobra.Command{telegramStatusCmd, discordStatusCmd, calendarStatusCmd, calendarEventsCmd} {
		c.Flags().BoolVar(&integrationJSON, "json", false, "Output as JSON")
	}
	calendarEventsCmd.Flags().StringVar(&calendarFrom, "from", "", "Window start, YYYY-MM-DD (default today)")
	calendarEventsCmd.Flags().StringVar(&calendarTo, "to", "", "Window end, YYYY-MM-DD (default start + 7 days)")

	telegramCmd.AddCommand(telegramStatusCmd)
	discordCmd.AddCommand(discordStatusCmd)
	calendarCmd.AddCommand(calendarStatusCmd)
	calendarCmd.AddCommand(calendarEventsCmd)
	rootCmd.AddCommand(telegramCmd)
	rootCmd.AddCommand(discordCmd)
	rootCmd.AddCommand(calendarCmd)
}

func connectedMark(connected bool) string {
	if connected {
		return color.GreenString("✓ connected")
	}
	return color.RedString("✗ disconnected")
}

func runTelegramStatus(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	st, err := client.Telegram(ctx)
	if err != nil {
		fatal(err)
	}

	if integrationJSON {
		printJSON(st)
		return
	}
	printHeader("📨 Telegram")
	fmt.Printf("Status:      %s\n", connectedMark(st.Connected))
	fmt.Printf("Bot:         @%s\n", st.BotUsername)
	fmt.Printf("Last update: %s\n", formatWhen(st.LastUpdateAt))
	fmt.Printf("Probe:       %s\n", probeResult(ctx, client.TelegramProbe))
}

func runDiscordStatus(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	st, err := client.Discord(ctx)
	if err != nil {
		fatal(err)
	}

	if integrationJSON {
		printJSON(st)
		return
	}
	printHeader("🎮 Discord")
	fmt.Printf("Status:  %s\n", connectedMark(st.Connected))
	fmt.Printf("Guilds:  %d\n", st.Guilds)
	fmt.Printf("Gateway: %dms\n", st.LatencyMS)
	fmt.Printf("Probe:   %s\n", probeResult(ctx, client.DiscordProbe))
}

// probeResult runs a check-now probe and renders the outcome inline.
func probeResult(ctx context.Context, probe func(context.Context) (time.Duration, error)) string {
	latency, err := probe(ctx)
	if err != nil {
		return color.RedString("failed (%s)", api.Describe(err))
	}
	return color.GreenString("ok (%s)", latency.Round(time.Millisecond))
}

func runCalendarStatus(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	st, err := client.CalendarState(ctx)
	if err != nil {
		fatal(err)
	}

	if integrationJSON {
		printJSON(st)
		return
	}
	printHeader("📅 Calendar")
	fmt.Printf("Status:    %s\n", connectedMark(st.Connected))
	fmt.Printf("Calendar:  %s\n", st.CalendarID)
	fmt.Printf("Last sync: %s\n", formatWhen(st.LastSyncAt))
}

func runCalendarEvents(_ *cobra.Command, _ []string) {
	from, to, err := eventWindow(calendarFrom, calendarTo, time.Now())
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	events, err := client.CalendarEvents(ctx, from, to)
	if err != nil {
		fatal(err)
	}

	if integrationJSON {
		printJSON(events)
		return
	}
	printHeader("📅 Events")
	fmt.Printf("%s to %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if len(events) == 0 {
		fmt.Println("No events in this window.")
		return
	}
	for _, e := range events {
		loc := ""
		if e.Location != "" {
			loc = " @ " + e.Location
		}
		fmt.Printf("%s - %s  %s%s\n", formatWhen(e.Start), formatWhen(e.End), e.Title, loc)
	}
}

// eventWindow resolves the --from/--to pair. Dates are whole days; the end
// day is included by extending it to the following midnight.
func eventWindow(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	from := now.Truncate(24 * time.Hour)
	if fromStr != "" {
		t, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --from %q: want YYYY-MM-DD", fromStr)
		}
		from = t
	}
	to := from.Add(7 * 24 * time.Hour)
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --to %q: want YYYY-MM-DD", toStr)
		}
		to = t.Add(24 * time.Hour)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", toStr, fromStr)
	}
	return from, to, nil
}
