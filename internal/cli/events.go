package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/auth"
	"github.com/ares-console/ares/internal/config"
	"github.com/ares-console/ares/internal/events"
)

var (
	eventsFollow bool
	eventsKind   string
	eventsLimit  int
	eventsJSON   bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail the runtime event stream from Kafka",
	Long: `Tail the assistant's event topic. Consumption starts at the latest
offset, so only events emitted after the command starts are shown. Without
--follow the command exits once --limit events have arrived.`,
	Run: runEvents,
}

func init() {
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "Keep streaming until interrupted")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "Only show events of this kind")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Stop after this many events (ignored with --follow)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output one JSON object per line")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	if len(cfg.Events.Brokers) == 0 {
		fatalf("no Kafka brokers configured; set events.brokers in %s", configPathHint())
	}

	ctx, cancel := signalContext()
	defer cancel()

	consumer := events.NewKafkaConsumer(cfg.Events)
	defer consumer.Close()

	if eventsFollow {
		// Keep the session warm through a long follow so the next panel
		// command does not land on an expired token.
		go auth.NewTokenSource(auth.NewFlow(cfg.Identity)).KeepFresh(ctx)
		fmt.Printf("Streaming %s from %v; Ctrl-C to stop.\n", cfg.Events.Topic, cfg.Events.Brokers)
	}

	shown := 0
	for {
		ev, err := consumer.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			fatal(err)
		}
		if eventsKind != "" && ev.Kind != eventsKind {
			continue
		}
		printEvent(ev)
		shown++
		if !eventsFollow && eventsLimit > 0 && shown >= eventsLimit {
			return
		}
	}
}

func printEvent(ev events.Event) {
	if eventsJSON {
		out, _ := json.Marshal(ev)
		fmt.Println(string(out))
		return
	}
	line := fmt.Sprintf("[%s] %-16s", ev.At.Local().Format("15:04:05"), ev.Kind)
	if ev.Session != "" {
		line += " session=" + ev.Session
	}
	if len(ev.Body) > 0 {
		line += " " + truncate(string(ev.Body), 100)
	}
	fmt.Println(line)
}

func configPathHint() string {
	if p, err := config.ConfigPath(); err == nil {
		return p
	}
	return "~/.ares/config.json"
}
