package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/store"
)

var agentJSON bool

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Inspect and control the assistant agent loop",
}

var agentStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent state, model and queue depth",
	Run:   runAgentStatus,
}

var agentPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the agent loop (queued work waits)",
	Run:   runAgentPause,
}

var agentResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused agent loop",
	Run:   runAgentResume,
}

func init() {
	agentStatusCmd.Flags().BoolVar(&agentJSON, "json", false, "Output as JSON")
	agentCmd.AddCommand(agentStatusCmd)
	agentCmd.AddCommand(agentPauseCmd)
	agentCmd.AddCommand(agentResumeCmd)
	rootCmd.AddCommand(agentCmd)
}

func runAgentStatus(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	st, err := client.AgentState(ctx)
	if err != nil {
		fatal(err)
	}

	if agentJSON {
		printJSON(st)
		return
	}
	printHeader("🤖 Agent")
	fmt.Printf("State:  %s\n", st.State)
	fmt.Printf("Model:  %s\n", st.Model)
	fmt.Printf("Uptime: %s\n", (time.Duration(st.UptimeSeconds) * time.Second).String())
	fmt.Printf("Queue:  %d pending\n", st.QueueDepth)
}

func runAgentPause(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.AgentPause(ctx); err != nil {
		audit("agent pause", "", store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("agent pause", "", store.OutcomeOK, "")
	fmt.Println("Agent paused. Queued work waits until resume.")
}

func runAgentResume(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.AgentResume(ctx); err != nil {
		audit("agent resume", "", store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("agent resume", "", store.OutcomeOK, "")
	fmt.Println("Agent resumed.")
}
