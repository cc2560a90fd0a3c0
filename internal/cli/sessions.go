package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/api"
	"github.com/ares-console/ares/internal/store"
)

var (
	sessionsJSON   bool
	sessionsYes    bool
	transcriptJSON bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse and manage conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions across all channels",
	Run:   runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session's metadata",
	Args:  cobra.ExactArgs(1),
	Run:   runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its transcript",
	Args:  cobra.ExactArgs(1),
	Run:   runSessionsDelete,
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <session-id>",
	Short: "Print a session's full message transcript",
	Args:  cobra.ExactArgs(1),
	Run:   runTranscript,
}

func init() {
	sessionsListCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output as JSON")
	sessionsShowCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output as JSON")
	sessionsDeleteCmd.Flags().BoolVar(&sessionsYes, "yes", false, "Skip the confirmation prompt")
	transcriptCmd.Flags().BoolVar(&transcriptJSON, "json", false, "Output as JSON")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(transcriptCmd)
}

func runSessionsList(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	sessions, err := client.Sessions(ctx)
	if err != nil {
		fatal(err)
	}

	if sessionsJSON {
		printJSON(sessions)
		return
	}
	printHeader("💬 Sessions")
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return
	}
	fmt.Printf("%-24s %-10s %-16s %5s  %-19s %s\n", "ID", "CHANNEL", "USER", "MSGS", "LAST ACTIVE", "TITLE")
	for _, s := range sessions {
		fmt.Printf("%-24s %-10s %-16s %5d  %-19s %s\n",
			truncate(s.ID, 24), s.Channel, truncate(s.UserID, 16), s.MessageCount,
			formatWhen(s.LastActiveAt), truncate(s.Title, 40))
	}
}

func runSessionsShow(_ *cobra.Command, args []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	s, err := client.Session(ctx, args[0])
	if err != nil {
		fatal(err)
	}

	if sessionsJSON {
		printJSON(s)
		return
	}
	printHeader("💬 Session " + s.ID)
	fmt.Printf("Channel:     %s\n", s.Channel)
	fmt.Printf("User:        %s\n", s.UserID)
	fmt.Printf("Title:       %s\n", s.Title)
	fmt.Printf("Started:     %s\n", formatWhen(s.StartedAt))
	fmt.Printf("Last active: %s\n", formatWhen(s.LastActiveAt))
	fmt.Printf("Messages:    %d\n", s.MessageCount)
}

func runSessionsDelete(_ *cobra.Command, args []string) {
	id := args[0]
	if !sessionsYes && !confirm(fmt.Sprintf("Delete session %s and its transcript?", id)) {
		audit("sessions delete", id, store.OutcomeDenied, "")
		fmt.Println("Aborted.")
		return
	}

	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.DeleteSession(ctx, id); err != nil {
		audit("sessions delete", id, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("sessions delete", id, store.OutcomeOK, "")
	fmt.Printf("Session %s deleted.\n", id)
}

func runTranscript(_ *cobra.Command, args []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	messages, err := client.Transcript(ctx, args[0])
	if err != nil {
		fatal(err)
	}

	if transcriptJSON {
		printJSON(messages)
		return
	}
	printHeader("📜 Transcript " + args[0])
	if len(messages) == 0 {
		fmt.Println("No messages.")
		return
	}
	for _, m := range messages {
		fmt.Println(messageLine(m))
	}
}

// messageLine renders one transcript entry as "[time] role: content".
func messageLine(m api.Message) string {
	return fmt.Sprintf("[%s] %-9s %s", formatWhen(m.CreatedAt), m.Role+":", m.Content)
}
