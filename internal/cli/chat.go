package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/store"
)

var (
	chatSession     string
	chatHistoryJSON bool
	chatLimit       int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant from the console",
}

var chatSendCmd = &cobra.Command{
	Use:   "send <text>...",
	Short: "Send a message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	Run:   runChatSend,
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent console chat messages",
	Run:   runChatHistory,
}

func init() {
	chatSendCmd.Flags().StringVar(&chatSession, "session", "", "Continue an existing session instead of starting one")
	chatHistoryCmd.Flags().StringVar(&chatSession, "session", "", "Session to show (default: the console session)")
	chatHistoryCmd.Flags().BoolVar(&chatHistoryJSON, "json", false, "Output as JSON")
	chatHistoryCmd.Flags().IntVar(&chatLimit, "limit", 20, "Maximum messages to show")
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatHistoryCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChatSend(_ *cobra.Command, args []string) {
	text := strings.Join(args, " ")
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}

	reply, err := client.SendChat(ctx, chatSession, text)
	if err != nil {
		audit("chat send", chatSession, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("chat send", reply.SessionID, store.OutcomeOK, truncate(text, 120))

	fmt.Println(reply.Reply)
	fmt.Printf("\n(session %s)\n", reply.SessionID)
}

func runChatHistory(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	messages, err := client.ChatHistory(ctx, chatSession)
	if err != nil {
		fatal(err)
	}
	if chatLimit > 0 && len(messages) > chatLimit {
		messages = messages[len(messages)-chatLimit:]
	}

	if chatHistoryJSON {
		printJSON(messages)
		return
	}
	printHeader("💬 Chat History")
	if len(messages) == 0 {
		fmt.Println("No messages yet. Try: ares chat send hello")
		return
	}
	for _, m := range messages {
		fmt.Println(messageLine(m))
	}
}
