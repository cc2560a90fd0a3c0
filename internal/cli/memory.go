package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/store"
)

var (
	memoryJSON bool
	memoryYes  bool
	memoryUser string
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect the assistant's long-term memory",
}

var memorySelfCmd = &cobra.Command{
	Use:   "self",
	Short: "Notes the assistant keeps about itself",
}

var memorySelfListCmd = &cobra.Command{
	Use:   "list",
	Short: "List self-notes",
	Run:   runMemorySelfList,
}

var memorySelfAddCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Add a self-note",
	Args:  cobra.MinimumNArgs(1),
	Run:   runMemorySelfAdd,
}

var memorySelfDeleteCmd = &cobra.Command{
	Use:   "delete <note-id>",
	Short: "Delete a self-note",
	Args:  cobra.ExactArgs(1),
	Run:   runMemorySelfDelete,
}

var memoryUserCmd = &cobra.Command{
	Use:   "user",
	Short: "What the assistant remembers about users",
}

var memoryUserListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user memory entries",
	Run:   runMemoryUserList,
}

var memoryFactsCmd = &cobra.Command{
	Use:   "facts",
	Short: "List stored user facts",
	Run:   runMemoryFacts,
}

var memoryFactsDeleteCmd = &cobra.Command{
	Use:   "delete <fact-id>",
	Short: "Delete a stored fact",
	Args:  cobra.ExactArgs(1),
	Run:   runMemoryFactsDelete,
}

var memoryPrefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show learned user preferences",
	Run:   runMemoryPrefs,
}

func init() {
	for _, c := range []*cobra.Command{memorySelfListCmd, memoryUserListCmd, memoryFactsCmd, memoryPrefsCmd} {
		c.Flags().BoolVar(&memoryJSON, "json", false, "Output as JSON")
	}
	for _, c := range []*cobra.Command{memoryUserListCmd, memoryFactsCmd, memoryPrefsCmd} {
		c.Flags().StringVar(&memoryUser, "user", "", "Restrict to one user id")
	}
	memorySelfDeleteCmd.Flags().BoolVar(&memoryYes, "yes", false, "Skip the confirmation prompt")
	memoryFactsDeleteCmd.Flags().BoolVar(&memoryYes, "yes", false, "Skip the confirmation prompt")

	memorySelfCmd.AddCommand(memorySelfListCmd)
	memorySelfCmd.AddCommand(memorySelfAddCmd)
	memorySelfCmd.AddCommand(memorySelfDeleteCmd)
	memoryFactsCmd.AddCommand(memoryFactsDeleteCmd)
	memoryUserCmd.AddCommand(memoryUserListCmd)
	memoryUserCmd.AddCommand(memoryFactsCmd)
	memoryUserCmd.AddCommand(memoryPrefsCmd)
	memoryCmd.AddCommand(memorySelfCmd)
	memoryCmd.AddCommand(memoryUserCmd)
	rootCmd.AddCommand(memoryCmd)
}

func runMemorySelfList(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	notes, err := client.SelfMemory(ctx)
	if err != nil {
		fatal(err)
	}

	if memoryJSON {
		printJSON(notes)
		return
	}
	printHeader("🧠 Self Memory")
	if len(notes) == 0 {
		fmt.Println("No self-notes.")
		return
	}
	for _, n := range notes {
		fmt.Printf("%-12s %-19s %s\n", truncate(n.ID, 12), formatWhen(n.CreatedAt), n.Content)
	}
}

func runMemorySelfAdd(_ *cobra.Command, args []string) {
	content := strings.Join(args, " ")
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	note, err := client.AddSelfMemory(ctx, content)
	if err != nil {
		audit("memory self add", "", store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("memory self add", note.ID, store.OutcomeOK, truncate(content, 120))
	fmt.Printf("Added note %s.\n", note.ID)
}

func runMemorySelfDelete(_ *cobra.Command, args []string) {
	id := args[0]
	if !memoryYes && !confirm(fmt.Sprintf("Delete self-note %s?", id)) {
		audit("memory self delete", id, store.OutcomeDenied, "")
		fmt.Println("Aborted.")
		return
	}

	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.DeleteSelfMemory(ctx, id); err != nil {
		audit("memory self delete", id, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("memory self delete", id, store.OutcomeOK, "")
	fmt.Printf("Note %s deleted.\n", id)
}

func runMemoryUserList(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	entries, err := client.UserMemory(ctx, memoryUser)
	if err != nil {
		fatal(err)
	}

	if memoryJSON {
		printJSON(entries)
		return
	}
	printHeader("🧠 User Memory")
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return
	}
	fmt.Printf("%-12s %-10s %-19s %s\n", "ID", "KIND", "UPDATED", "CONTENT")
	for _, e := range entries {
		fmt.Printf("%-12s %-10s %-19s %s\n",
			truncate(e.ID, 12), e.Kind, formatWhen(e.UpdatedAt), truncate(e.Content, 60))
	}
}

func runMemoryFacts(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	facts, err := client.UserFacts(ctx, memoryUser)
	if err != nil {
		fatal(err)
	}

	if memoryJSON {
		printJSON(facts)
		return
	}
	printHeader("🧠 User Facts")
	if len(facts) == 0 {
		fmt.Println("No facts.")
		return
	}
	fmt.Printf("%-12s %-12s %-19s %s\n", "ID", "SOURCE", "ADDED", "FACT")
	for _, f := range facts {
		fmt.Printf("%-12s %-12s %-19s %s\n",
			truncate(f.ID, 12), truncate(f.Source, 12), formatWhen(f.AddedAt), f.Fact)
	}
}

func runMemoryFactsDelete(_ *cobra.Command, args []string) {
	id := args[0]
	if !memoryYes && !confirm(fmt.Sprintf("Delete fact %s?", id)) {
		audit("memory facts delete", id, store.OutcomeDenied, "")
		fmt.Println("Aborted.")
		return
	}

	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.DeleteUserFact(ctx, id); err != nil {
		audit("memory facts delete", id, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("memory facts delete", id, store.OutcomeOK, "")
	fmt.Printf("Fact %s deleted.\n", id)
}

func runMemoryPrefs(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	prefs, err := client.UserPreferences(ctx, memoryUser)
	if err != nil {
		fatal(err)
	}

	if memoryJSON {
		printJSON(prefs)
		return
	}
	printHeader("🧠 User Preferences")
	if len(prefs) == 0 {
		fmt.Println("No preferences.")
		return
	}
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %s\n", k, prefs[k])
	}
}
