package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/store"
)

var (
	usersJSON bool
	usersYes  bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage known users and the admin role",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users seen across all channels",
	Run:   runUsersList,
}

var usersPromoteCmd = &cobra.Command{
	Use:   "promote <user-id>",
	Short: "Grant a user the admin role",
	Args:  cobra.ExactArgs(1),
	Run:   runUsersPromote,
}

var usersDemoteCmd = &cobra.Command{
	Use:   "demote <user-id>",
	Short: "Revoke a user's admin role",
	Args:  cobra.ExactArgs(1),
	Run:   runUsersDemote,
}

func init() {
	usersListCmd.Flags().BoolVar(&usersJSON, "json", false, "Output as JSON")
	usersPromoteCmd.Flags().BoolVar(&usersYes, "yes", false, "Skip the confirmation prompt")
	usersDemoteCmd.Flags().BoolVar(&usersYes, "yes", false, "Skip the confirmation prompt")
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersPromoteCmd)
	usersCmd.AddCommand(usersDemoteCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersList(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	users, err := client.Users(ctx)
	if err != nil {
		fatal(err)
	}

	if usersJSON {
		printJSON(users)
		return
	}
	printHeader("👥 Users")
	if len(users) == 0 {
		fmt.Println("No users.")
		return
	}
	fmt.Printf("%-20s %-20s %-10s %-6s %s\n", "ID", "NAME", "CHANNEL", "ADMIN", "LAST SEEN")
	for _, u := range users {
		fmt.Printf("%-20s %-20s %-10s %-6s %s\n",
			truncate(u.ID, 20), truncate(u.Name, 20), u.Channel, yesNo(u.Admin), formatWhen(u.LastSeen))
	}
}

func runUsersPromote(_ *cobra.Command, args []string) {
	id := args[0]
	if !usersYes && !confirm(fmt.Sprintf("Grant admin to %s?", id)) {
		audit("users promote", id, store.OutcomeDenied, "")
		fmt.Println("Aborted.")
		return
	}

	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.PromoteUser(ctx, id); err != nil {
		audit("users promote", id, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("users promote", id, store.OutcomeOK, "")
	fmt.Printf("%s is now an admin.\n", id)
}

func runUsersDemote(_ *cobra.Command, args []string) {
	id := args[0]
	if !usersYes && !confirm(fmt.Sprintf("Revoke admin from %s?", id)) {
		audit("users demote", id, store.OutcomeDenied, "")
		fmt.Println("Aborted.")
		return
	}

	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.DemoteUser(ctx, id); err != nil {
		audit("users demote", id, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("users demote", id, store.OutcomeOK, "")
	fmt.Printf("%s is no longer an admin.\n", id)
}
