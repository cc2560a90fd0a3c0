package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/api"
	"github.com/ares-console/ares/internal/auth"
	"github.com/ares-console/ares/internal/store"
)

var whoamiJSON bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in via the identity service device flow",
	Run:   runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored credentials",
	Run:   runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account and its admin standing",
	Run:   runWhoami,
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	ctx, cancel := signalContext()
	defer cancel()

	printHeader("🔐 ARES Login")
	if _, err := auth.Login(ctx, cfg.Identity, os.Stdout); err != nil {
		audit("login", cfg.Identity.Issuer, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("login", cfg.Identity.Issuer, store.OutcomeOK, "")

	// The device flow only proves identity; check the admin role now so the
	// user finds out here rather than on their first real command.
	client := api.NewClient(cfg.Backend, auth.NewTokenSource(auth.NewFlow(cfg.Identity)))
	st, err := client.CheckAdmin(ctx)
	switch {
	case err != nil:
		fmt.Printf("Signed in, but the backend admin check failed: %v\n", err)
	case !st.Admin:
		fmt.Println(color.YellowString("Signed in as %s, but this account does not have the admin role.", st.UserID))
		fmt.Println("Ask an existing admin to run: ares users promote " + st.UserID)
	default:
		fmt.Printf("Signed in as %s (admin).\n", st.UserID)
	}
}

func runLogout(_ *cobra.Command, _ []string) {
	if err := auth.ClearCredentials(); err != nil {
		fatal(err)
	}
	audit("logout", "", store.OutcomeOK, "")
	fmt.Println("Signed out; stored credentials removed.")
}

func runWhoami(_ *cobra.Command, _ []string) {
	creds, err := auth.LoadCredentials()
	if err != nil {
		fatal(err)
	}

	cfg := loadConfig()
	client := api.NewClient(cfg.Backend, auth.NewTokenSource(auth.NewFlow(cfg.Identity)))
	st, adminErr := client.CheckAdmin(context.Background())

	if whoamiJSON {
		out := map[string]any{
			"tokenExpiry": creds.Expiry,
		}
		if adminErr != nil {
			out["backendError"] = adminErr.Error()
		} else {
			out["userId"] = st.UserID
			out["admin"] = st.Admin
		}
		printJSON(out)
		return
	}

	if creds.Expiry.IsZero() {
		fmt.Println("Token: stored (no recorded expiry)")
	} else {
		fmt.Printf("Token: expires %s\n", creds.Expiry.Local().Format("2006-01-02 15:04:05"))
	}
	if adminErr != nil {
		fmt.Printf("Backend: %v\n", adminErr)
		os.Exit(1)
	}
	fmt.Printf("User:  %s\n", st.UserID)
	fmt.Printf("Admin: %s\n", yesNo(st.Admin))
}
