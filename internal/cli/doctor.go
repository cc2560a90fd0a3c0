package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/api"
	"github.com/ares-console/ares/internal/auth"
	"github.com/ares-console/ares/internal/netdiag"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose connectivity to the backend, identity service and Kafka",
	Long: `Run layered network diagnostics: DNS, TCP, TLS, the backend health
endpoint, the admin gate and each Kafka broker. Works without being signed
in; the admin check is simply skipped then.`,
	Run: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output the report as JSON")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	ctx, cancel := signalContext()
	defer cancel()

	opts := netdiag.Options{
		Backend:  cfg.Backend,
		Identity: cfg.Identity,
		Events:   cfg.Events,
		Timeout:  cfg.Backend.Timeout(),
	}
	if _, err := auth.LoadCredentials(); err == nil {
		client := api.NewClient(cfg.Backend, auth.NewTokenSource(auth.NewFlow(cfg.Identity)))
		opts.AdminGate = client.RequireAdmin
	}

	report := netdiag.Run(ctx, opts)
	if doctorJSON {
		printJSON(report)
	} else {
		printHeader("🩺 ARES Doctor")
		report.PrintPretty(os.Stdout)
	}
	if report.HasFailed {
		os.Exit(1)
	}
}
