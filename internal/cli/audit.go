package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	auditLimit int
	auditJSON  bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the local log of console actions",
	Run:   runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum rows to show")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(_ *cobra.Command, _ []string) {
	st, err := openStore()
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	entries, err := st.ListActions(auditLimit)
	if err != nil {
		fatal(err)
	}

	if auditJSON {
		printJSON(entries)
		return
	}
	printHeader("🧾 Audit Log")
	if len(entries) == 0 {
		fmt.Println("No actions recorded yet.")
		return
	}
	fmt.Printf("%-19s %-20s %-24s %-7s %s\n", "TIME", "COMMAND", "TARGET", "RESULT", "DETAIL")
	for _, e := range entries {
		fmt.Printf("%-19s %-20s %-24s %-7s %s\n",
			e.At.Local().Format("2006-01-02 15:04:05"), e.Command,
			truncate(e.Target, 24), e.Outcome, truncate(e.Detail, 40))
	}
}
