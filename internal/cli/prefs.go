package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/store"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Console-local polling preferences",
}

var prefsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the auto-poll setting per component",
	Run:   runPrefsList,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <component> <on|off>",
	Short: "Enable or disable scheduled polling for one component",
	Args:  cobra.ExactArgs(2),
	Run:   runPrefsSet,
}

func init() {
	prefsCmd.AddCommand(prefsListCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}

var prefComponents = []string{"backend", "agent", "telegram", "discord"}

func validComponent(name string) bool {
	for _, c := range prefComponents {
		if c == name {
			return true
		}
	}
	return false
}

func runPrefsList(_ *cobra.Command, _ []string) {
	st, err := openStore()
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	printHeader("⚙️ Polling Preferences")
	for _, name := range prefComponents {
		enabled, ok := st.AutoPoll(name)
		if !ok {
			fmt.Printf("%-10s on (default)\n", name)
			continue
		}
		fmt.Printf("%-10s %s\n", name, onOff(enabled))
	}
}

func runPrefsSet(_ *cobra.Command, args []string) {
	name, value := args[0], args[1]
	if !validComponent(name) {
		fatalf("unknown component %q: want one of backend, agent, telegram, discord", name)
	}
	var enabled bool
	switch value {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		fatalf("bad value %q: want on or off", value)
	}

	st, err := openStore()
	if err != nil {
		fatal(err)
	}
	defer st.Close()
	if err := st.SetAutoPoll(name, enabled); err != nil {
		audit("prefs set", name, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("prefs set", name, store.OutcomeOK, value)
	fmt.Printf("%s polling: %s\n", name, value)
}
