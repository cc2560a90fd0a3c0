package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/store"
)

var settingsJSON bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change runtime settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all runtime settings",
	Run:   runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one setting",
	Args:  cobra.ExactArgs(1),
	Run:   runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting on the backend",
	Args:  cobra.ExactArgs(2),
	Run:   runSettingsSet,
}

func init() {
	settingsListCmd.Flags().BoolVar(&settingsJSON, "json", false, "Output as JSON")
	settingsGetCmd.Flags().BoolVar(&settingsJSON, "json", false, "Output as JSON")
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsList(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	settings, err := client.Settings(ctx)
	if err != nil {
		fatal(err)
	}

	if settingsJSON {
		printJSON(settings)
		return
	}
	printHeader("⚙️ Settings")
	if len(settings) == 0 {
		fmt.Println("No settings.")
		return
	}
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-32s %s\n", k, settings[k])
	}
}

func runSettingsGet(_ *cobra.Command, args []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	setting, err := client.Setting(ctx, args[0])
	if err != nil {
		fatal(err)
	}

	if settingsJSON {
		printJSON(setting)
		return
	}
	fmt.Printf("%s = %s\n", setting.Key, setting.Value)
}

func runSettingsSet(_ *cobra.Command, args []string) {
	key, value := args[0], args[1]
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.SetSetting(ctx, key, value); err != nil {
		audit("settings set", key, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("settings set", key, store.OutcomeOK, truncate(value, 120))
	fmt.Printf("%s = %s\n", key, value)
}
