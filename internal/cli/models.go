package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/store"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List and switch the assistant's model",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available models",
	Run:   runModelsList,
}

var modelsSetCmd = &cobra.Command{
	Use:   "set <model>",
	Short: "Make a model the active one",
	Args:  cobra.ExactArgs(1),
	Run:   runModelsSet,
}

func init() {
	modelsListCmd.Flags().BoolVar(&modelsJSON, "json", false, "Output as JSON")
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsSetCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	models, err := client.ListModels(ctx)
	if err != nil {
		fatal(err)
	}

	if modelsJSON {
		printJSON(models)
		return
	}
	printHeader("🧩 Models")
	for _, m := range models.Models {
		if m == models.Active {
			fmt.Printf("* %s %s\n", m, color.GreenString("(active)"))
		} else {
			fmt.Printf("  %s\n", m)
		}
	}
}

func runModelsSet(_ *cobra.Command, args []string) {
	model := args[0]
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	if err := client.SetActiveModel(ctx, model); err != nil {
		audit("models set", model, store.OutcomeFailed, err.Error())
		fatal(err)
	}
	audit("models set", model, store.OutcomeOK, "")
	fmt.Printf("Active model is now %s.\n", model)
}
