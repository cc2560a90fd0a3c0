package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ares-console/ares/internal/store"
)

var (
	toolsJSON bool
	toolsArgs string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List and invoke the assistant's tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools",
	Run:   runToolsList,
}

var toolsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Invoke a tool directly and print its output",
	Args:  cobra.ExactArgs(1),
	Run:   runToolsRun,
}

func init() {
	toolsListCmd.Flags().BoolVar(&toolsJSON, "json", false, "Output as JSON")
	toolsRunCmd.Flags().StringVar(&toolsArgs, "args", "", "Tool arguments as a JSON object")
	toolsRunCmd.Flags().BoolVar(&toolsJSON, "json", false, "Output the raw result as JSON")
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsRunCmd)
	rootCmd.AddCommand(toolsCmd)
}

func runToolsList(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	tools, err := client.Tools(ctx)
	if err != nil {
		fatal(err)
	}

	if toolsJSON {
		printJSON(tools)
		return
	}
	printHeader("🔧 Tools")
	if len(tools) == 0 {
		fmt.Println("No tools registered.")
		return
	}
	for _, t := range tools {
		fmt.Printf("%-24s %s\n", t.Name, t.Description)
	}
}

func runToolsRun(_ *cobra.Command, cmdArgs []string) {
	name := cmdArgs[0]
	args := map[string]any{}
	if toolsArgs != "" {
		if err := json.Unmarshal([]byte(toolsArgs), &args); err != nil {
			fatalf("--args is not a JSON object: %v", err)
		}
	}

	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		fatal(err)
	}
	result, err := client.RunTool(ctx, name, args)
	if err != nil {
		audit("tools run", name, store.OutcomeFailed, err.Error())
		fatal(err)
	}

	if result.Error != "" {
		audit("tools run", name, store.OutcomeFailed, result.Error)
		fmt.Printf("%s %s\n", color.RedString("Tool error:"), result.Error)
		return
	}
	audit("tools run", name, store.OutcomeOK, truncate(toolsArgs, 120))
	if toolsJSON && len(result.Raw) > 0 {
		var v any
		if err := json.Unmarshal(result.Raw, &v); err == nil {
			printJSON(v)
			return
		}
	}
	fmt.Println(result.Output)
}
