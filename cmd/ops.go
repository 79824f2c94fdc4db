package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/gitu/internal/output"
	"github.com/dgerlanc/gitu/internal/resolve"
)

var opsNames bool

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the built-in operations",
	Long: `List every operation gitu expands, with its aliases and arguments.
Any other name is passed to git unchanged.`,
	Args: cobra.NoArgs,
	RunE: runOps,
}

func init() {
	rootCmd.AddCommand(opsCmd)
	opsCmd.Flags().BoolVar(&opsNames, "names", false, "Print only operation names and aliases, one per line")
}

func runOps(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ops := resolve.Operations()

	if opsNames {
		for _, op := range ops {
			fmt.Fprintln(out, op.Name)
			for _, a := range op.Aliases {
				fmt.Fprintln(out, a)
			}
		}
		return nil
	}

	rows := make([][]string, 0, len(ops))
	for _, op := range ops {
		name := op.Name
		if len(op.Aliases) > 0 {
			name += " (" + strings.Join(op.Aliases, ", ") + ")"
		}
		rows = append(rows, []string{name, op.Usage, op.Summary})
	}

	fmt.Fprintln(out, output.Columns(rows))
	return nil
}
