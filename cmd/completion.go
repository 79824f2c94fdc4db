package cmd

import (
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var completionNoDesc bool

// completionShells maps each supported shell to its script generator. The
// bool asks for operation summaries next to the names.
var completionShells = map[string]func(root *cobra.Command, w io.Writer, desc bool) error{
	"bash": func(root *cobra.Command, w io.Writer, desc bool) error {
		return root.GenBashCompletionV2(w, desc)
	},
	"zsh": func(root *cobra.Command, w io.Writer, desc bool) error {
		if desc {
			return root.GenZshCompletion(w)
		}
		return root.GenZshCompletionNoDesc(w)
	},
	"fish": func(root *cobra.Command, w io.Writer, desc bool) error {
		return root.GenFishCompletion(w, desc)
	},
	"powershell": func(root *cobra.Command, w io.Writer, desc bool) error {
		if desc {
			return root.GenPowerShellCompletionWithDesc(w)
		}
		return root.GenPowerShellCompletion(w)
	},
}

func shellNames() []string {
	names := make([]string, 0, len(completionShells))
	for name := range completionShells {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var completionCmd = &cobra.Command{
	Use:   "completion SHELL",
	Short: "Generate shell completion scripts",
	Long: `Print a completion script for SHELL (` + strings.Join(shellNames(), ", ") + `).

The first argument completes to operation names and aliases with their
summaries. Arguments after the operation complete as files, as git's would.

  $ source <(gitu completion bash)
  $ gitu completion zsh > "${fpath[1]}/_gitu"
  $ gitu completion fish > ~/.config/fish/completions/gitu.fish
  PS> gitu completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             shellNames(),
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)
	completionCmd.Flags().BoolVar(&completionNoDesc, "no-descriptions", false, "Complete operation names without their summaries")
}

func runCompletion(cmd *cobra.Command, args []string) error {
	return completionShells[args[0]](rootCmd, cmd.OutOrStdout(), !completionNoDesc)
}
