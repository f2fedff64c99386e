package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for kgviz.

Entity ids complete from the backend, so "kgviz entity delete <TAB>" lists
the entities known to the configured base URL.

Bash:
  $ source <(kgviz completion bash)

Zsh:
  $ kgviz completion zsh > "${fpath[1]}/_kgviz"

Fish:
  $ kgviz completion fish > ~/.config/fish/completions/kgviz.fish

PowerShell:
  PS> kgviz completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			default:
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	}
}

// completeEntityIDs suggests entity ids whose id or name starts with the
// word being completed. Backend failures yield no suggestions.
func (c *CLI) completeEntityIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	entities, err := c.newClient(cfg).ListEntities(cmd.Context(), toComplete)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		if strings.HasPrefix(e.ID, toComplete) || strings.HasPrefix(e.Name, toComplete) {
			out = append(out, e.ID+"\t"+e.Label())
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
