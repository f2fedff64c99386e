package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/command"
	"github.com/matzehuels/kgviz/pkg/graph"
)

// browseCommand creates the "browse" command, an interactive terminal view
// of entities and their relationships.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse entities and relationships in the terminal",
		Long: `Browse entities and their relationships in an interactive terminal view.

Keys: ↑/↓ move, r reload, x x delete the selected entity, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// Notifications would scribble over the alternate screen; the
			// model shows outcomes in its status line instead.
			store := graph.NewStore()
			cmds := command.New(c.newClient(cfg), store, command.Options{
				Domain:   cfg.Domain,
				Notifier: command.NotifierFunc(func(command.Notification) {}),
				Logger:   c.Logger,
			})

			if err := spin(ctx, "Loading graph...", cmds.Reload); err != nil {
				return err
			}

			actions := browseActions{
				reload: func(ctx context.Context) (graph.Graph, error) {
					if err := cmds.Reload(ctx); err != nil {
						return graph.Graph{}, err
					}
					return store.Current(), nil
				},
				delete: cmds.RemoveEntity,
			}

			p := tea.NewProgram(NewBrowseModel(ctx, store.Current(), actions), tea.WithAltScreen(), tea.WithContext(ctx))
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			if m, ok := final.(BrowseModel); ok && m.Status != "" {
				printDetail("%s", m.Status)
			}
			return nil
		},
	}
}
