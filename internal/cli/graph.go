package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	kgio "github.com/matzehuels/kgviz/pkg/io"
)

// graphCommand creates the "graph" command group.
func (c *CLI) graphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect the backend graph",
	}
	cmd.AddCommand(c.graphShowCommand())
	return cmd
}

// graphShowCommand creates the "graph show" subcommand.
func (c *CLI) graphShowCommand() *cobra.Command {
	var (
		asJSON   bool
		entities bool
		links    bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Load the graph and print a summary",
		Long: `Load the graph from the backend and print entity and relationship counts.

Use --entities and --links for full tables, or --json to print the graph in
the same format as "kgviz export".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := spin(ctx, "Loading graph...", cmds.Reload); err != nil {
				return reported(err)
			}
			g := cmds.Store().Current()

			if asJSON {
				return kgio.WriteJSON(g, os.Stdout)
			}

			printGraphStats(g.Stats(), false)
			if entities {
				printNewline()
				fmt.Println(entityTable(g.Nodes))
			}
			if links {
				printNewline()
				fmt.Println(relationshipTable(g))
			}
			for _, err := range g.Validate() {
				printWarning("%v", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the graph as JSON")
	cmd.Flags().BoolVarP(&entities, "entities", "e", false, "list entities")
	cmd.Flags().BoolVarP(&links, "links", "l", false, "list relationships")
	return cmd
}
