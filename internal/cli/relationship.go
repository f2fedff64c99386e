package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/integrations/kg"
)

// relationshipCommand creates the "rel" command group.
func (c *CLI) relationshipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rel",
		Aliases: []string{"relationship", "link"},
		Short:   "Create, show, update, delete and list relationships",
	}
	cmd.AddCommand(c.relAddCommand())
	cmd.AddCommand(c.relGetCommand())
	cmd.AddCommand(c.relUpdateCommand())
	cmd.AddCommand(c.relDeleteCommand())
	cmd.AddCommand(c.relListCommand())
	return cmd
}

func (c *CLI) relAddCommand() *cobra.Command {
	var r kg.NewRelationship

	cmd := &cobra.Command{
		Use:     "add <source> <type> <target>",
		Short:   "Create a relationship between two entities",
		Example: `  kgviz rel add libai 朋友 dufu --description "同游梁宋"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.Source, r.Type, r.Target = args[0], args[1], args[2]
			_, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			var created kg.Created
			err = spin(cmd.Context(), "Creating relationship...", func(ctx context.Context) error {
				var err error
				created, err = cmds.AddRelationship(ctx, r)
				return err
			})
			if err != nil {
				return reported(err)
			}
			if created.ID != "" {
				printKeyValue("id", created.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&r.Description, "description", "d", "", "free-text description")
	cmd.Flags().StringVar(&r.Domain, "rel-domain", "", "knowledge domain of the relationship")
	return cmd
}

func (c *CLI) relUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <rel-id>",
		Short: "Update relationship fields",
		Long: `Update relationship fields. Only the flags you pass are sent.

--set takes a JSON object that is sent to the backend verbatim, merged with
the individual flags.`,
		Example: `  kgviz rel update 12 --type 挚友
  kgviz rel update 12 --set '{"source": "libai", "target": "mengHaoran"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := updatePayload(cmd, map[string]string{
				"type":        "type",
				"description": "description",
				"source":      "source",
				"target":      "target",
			})
			if err != nil {
				return err
			}
			_, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			return spinOK(cmd.Context(), "Updating relationship...", "update relationship", args[0], func(ctx context.Context) bool {
				return cmds.EditRelationship(ctx, args[0], payload)
			})
		},
	}

	cmd.Flags().StringP("type", "t", "", "new relationship type")
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().String("source", "", "new source entity id")
	cmd.Flags().String("target", "", "new target entity id")
	cmd.Flags().String("set", "", "JSON object of fields to send verbatim")
	return cmd
}

func (c *CLI) relDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <rel-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a relationship",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			return spinOK(cmd.Context(), "Deleting relationship...", "delete relationship", args[0], func(ctx context.Context) bool {
				return cmds.RemoveRelationship(ctx, args[0])
			})
		},
	}
}

func (c *CLI) relGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get <rel-id>",
		Aliases: []string{"show"},
		Short:   "Show one relationship",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			r, err := c.newClient(cfg).GetRelationship(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRelationship(r)
			return nil
		},
	}
}

func (c *CLI) relListCommand() *cobra.Command {
	var f kg.RelationshipFilter

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List relationships, optionally filtered",
		Example: `  kgviz rel list --source libai
  kgviz rel list --type 朋友`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			client := c.newClient(cfg)

			var rels []graph.Relationship
			err = spin(cmd.Context(), "Searching...", func(ctx context.Context) error {
				var err error
				rels, err = client.ListRelationships(ctx, f)
				return err
			})
			if err != nil {
				return err
			}
			if len(rels) == 0 {
				printInfo("No relationships found")
				return nil
			}
			// Endpoints are not fetched here, so the table must not mark
			// every link as broken.
			fmt.Println(relationshipTable(graph.Graph{Nodes: endpoints(rels), Links: rels}))
			printDetail("%d relationships", len(rels))
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Source, "source", "", "only relationships from this entity id")
	cmd.Flags().StringVar(&f.Target, "target", "", "only relationships to this entity id")
	cmd.Flags().StringVarP(&f.Type, "type", "t", "", "only relationships whose type contains this text")
	return cmd
}

// endpoints returns placeholder entities for every id rels refer to.
func endpoints(rels []graph.Relationship) []graph.Entity {
	seen := map[string]bool{}
	var out []graph.Entity
	for _, r := range rels {
		for _, id := range []string{r.Source, r.Target} {
			if !seen[id] {
				seen[id] = true
				out = append(out, graph.Entity{ID: id})
			}
		}
	}
	return out
}
