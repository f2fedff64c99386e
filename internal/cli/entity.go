package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/integrations/kg"
)

// entityCommand creates the "entity" command group.
func (c *CLI) entityCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entity",
		Aliases: []string{"entities", "node"},
		Short:   "Create, show, update, delete and search entities",
	}
	cmd.AddCommand(c.entityAddCommand())
	cmd.AddCommand(c.entityGetCommand())
	cmd.AddCommand(c.entityUpdateCommand())
	cmd.AddCommand(c.entityDeleteCommand())
	cmd.AddCommand(c.entityListCommand())
	return cmd
}

func (c *CLI) entityAddCommand() *cobra.Command {
	var e kg.NewEntity

	cmd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Create an entity",
		Example: `  kgviz entity add libai 李白 --type 人物
  kgviz entity add tang 唐朝 --type 组织 --description "618-907"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e.ID, e.Name = args[0], args[1]
			_, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			return reported(spin(cmd.Context(), "Creating entity...", func(ctx context.Context) error {
				return cmds.AddEntity(ctx, e)
			}))
		},
	}

	cmd.Flags().StringVarP(&e.Type, "type", "t", "", "entity type (e.g. 人物, 组织, 地点)")
	cmd.Flags().StringVarP(&e.Description, "description", "d", "", "free-text description")
	cmd.Flags().StringVar(&e.Domain, "entity-domain", "", "knowledge domain of the entity")
	return cmd
}

func (c *CLI) entityGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "get <id>",
		Aliases:           []string{"show"},
		Short:             "Show one entity",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeEntityIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			e, err := c.newClient(cfg).GetEntity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printEntity(e)
			return nil
		},
	}
}

func (c *CLI) entityUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update entity fields",
		Long: `Update entity fields. Only the flags you pass are sent.

--set takes a JSON object that is sent to the backend verbatim, merged with
the individual flags.`,
		Example: `  kgviz entity update libai --name 李太白
  kgviz entity update libai --set '{"description": "诗仙"}'`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeEntityIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := updatePayload(cmd, map[string]string{
				"name":          "name",
				"type":          "type",
				"description":   "description",
				"entity-domain": "domain",
			})
			if err != nil {
				return err
			}
			_, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			return spinOK(cmd.Context(), "Updating entity...", "update entity", args[0], func(ctx context.Context) bool {
				return cmds.EditEntity(ctx, args[0], payload)
			})
		},
	}

	cmd.Flags().StringP("name", "n", "", "new name")
	cmd.Flags().StringP("type", "t", "", "new type")
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().String("entity-domain", "", "new knowledge domain")
	cmd.Flags().String("set", "", "JSON object of fields to send verbatim")
	return cmd
}

func (c *CLI) entityDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id>",
		Aliases:           []string{"rm"},
		Short:             "Delete an entity and its relationships",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeEntityIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			return spinOK(cmd.Context(), "Deleting entity...", "delete entity", args[0], func(ctx context.Context) bool {
				return cmds.RemoveEntity(ctx, args[0])
			})
		},
	}
}

func (c *CLI) entityListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls", "search"},
		Short:   "List entities, optionally matching a query",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			client := c.newClient(cfg)

			var entities []graph.Entity
			err = spin(cmd.Context(), "Searching...", func(ctx context.Context) error {
				var err error
				entities, err = client.ListEntities(ctx, query)
				return err
			})
			if err != nil {
				return err
			}
			if len(entities) == 0 {
				printInfo("No entities found")
				return nil
			}
			fmt.Println(entityTable(entities))
			printDetail("%d entities", len(entities))
			return nil
		},
	}
}

// updatePayload builds an update body from the --set JSON object and every
// changed string flag in fields, which maps flag names to payload keys.
func updatePayload(cmd *cobra.Command, fields map[string]string) (map[string]any, error) {
	flags := cmd.Flags()
	payload := map[string]any{}
	if raw, _ := flags.GetString("set"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "--set must be a JSON object")
		}
		if payload == nil {
			payload = map[string]any{}
		}
	}
	for flag, key := range fields {
		if !flags.Changed(flag) {
			continue
		}
		v, _ := flags.GetString(flag)
		payload[key] = v
	}
	if len(payload) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nothing to update")
	}
	return payload, nil
}
