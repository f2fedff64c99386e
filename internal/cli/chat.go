package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/integrations/kg"
)

// chatCommand asks the backend's assistant a question about the graph.
func (c *CLI) chatCommand() *cobra.Command {
	var (
		nodeID string
		relID  string
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "chat <question...>",
		Short: "Ask the backend's assistant about the graph",
		Long: `Ask the backend's assistant about the graph.

The current graph (narrowed by --domain) is sent along with the question.
--node and --rel focus the question on one entity or relationship, the way
selecting it in the viewer would. --local skips the external model and uses
the backend's built-in answers.`,
		Example: `  kgviz chat 李白有哪些朋友
  kgviz chat "介绍一下" --node libai`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			client := c.newClient(cfg)

			var answer string
			err = spin(cmd.Context(), "Thinking...", func(ctx context.Context) error {
				g, err := client.FetchGraph(ctx, kg.FetchOptions{Domain: cfg.Domain})
				if err != nil {
					return err
				}
				req, err := chatRequest(g, strings.Join(args, " "), cfg.Domain, nodeID, relID)
				if err != nil {
					return err
				}
				req.UseExternalAI = !local
				answer, err = client.Chat(ctx, req)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Println(StyleValue.Render(answer))
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeID, "node", "", "entity id the question is about")
	cmd.Flags().StringVar(&relID, "rel", "", "relationship id the question is about")
	cmd.Flags().BoolVar(&local, "local", false, "answer with the backend's built-in rules only")
	_ = cmd.RegisterFlagCompletionFunc("node", c.completeEntityIDs)
	return cmd
}

// chatRequest builds the ai-chat body, resolving the selected entity and
// relationship against g.
func chatRequest(g graph.Graph, message, domain, nodeID, relID string) (kg.ChatRequest, error) {
	req := kg.ChatRequest{Message: message, GraphData: g, CurrentDomain: domain}
	if nodeID != "" {
		n, ok := g.Node(nodeID)
		if !ok {
			return kg.ChatRequest{}, errors.New(errors.ErrCodeNotFound, "entity %q is not in the graph", nodeID)
		}
		req.SelectedNode = &n
	}
	if relID != "" {
		for _, l := range g.Links {
			if l.ID.String() == relID {
				req.SelectedLink = &l
				break
			}
		}
		if req.SelectedLink == nil {
			return kg.ChatRequest{}, errors.New(errors.ErrCodeNotFound, "relationship %q is not in the graph", relID)
		}
	}
	return req, nil
}
