package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/config"
	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file path; "-" writes to stdout
	engine   string // layout engine: "neato" or "fdp"
	format   string // output format: "svg", "png" or "dot"
	detailed bool   // add id and type to node labels
	noCache  bool   // bypass the render cache
	input    string // render a local JSON file instead of the backend graph
}

// renderCommand creates the render command. It loads the graph, runs one
// layout pass and writes the diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the graph to SVG, PNG or DOT",
		Long: `Load the graph, lay it out with Graphviz and write the diagram.

Entities are colored by type. Relationships whose source or target is
missing are drawn as dashed red edges to a placeholder.`,
		Example: `  kgviz render -o graph.svg
  kgviz render --engine fdp --format png -o graph.png
  kgviz render --input kg_20240101_120000.json --format dot -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default graph.<format>, - for stdout)")
	cmd.Flags().StringVarP(&opts.engine, "engine", "e", "", "layout engine: neato or fdp (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg, png or dot (default from config)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show entity id and type in labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "render a local graph JSON file")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg config.Config, opts renderOpts) error {
	if opts.engine == "" {
		opts.engine = cfg.Render.Engine
	}
	if opts.format == "" {
		opts.format = cfg.Render.Format
	}
	engine, err := render.ParseEngine(opts.engine)
	if err != nil {
		return err
	}
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.output == "" {
		opts.output = "graph." + string(format)
	}

	cmds := c.newCommands(cfg)
	if opts.input != "" {
		if _, err := cmds.ImportFile(opts.input); err != nil {
			return reported(err)
		}
	} else if err := spin(ctx, "Loading graph...", cmds.Reload); err != nil {
		return reported(err)
	}

	renderer := render.NewRenderer(cmds.Store(), render.NewGraphvizSimulation(engine), c.Logger)
	defer renderer.Close()

	prog := newProgress(c.Logger)
	if err := renderer.Tick(ctx); err != nil {
		return err
	}

	rc := c.newCache(ctx, cfg, opts.noCache)
	defer rc.Close()
	drawer := &render.Drawer{Engine: engine, Cache: rc, TTL: cfg.Cache.TTL.Duration, Logger: c.Logger}

	data, cached, err := drawer.DrawCached(ctx, renderer.Scene(), format, render.DOTOptions{Detailed: opts.detailed})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d entities as %s", len(renderer.Scene().Nodes), format))

	if opts.output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printGraphStats(cmds.Store().Current().Stats(), cached)
	printFile(opts.output)
	return nil
}

func parseFormat(s string) (render.Format, error) {
	switch f := render.Format(strings.ToLower(s)); f {
	case render.FormatSVG, render.FormatPNG, render.FormatDOT:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want svg, png or dot)", s)
}
