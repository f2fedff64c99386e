package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Global flags override the configuration file and KGVIZ_* environment
// variables:
//
//	--config    path to a TOML config file
//	--base-url  backend root, e.g. http://localhost:8000
//	--domain    knowledge domain to load (empty for all)
//	--timeout   per-request timeout, 0 for none
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "kgviz edits and visualizes knowledge graphs",
		Long:         `kgviz is a client for a knowledge-graph backend. It loads entities and relationships over REST, draws them as a force-directed diagram, and edits them from the command line, a terminal browser, or a local viewer.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/kgviz/config.toml)")
	flags.StringVar(&c.baseURL, "base-url", "", "backend base URL")
	flags.StringVar(&c.domain, "domain", "", "knowledge domain (empty for all)")
	flags.DurationVar(&c.timeout, "timeout", 0, "request timeout (0 waits until the backend answers)")

	root.AddCommand(c.graphCommand())
	root.AddCommand(c.entityCommand())
	root.AddCommand(c.relationshipCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.remoteCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.chatCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
