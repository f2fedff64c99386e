package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/graph"
	kgio "github.com/matzehuels/kgviz/pkg/io"
)

// remoteCommand creates the "remote" command group for whole-graph
// operations that run on the backend.
func (c *CLI) remoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Whole-graph operations on the backend",
	}
	cmd.AddCommand(c.remoteExportCommand())
	cmd.AddCommand(c.remoteSaveCommand())
	cmd.AddCommand(c.remoteClearCommand())
	return cmd
}

// remoteExportCommand downloads the backend's own export document.
func (c *CLI) remoteExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the backend's export of the graph",
		Long: `Download the graph through the backend's export endpoint and save it.

Unlike "kgviz export", the document is produced by the backend and honours
--domain on the server side.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			client := c.newClient(cfg)

			var g graph.Graph
			err = spin(cmd.Context(), "Exporting...", func(ctx context.Context) error {
				var err error
				g, err = client.ExportRemote(ctx, cfg.Domain)
				return err
			})
			if err != nil {
				return err
			}
			if output == "" {
				output = kgio.ExportFilename(time.Now())
			}
			if err := kgio.ExportJSON(g, output); err != nil {
				return err
			}
			printGraphStats(g.Stats(), false)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default kg_<timestamp>.json)")
	return cmd
}

// remoteSaveCommand replaces the backend's data with a file's contents.
func (c *CLI) remoteSaveCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "save <file.json>",
		Short: "Replace the backend's data with a graph file",
		Long: `Replace the backend's data with the contents of a graph file.

Unlike "kgviz import --push", nothing is merged: the backend deletes the
existing records first. With --domain only that domain is replaced and every
saved record is moved into it. Relationships whose endpoints are missing from
the file are dropped.`,
		Example: `  kgviz remote save kg_20240101_120000.json
  kgviz remote save tang.json --domain tang --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			g, err := cmds.ImportFile(args[0])
			if err != nil {
				return reported(err)
			}
			printGraphStats(g.Stats(), false)

			scope := "ALL data"
			if cfg.Domain != "" {
				scope = fmt.Sprintf("domain %q", cfg.Domain)
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Replace %s on %s?", scope, cfg.BaseURL)) {
				printInfo("Aborted")
				return nil
			}
			return reported(spin(cmd.Context(), "Saving...", func(ctx context.Context) error {
				_, err := cmds.SaveToRemote(ctx)
				return err
			}))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// remoteClearCommand deletes everything on the backend after confirmation.
// The backend returns a backup, which is written locally before reporting
// success.
func (c *CLI) remoteClearCommand() *cobra.Command {
	var (
		yes    bool
		backup string
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all entities and relationships on the backend",
		Long: `Delete all entities and relationships on the backend.

The backend answers with a copy of what it deleted; kgviz saves that copy
to --backup (default kg_backup_<timestamp>.json in the export directory).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Delete ALL data on %s?", cfg.BaseURL)) {
				printInfo("Aborted")
				return nil
			}

			var saved graph.Graph
			err = spin(cmd.Context(), "Clearing...", func(ctx context.Context) error {
				var err error
				saved, err = cmds.ClearRemote(ctx)
				return err
			})
			if err != nil {
				return reported(err)
			}
			if len(saved.Nodes) == 0 && len(saved.Links) == 0 {
				return nil
			}
			if backup == "" {
				if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
					return err
				}
				backup = backupPath(cfg.ExportDir, time.Now())
			}
			if err := kgio.ExportJSON(saved, backup); err != nil {
				return err
			}
			printFile(backup)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&backup, "backup", "", "where to save the backend's backup")
	return cmd
}

func backupPath(dir string, now time.Time) string {
	return filepath.Join(dir, strings.Replace(kgio.ExportFilename(now), "kg_", "kg_backup_", 1))
}

// confirm asks a yes/no question on the command's input stream.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
