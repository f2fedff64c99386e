package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/integrations/kg"
)

// importCommand creates the "import" command. A file is loaded into the
// local graph and, with --push, uploaded through the backend's bulk import.
func (c *CLI) importCommand() *cobra.Command {
	var (
		push bool
		opts kg.ImportOptions
	)

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load a graph JSON file",
		Long: `Load a graph JSON file of the form {"nodes": [...], "links": [...]}.

Without --push the file is only validated and summarized. With --push its
contents are uploaded to the backend, which merges them into existing data
according to --strategy and --conflict.`,
		Example: `  kgviz import kg_20240101_120000.json
  kgviz import tang.json --push --strategy merge --conflict auto_id`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			g, err := cmds.ImportFile(args[0])
			if err != nil {
				return reported(err)
			}
			printGraphStats(g.Stats(), false)
			if !push {
				printNextStep("Upload to the backend", "kgviz import "+args[0]+" --push")
				return nil
			}

			var report kg.ImportReport
			err = spin(cmd.Context(), "Uploading...", func(ctx context.Context) error {
				var err error
				report, err = cmds.PushToRemote(ctx, opts)
				return err
			})
			if err != nil {
				return reported(err)
			}
			printImportReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "upload the file to the backend")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "import strategy: merge or skip (default merge)")
	cmd.Flags().StringVar(&opts.ConflictResolution, "conflict", "", "id conflicts: auto_id, merge_data or skip (default auto_id)")
	cmd.Flags().StringVar(&opts.Domain, "import-domain", "", "domain assigned to imported records (default \"default\")")
	return cmd
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the current graph to a timestamped JSON file",
		Long: `Load the graph from the backend and write it to kg_YYYYMMDD_HHMMSS.json.

The file round-trips through "kgviz import".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cmds, err := c.setup(cmd)
			if err != nil {
				return err
			}
			if err := spin(cmd.Context(), "Loading graph...", cmds.Reload); err != nil {
				return reported(err)
			}
			if dir == "" {
				dir = cfg.ExportDir
			}
			path, err := cmds.ExportFile(dir, time.Now())
			if err != nil {
				return reported(err)
			}
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "o", "", "output directory (default from config)")
	return cmd
}

// printImportReport prints the backend's per-record import counts.
func printImportReport(r kg.ImportReport) {
	st := r.Stats
	printKeyValue("domain", r.Domain)
	printKeyValue("strategy", r.Strategy+" / "+r.ConflictResolution)
	printKeyValue("entities", fmt.Sprintf("%d created · %d updated · %d skipped · %d errors",
		st.Entities.Created, st.Entities.Updated, st.Entities.Skipped, st.Entities.Errors))
	printKeyValue("relations", fmt.Sprintf("%d created · %d skipped · %d errors",
		st.Relationships.Created, st.Relationships.Skipped, st.Relationships.Errors))
	for _, c := range st.Conflicts {
		printDetail("%s: %s", c.Type, c.Message)
	}
}
