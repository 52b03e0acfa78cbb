package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/layercake-run/layercake/pkg/archive"
	"github.com/layercake-run/layercake/pkg/plandag"
)

// archiveCommand groups project archive export/import, both as a single
// ZIP file and as an exploded directory tree.
func (c *CLI) archiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Export and import whole projects as archive bundles",
	}

	cmd.AddCommand(
		c.archiveExportCommand(),
		c.archiveExportTemplateCommand(),
		c.archiveImportCommand(),
		c.archiveExportDirCommand(),
		c.archiveImportDirCommand(),
	)

	return cmd
}

func (c *CLI) withArchiver(cmd *cobra.Command, fn func(exp *archive.Exporter, imp *archive.Importer, st *stores) error) error {
	ctx := cmd.Context()
	st, err := c.newStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	limits := plandag.Limits{MaxNodes: c.Config.PlanDag.MaxNodes, MaxEdges: c.Config.PlanDag.MaxEdges}
	svc := plandag.NewService(st.PlanStore, limits)

	exp := archive.NewExporter(st.ProjectStore, st.DatasetStore, svc)
	imp := archive.NewImporter(st.ProjectStore, st.DatasetStore, st.PlanStore)
	return fn(exp, imp, st)
}

func (c *CLI) archiveExportCommand() *cobra.Command {
	var projectID, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a full project archive to a ZIP file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withArchiver(cmd, func(exp *archive.Exporter, imp *archive.Importer, st *stores) error {
				data, err := exp.ExportProject(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return err
				}
				printSuccess("exported project %s to %s (%d bytes)", projectID, output, len(data))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output ZIP path (required)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (c *CLI) archiveExportTemplateCommand() *cobra.Command {
	var projectID, output string
	cmd := &cobra.Command{
		Use:   "export-template",
		Short: "Export a project as a dataset-free, shareable template",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withArchiver(cmd, func(exp *archive.Exporter, imp *archive.Importer, st *stores) error {
				data, err := exp.ExportTemplate(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return err
				}
				printSuccess("exported template %s to %s (%d bytes)", projectID, output, len(data))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output ZIP path (required)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (c *CLI) archiveImportCommand() *cobra.Command {
	var input, targetProjectID, nameOverride string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a project archive ZIP file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			return c.withArchiver(cmd, func(exp *archive.Exporter, imp *archive.Importer, st *stores) error {
				res, err := imp.ImportProject(cmd.Context(), data, targetProjectID, nameOverride)
				if err != nil {
					return err
				}
				printSuccess("imported project %s: plan %s, %d dataset(s)", res.ProjectID, res.PlanID, res.DatasetCount)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input ZIP path (required)")
	cmd.Flags().StringVar(&targetProjectID, "project", "", "project id to import into (empty mints a fresh one)")
	cmd.Flags().StringVar(&nameOverride, "name", "", "override the bundle's recorded project name")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (c *CLI) archiveExportDirCommand() *cobra.Command {
	var projectID, dir string
	cmd := &cobra.Command{
		Use:   "export-to-dir",
		Short: "Export a project archive exploded into a directory tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withArchiver(cmd, func(exp *archive.Exporter, imp *archive.Importer, st *stores) error {
				if err := exp.ExportToDirectory(cmd.Context(), projectID, dir); err != nil {
					return err
				}
				printSuccess("exported project %s to %s", projectID, dir)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id (required)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (required)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func (c *CLI) archiveImportDirCommand() *cobra.Command {
	var dir, targetProjectID, nameOverride string
	cmd := &cobra.Command{
		Use:   "import-from-dir",
		Short: "Import a project archive from an exploded directory tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withArchiver(cmd, func(exp *archive.Exporter, imp *archive.Importer, st *stores) error {
				res, err := imp.ImportFromDirectory(cmd.Context(), dir, targetProjectID, nameOverride)
				if err != nil {
					return err
				}
				printSuccess("imported project %s: plan %s, %d dataset(s)", res.ProjectID, res.PlanID, res.DatasetCount)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "input directory (required)")
	cmd.Flags().StringVar(&targetProjectID, "project", "", "project id to import into (empty mints a fresh one)")
	cmd.Flags().StringVar(&nameOverride, "name", "", "override the bundle's recorded project name")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
