package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/layercake-run/layercake/pkg/plandag"
	"github.com/layercake-run/layercake/pkg/storage"
)

// planCommand groups plan DAG mutations and inspection backed by the
// configured storage backend.
func (c *CLI) planCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect and mutate a project's plan DAG",
	}

	cmd.AddCommand(
		c.planGetOrCreateCommand(),
		c.planCreateNodeCommand(),
		c.planDeleteNodeCommand(),
		c.planMoveNodeCommand(),
		c.planCreateEdgeCommand(),
		c.planDeleteEdgeCommand(),
		c.planSnapshotCommand(),
		c.planMigrateLegacyCommand(),
		c.graphDataBuildCommand(),
	)

	return cmd
}

// withPlanService opens the configured storage backend, runs fn with a
// plandag.Service bound to it, and closes the backend afterward.
func (c *CLI) withPlanService(cmd *cobra.Command, fn func(svc *plandag.Service, st *stores) error) error {
	ctx := cmd.Context()
	st, err := c.newStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	limits := plandag.Limits{MaxNodes: c.Config.PlanDag.MaxNodes, MaxEdges: c.Config.PlanDag.MaxEdges}
	svc := plandag.NewService(st.PlanStore, limits)
	return fn(svc, st)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func (c *CLI) planGetOrCreateCommand() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "get-or-create",
		Short: "Fetch the project's oldest plan, creating one if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPlanService(cmd, func(svc *plandag.Service, st *stores) error {
				plan, err := svc.GetOrCreatePlan(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				printSuccess("plan %s (version %d)", plan.ID, plan.Version)
				return printJSON(plan)
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (c *CLI) planCreateNodeCommand() *cobra.Command {
	var planID, nodeType, metadataJSON, configJSON string
	var x, y float64
	cmd := &cobra.Command{
		Use:   "create-node",
		Short: "Create a plan DAG node",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := plandag.Node{
				NodeType: plandag.NodeType(nodeType),
				Position: plandag.Position{X: x, Y: y},
			}
			if err := unmarshalInto(metadataJSON, &n.Metadata); err != nil {
				return err
			}
			if err := unmarshalInto(configJSON, &n.Config); err != nil {
				return err
			}
			return c.withPlanService(cmd, func(svc *plandag.Service, st *stores) error {
				created, err := svc.CreateNode(cmd.Context(), planID, n)
				if err != nil {
					return err
				}
				printSuccess("created node %s", created.ID)
				return printJSON(created)
			})
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id (required)")
	cmd.Flags().StringVar(&nodeType, "type", "", "node type, e.g. DataSetNode, TransformNode (required)")
	cmd.Flags().Float64Var(&x, "x", 0, "x position")
	cmd.Flags().Float64Var(&y, "y", 0, "y position")
	cmd.Flags().StringVar(&metadataJSON, "metadata", "{}", "node metadata as a JSON object")
	cmd.Flags().StringVar(&configJSON, "config", "{}", "node config as a JSON object")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (c *CLI) planDeleteNodeCommand() *cobra.Command {
	var planID, nodeID string
	cmd := &cobra.Command{
		Use:   "delete-node",
		Short: "Delete a node, cascading to its incident edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPlanService(cmd, func(svc *plandag.Service, st *stores) error {
				if err := svc.DeleteNode(cmd.Context(), planID, nodeID); err != nil {
					return err
				}
				printSuccess("deleted node %s", nodeID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id (required)")
	cmd.Flags().StringVar(&nodeID, "node", "", "node id (required)")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("node")
	return cmd
}

func (c *CLI) planMoveNodeCommand() *cobra.Command {
	var planID, nodeID string
	var x, y float64
	cmd := &cobra.Command{
		Use:   "move-node",
		Short: "Reposition a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPlanService(cmd, func(svc *plandag.Service, st *stores) error {
				if err := svc.MoveNode(cmd.Context(), planID, nodeID, plandag.Position{X: x, Y: y}); err != nil {
					return err
				}
				printSuccess("moved node %s to (%.1f, %.1f)", nodeID, x, y)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id (required)")
	cmd.Flags().StringVar(&nodeID, "node", "", "node id (required)")
	cmd.Flags().Float64Var(&x, "x", 0, "new x position")
	cmd.Flags().Float64Var(&y, "y", 0, "new y position")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("node")
	return cmd
}

func (c *CLI) planCreateEdgeCommand() *cobra.Command {
	var planID, source, target, metadataJSON string
	cmd := &cobra.Command{
		Use:   "create-edge",
		Short: "Create an edge between two nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := plandag.Edge{PlanID: planID, SourceNodeID: source, TargetNodeID: target}
			if err := unmarshalInto(metadataJSON, &e.Metadata); err != nil {
				return err
			}
			return c.withPlanService(cmd, func(svc *plandag.Service, st *stores) error {
				created, err := svc.CreateEdge(cmd.Context(), planID, e)
				if err != nil {
					return err
				}
				printSuccess("created edge %s", created.ID)
				return printJSON(created)
			})
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id (required)")
	cmd.Flags().StringVar(&source, "source", "", "source node id (required)")
	cmd.Flags().StringVar(&target, "target", "", "target node id (required)")
	cmd.Flags().StringVar(&metadataJSON, "metadata", "{}", "edge metadata as a JSON object")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (c *CLI) planDeleteEdgeCommand() *cobra.Command {
	var planID, edgeID string
	cmd := &cobra.Command{
		Use:   "delete-edge",
		Short: "Delete an edge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPlanService(cmd, func(svc *plandag.Service, st *stores) error {
				if err := svc.DeleteEdge(cmd.Context(), planID, edgeID); err != nil {
					return err
				}
				printSuccess("deleted edge %s", edgeID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id (required)")
	cmd.Flags().StringVar(&edgeID, "edge", "", "edge id (required)")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("edge")
	return cmd
}

func (c *CLI) planSnapshotCommand() *cobra.Command {
	var planID string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the plan DAG enriched with dataset and graph execution state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPlanService(cmd, func(svc *plandag.Service, st *stores) error {
				datasets := func(datasetID string) (string, bool) {
					ds, err := st.GetDataset(cmd.Context(), datasetID)
					if err != nil || ds == nil {
						return "", false
					}
					return ds.Status, true
				}
				graphs := func(dagNodeID string) (int, int, storage.GraphDataStatus, bool) {
					gd, err := st.GetByDagNode(cmd.Context(), dagNodeID)
					if err != nil || gd == nil {
						return 0, 0, "", false
					}
					var nodes, edges []json.RawMessage
					_ = json.Unmarshal(gd.NodesJSON, &nodes)
					_ = json.Unmarshal(gd.EdgesJSON, &edges)
					return len(nodes), len(edges), gd.Status, true
				}
				snap, err := svc.Snapshot(cmd.Context(), planID, datasets, graphs)
				if err != nil {
					return err
				}
				return printJSON(snap)
			})
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id (required)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func (c *CLI) planMigrateLegacyCommand() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "migrate-legacy-nodes",
		Short: "Rewrite legacy node type strings to their canonical form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPlanService(cmd, func(svc *plandag.Service, st *stores) error {
				outcome, err := svc.ValidateAndMigrateLegacyNodes(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				printSuccess("checked %d node(s), migrated %d", outcome.CheckedNodes, len(outcome.Migrated))
				for _, w := range outcome.Warnings {
					printWarning("%s", w)
				}
				for _, e := range outcome.Errors {
					printError("%s", e)
				}
				return printJSON(outcome)
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func unmarshalInto(raw string, v *map[string]any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
