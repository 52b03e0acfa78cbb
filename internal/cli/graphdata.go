package cli

import (
	"github.com/spf13/cobra"

	"github.com/layercake-run/layercake/pkg/graphdata"
)

// graphDataBuildCommand wires pkg/graphdata's content-hashed snapshot
// builder into the CLI: merge one or more upstream graph JSON files into
// the computed graph_data row for a plan DAG node.
func (c *CLI) graphDataBuildCommand() *cobra.Command {
	var projectID, dagNodeID, name string
	var upstreamPaths []string

	cmd := &cobra.Command{
		Use:   "build-graph-data",
		Short: "Merge upstream graphs into a computed, content-hashed graph_data snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			layers, err := st.ListLayers(ctx, projectID)
			if err != nil {
				return err
			}

			upstreams := make([]graphdata.Upstream, 0, len(upstreamPaths))
			for _, p := range upstreamPaths {
				g, err := readGraphJSON(p)
				if err != nil {
					return err
				}
				upstreams = append(upstreams, graphdata.Upstream{Nodes: g.Nodes, Edges: g.Edges})
			}

			builder := graphdata.NewBuilder(st.GraphDataStore, c.newCache())
			result, err := builder.BuildGraph(ctx, projectID, dagNodeID, name, upstreams, layers)
			if err != nil {
				return err
			}
			printSuccess("graph_data %s: %s (hash %s)", result.DagNodeID, result.Status, result.SourceHash)
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "project id (required)")
	cmd.Flags().StringVar(&dagNodeID, "node", "", "plan DAG node id this snapshot belongs to (required)")
	cmd.Flags().StringVar(&name, "name", "", "snapshot name")
	cmd.Flags().StringArrayVar(&upstreamPaths, "upstream", nil, "path to an upstream graph JSON file (repeatable)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("node")
	_ = cmd.MarkFlagRequired("upstream")

	return cmd
}
