package cli

import (
	"github.com/spf13/cobra"

	"github.com/layercake-run/layercake/pkg/graph"
	"github.com/layercake-run/layercake/pkg/graph/transform"
)

// transformCommand groups every deterministic structural transform as a
// subcommand operating on a graph JSON file produced by "ingest".
func (c *CLI) transformCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Apply a structural transform to a graph JSON file",
	}

	cmd.AddCommand(
		c.truncateLabelsCommand(),
		c.wrapLabelsCommand(),
		c.sanitizeLabelsCommand(),
		c.limitPartitionDepthCommand(),
		c.limitPartitionWidthCommand(),
		c.ensurePartitionHierarchyCommand(),
		c.aggregateLayerCommand(),
		c.aggregateEdgesCommand(),
		c.generateHierarchyCommand(),
		c.invertCommand(),
		c.coalesceFunctionsCommand(),
		c.dropUnconnectedCommand(),
		c.removeDanglingEdgesCommand(),
	)

	return cmd
}

// transformIO reads the input graph, runs fn, and writes the resulting
// graph to the output path.
func transformIO(input, output string, fn func(g *graph.Graph) error) error {
	g, err := readGraphJSON(input)
	if err != nil {
		return err
	}
	if err := fn(g); err != nil {
		return err
	}
	return writeGraphJSON(g, output)
}

func (c *CLI) truncateLabelsCommand() *cobra.Command {
	var input, output string
	var maxLength int
	cmd := &cobra.Command{
		Use:   "truncate-labels",
		Short: "Truncate node and edge labels past a maximum length",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				transform.TruncateNodeLabels(cmd.Context(), g, maxLength)
				transform.TruncateEdgeLabels(cmd.Context(), g, maxLength)
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	cmd.Flags().IntVar(&maxLength, "max-length", 40, "maximum label length before truncation")
	return cmd
}

func (c *CLI) wrapLabelsCommand() *cobra.Command {
	var input, output string
	var maxLength int
	cmd := &cobra.Command{
		Use:   "wrap-labels",
		Short: "Insert newlines into long node and edge labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				transform.InsertNewlinesInNodeLabels(cmd.Context(), g, maxLength)
				transform.InsertNewlinesInEdgeLabels(cmd.Context(), g, maxLength)
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	cmd.Flags().IntVar(&maxLength, "max-length", 40, "line length before a newline is inserted")
	return cmd
}

func (c *CLI) sanitizeLabelsCommand() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "sanitize-labels",
		Short: "Strip quotes, newlines, and control characters from labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				nodes, edges := transform.SanitizeLabels(cmd.Context(), g)
				printInfo("sanitized %d node label(s) and %d edge label(s)", nodes, edges)
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	return cmd
}

func (c *CLI) limitPartitionDepthCommand() *cobra.Command {
	var input, output string
	var depth int
	cmd := &cobra.Command{
		Use:   "limit-partition-depth",
		Short: "Collapse partition subtrees past a maximum depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				return transform.ModifyGraphLimitPartitionDepth(cmd.Context(), g, depth)
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	cmd.Flags().IntVar(&depth, "depth", 3, "maximum partition depth to retain")
	return cmd
}

func (c *CLI) limitPartitionWidthCommand() *cobra.Command {
	var input, output string
	var width int
	cmd := &cobra.Command{
		Use:   "limit-partition-width",
		Short: "Aggregate excess siblings under each partition past a maximum width",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				summaries, err := transform.ModifyGraphLimitPartitionWidth(cmd.Context(), g, width)
				if err != nil {
					return err
				}
				for _, s := range summaries {
					printInfo("aggregated %d node(s) into %s under parent %s", len(s.AggregatedNodes), s.AggregateNodeLabel, s.ParentLabel)
				}
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	cmd.Flags().IntVar(&width, "width", 10, "maximum sibling count to retain before aggregating")
	return cmd
}

func (c *CLI) ensurePartitionHierarchyCommand() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "ensure-partition-hierarchy",
		Short: "Flag edge sources as partitions under a synthetic root when the graph has no partitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				changed := transform.EnsurePartitionHierarchy(cmd.Context(), g)
				printInfo("hierarchy changed: %v", changed)
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	return cmd
}

func (c *CLI) aggregateLayerCommand() *cobra.Command {
	var input, output string
	var minSharedNeighbors int
	cmd := &cobra.Command{
		Use:   "aggregate-layer",
		Short: "Merge at least N same-layer nodes that share a neighbor in another layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				summaries, err := transform.AggregateNodesByLayer(cmd.Context(), g, minSharedNeighbors)
				if err != nil {
					return err
				}
				printInfo("performed %d aggregation(s)", len(summaries))
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	cmd.Flags().IntVar(&minSharedNeighbors, "min-shared-neighbors", 2, "minimum number of same-layer nodes sharing one cross-layer neighbor required to merge them")
	return cmd
}

func (c *CLI) aggregateEdgesCommand() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "aggregate-edges",
		Short: "Merge parallel edges between the same pair of nodes, summing weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				transform.AggregateEdges(cmd.Context(), g)
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	return cmd
}

func (c *CLI) generateHierarchyCommand() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "generate-hierarchy",
		Short: "Turn belongs_to links into edges and reparent every node under a new hierarchy root",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				transform.GenerateHierarchy(cmd.Context(), g)
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	return cmd
}

func (c *CLI) invertCommand() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "invert",
		Short: "Build the edge-dual graph: one node per edge, linked where edges share an endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraphJSON(input)
			if err != nil {
				return err
			}
			inverted, err := transform.InvertGraph(cmd.Context(), g)
			if err != nil {
				return err
			}
			return writeGraphJSON(inverted, output)
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	return cmd
}

func (c *CLI) coalesceFunctionsCommand() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "coalesce-functions-to-files",
		Short: "Coalesce function-level nodes up into their containing file nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				note := transform.CoalesceFunctionsToFiles(cmd.Context(), g)
				if note != "" {
					printInfo("%s", note)
				}
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	return cmd
}

func (c *CLI) dropUnconnectedCommand() *cobra.Command {
	var input, output string
	var excludePartitions bool
	cmd := &cobra.Command{
		Use:   "drop-unconnected-nodes",
		Short: "Remove nodes with no incident edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				n := transform.DropUnconnectedNodes(cmd.Context(), g, excludePartitions)
				printInfo("dropped %d unconnected node(s)", n)
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	cmd.Flags().BoolVar(&excludePartitions, "exclude-partitions", true, "protect partition nodes from removal")
	return cmd
}

func (c *CLI) removeDanglingEdgesCommand() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "remove-dangling-edges",
		Short: "Remove edges whose source or target node no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transformIO(input, output, func(g *graph.Graph) error {
				n := transform.RemoveDanglingEdges(cmd.Context(), g)
				printInfo("removed %d dangling edge(s)", n)
				return nil
			})
		},
	}
	bindGraphIOFlags(cmd, &input, &output)
	return cmd
}

func bindGraphIOFlags(cmd *cobra.Command, input, output *string) {
	cmd.Flags().StringVarP(input, "input", "i", "", "input graph JSON file (required)")
	cmd.Flags().StringVarP(output, "output", "o", "", "output graph JSON file (stdout if empty)")
	_ = cmd.MarkFlagRequired("input")
}
