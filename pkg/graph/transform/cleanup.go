package transform

import (
	"context"

	"github.com/layercake-run/layercake/pkg/graph"
)

// RemoveUnconnectedNodes drops every node with no incident edge. Returns
// the number of nodes removed.
func RemoveUnconnectedNodes(ctx context.Context, g *graph.Graph) int {
	removed := 0
	traced(ctx, g, "remove_unconnected_nodes", func() {
		connected := make(map[string]bool, len(g.Nodes))
		for _, e := range g.Edges {
			connected[e.Source] = true
			connected[e.Target] = true
		}

		before := len(g.Nodes)
		kept := g.Nodes[:0]
		for _, n := range g.Nodes {
			if connected[n.ID] {
				kept = append(kept, n)
			}
		}
		g.Nodes = kept
		removed = before - len(g.Nodes)
	})
	return removed
}

// RemoveDanglingEdges drops every edge whose source or target no longer
// resolves to a node. Returns the number of edges removed.
func RemoveDanglingEdges(ctx context.Context, g *graph.Graph) int {
	removed := 0
	traced(ctx, g, "remove_dangling_edges", func() {
		valid := make(map[string]bool, len(g.Nodes))
		for _, n := range g.Nodes {
			valid[n.ID] = true
		}

		before := len(g.Edges)
		kept := g.Edges[:0]
		for _, e := range g.Edges {
			if valid[e.Source] && valid[e.Target] {
				kept = append(kept, e)
			}
		}
		g.Edges = kept
		removed = before - len(g.Edges)
	})
	return removed
}

// DropUnconnectedNodes removes nodes with no incident edge, same as
// RemoveUnconnectedNodes, but when excludePartitionNodes is true it
// protects every partition node and every node named as a belongs_to
// target from removal, and also prunes any edge left dangling by the
// removal. Returns the number of nodes removed.
func DropUnconnectedNodes(ctx context.Context, g *graph.Graph, excludePartitionNodes bool) int {
	removed := 0
	traced(ctx, g, "drop_unconnected_nodes", func() {
		connected := make(map[string]bool, len(g.Nodes))
		for _, e := range g.Edges {
			connected[e.Source] = true
			connected[e.Target] = true
		}

		protected := make(map[string]bool)
		if excludePartitionNodes {
			for _, n := range g.Nodes {
				if n.IsPartition {
					protected[n.ID] = true
				}
			}
			for _, n := range g.Nodes {
				if n.BelongsTo != nil {
					protected[*n.BelongsTo] = true
				}
			}
		}

		before := len(g.Nodes)
		kept := g.Nodes[:0]
		for _, n := range g.Nodes {
			if connected[n.ID] || (excludePartitionNodes && protected[n.ID]) {
				kept = append(kept, n)
			}
		}
		g.Nodes = kept
		removed = before - len(g.Nodes)

		valid := make(map[string]bool, len(g.Nodes))
		for _, n := range g.Nodes {
			valid[n.ID] = true
		}
		keptEdges := g.Edges[:0]
		for _, e := range g.Edges {
			if valid[e.Source] && valid[e.Target] {
				keptEdges = append(keptEdges, e)
			}
		}
		g.Edges = keptEdges
	})
	return removed
}
