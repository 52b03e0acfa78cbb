package transform

import (
	"context"
	"fmt"

	"github.com/layercake-run/layercake/pkg/graph"
)

// AggregateEdges merges parallel edges sharing the same (source, target)
// pair into one, summing their weights. The surviving edge's identity
// (label, layer, comment, dataset, attributes) is that of the first edge
// seen for the pair.
func AggregateEdges(ctx context.Context, g *graph.Graph) {
	traced(ctx, g, "aggregate_edges", func() {
		edgeMap := make(map[string]graph.Edge, len(g.Edges))
		var order []string
		for _, e := range g.Edges {
			key := fmt.Sprintf("%s_%s", e.Source, e.Target)
			if existing, ok := edgeMap[key]; ok {
				existing.Weight += e.Weight
				edgeMap[key] = existing
			} else {
				edgeMap[key] = e
				order = append(order, key)
			}
		}
		merged := make([]graph.Edge, 0, len(order))
		for _, key := range order {
			merged = append(merged, edgeMap[key])
		}
		g.Edges = merged
	})
}
