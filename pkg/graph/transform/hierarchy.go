package transform

import (
	"context"
	"fmt"

	"github.com/layercake-run/layercake/pkg/graph"
)

// GenerateHierarchy replaces the implicit belongs_to forest with explicit
// "hierarchy" edges and attaches every existing node to a freshly-created
// hierarchy root partition. After this runs every original node is
// non-partition and parented by the new root; the graph's pre-existing
// edges are discarded in favor of the synthesized parent→child edges.
func GenerateHierarchy(ctx context.Context, g *graph.Graph) {
	traced(ctx, g, "generate_hierarchy", func() {
		generateHierarchy(g)
	})
}

func generateHierarchy(g *graph.Graph) {
	if len(g.Nodes) == 0 {
		return
	}

	snapshot := make([]graph.Node, len(g.Nodes))
	copy(snapshot, g.Nodes)
	snapshotByID := make(map[string]graph.Node, len(snapshot))
	existingIDs := make(map[string]bool, len(snapshot))
	for _, n := range snapshot {
		snapshotByID[n.ID] = n
		existingIDs[n.ID] = true
	}

	hierarchyNodeID := "hierarchy"
	if existingIDs[hierarchyNodeID] {
		counter := 1
		for {
			candidate := fmt.Sprintf("hierarchy_%d", counter)
			if !existingIDs[candidate] {
				hierarchyNodeID = candidate
				break
			}
			counter++
		}
	}

	const hierarchyLayerID = "hierarchy"
	g.AddLayer(graph.NewLayer(hierarchyLayerID, "Hierarchy", "1f2933", "f8fafc", "94a3b8"))

	g.Edges = nil
	edgeCounter := 0
	for _, n := range snapshot {
		if n.BelongsTo == nil || *n.BelongsTo == "" {
			continue
		}
		parent, ok := snapshotByID[*n.BelongsTo]
		if !ok {
			continue
		}
		edgeCounter++
		g.Edges = append(g.Edges, graph.Edge{
			ID:     fmt.Sprintf("hierarchy_edge_%d_%s", edgeCounter, n.ID),
			Source: parent.ID,
			Target: n.ID,
			Label:  "",
			Layer:  parent.Layer,
			Weight: 1,
		})
	}

	emptyBelongsTo := ""
	hierarchyNode := graph.Node{
		ID:          hierarchyNodeID,
		Label:       "Hierarchy",
		Layer:       hierarchyLayerID,
		IsPartition: true,
		BelongsTo:   &emptyBelongsTo,
	}

	for i := range g.Nodes {
		id := hierarchyNodeID
		g.Nodes[i].BelongsTo = &id
		g.Nodes[i].IsPartition = false
	}

	g.Nodes = append(g.Nodes, hierarchyNode)
}
