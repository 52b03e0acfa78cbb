package transform

import (
	"context"
	"fmt"

	"github.com/layercake-run/layercake/pkg/graph"
)

type invertEdgeKey struct {
	source, target string
}

// InvertGraph builds the dual of g: every edge becomes a node (labelled by
// the edge's own label, or "source -> target" if it has none), and every
// pair of edges that shared an endpoint in g becomes an edge in the result.
// Layers, annotations, and name are carried over (name prefixed with
// "Inverted "); any layer referenced by a synthesized node or edge that g
// didn't define gets a placeholder.
func InvertGraph(ctx context.Context, g *graph.Graph) (*graph.Graph, error) {
	var inverted *graph.Graph
	var err error
	traced(ctx, g, "invert_graph", func() {
		inverted, err = invertGraph(g)
	})
	return inverted, err
}

func invertGraph(g *graph.Graph) (*graph.Graph, error) {
	inverted := graph.New(fmt.Sprintf("Inverted %s", g.Name))
	inverted.Layers = append([]graph.Layer(nil), g.Layers...)
	inverted.Annotations = g.Annotations

	inverted.Nodes = append(inverted.Nodes, graph.Node{
		ID:          "inverted_root",
		Label:       "Root",
		Layer:       "inverted_root",
		IsPartition: true,
	})

	edgeLabel := func(e graph.Edge) string {
		if e.Label == "" {
			return fmt.Sprintf("%s -> %s", e.Source, e.Target)
		}
		return e.Label
	}

	edgeToNode := make(map[invertEdgeKey]graph.Node, len(g.Edges))
	nodeCounter := 0
	for _, e := range g.Edges {
		rootID := "inverted_root"
		newNode := graph.Node{
			ID:          fmt.Sprintf("n_%s_%s_%d", e.Source, e.Target, nodeCounter),
			IsPartition: false,
			Label:       edgeLabel(e),
			Layer:       e.Layer,
			BelongsTo:   &rootID,
			Weight:      e.Weight,
			Comment:     e.Comment,
			Attributes:  e.Attributes,
		}
		inverted.Nodes = append(inverted.Nodes, newNode)
		edgeToNode[invertEdgeKey{source: e.Source, target: e.Target}] = newNode
		nodeCounter++
	}

	edgeCounter := 0
	for _, n := range g.Nodes {
		var incident []graph.Edge
		for _, e := range g.Edges {
			if e.Source == n.ID || e.Target == n.ID {
				incident = append(incident, e)
			}
		}

		for i := 0; i < len(incident); i++ {
			for j := i + 1; j < len(incident); j++ {
				node1, ok1 := edgeToNode[invertEdgeKey{source: incident[i].Source, target: incident[i].Target}]
				if !ok1 {
					return nil, fmt.Errorf("failed to find node in edge mapping for edge %s -> %s", incident[i].Source, incident[i].Target)
				}
				node2, ok2 := edgeToNode[invertEdgeKey{source: incident[j].Source, target: incident[j].Target}]
				if !ok2 {
					return nil, fmt.Errorf("failed to find node in edge mapping for edge %s -> %s", incident[j].Source, incident[j].Target)
				}
				inverted.Edges = append(inverted.Edges, graph.Edge{
					ID:     fmt.Sprintf("%s_%s_%d", node1.ID, node2.ID, edgeCounter),
					Source: node1.ID,
					Target: node2.ID,
					Label:  "",
					Layer:  n.Layer,
					Weight: 1,
				})
				edgeCounter++
			}
		}
	}

	layerIDs := make(map[string]bool)
	for _, e := range inverted.Edges {
		layerIDs[e.Layer] = true
	}
	for _, n := range inverted.Nodes {
		layerIDs[n.Layer] = true
	}

	existingLayers := inverted.GetLayerMap()
	for layerID := range layerIDs {
		if _, ok := existingLayers[layerID]; !ok {
			inverted.AddLayer(graph.NewLayer(layerID, layerID, "222222", "ffffff", "dddddd"))
		}
	}

	return inverted, nil
}
