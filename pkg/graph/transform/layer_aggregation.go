package transform

import (
	"context"
	"fmt"
	"sort"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/graph"
)

// LayerAggregationSummary describes one shared-neighbour collapse performed
// by AggregateNodesByLayer.
type LayerAggregationSummary struct {
	LayerID            string
	BelongsTo          *string
	AnchorNodeID       string
	AnchorNodeLabel    *string
	AggregateNodeID    string
	AggregateNodeLabel string
	AggregatedNodes    []graph.AggregatedPair
}

type layerGroupKey struct {
	belongsTo string
	hasParent bool
	layer     string
}

// AggregateNodesByLayer repeatedly groups non-partition nodes sharing the
// same (belongs_to, layer), then, among the group's neighbours in other
// layers, picks the one connected to the most group members (ties broken
// by neighbour id) and collapses those members, as long as their count
// reaches minSharedNeighbors. It loops until no more collapses are
// possible, returning one summary per collapse performed. A
// minSharedNeighbors below 1 fails with a validation error.
func AggregateNodesByLayer(ctx context.Context, g *graph.Graph, minSharedNeighbors int) ([]LayerAggregationSummary, error) {
	var summaries []LayerAggregationSummary
	var err error
	traced(ctx, g, "aggregate_nodes_by_layer", func() {
		summaries, err = aggregateNodesByLayer(g, minSharedNeighbors)
	})
	return summaries, err
}

func aggregateNodesByLayer(g *graph.Graph, minSharedNeighbors int) ([]LayerAggregationSummary, error) {
	if err := lcerrors.ValidateMinSharedNeighbors(minSharedNeighbors); err != nil {
		return nil, err
	}

	var summaries []LayerAggregationSummary
	for {
		summary, ok := aggregateNodesByLayerOnce(g, minSharedNeighbors)
		if !ok {
			break
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func aggregateNodesByLayerOnce(g *graph.Graph, minSharedNeighbors int) (LayerAggregationSummary, bool) {
	adjacency := make(map[string]map[string]bool)
	addAdj := func(a, b string) {
		if adjacency[a] == nil {
			adjacency[a] = make(map[string]bool)
		}
		adjacency[a][b] = true
	}
	for _, e := range g.Edges {
		addAdj(e.Source, e.Target)
		addAdj(e.Target, e.Source)
	}

	nodeLookup := make(map[string]graph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeLookup[n.ID] = n
	}

	groups := make(map[layerGroupKey][]string)
	var groupOrder []layerGroupKey
	for _, n := range g.Nodes {
		if n.IsPartition {
			continue
		}
		if n.Layer == "" {
			continue
		}
		key := layerGroupKey{layer: n.Layer}
		if n.BelongsTo != nil {
			key.belongsTo = *n.BelongsTo
			key.hasParent = true
		}
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], n.ID)
	}

	for _, key := range groupOrder {
		nodeIDs := groups[key]
		if len(nodeIDs) < minSharedNeighbors {
			continue
		}

		groupSet := make(map[string]bool, len(nodeIDs))
		for _, id := range nodeIDs {
			groupSet[id] = true
		}

		neighborMap := make(map[string]map[string]bool)
		for _, nodeID := range nodeIDs {
			for neighborID := range adjacency[nodeID] {
				if groupSet[neighborID] {
					continue
				}
				neighborNode, ok := nodeLookup[neighborID]
				if !ok || neighborNode.Layer == key.layer {
					continue
				}
				if neighborMap[neighborID] == nil {
					neighborMap[neighborID] = make(map[string]bool)
				}
				neighborMap[neighborID][nodeID] = true
			}
		}

		if len(neighborMap) == 0 {
			continue
		}

		type neighborEntry struct {
			anchorID string
			members  map[string]bool
		}
		var entries []neighborEntry
		for anchorID, members := range neighborMap {
			entries = append(entries, neighborEntry{anchorID: anchorID, members: members})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if len(entries[i].members) != len(entries[j].members) {
				return len(entries[i].members) > len(entries[j].members)
			}
			return entries[i].anchorID < entries[j].anchorID
		})

		for _, entry := range entries {
			if len(entry.members) < minSharedNeighbors {
				continue
			}

			var aggregateIDs []string
			for id := range entry.members {
				aggregateIDs = append(aggregateIDs, id)
			}
			sort.Strings(aggregateIDs)

			aggregateLabel := fmt.Sprintf("%s agg(%d)", key.layer, len(aggregateIDs))

			var belongsTo *string
			if key.hasParent {
				bt := key.belongsTo
				belongsTo = &bt
			}

			aggNode, pairs, ok := g.ReplaceWithAggregateNode(aggregateIDs, aggregateLabel, key.layer, belongsTo, nil)
			if !ok {
				continue
			}

			var anchorLabel *string
			if anchor, ok := nodeLookup[entry.anchorID]; ok {
				al := anchor.Label
				anchorLabel = &al
			}

			return LayerAggregationSummary{
				LayerID:            key.layer,
				BelongsTo:          belongsTo,
				AnchorNodeID:       entry.anchorID,
				AnchorNodeLabel:    anchorLabel,
				AggregateNodeID:    aggNode.ID,
				AggregateNodeLabel: aggNode.Label,
				AggregatedNodes:    pairs,
			}, true
		}
	}

	return LayerAggregationSummary{}, false
}
