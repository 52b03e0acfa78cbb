package transform

import (
	"context"
	"fmt"

	"github.com/layercake-run/layercake/pkg/graph"
)

// PartitionWidthAggregation summarizes one collapse performed by
// ModifyGraphLimitPartitionWidth.
type PartitionWidthAggregation struct {
	ParentID           string
	ParentLabel        string
	AggregateNodeID    string
	AggregateNodeLabel string
	AggregatedNodes    []graph.AggregatedPair
	RetainedCount      int
}

// EnsurePartitionHierarchy synthesizes a shallow partition hierarchy when
// the graph has no partition nodes at all, so depth/width limiting has
// something to operate on. Nodes that source at least one edge become
// partitions; every node without a belongs_to (partitions included) then
// attaches to the source of its first incoming edge, or to a synthetic root
// if it has none. Returns false (a no-op) if the graph already has
// partition nodes.
func EnsurePartitionHierarchy(ctx context.Context, g *graph.Graph) bool {
	synthesized := false
	traced(ctx, g, "ensure_partition_hierarchy", func() {
		synthesized = ensurePartitionHierarchy(g)
	})
	return synthesized
}

func ensurePartitionHierarchy(g *graph.Graph) bool {
	for _, n := range g.Nodes {
		if n.IsPartition {
			return false
		}
	}

	const rootID = "synthetic_partition_root"
	childCounts := make(map[string]int)
	parentsByChild := make(map[string]string)
	for _, e := range g.Edges {
		childCounts[e.Source]++
		if _, ok := parentsByChild[e.Target]; !ok {
			parentsByChild[e.Target] = e.Source
		}
	}

	for i := range g.Nodes {
		if _, ok := childCounts[g.Nodes[i].ID]; ok {
			g.Nodes[i].IsPartition = true
		}
	}

	g.AddLayer(graph.NewLayer("aggregated", "Aggregated", "222222", "ffffff", "dddddd"))

	if g.GetNodeByID(rootID) == nil {
		comment := "auto-generated"
		g.Nodes = append(g.Nodes, graph.Node{
			ID:          rootID,
			Label:       "Synthetic Root",
			Layer:       "aggregated",
			IsPartition: true,
			Comment:     &comment,
		})
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == rootID || n.BelongsTo != nil {
			continue
		}
		if parent, ok := parentsByChild[n.ID]; ok {
			p := parent
			n.BelongsTo = &p
		} else {
			r := rootID
			n.BelongsTo = &r
		}
	}

	return true
}

// ModifyGraphLimitPartitionDepth recursively trims the partition tree so no
// node is nested deeper than depth levels below its root: every node whose
// depth reaches the limit is collapsed in place into a single non-partition
// node that absorbs its descendants' edges and summed weight. If the graph
// has no partitions, a synthetic hierarchy is synthesized first via
// EnsurePartitionHierarchy.
func ModifyGraphLimitPartitionDepth(ctx context.Context, g *graph.Graph, depth int) error {
	var err error
	traced(ctx, g, "modify_graph_limit_partition_depth", func() {
		err = modifyGraphLimitPartitionDepth(g, depth)
	})
	return err
}

func modifyGraphLimitPartitionDepth(g *graph.Graph, depth int) error {
	synthesized := false
	roots := g.GetRootNodes()
	if len(roots) == 0 {
		synthesized = ensurePartitionHierarchy(g)
		roots = g.GetRootNodes()
	}

	rootIDs := make([]string, len(roots))
	for i, r := range roots {
		rootIDs[i] = r.ID
	}

	_ = synthesized
	for _, id := range rootIDs {
		if err := trimDepth(g, id, 0, depth); err != nil {
			return err
		}
	}

	return nil
}

func trimDepth(g *graph.Graph, nodeID string, currentDepth, maxDepth int) error {
	node := g.GetNodeByID(nodeID)
	if node == nil {
		return fmt.Errorf("node with id '%s' not found", nodeID)
	}

	children := g.GetChildren(node)
	childIDs := make([]string, len(children))
	for i, c := range children {
		childIDs[i] = c.ID
	}

	for _, childID := range childIDs {
		if err := trimDepth(g, childID, currentDepth+1, maxDepth); err != nil {
			return err
		}
	}

	if currentDepth < maxDepth {
		return nil
	}

	node = g.GetNodeByID(nodeID)
	if node == nil {
		return fmt.Errorf("node with id '%s' not found", nodeID)
	}
	aggNode := *node
	aggNode.IsPartition = false

	childSet := make(map[string]bool, len(childIDs))
	for _, id := range childIDs {
		childSet[id] = true
	}

	var newEdges []graph.Edge
	for _, e := range g.Edges {
		sourceExists := g.GetNodeByID(e.Source) != nil
		targetExists := g.GetNodeByID(e.Target) != nil
		if !sourceExists || !targetExists {
			continue
		}
		rewired := e
		if childSet[e.Source] {
			rewired.Source = aggNode.ID
		}
		if childSet[e.Target] {
			rewired.Target = aggNode.ID
		}
		newEdges = append(newEdges, rewired)
	}

	for _, id := range childIDs {
		if child := g.GetNodeByID(id); child != nil {
			aggNode.Weight += child.Weight
		}
	}

	g.Edges = newEdges
	for _, id := range childIDs {
		g.RemoveNode(id)
	}
	g.SetNode(aggNode)
	return nil
}

// ModifyGraphLimitPartitionWidth caps the non-partition children of each
// partition. A partition with more than max(maxWidth, 2) such children
// keeps its first maxWidth-1 of them (none when maxWidth <= 1) and has the
// rest collapsed into a single "aggregated" node; a partition at or under
// that threshold is left as is, so with maxWidth 1 a partition with two
// non-partition children keeps both. Starting from each root, partition
// children are processed before their parent. If the graph has no
// partitions, a synthetic hierarchy is synthesized first. Returns one
// summary per collapse performed, in that processing order.
func ModifyGraphLimitPartitionWidth(ctx context.Context, g *graph.Graph, maxWidth int) ([]PartitionWidthAggregation, error) {
	var summaries []PartitionWidthAggregation
	var err error
	traced(ctx, g, "modify_graph_limit_partition_width", func() {
		summaries, err = modifyGraphLimitPartitionWidth(g, maxWidth)
	})
	return summaries, err
}

func modifyGraphLimitPartitionWidth(g *graph.Graph, maxWidth int) ([]PartitionWidthAggregation, error) {
	synthesized := false
	roots := g.GetRootNodes()
	if len(roots) == 0 {
		synthesized = ensurePartitionHierarchy(g)
		roots = g.GetRootNodes()
	}
	_ = synthesized

	rootIDs := make([]string, len(roots))
	for i, r := range roots {
		rootIDs[i] = r.ID
	}

	var summaries []PartitionWidthAggregation
	for _, id := range rootIDs {
		if err := trimWidth(g, id, maxWidth, &summaries); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

func trimWidth(g *graph.Graph, nodeID string, maxWidth int, summaries *[]PartitionWidthAggregation) error {
	node := g.GetNodeByID(nodeID)
	if node == nil {
		return fmt.Errorf("node with id '%s' not found", nodeID)
	}
	nodeCopy := *node

	children := g.GetChildren(&nodeCopy)
	var nonPartitionChildIDs, partitionChildIDs []string
	for _, c := range children {
		if c.IsPartition {
			partitionChildIDs = append(partitionChildIDs, c.ID)
		} else {
			nonPartitionChildIDs = append(nonPartitionChildIDs, c.ID)
		}
	}

	widthThreshold := maxWidth
	if maxWidth <= 1 {
		widthThreshold = 2
	}

	for _, childID := range partitionChildIDs {
		if err := trimWidth(g, childID, maxWidth, summaries); err != nil {
			return err
		}
	}

	if len(nonPartitionChildIDs) <= widthThreshold {
		return nil
	}

	retainCount := 0
	if maxWidth > 1 {
		retainCount = maxWidth - 1
	}
	if retainCount > len(nonPartitionChildIDs) {
		retainCount = len(nonPartitionChildIDs)
	}
	aggregateIDs := append([]string(nil), nonPartitionChildIDs[retainCount:]...)
	if len(aggregateIDs) == 0 {
		return nil
	}

	g.AddLayer(graph.NewLayer("aggregated", "Aggregated", "222222", "ffffff", "dddddd"))

	parentLabel := nodeCopy.Label
	if parentLabel == "" {
		parentLabel = nodeCopy.ID
	}
	aggregateLabel := fmt.Sprintf("%s - %d nodes (aggregated)", parentLabel, len(aggregateIDs))

	aggNode, pairs, ok := g.ReplaceWithAggregateNode(aggregateIDs, aggregateLabel, "aggregated", &nodeCopy.ID, nodeCopy.Comment)
	if !ok {
		return nil
	}

	*summaries = append(*summaries, PartitionWidthAggregation{
		ParentID:           nodeCopy.ID,
		ParentLabel:        nodeCopy.Label,
		AggregateNodeID:    aggNode.ID,
		AggregateNodeLabel: aggNode.Label,
		AggregatedNodes:    pairs,
		RetainedCount:      retainCount,
	})
	return nil
}
