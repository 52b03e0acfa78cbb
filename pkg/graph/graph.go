package graph

import (
	"fmt"
	"sort"
	"strings"
)

// aggregateEdgeKey identifies edges that collapse onto the same
// (source, target, layer, dataset) tuple after aggregate-node rewiring, so
// their weights can be summed instead of creating parallel edges.
type aggregateEdgeKey struct {
	source, target, layer string
	dataset               int
	hasDataset             bool
}

// syntheticPartitionRoot is the sentinel belongs_to value marking the root
// of a synthesized partition hierarchy, and the sentinel used to recognize
// a node as a root when belongs_to is absent or empty.
const syntheticPartitionRoot = "synthetic_partition_root"

// Graph is the central aggregate: an ordered collection of nodes, edges,
// and layers plus a running annotation log describing what transforms have
// done to it. A Graph exclusively owns its nodes, edges, and layers; tree
// views are transient values produced on demand.
type Graph struct {
	Name        string
	Nodes       []Node
	Edges       []Edge
	Layers      []Layer
	Annotations string
}

// New creates an empty, named graph. An empty name defaults to
// "Unnamed Graph" when rendered, matching the data model's documented
// default.
func New(name string) *Graph {
	return &Graph{Name: name}
}

// DisplayName returns Name, or "Unnamed Graph" if it is empty.
func (g *Graph) DisplayName() string {
	if g.Name == "" {
		return "Unnamed Graph"
	}
	return g.Name
}

// AddLayer appends layer if no layer with the same id already exists.
// Idempotent by layer id.
func (g *Graph) AddLayer(layer Layer) {
	if !g.layerExists(layer.ID) {
		g.Layers = append(g.Layers, layer)
	}
}

func (g *Graph) layerExists(id string) bool {
	for _, l := range g.Layers {
		if l.ID == id {
			return true
		}
	}
	return false
}

// GetLayerMap returns a mapping from layer id to Layer.
func (g *Graph) GetLayerMap() map[string]Layer {
	m := make(map[string]Layer, len(g.Layers))
	for _, l := range g.Layers {
		m[l.ID] = l
	}
	return m
}

// AppendAnnotation appends text to Annotations, separated by a blank line
// from any prior content. The input is trimmed; an empty trimmed input is
// a no-op.
func (g *Graph) AppendAnnotation(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if g.Annotations == "" {
		g.Annotations = trimmed
		return
	}
	g.Annotations = g.Annotations + "\n\n" + trimmed
}

// GetNodeByID returns the node with the given id, or nil if absent.
func (g *Graph) GetNodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// RemoveNode deletes the node with the given id, if present.
func (g *Graph) RemoveNode(id string) {
	out := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	g.Nodes = out
}

// SetNode upserts node by id: replaces the existing node with that id, or
// appends it if none exists.
func (g *Graph) SetNode(node Node) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == node.ID {
			g.Nodes[i] = node
			return
		}
	}
	g.Nodes = append(g.Nodes, node)
}

// GetRootNodes returns partition nodes whose BelongsTo is absent, empty, or
// the synthetic partition root sentinel, sorted by id for determinism.
func (g *Graph) GetRootNodes() []*Node {
	var roots []*Node
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !n.IsPartition {
			continue
		}
		if n.BelongsTo == nil || *n.BelongsTo == "" || *n.BelongsTo == syntheticPartitionRoot {
			roots = append(roots, n)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	return roots
}

// GetChildren returns the nodes whose BelongsTo equals parent.ID, in
// storage order.
func (g *Graph) GetChildren(parent *Node) []*Node {
	var children []*Node
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.BelongsTo != nil && *n.BelongsTo == parent.ID {
			children = append(children, n)
		}
	}
	return children
}

// GetNonPartitionNodes returns non-partition nodes sorted by id.
func (g *Graph) GetNonPartitionNodes() []*Node {
	var nodes []*Node
	for i := range g.Nodes {
		if !g.Nodes[i].IsPartition {
			nodes = append(nodes, &g.Nodes[i])
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// GetNonPartitionEdges returns edges whose source and target both resolve
// to non-partition nodes, sorted by (source, target).
func (g *Graph) GetNonPartitionEdges() []*Edge {
	var edges []*Edge
	for i := range g.Edges {
		e := &g.Edges[i]
		source := g.GetNodeByID(e.Source)
		target := g.GetNodeByID(e.Target)
		if source == nil || target == nil {
			continue
		}
		if !source.IsPartition && !target.IsPartition {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// GetHierarchyNodes returns a copy of every node sorted by id, with empty
// comments normalized to the literal string "null" for export
// compatibility.
func (g *Graph) GetHierarchyNodes() []Node {
	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	for i := range nodes {
		if nodes[i].Comment == nil || *nodes[i].Comment == "" {
			nodes[i].Comment = strPtr("null")
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// GetHierarchyEdges synthesizes one edge per node with a resolvable
// BelongsTo parent, from parent to child, labelled empty and layered by the
// parent's layer.
func (g *Graph) GetHierarchyEdges() []Edge {
	var edges []Edge
	for _, n := range g.Nodes {
		if n.BelongsTo == nil {
			continue
		}
		parent := g.GetNodeByID(*n.BelongsTo)
		if parent == nil {
			continue
		}
		edges = append(edges, Edge{
			ID:     fmt.Sprintf("%s_%s", parent.ID, n.ID),
			Source: parent.ID,
			Target: n.ID,
			Label:  "",
			Layer:  parent.Layer,
			Weight: 1,
		})
	}
	return edges
}

// BuildTree walks from every root partition (see GetRootNodes) recursively,
// producing a TreeNode forest. Depth of a root is 0.
func (g *Graph) BuildTree() []*TreeNode {
	var build func(n *Node, depth int) *TreeNode
	build = func(n *Node, depth int) *TreeNode {
		tn := treeNodeFromNode(n)
		tn.Depth = depth
		if tn.Comment == nil || *tn.Comment == "" {
			tn.Comment = strPtr("null")
		}
		for _, child := range g.GetChildren(n) {
			tn.Children = append(tn.Children, build(child, depth+1))
		}
		return tn
	}

	var tree []*TreeNode
	for _, root := range g.GetRootNodes() {
		tree = append(tree, build(root, 0))
	}
	return tree
}

// BuildTreeFromEdges reconstructs a tree using edges as parent→child links
// instead of BelongsTo, used after hierarchy-generation transforms rewire
// structure into edges.
func (g *Graph) BuildTreeFromEdges() []*TreeNode {
	if len(g.Edges) == 0 {
		return nil
	}

	childrenMap := make(map[string][]string)
	hasParent := make(map[string]bool)
	referenced := make(map[string]bool)

	for _, e := range g.Edges {
		if g.GetNodeByID(e.Source) == nil || g.GetNodeByID(e.Target) == nil {
			continue
		}
		childrenMap[e.Source] = append(childrenMap[e.Source], e.Target)
		hasParent[e.Target] = true
		referenced[e.Source] = true
		referenced[e.Target] = true
	}

	if len(childrenMap) == 0 {
		return nil
	}

	for id, children := range childrenMap {
		children = dedupSortedStrings(children)
		childrenMap[id] = children
	}

	hierarchyRootIDs := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.IsPartition && n.Label == "Hierarchy" && n.BelongsTo != nil && *n.BelongsTo == "" {
			hierarchyRootIDs[n.ID] = true
		}
	}

	var rootIDs []string
	for id := range referenced {
		if !hierarchyRootIDs[id] && !hasParent[id] {
			rootIDs = append(rootIDs, id)
		}
	}
	if len(rootIDs) == 0 {
		for id := range childrenMap {
			if !hierarchyRootIDs[id] {
				rootIDs = append(rootIDs, id)
			}
		}
	}
	rootIDs = dedupSortedStrings(rootIDs)

	visited := make(map[string]bool)
	var result []*TreeNode
	for _, rootID := range rootIDs {
		if node := g.buildSubtreeFromEdges(rootID, 0, childrenMap, visited); node != nil {
			result = append(result, node)
		}
	}
	return result
}

func (g *Graph) buildSubtreeFromEdges(nodeID string, depth int, childrenMap map[string][]string, visited map[string]bool) *TreeNode {
	if visited[nodeID] {
		return nil
	}
	visited[nodeID] = true
	defer delete(visited, nodeID)

	n := g.GetNodeByID(nodeID)
	if n == nil {
		return nil
	}

	tn := treeNodeFromNode(n)
	tn.Depth = depth
	if tn.Comment == nil || *tn.Comment == "" {
		tn.Comment = strPtr("null")
	}

	for _, childID := range childrenMap[nodeID] {
		if child := g.buildSubtreeFromEdges(childID, depth+1, childrenMap, visited); child != nil {
			tn.Children = append(tn.Children, child)
		}
	}
	return tn
}

// MaxHierarchyDepth returns the deepest level reached by BuildTree, 0 for a
// forest of bare roots or an empty graph.
func (g *Graph) MaxHierarchyDepth() int {
	var maxChildDepth func(n *TreeNode) int
	maxChildDepth = func(n *TreeNode) int {
		max := n.Depth
		for _, child := range n.Children {
			if d := maxChildDepth(child); d > max {
				max = d
			}
		}
		return max
	}

	max := 0
	for _, n := range g.BuildTree() {
		if d := maxChildDepth(n); d > max {
			max = d
		}
	}
	return max
}

// Stats returns a one-line human-readable summary for logs and
// annotations.
func (g *Graph) Stats() string {
	return fmt.Sprintf("Nodes: %d, Edges: %d, Layers: %d", len(g.Nodes), len(g.Edges), len(g.Layers))
}

// GenerateAggregateNodeID returns an unused id of the form "agg_{parentID}_{n}",
// probing increasing n until the candidate is not already a node id.
func (g *Graph) GenerateAggregateNodeID(parentID string) string {
	counter := 1
	for {
		candidate := fmt.Sprintf("agg_%s_%d", parentID, counter)
		if g.GetNodeByID(candidate) == nil {
			return candidate
		}
		counter++
	}
}

// ReplaceWithAggregateNode collapses the nodes named by aggregatedIDs into a
// single new non-partition node with the given label, layer, parent, and
// comment, rewiring every edge that touched a collapsed node onto the
// aggregate and summing weights of edges that collapse onto the same
// (source, target, layer, dataset) tuple. Self-loops created by the
// collapse are dropped. Returns the aggregate node and the
// (id, label) pairs of every node it absorbed, or ok=false if no collapsible
// node was found.
func (g *Graph) ReplaceWithAggregateNode(aggregatedIDs []string, label, layer string, belongsTo, comment *string) (Node, []AggregatedPair, bool) {
	if len(aggregatedIDs) == 0 {
		return Node{}, nil, false
	}

	var aggregatedChildren []Node
	for _, id := range aggregatedIDs {
		if n := g.GetNodeByID(id); n != nil {
			aggregatedChildren = append(aggregatedChildren, *n)
		}
	}
	if len(aggregatedChildren) == 0 {
		return Node{}, nil, false
	}

	idSeed := fmt.Sprintf("layer_%s", layer)
	if belongsTo != nil && *belongsTo != "" {
		idSeed = *belongsTo
	}

	aggregateID := g.GenerateAggregateNodeID(idSeed)
	totalWeight := 0
	for _, c := range aggregatedChildren {
		totalWeight += c.Weight
	}

	aggregateNode := Node{
		ID:          aggregateID,
		Label:       label,
		Layer:       layer,
		IsPartition: false,
		BelongsTo:   belongsTo,
		Weight:      totalWeight,
		Comment:     comment,
	}

	aggregatedSet := make(map[string]bool, len(aggregatedIDs))
	for _, id := range aggregatedIDs {
		aggregatedSet[id] = true
	}

	var untouched []Edge
	aggregatedByKey := make(map[aggregateEdgeKey]*Edge)
	var aggregatedOrder []aggregateEdgeKey

	for _, edge := range g.Edges {
		newEdge := edge
		sourceReplaced := aggregatedSet[edge.Source]
		targetReplaced := aggregatedSet[edge.Target]

		if sourceReplaced {
			newEdge.Source = aggregateID
		}
		if targetReplaced {
			newEdge.Target = aggregateID
		}

		if newEdge.Source == newEdge.Target {
			continue
		}

		if sourceReplaced || targetReplaced {
			key := aggregateEdgeKey{source: newEdge.Source, target: newEdge.Target, layer: newEdge.Layer}
			if newEdge.Dataset != nil {
				key.dataset = *newEdge.Dataset
				key.hasDataset = true
			}
			if existing, ok := aggregatedByKey[key]; ok {
				existing.Weight += newEdge.Weight
			} else {
				e := newEdge
				aggregatedByKey[key] = &e
				aggregatedOrder = append(aggregatedOrder, key)
			}
		} else {
			untouched = append(untouched, newEdge)
		}
	}

	for _, key := range aggregatedOrder {
		untouched = append(untouched, *aggregatedByKey[key])
	}
	g.Edges = untouched

	g.SetNode(aggregateNode)
	for _, id := range aggregatedIDs {
		g.RemoveNode(id)
	}

	pairs := make([]AggregatedPair, 0, len(aggregatedChildren))
	for _, c := range aggregatedChildren {
		pairs = append(pairs, AggregatedPair{ID: c.ID, Label: c.Label})
	}

	return aggregateNode, pairs, true
}

// AggregatedPair names a node absorbed by ReplaceWithAggregateNode.
type AggregatedPair struct {
	ID    string
	Label string
}

// VerifyGraphIntegrity checks the graph's structural invariants, accumulating
// every violation found rather than stopping at the first. It returns nil
// when the graph is sound, or the full list of violation messages otherwise.
func (g *Graph) VerifyGraphIntegrity() []string {
	nodeIDs := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeIDs[n.ID] = true
	}

	var violations []string

	for _, e := range g.Edges {
		if !nodeIDs[e.Source] {
			violations = append(violations, fmt.Sprintf("Edge id:[%s] source %q not found in nodes", e.ID, e.Source))
		}
		if !nodeIDs[e.Target] {
			violations = append(violations, fmt.Sprintf("Edge id:[%s] target %q not found in nodes", e.ID, e.Target))
		}
	}

	partitionIDs := make(map[string]bool)
	nonPartitionIDs := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.IsPartition {
			partitionIDs[n.ID] = true
		} else {
			nonPartitionIDs[n.ID] = true
		}
	}

	for _, e := range g.Edges {
		if partitionIDs[e.Source] && nonPartitionIDs[e.Target] {
			violations = append(violations, fmt.Sprintf("Edge id:[%s] source %q is a partition node and target %q is a non-partition node", e.ID, e.Source, e.Target))
		}
		if partitionIDs[e.Target] && nonPartitionIDs[e.Source] {
			violations = append(violations, fmt.Sprintf("Edge id:[%s] target %q is a partition node and source %q is a non-partition node", e.ID, e.Target, e.Source))
		}
	}

	for _, n := range g.Nodes {
		if n.BelongsTo != nil && !nodeIDs[*n.BelongsTo] {
			violations = append(violations, fmt.Sprintf("Node id:[%s] belongs_to %q not found in nodes", n.ID, *n.BelongsTo))
		}
	}

	// Non-partition nodes must belong to a parent, unless the graph has no
	// partitions at all (a flat, parentless graph is valid).
	if len(partitionIDs) > 0 {
		for _, n := range g.Nodes {
			if n.BelongsTo == nil && !n.IsPartition {
				violations = append(violations, fmt.Sprintf("Node id:[%s] is not a partition AND does not belong to a partition", n.ID))
			}
		}
	}

	for _, n := range g.Nodes {
		if !g.layerExists(n.Layer) {
			violations = append(violations, fmt.Sprintf("Node id:[%s] layer %q not found in layers", n.ID, n.Layer))
		}
	}

	seenNodeIDs := make(map[string]bool)
	for _, n := range g.Nodes {
		if seenNodeIDs[n.ID] {
			violations = append(violations, fmt.Sprintf("Duplicate node id: %s", n.ID))
		} else {
			seenNodeIDs[n.ID] = true
		}
	}

	seenEdgeIDs := make(map[string]bool)
	for _, e := range g.Edges {
		if seenEdgeIDs[e.ID] {
			violations = append(violations, fmt.Sprintf("Duplicate edge id: %s", e.ID))
		} else {
			seenEdgeIDs[e.ID] = true
		}
	}

	return violations
}

func dedupSortedStrings(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	var prev string
	first := true
	for _, s := range in {
		if first || s != prev {
			out = append(out, s)
			prev = s
			first = false
		}
	}
	return out
}
