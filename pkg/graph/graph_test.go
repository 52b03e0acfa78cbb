package graph

import "testing"

func strp(s string) *string { return &s }

func sampleGraph() *Graph {
	g := New("sample")
	g.AddLayer(DefaultLayer("app", "Application"))
	g.Nodes = []Node{
		{ID: "root", Label: "Root", Layer: "app", IsPartition: true},
		{ID: "child1", Label: "Child 1", Layer: "app", IsPartition: false, BelongsTo: strp("root")},
		{ID: "child2", Label: "Child 2", Layer: "app", IsPartition: false, BelongsTo: strp("root")},
	}
	g.Edges = []Edge{
		{ID: "e1", Source: "child1", Target: "child2", Layer: "app", Weight: 1},
	}
	return g
}

func TestAddLayerIdempotent(t *testing.T) {
	g := New("g")
	g.AddLayer(DefaultLayer("a", "A"))
	g.AddLayer(DefaultLayer("a", "A duplicate"))
	if len(g.Layers) != 1 {
		t.Fatalf("want 1 layer, got %d", len(g.Layers))
	}
	if g.Layers[0].Label != "A" {
		t.Errorf("AddLayer should not overwrite an existing layer id, got label %q", g.Layers[0].Label)
	}
}

func TestGetNodeByIDAndRemoveAndSet(t *testing.T) {
	g := sampleGraph()

	if n := g.GetNodeByID("child1"); n == nil || n.Label != "Child 1" {
		t.Fatalf("GetNodeByID(child1) = %v", n)
	}
	if n := g.GetNodeByID("missing"); n != nil {
		t.Fatalf("GetNodeByID(missing) = %v, want nil", n)
	}

	g.RemoveNode("child1")
	if g.GetNodeByID("child1") != nil {
		t.Fatal("RemoveNode did not remove child1")
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("want 2 nodes after removal, got %d", len(g.Nodes))
	}

	g.SetNode(Node{ID: "child2", Label: "Child 2 Updated", Layer: "app", BelongsTo: strp("root")})
	if g.GetNodeByID("child2").Label != "Child 2 Updated" {
		t.Fatal("SetNode did not update existing node")
	}

	g.SetNode(Node{ID: "child3", Label: "Child 3", Layer: "app", BelongsTo: strp("root")})
	if g.GetNodeByID("child3") == nil {
		t.Fatal("SetNode did not append a new node")
	}
}

func TestGetRootNodesSortedAndFiltered(t *testing.T) {
	g := New("g")
	g.Nodes = []Node{
		{ID: "b_root", IsPartition: true},
		{ID: "a_root", IsPartition: true, BelongsTo: strp("synthetic_partition_root")},
		{ID: "leaf", IsPartition: false, BelongsTo: strp("a_root")},
	}
	roots := g.GetRootNodes()
	if len(roots) != 2 {
		t.Fatalf("want 2 roots, got %d", len(roots))
	}
	if roots[0].ID != "a_root" || roots[1].ID != "b_root" {
		t.Fatalf("roots not sorted by id: %v, %v", roots[0].ID, roots[1].ID)
	}
}

func TestGetChildren(t *testing.T) {
	g := sampleGraph()
	root := g.GetNodeByID("root")
	children := g.GetChildren(root)
	if len(children) != 2 {
		t.Fatalf("want 2 children, got %d", len(children))
	}
}

func TestGetNonPartitionNodesAndEdges(t *testing.T) {
	g := sampleGraph()

	nodes := g.GetNonPartitionNodes()
	if len(nodes) != 2 {
		t.Fatalf("want 2 non-partition nodes, got %d", len(nodes))
	}

	edges := g.GetNonPartitionEdges()
	if len(edges) != 1 {
		t.Fatalf("want 1 non-partition edge, got %d", len(edges))
	}
}

func TestGetHierarchyNodesNormalizesComment(t *testing.T) {
	g := sampleGraph()
	nodes := g.GetHierarchyNodes()
	for _, n := range nodes {
		if n.Comment == nil || *n.Comment == "" {
			t.Fatalf("GetHierarchyNodes should normalize empty comments to \"null\", got %v for %s", n.Comment, n.ID)
		}
	}
}

func TestGetHierarchyEdges(t *testing.T) {
	g := sampleGraph()
	edges := g.GetHierarchyEdges()
	if len(edges) != 2 {
		t.Fatalf("want 2 hierarchy edges (one per child of root), got %d", len(edges))
	}
	for _, e := range edges {
		if e.Source != "root" {
			t.Errorf("hierarchy edge source = %q, want root", e.Source)
		}
	}
}

func TestBuildTree(t *testing.T) {
	g := sampleGraph()
	tree := g.BuildTree()
	if len(tree) != 1 {
		t.Fatalf("want 1 root in tree, got %d", len(tree))
	}
	if tree[0].ID != "root" || tree[0].Depth != 0 {
		t.Fatalf("unexpected root %+v", tree[0])
	}
	if len(tree[0].Children) != 2 {
		t.Fatalf("want 2 children, got %d", len(tree[0].Children))
	}
	for _, child := range tree[0].Children {
		if child.Depth != 1 {
			t.Errorf("child depth = %d, want 1", child.Depth)
		}
	}
}

func TestMaxHierarchyDepth(t *testing.T) {
	g := sampleGraph()
	if d := g.MaxHierarchyDepth(); d != 1 {
		t.Fatalf("MaxHierarchyDepth() = %d, want 1", d)
	}

	empty := New("empty")
	if d := empty.MaxHierarchyDepth(); d != 0 {
		t.Fatalf("MaxHierarchyDepth() on empty graph = %d, want 0", d)
	}
}

func TestStats(t *testing.T) {
	g := sampleGraph()
	want := "Nodes: 3, Edges: 1, Layers: 1"
	if got := g.Stats(); got != want {
		t.Fatalf("Stats() = %q, want %q", got, want)
	}
}

func TestAppendAnnotation(t *testing.T) {
	g := New("g")
	g.AppendAnnotation("first note")
	if g.Annotations != "first note" {
		t.Fatalf("Annotations = %q", g.Annotations)
	}
	g.AppendAnnotation("second note")
	if g.Annotations != "first note\n\nsecond note" {
		t.Fatalf("Annotations = %q", g.Annotations)
	}
	g.AppendAnnotation("   ")
	if g.Annotations != "first note\n\nsecond note" {
		t.Fatal("AppendAnnotation should ignore blank input")
	}
}

func TestGenerateAggregateNodeIDSkipsExisting(t *testing.T) {
	g := New("g")
	g.Nodes = []Node{{ID: "agg_root_1"}}
	id := g.GenerateAggregateNodeID("root")
	if id != "agg_root_2" {
		t.Fatalf("GenerateAggregateNodeID() = %q, want agg_root_2", id)
	}
}

func TestReplaceWithAggregateNode(t *testing.T) {
	g := New("g")
	g.AddLayer(DefaultLayer("app", "Application"))
	g.Nodes = []Node{
		{ID: "root", IsPartition: true, Layer: "app"},
		{ID: "c1", Label: "C1", Layer: "app", BelongsTo: strp("root"), Weight: 2},
		{ID: "c2", Label: "C2", Layer: "app", BelongsTo: strp("root"), Weight: 3},
		{ID: "external", Label: "External", Layer: "app", BelongsTo: strp("root"), Weight: 1},
	}
	g.Edges = []Edge{
		{ID: "e1", Source: "c1", Target: "external", Layer: "app", Weight: 1},
		{ID: "e2", Source: "c2", Target: "external", Layer: "app", Weight: 4},
		{ID: "e3", Source: "c1", Target: "c2", Layer: "app", Weight: 9},
	}

	agg, pairs, ok := g.ReplaceWithAggregateNode([]string{"c1", "c2"}, "Root - 2 nodes (aggregated)", "app", strp("root"), nil)
	if !ok {
		t.Fatal("ReplaceWithAggregateNode returned ok=false")
	}
	if agg.Weight != 5 {
		t.Fatalf("aggregate weight = %d, want 5", agg.Weight)
	}
	if len(pairs) != 2 {
		t.Fatalf("want 2 aggregated pairs, got %d", len(pairs))
	}

	if g.GetNodeByID("c1") != nil || g.GetNodeByID("c2") != nil {
		t.Fatal("aggregated source nodes should be removed")
	}
	if g.GetNodeByID(agg.ID) == nil {
		t.Fatal("aggregate node was not inserted")
	}

	// e3 (c1->c2) becomes a self-loop on the aggregate and must be dropped.
	for _, e := range g.Edges {
		if e.Source == e.Target {
			t.Fatalf("self-loop edge %v should have been dropped", e)
		}
	}

	// e1 and e2 both collapse to (agg, external, app) and must merge, summing weights.
	var merged *Edge
	for i := range g.Edges {
		if g.Edges[i].Source == agg.ID && g.Edges[i].Target == "external" {
			merged = &g.Edges[i]
		}
	}
	if merged == nil {
		t.Fatal("expected a merged edge from the aggregate to external")
	}
	if merged.Weight != 5 {
		t.Fatalf("merged edge weight = %d, want 5", merged.Weight)
	}
}

func TestVerifyGraphIntegrityDetectsViolations(t *testing.T) {
	g := New("g")
	g.Nodes = []Node{
		{ID: "a", Layer: "missing-layer", BelongsTo: strp("ghost")},
		{ID: "a", Layer: "missing-layer"}, // duplicate id
	}
	g.Edges = []Edge{
		{ID: "e1", Source: "a", Target: "nowhere"},
		{ID: "e1", Source: "a", Target: "a"}, // duplicate edge id
	}

	violations := g.VerifyGraphIntegrity()
	if len(violations) == 0 {
		t.Fatal("expected violations, got none")
	}

	joined := false
	for _, v := range violations {
		if v == "Duplicate node id: a" {
			joined = true
		}
	}
	if !joined {
		t.Errorf("expected a duplicate node id violation, got %v", violations)
	}
}

func TestVerifyGraphIntegrityAllowsFlatGraphWithoutPartitions(t *testing.T) {
	g := New("g")
	g.AddLayer(DefaultLayer("app", "Application"))
	g.Nodes = []Node{
		{ID: "a", Layer: "app"},
		{ID: "b", Layer: "app"},
	}
	g.Edges = []Edge{{ID: "e1", Source: "a", Target: "b", Layer: "app"}}

	if v := g.VerifyGraphIntegrity(); len(v) != 0 {
		t.Fatalf("flat graph with no partitions should be valid, got %v", v)
	}
}

func TestVerifyGraphIntegrityRequiresParentWhenPartitionsExist(t *testing.T) {
	g := New("g")
	g.AddLayer(DefaultLayer("app", "Application"))
	g.Nodes = []Node{
		{ID: "root", Layer: "app", IsPartition: true},
		{ID: "orphan", Layer: "app"},
	}

	violations := g.VerifyGraphIntegrity()
	found := false
	for _, v := range violations {
		if v == "Node id:[orphan] is not a partition AND does not belong to a partition" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an orphan-node violation, got %v", violations)
	}
}

func TestVerifyGraphIntegrityPartitionEdgeViolation(t *testing.T) {
	g := New("g")
	g.AddLayer(DefaultLayer("app", "Application"))
	g.Nodes = []Node{
		{ID: "root", Layer: "app", IsPartition: true},
		{ID: "leaf", Layer: "app", BelongsTo: strp("root")},
	}
	g.Edges = []Edge{{ID: "e1", Source: "root", Target: "leaf", Layer: "app"}}

	violations := g.VerifyGraphIntegrity()
	if len(violations) == 0 {
		t.Fatal("expected a partition/non-partition edge violation")
	}
}
