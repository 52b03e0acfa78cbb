package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/layercake-run/layercake/pkg/plandag"
	"github.com/layercake-run/layercake/pkg/storage"
	"github.com/layercake-run/layercake/pkg/storage/memstore"
)

type fixture struct {
	store     *memstore.Store
	exporter  *Exporter
	importer  *Importer
	projectID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	svc := plandag.NewService(store, plandag.Limits{MaxNodes: 1000, MaxEdges: 1000})

	now := time.Now()
	projectID := "project_1"
	if err := store.InsertProject(context.Background(), &storage.Project{
		ID: projectID, Name: "Acme Orgchart", Description: "test project",
		Tags: []string{"hr"}, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("InsertProject: %v", err)
	}

	graphJSON, err := json.Marshal(struct {
		Nodes []map[string]any `json:"Nodes"`
		Edges []map[string]any `json:"Edges"`
	}{
		Nodes: []map[string]any{{"id": "n1"}, {"id": "n2"}},
		Edges: []map[string]any{{"id": "e1", "source": "n1", "target": "n2"}},
	})
	if err != nil {
		t.Fatalf("marshal graph: %v", err)
	}
	if err := store.InsertDataset(context.Background(), &storage.Dataset{
		ID: "dataset_1", ProjectID: projectID, Name: "Org Chart", GraphJSON: graphJSON,
		Status: "ready", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("InsertDataset: %v", err)
	}

	plan, err := svc.GetOrCreatePlan(context.Background(), projectID)
	if err != nil {
		t.Fatalf("GetOrCreatePlan: %v", err)
	}

	dsNode, err := svc.CreateNode(context.Background(), plan.ID, plandag.Node{
		NodeType: plandag.NodeTypeDataSet,
		Config:   map[string]any{"dataSetId": "dataset_1"},
	})
	if err != nil {
		t.Fatalf("CreateNode dataset: %v", err)
	}
	graphNode, err := svc.CreateNode(context.Background(), plan.ID, plandag.Node{
		NodeType: plandag.NodeTypeGraph,
	})
	if err != nil {
		t.Fatalf("CreateNode graph: %v", err)
	}
	if _, err := svc.CreateEdge(context.Background(), plan.ID, plandag.Edge{
		SourceNodeID: dsNode.ID, TargetNodeID: graphNode.ID,
	}); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	return &fixture{
		store:     store,
		exporter:  NewExporter(store, store, svc),
		importer:  NewImporter(store, store, store),
		projectID: projectID,
	}
}

func nodeTypeMultiset(nodes []storage.PlanDagNode) map[string]int {
	out := make(map[string]int)
	for _, n := range nodes {
		out[n.NodeType]++
	}
	return out
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	data, err := f.exporter.ExportProject(ctx, f.projectID)
	if err != nil {
		t.Fatalf("ExportProject: %v", err)
	}

	origDatasets, err := f.store.ListDatasets(ctx, f.projectID)
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	origPlans, err := f.store.ListPlansByProject(ctx, f.projectID)
	if err != nil {
		t.Fatalf("ListPlansByProject: %v", err)
	}
	origNodes, err := f.store.ListNodes(ctx, origPlans[0].ID)
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	origEdges, err := f.store.ListEdges(ctx, origPlans[0].ID)
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}

	res, err := f.importer.ImportProject(ctx, data, "", "")
	if err != nil {
		t.Fatalf("ImportProject: %v", err)
	}

	newDatasets, err := f.store.ListDatasets(ctx, res.ProjectID)
	if err != nil {
		t.Fatalf("ListDatasets (imported): %v", err)
	}
	if len(newDatasets) != len(origDatasets) {
		t.Fatalf("dataset count = %d, want %d", len(newDatasets), len(origDatasets))
	}

	newPlans, err := f.store.ListPlansByProject(ctx, res.ProjectID)
	if err != nil {
		t.Fatalf("ListPlansByProject (imported): %v", err)
	}
	if len(newPlans) != 1 {
		t.Fatalf("imported plan count = %d, want 1", len(newPlans))
	}

	newNodes, err := f.store.ListNodes(ctx, res.PlanID)
	if err != nil {
		t.Fatalf("ListNodes (imported): %v", err)
	}
	newEdges, err := f.store.ListEdges(ctx, res.PlanID)
	if err != nil {
		t.Fatalf("ListEdges (imported): %v", err)
	}
	if len(newEdges) != len(origEdges) {
		t.Fatalf("edge count = %d, want %d", len(newEdges), len(origEdges))
	}

	origMultiset := nodeTypeMultiset(origNodes)
	newMultiset := nodeTypeMultiset(newNodes)
	if len(origMultiset) != len(newMultiset) {
		t.Fatalf("node type multiset size mismatch: %v vs %v", origMultiset, newMultiset)
	}
	for nt, count := range origMultiset {
		if newMultiset[nt] != count {
			t.Fatalf("node type %s count = %d, want %d", nt, newMultiset[nt], count)
		}
	}

	// Fresh ids: no imported node id equals an original node id.
	origIDs := make(map[string]bool, len(origNodes))
	for _, n := range origNodes {
		origIDs[n.ID] = true
	}
	for _, n := range newNodes {
		if origIDs[n.ID] {
			t.Fatalf("imported node %s reused an original id", n.ID)
		}
	}

	// The DataSetNode's config.dataSetId must point at the new dataset id.
	var newDatasetID string
	for k, v := range res.DatasetIDMap {
		_ = k
		newDatasetID = v
	}
	found := false
	for _, n := range newNodes {
		if n.NodeType != string(plandag.NodeTypeDataSet) {
			continue
		}
		var cfg map[string]any
		if err := json.Unmarshal([]byte(n.Config), &cfg); err != nil {
			t.Fatalf("unmarshal config: %v", err)
		}
		if cfg["dataSetId"] == newDatasetID {
			found = true
		}
	}
	if !found {
		t.Fatalf("no imported DataSetNode references the remapped dataset id %s", newDatasetID)
	}

	// graph_json content must match byte-for-byte despite the id remap,
	// since dataset payloads are copied verbatim.
	sort.Slice(newDatasets, func(i, j int) bool { return newDatasets[i].Name < newDatasets[j].Name })
	sort.Slice(origDatasets, func(i, j int) bool { return origDatasets[i].Name < origDatasets[j].Name })
	for i := range origDatasets {
		if string(origDatasets[i].GraphJSON) != string(newDatasets[i].GraphJSON) {
			t.Fatalf("dataset %d graph_json mismatch after round-trip", i)
		}
	}
}

func TestExportTemplateOmitsDatasetPayloads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	data, err := f.exporter.ExportTemplate(ctx, f.projectID)
	if err != nil {
		t.Fatalf("ExportTemplate: %v", err)
	}

	res, err := f.importer.ImportProject(ctx, data, "", "")
	if err != nil {
		t.Fatalf("ImportProject (template): %v", err)
	}

	datasets, err := f.store.ListDatasets(ctx, res.ProjectID)
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	if len(datasets) != 1 {
		t.Fatalf("dataset count = %d, want 1", len(datasets))
	}
	if len(datasets[0].GraphJSON) != 0 {
		t.Fatalf("template-imported dataset carried row content: %q", datasets[0].GraphJSON)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Org Chart", "org_chart"},
		{"Über Füße", "ber_f__e"},
		{"", "dataset"},
		{"___", "dataset"},
		{"already_ok", "already_ok"},
		{"Mixed-CASE 123", "mixed_case_123"},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRejectUnsafePath(t *testing.T) {
	if err := rejectUnsafePath("datasets/foo.json"); err != nil {
		t.Fatalf("unexpected error for safe path: %v", err)
	}
	if err := rejectUnsafePath("../escape.json"); err == nil {
		t.Fatal("expected error for traversal path, got nil")
	}
	if err := rejectUnsafePath("/etc/passwd"); err == nil {
		t.Fatal("expected error for absolute path, got nil")
	}
}

func TestExportImportDirectoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := t.TempDir()

	if err := f.exporter.ExportToDirectory(ctx, f.projectID, dir); err != nil {
		t.Fatalf("ExportToDirectory: %v", err)
	}
	for _, want := range []string{"manifest.json", "project.json", "dag.json", "datasets/index.json"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Fatalf("expected exported file %s: %v", want, err)
		}
	}

	// A stray file under a recognized bundle head must be pruned on re-export.
	staleDir := filepath.Join(dir, "datasets")
	if err := os.WriteFile(filepath.Join(staleDir, "stale_leftover.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}
	// An unrelated hidden file must survive.
	if err := os.WriteFile(filepath.Join(dir, ".keep"), []byte(""), 0o644); err != nil {
		t.Fatalf("write hidden file: %v", err)
	}

	if err := f.exporter.ExportToDirectory(ctx, f.projectID, dir); err != nil {
		t.Fatalf("ExportToDirectory (re-export): %v", err)
	}
	if _, err := os.Stat(filepath.Join(staleDir, "stale_leftover.json")); !os.IsNotExist(err) {
		t.Fatalf("stale dataset file was not pruned: err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".keep")); err != nil {
		t.Fatalf("hidden file was incorrectly pruned: %v", err)
	}

	res, err := f.importer.ImportFromDirectory(ctx, dir, "", "")
	if err != nil {
		t.Fatalf("ImportFromDirectory: %v", err)
	}
	if res.DatasetCount != 1 {
		t.Fatalf("imported dataset count = %d, want 1", res.DatasetCount)
	}
}
