package plandag

import (
	"context"
	"testing"
	"time"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/storage"
	"github.com/layercake-run/layercake/pkg/storage/memstore"
)

func legacyPlanRow(projectID string) storage.Plan {
	return storage.Plan{
		ID: "plan_legacy", ProjectID: projectID,
		Name: "Plan for Project " + projectID, Status: "draft", Version: 1,
		CreatedAt: time.Now(),
	}
}

func newTestService() (*Service, context.Context) {
	return NewService(memstore.New(), Limits{}), context.Background()
}

func TestGetOrCreatePlanCreatesDefault(t *testing.T) {
	s, ctx := newTestService()
	p, err := s.GetOrCreatePlan(ctx, "proj1")
	if err != nil {
		t.Fatalf("GetOrCreatePlan: %v", err)
	}
	if p.Name != "Main plan" || p.Status != "draft" || p.Version != 1 {
		t.Fatalf("unexpected default plan: %+v", p)
	}

	again, err := s.GetOrCreatePlan(ctx, "proj1")
	if err != nil {
		t.Fatalf("GetOrCreatePlan (second call): %v", err)
	}
	if again.ID != p.ID {
		t.Errorf("expected idempotent plan lookup, got a new plan: %s != %s", again.ID, p.ID)
	}
}

func TestGetOrCreatePlanRenamesLegacyName(t *testing.T) {
	s, ctx := newTestService()
	row := legacyPlanRow("proj1")
	if err := s.store.InsertPlan(ctx, &row); err != nil {
		t.Fatalf("InsertPlan: %v", err)
	}

	p, err := s.GetOrCreatePlan(ctx, "proj1")
	if err != nil {
		t.Fatalf("GetOrCreatePlan: %v", err)
	}
	if p.Name != "Main plan" {
		t.Errorf("Name = %q, want Main plan", p.Name)
	}
}

func TestCreateNodeBumpsVersion(t *testing.T) {
	s, ctx := newTestService()
	plan, _ := s.GetOrCreatePlan(ctx, "proj1")

	n, err := s.CreateNode(ctx, plan.ID, Node{NodeType: NodeTypeDataSet, Position: Position{X: 1, Y: 2}})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if n.ID == "" {
		t.Fatal("expected a generated node id")
	}

	got, _ := s.store.GetPlan(ctx, plan.ID)
	if got.Version != plan.Version+1 {
		t.Errorf("Version = %d, want %d", got.Version, plan.Version+1)
	}
}

func TestCreateNodeRejectsOutOfRangePosition(t *testing.T) {
	s, ctx := newTestService()
	plan, _ := s.GetOrCreatePlan(ctx, "proj1")

	_, err := s.CreateNode(ctx, plan.ID, Node{NodeType: NodeTypeGraph, Position: Position{X: 20000, Y: 0}})
	if !lcerrors.Is(err, lcerrors.ErrCodeValidation) {
		t.Fatalf("expected Validation error, got %v", err)
	}
}

func TestCreateEdgeRejectsSelfLoop(t *testing.T) {
	s, ctx := newTestService()
	plan, _ := s.GetOrCreatePlan(ctx, "proj1")

	_, err := s.CreateEdge(ctx, plan.ID, Edge{SourceNodeID: "n1", TargetNodeID: "n1"})
	if !lcerrors.Is(err, lcerrors.ErrCodeValidation) {
		t.Fatalf("expected Validation error for self-loop, got %v", err)
	}
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	s, ctx := newTestService()
	plan, _ := s.GetOrCreatePlan(ctx, "proj1")

	n1, _ := s.CreateNode(ctx, plan.ID, Node{NodeType: NodeTypeDataSet, Position: Position{}})
	n2, _ := s.CreateNode(ctx, plan.ID, Node{NodeType: NodeTypeGraph, Position: Position{}})
	_, err := s.CreateEdge(ctx, plan.ID, Edge{SourceNodeID: n1.ID, TargetNodeID: n2.ID})
	if err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	if err := s.DeleteNode(ctx, plan.ID, n1.ID); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	edges, err := s.store.ListEdges(ctx, plan.ID)
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("expected cascade delete to remove edges, got %d remaining", len(edges))
	}
}

func TestValidateAndMigrateLegacyNodes(t *testing.T) {
	s, ctx := newTestService()
	plan, _ := s.GetOrCreatePlan(ctx, "proj1")

	n, err := s.CreateNode(ctx, plan.ID, Node{NodeType: NodeTypeGraphArtefact, Position: Position{}})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	// Simulate a legacy-stored type by writing the row directly.
	rows, _ := s.store.ListNodes(ctx, plan.ID)
	for _, row := range rows {
		if row.ID == n.ID {
			row.NodeType = "OutputNode"
			_ = s.store.PutNode(ctx, &row)
		}
	}

	beforeVersion, _ := s.store.GetPlan(ctx, plan.ID)

	outcome, err := s.ValidateAndMigrateLegacyNodes(ctx, "proj1")
	if err != nil {
		t.Fatalf("ValidateAndMigrateLegacyNodes: %v", err)
	}
	if len(outcome.Migrated) != 1 {
		t.Fatalf("Migrated = %d, want 1", len(outcome.Migrated))
	}
	if outcome.Migrated[0].NewType != NodeTypeGraphArtefact {
		t.Errorf("NewType = %v, want GraphArtefactNode", outcome.Migrated[0].NewType)
	}

	afterVersion, _ := s.store.GetPlan(ctx, plan.ID)
	if afterVersion.Version != beforeVersion.Version+1 {
		t.Errorf("Version = %d, want %d (bumped by exactly 1)", afterVersion.Version, beforeVersion.Version+1)
	}
}

func TestCanonicalNodeTypeRewritesLegacyAliases(t *testing.T) {
	cases := map[string]NodeType{
		"OutputNode":    NodeTypeGraphArtefact,
		"Output":        NodeTypeGraphArtefact,
		"GraphArtifact": NodeTypeGraphArtefact,
		"TreeArtifact":  NodeTypeTreeArtefact,
	}
	for stored, want := range cases {
		got, rewritten := CanonicalNodeType(stored)
		if !rewritten {
			t.Errorf("CanonicalNodeType(%q) did not report a rewrite", stored)
		}
		if got != want {
			t.Errorf("CanonicalNodeType(%q) = %v, want %v", stored, got, want)
		}
	}
}
