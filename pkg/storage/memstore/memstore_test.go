package memstore

import (
	"context"
	"testing"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/storage"
)

func TestProjectRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.InsertProject(ctx, &storage.Project{ID: "p1", Name: "Demo"}); err != nil {
		t.Fatalf("InsertProject: %v", err)
	}
	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "Demo" {
		t.Errorf("Name = %q, want Demo", got.Name)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := New()
	_, err := s.GetProject(context.Background(), "missing")
	if !lcerrors.Is(err, lcerrors.ErrCodeNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestBumpVersionMonotonic(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.InsertPlan(ctx, &storage.Plan{ID: "pl1", ProjectID: "p1", Version: 1}); err != nil {
		t.Fatalf("InsertPlan: %v", err)
	}

	var last int64
	for i := 0; i < 5; i++ {
		v, err := s.BumpVersion(ctx, "pl1")
		if err != nil {
			t.Fatalf("BumpVersion: %v", err)
		}
		if v <= last {
			t.Fatalf("version did not strictly increase: %d <= %d", v, last)
		}
		last = v
	}
}

func TestDeleteEdgesByNodeCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.InsertPlan(ctx, &storage.Plan{ID: "pl1", ProjectID: "p1"}); err != nil {
		t.Fatalf("InsertPlan: %v", err)
	}
	if err := s.PutEdge(ctx, &storage.PlanDagEdge{ID: "e1", PlanID: "pl1", SourceNodeID: "n1", TargetNodeID: "n2"}); err != nil {
		t.Fatalf("PutEdge: %v", err)
	}
	if err := s.PutEdge(ctx, &storage.PlanDagEdge{ID: "e2", PlanID: "pl1", SourceNodeID: "n3", TargetNodeID: "n4"}); err != nil {
		t.Fatalf("PutEdge: %v", err)
	}

	if err := s.DeleteEdgesByNode(ctx, "pl1", "n1"); err != nil {
		t.Fatalf("DeleteEdgesByNode: %v", err)
	}
	edges, err := s.ListEdges(ctx, "pl1")
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != 1 || edges[0].ID != "e2" {
		t.Fatalf("edges = %+v, want only e2 remaining", edges)
	}
}

func TestGraphDataReplaceRows(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Put(ctx, &storage.GraphData{ID: "gd1", DagNodeID: "dag1", Status: storage.GraphDataProcessing}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.ReplaceRows(ctx, "gd1", []byte("[]"), []byte("[]"), "abc123", storage.GraphDataActive); err != nil {
		t.Fatalf("ReplaceRows: %v", err)
	}
	got, err := s.GetByDagNode(ctx, "dag1")
	if err != nil {
		t.Fatalf("GetByDagNode: %v", err)
	}
	if got.SourceHash != "abc123" || got.Status != storage.GraphDataActive {
		t.Errorf("unexpected graph data: %+v", got)
	}
}
