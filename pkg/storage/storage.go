// Package storage defines the narrow persistence interfaces that back the
// graphdata and plandag packages. Implementations live in subpackages:
// [memstore] for tests and single-process use, [mongostore] for a shared
// MongoDB-backed deployment.
package storage

import (
	"context"
	"time"
)

// Project is the persisted row for a layercake project.
type Project struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Layer is a persisted entry in a project's layer palette.
type Layer struct {
	ID              string
	ProjectID       string
	Label           string
	BackgroundColor string
	BorderColor     string
	TextColor       string
	Alias           string
	SourceDatasetID string
}

// LayerAlias maps an additional alias string onto an existing layer,
// distinct from Layer.Alias: a layer carries at most one alias of its
// own, while a project may register many alias strings pointing at the
// same target layer (e.g. several upstream node-type names that should
// all render under one palette entry).
type LayerAlias struct {
	ID            string
	ProjectID     string
	Alias         string
	TargetLayerID string
}

// Dataset holds a project-scoped dataset row: its full in-memory graph,
// serialized as JSON, plus lifecycle metadata.
type Dataset struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	GraphJSON   []byte
	Status      string // "ready" | "processing" | "error"
	ErrorMsg    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GraphDataStatus is the lifecycle state of a computed graph_data snapshot.
type GraphDataStatus string

const (
	GraphDataProcessing GraphDataStatus = "Processing"
	GraphDataActive     GraphDataStatus = "Active"
	GraphDataFailed     GraphDataStatus = "Failed"
)

// GraphData is a computed, content-hashed snapshot produced by the
// graphdata package's build step.
type GraphData struct {
	ID         string
	ProjectID  string
	DagNodeID  string
	NodesJSON  []byte
	EdgesJSON  []byte
	SourceHash string
	Status     GraphDataStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Plan is the persisted row for one plan belonging to a project.
type Plan struct {
	ID           string
	ProjectID    string
	Name         string
	Description  string
	Tags         []string
	YAMLContent  string
	Dependencies []string
	Status       string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlanDagNode is a persisted node of a plan's DAG.
type PlanDagNode struct {
	ID             string
	PlanID         string
	NodeType       string
	PositionX      float64
	PositionY      float64
	SourcePosition *string
	TargetPosition *string
	Metadata       string // JSON-encoded
	Config         string // JSON-encoded
}

// PlanDagEdge is a persisted edge of a plan's DAG.
type PlanDagEdge struct {
	ID           string
	PlanID       string
	SourceNodeID string
	TargetNodeID string
	Metadata     string // JSON-encoded
}

// ProjectStore persists projects.
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*Project, error)
	InsertProject(ctx context.Context, p *Project) error
	UpdateProject(ctx context.Context, p *Project) error
	ListLayers(ctx context.Context, projectID string) ([]Layer, error)
	InsertLayer(ctx context.Context, l *Layer) error
	ListLayerAliases(ctx context.Context, projectID string) ([]LayerAlias, error)
	InsertLayerAlias(ctx context.Context, a *LayerAlias) error
}

// DatasetStore persists project-scoped datasets.
type DatasetStore interface {
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	ListDatasets(ctx context.Context, projectID string) ([]Dataset, error)
	InsertDataset(ctx context.Context, d *Dataset) error
	ReplaceDatasetContent(ctx context.Context, id string, graphJSON []byte) error
}

// GraphDataStore persists computed graph_data snapshots, keyed by the
// plan-DAG node that produced them.
type GraphDataStore interface {
	GetByDagNode(ctx context.Context, dagNodeID string) (*GraphData, error)
	Put(ctx context.Context, g *GraphData) error
	// ReplaceRows atomically swaps the node/edge payloads and hash for an
	// existing snapshot row, used by the Processing -> Active transition.
	ReplaceRows(ctx context.Context, id string, nodesJSON, edgesJSON []byte, sourceHash string, status GraphDataStatus) error
}

// PlanStore persists plans and their DAG nodes/edges.
type PlanStore interface {
	GetPlan(ctx context.Context, id string) (*Plan, error)
	ListPlansByProject(ctx context.Context, projectID string) ([]Plan, error)
	InsertPlan(ctx context.Context, p *Plan) error
	// BumpVersion atomically increments the stored plan's version and
	// returns the new value. Implementations MUST serialize this per
	// plan id (see the concurrency model: a global clock per plan).
	BumpVersion(ctx context.Context, planID string) (int64, error)

	ListNodes(ctx context.Context, planID string) ([]PlanDagNode, error)
	ListEdges(ctx context.Context, planID string) ([]PlanDagEdge, error)
	PutNode(ctx context.Context, n *PlanDagNode) error
	PutEdge(ctx context.Context, e *PlanDagEdge) error
	DeleteNode(ctx context.Context, planID, nodeID string) error
	DeleteEdge(ctx context.Context, planID, edgeID string) error
	// DeleteEdgesByNode removes every edge referencing nodeID as either
	// endpoint, used to cascade a node deletion.
	DeleteEdgesByNode(ctx context.Context, planID, nodeID string) error
	// PutNodes/PutEdges write a full batch in one call, used by archive
	// import's DAG insertion.
	PutNodes(ctx context.Context, nodes []PlanDagNode) error
	PutEdges(ctx context.Context, edges []PlanDagEdge) error
}
