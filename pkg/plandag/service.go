package plandag

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/observability"
	"github.com/layercake-run/layercake/pkg/storage"
)

// Limits bounds a single plan's size. The zero value (all fields 0) is
// treated as "no limit" for that dimension.
type Limits struct {
	MaxNodes int
	MaxEdges int
}

// Service implements plan DAG persistence: identity allocation, input
// validation, and the version counter every mutation bumps.
type Service struct {
	store  storage.PlanStore
	limits Limits
}

// NewService creates a Service backed by store, enforcing limits on every
// plan it touches.
func NewService(store storage.PlanStore, limits Limits) *Service {
	return &Service{store: store, limits: limits}
}

// ListPlansByProject returns every plan belonging to projectID.
func (s *Service) ListPlansByProject(ctx context.Context, projectID string) ([]storage.Plan, error) {
	plans, err := s.store.ListPlansByProject(ctx, projectID)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list plans for project %s", projectID)
	}
	return plans, nil
}

func newNodeID(t NodeType) string {
	prefix := idPrefixes[t]
	if prefix == "" {
		prefix = "node"
	}
	return prefix + "_" + shortUUID()
}

func newEdgeID() string {
	return "edge_" + shortUUID()
}

// shortUUID returns the first 12 hex characters of a freshly generated
// UUID's simple (no-dash) form, matching the id shape named by the
// contract this package implements.
func shortUUID() string {
	u := uuid.New()
	simple := strings.ReplaceAll(u.String(), "-", "")
	return simple[:12]
}

// GetOrCreatePlan returns the oldest plan for projectID, renaming legacy
// names to "Main plan", or creates one with default fields if none exists.
func (s *Service) GetOrCreatePlan(ctx context.Context, projectID string) (*Plan, error) {
	plans, err := s.store.ListPlansByProject(ctx, projectID)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list plans for project %s", projectID)
	}

	if len(plans) == 0 {
		p := &storage.Plan{
			ID:          "plan_" + shortUUID(),
			ProjectID:   projectID,
			Name:        "Main plan",
			Status:      "draft",
			Version:     1,
			YAMLContent: "",
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := s.store.InsertPlan(ctx, p); err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to create default plan")
		}
		return toPlan(p), nil
	}

	oldest := plans[0]
	for _, p := range plans[1:] {
		if p.CreatedAt.Before(oldest.CreatedAt) {
			oldest = p
		}
	}
	if isLegacyPlanName(oldest.Name, projectID) {
		oldest.Name = "Main plan"
		if err := s.store.InsertPlan(ctx, &oldest); err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to rename legacy plan")
		}
	}
	return toPlan(&oldest), nil
}

func isLegacyPlanName(name, projectID string) bool {
	if name == "" {
		return true
	}
	return strings.EqualFold(name, "Plan for Project "+projectID)
}

func toPlan(p *storage.Plan) *Plan {
	return &Plan{
		ID: p.ID, ProjectID: p.ProjectID, Name: p.Name, Description: p.Description,
		Tags: p.Tags, YAMLContent: p.YAMLContent, Dependencies: p.Dependencies,
		Status: p.Status, Version: p.Version,
	}
}

// --- validation ---

func validatePosition(pos Position) error {
	if math.IsNaN(pos.X) || math.IsInf(pos.X, 0) || math.IsNaN(pos.Y) || math.IsInf(pos.Y, 0) {
		return lcerrors.New(lcerrors.ErrCodeValidation, "position must be finite")
	}
	if pos.X < -10_000 || pos.X > 10_000 || pos.Y < -10_000 || pos.Y > 10_000 {
		return lcerrors.New(lcerrors.ErrCodeValidation, "position out of range [-10000, 10000]")
	}
	return nil
}

func validateJSONObject(name string, v map[string]any) error {
	if v == nil {
		return nil
	}
	if _, err := json.Marshal(v); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeValidation, err, "%s must be JSON-encodable", name)
	}
	return nil
}

// --- node mutations ---

// CreateNode validates n, allocates an id, persists it, and bumps the
// plan's version.
func (s *Service) CreateNode(ctx context.Context, planID string, n Node) (*Node, error) {
	if err := validatePosition(n.Position); err != nil {
		return nil, err
	}
	if err := validateJSONObject("metadata", n.Metadata); err != nil {
		return nil, err
	}
	if err := validateJSONObject("config", n.Config); err != nil {
		return nil, err
	}

	if s.limits.MaxNodes > 0 {
		existing, err := s.store.ListNodes(ctx, planID)
		if err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to count existing nodes")
		}
		if len(existing) >= s.limits.MaxNodes {
			return nil, lcerrors.New(lcerrors.ErrCodeValidation, "plan %s exceeds the configured node limit (%d)", planID, s.limits.MaxNodes)
		}
	}

	n.ID = newNodeID(n.NodeType)
	n.PlanID = planID
	row, err := toNodeRow(n)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutNode(ctx, row); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to persist node")
	}
	if _, err := s.bumpVersion(ctx, planID); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNode validates and replaces an existing node's mutable fields. If
// n is a DataSet node whose config carries a new dataSetId, the caller-
// supplied resolver (looked up via datasetName) rewrites metadata.label
// when the current label differs.
func (s *Service) UpdateNode(ctx context.Context, planID string, n Node, datasetName func(datasetID string) (string, bool)) (*Node, error) {
	if err := validatePosition(n.Position); err != nil {
		return nil, err
	}
	if err := validateJSONObject("metadata", n.Metadata); err != nil {
		return nil, err
	}
	if err := validateJSONObject("config", n.Config); err != nil {
		return nil, err
	}

	if n.NodeType == NodeTypeDataSet && datasetName != nil {
		if dsID, ok := n.Config["dataSetId"].(string); ok && dsID != "" {
			if name, found := datasetName(dsID); found {
				currentLabel, _ := n.Metadata["label"].(string)
				if currentLabel != name {
					if n.Metadata == nil {
						n.Metadata = map[string]any{}
					}
					n.Metadata["label"] = name
				}
			}
		}
	}

	n.PlanID = planID
	row, err := toNodeRow(n)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutNode(ctx, row); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to persist node")
	}
	if _, err := s.bumpVersion(ctx, planID); err != nil {
		return nil, err
	}
	return &n, nil
}

// MoveNode updates a node's position only. Position updates are pure
// layout but still bump the plan's version.
func (s *Service) MoveNode(ctx context.Context, planID, nodeID string, pos Position) error {
	if err := validatePosition(pos); err != nil {
		return err
	}
	nodes, err := s.store.ListNodes(ctx, planID)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to load node %s", nodeID)
	}
	for _, row := range nodes {
		if row.ID != nodeID {
			continue
		}
		row.PositionX, row.PositionY = pos.X, pos.Y
		if err := s.store.PutNode(ctx, &row); err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to persist moved node")
		}
		_, err := s.bumpVersion(ctx, planID)
		return err
	}
	return lcerrors.New(lcerrors.ErrCodeNotFound, "node %s not found in plan %s", nodeID, planID)
}

// BatchMoveNodes applies MoveNode semantics to many nodes as a single
// version bump.
func (s *Service) BatchMoveNodes(ctx context.Context, planID string, positions map[string]Position) error {
	nodes, err := s.store.ListNodes(ctx, planID)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to load nodes for plan %s", planID)
	}
	byID := make(map[string]storage.PlanDagNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var toWrite []storage.PlanDagNode
	for id, pos := range positions {
		if err := validatePosition(pos); err != nil {
			return err
		}
		row, ok := byID[id]
		if !ok {
			return lcerrors.New(lcerrors.ErrCodeNotFound, "node %s not found in plan %s", id, planID)
		}
		row.PositionX, row.PositionY = pos.X, pos.Y
		toWrite = append(toWrite, row)
	}
	if err := s.store.PutNodes(ctx, toWrite); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to persist batch move")
	}
	_, err = s.bumpVersion(ctx, planID)
	return err
}

// DeleteNode removes a node, cascading to every edge that references it
// (as source or target) before the node itself is removed.
func (s *Service) DeleteNode(ctx context.Context, planID, nodeID string) error {
	if err := s.store.DeleteEdgesByNode(ctx, planID, nodeID); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to cascade-delete edges for node %s", nodeID)
	}
	if err := s.store.DeleteNode(ctx, planID, nodeID); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to delete node %s", nodeID)
	}
	_, err := s.bumpVersion(ctx, planID)
	return err
}

// --- edge mutations ---

// CreateEdge validates e (rejecting self-loops), allocates an id,
// persists it, and bumps the plan's version.
func (s *Service) CreateEdge(ctx context.Context, planID string, e Edge) (*Edge, error) {
	if e.SourceNodeID == e.TargetNodeID {
		return nil, lcerrors.New(lcerrors.ErrCodeValidation, "edge source and target must differ")
	}
	if err := validateJSONObject("metadata", e.Metadata); err != nil {
		return nil, err
	}

	if s.limits.MaxEdges > 0 {
		existing, err := s.store.ListEdges(ctx, planID)
		if err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to count existing edges")
		}
		if len(existing) >= s.limits.MaxEdges {
			return nil, lcerrors.New(lcerrors.ErrCodeValidation, "plan %s exceeds the configured edge limit (%d)", planID, s.limits.MaxEdges)
		}
	}

	e.ID = newEdgeID()
	e.PlanID = planID
	row, err := toEdgeRow(e)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutEdge(ctx, row); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to persist edge")
	}
	if _, err := s.bumpVersion(ctx, planID); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEdge validates and replaces an existing edge's metadata.
func (s *Service) UpdateEdge(ctx context.Context, planID string, e Edge) (*Edge, error) {
	if e.SourceNodeID == e.TargetNodeID {
		return nil, lcerrors.New(lcerrors.ErrCodeValidation, "edge source and target must differ")
	}
	if err := validateJSONObject("metadata", e.Metadata); err != nil {
		return nil, err
	}
	e.PlanID = planID
	row, err := toEdgeRow(e)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutEdge(ctx, row); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to persist edge")
	}
	if _, err := s.bumpVersion(ctx, planID); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEdge removes a single edge and bumps the plan's version.
func (s *Service) DeleteEdge(ctx context.Context, planID, edgeID string) error {
	if err := s.store.DeleteEdge(ctx, planID, edgeID); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to delete edge %s", edgeID)
	}
	_, err := s.bumpVersion(ctx, planID)
	return err
}

func (s *Service) bumpVersion(ctx context.Context, planID string) (int64, error) {
	v, err := s.store.BumpVersion(ctx, planID)
	if err != nil {
		return 0, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to bump version for plan %s", planID)
	}
	observability.PlanDag().OnMutation(ctx, planID, "", v)
	return v, nil
}

func toNodeRow(n Node) (*storage.PlanDagNode, error) {
	metaJSON, err := json.Marshal(n.Metadata)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeValidation, err, "failed to encode node metadata")
	}
	cfgJSON, err := json.Marshal(n.Config)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeValidation, err, "failed to encode node config")
	}
	row := &storage.PlanDagNode{
		ID: n.ID, PlanID: n.PlanID, NodeType: string(n.NodeType),
		PositionX: n.Position.X, PositionY: n.Position.Y,
		Metadata: string(metaJSON), Config: string(cfgJSON),
	}
	if n.SourcePosition != nil {
		s := positionString(*n.SourcePosition)
		row.SourcePosition = &s
	}
	if n.TargetPosition != nil {
		s := positionString(*n.TargetPosition)
		row.TargetPosition = &s
	}
	return row, nil
}

func positionString(p Position) string {
	b, _ := json.Marshal(p)
	return string(b)
}

func toEdgeRow(e Edge) (*storage.PlanDagEdge, error) {
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeValidation, err, "failed to encode edge metadata")
	}
	return &storage.PlanDagEdge{
		ID: e.ID, PlanID: e.PlanID,
		SourceNodeID: e.SourceNodeID, TargetNodeID: e.TargetNodeID,
		Metadata: string(metaJSON),
	}, nil
}
