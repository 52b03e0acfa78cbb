package plandag

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/storage"
)

// ExecutionState mirrors a dataset or graph_data's lifecycle as observed
// from the plan DAG, for display in a snapshot view.
type ExecutionState string

const (
	ExecutionNotStarted ExecutionState = "not_started"
	ExecutionProcessing ExecutionState = "processing"
	ExecutionCompleted  ExecutionState = "completed"
	ExecutionError      ExecutionState = "error"
)

// datasetExecutionState maps a dataset row's stored status to its
// execution state as seen from the DAG.
func datasetExecutionState(status string) ExecutionState {
	switch status {
	case "active":
		return ExecutionCompleted
	case "processing":
		return ExecutionProcessing
	case "error":
		return ExecutionError
	default:
		return ExecutionNotStarted
	}
}

// SnapshotNode is one node as it appears in a PlanDagSnapshot, enriched
// with execution state for DataSet and Graph nodes.
type SnapshotNode struct {
	ID               string
	NodeType         NodeType
	Position         Position
	Metadata         map[string]any
	Config           map[string]any
	DatasetExecution *ExecutionState `json:"datasetExecution,omitempty"`
	GraphNodeCount   *int            `json:"graphNodeCount,omitempty"`
	GraphEdgeCount   *int            `json:"graphEdgeCount,omitempty"`
	GraphState       *ExecutionState `json:"graphState,omitempty"`
}

// SnapshotMetadata carries descriptive fields about the snapshotted plan.
type SnapshotMetadata struct {
	Name         string
	Description  string
	Created      time.Time
	LastModified time.Time
	Author       string
}

// PlanDagSnapshot is the read-only view of a plan's DAG at a point in
// time, identified by the plan's version.
type PlanDagSnapshot struct {
	Version  string
	Nodes    []SnapshotNode
	Edges    []Edge
	Metadata SnapshotMetadata
}

// DatasetLookup resolves a dataset id to its current status, as stored by
// the dataset store ("active" | "processing" | "error").
type DatasetLookup func(datasetID string) (status string, found bool)

// GraphDataLookup resolves a plan DAG node id to its computed graph_data
// counts and lifecycle state.
type GraphDataLookup func(dagNodeID string) (nodeCount, edgeCount int, status storage.GraphDataStatus, found bool)

// Snapshot builds a PlanDagSnapshot for planID, enriching DataSetNode and
// GraphNode entries via the supplied lookups (either may be nil, in which
// case those nodes are left unenriched).
func (s *Service) Snapshot(ctx context.Context, planID string, datasets DatasetLookup, graphs GraphDataLookup) (*PlanDagSnapshot, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to load plan %s", planID)
	}

	nodeRows, err := s.store.ListNodes(ctx, planID)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list nodes for plan %s", planID)
	}
	edgeRows, err := s.store.ListEdges(ctx, planID)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list edges for plan %s", planID)
	}

	snap := &PlanDagSnapshot{
		Version: strconv.FormatInt(plan.Version, 10),
		Metadata: SnapshotMetadata{
			Name:         plan.Name,
			Description:  plan.Description,
			Created:      plan.CreatedAt,
			LastModified: plan.UpdatedAt,
		},
	}

	for _, row := range nodeRows {
		sn, err := fromNodeRow(row)
		if err != nil {
			return nil, err
		}

		switch sn.NodeType {
		case NodeTypeDataSet:
			if datasets != nil {
				if dsID, ok := sn.Config["dataSetId"].(string); ok && dsID != "" {
					if status, found := datasets(dsID); found {
						state := datasetExecutionState(status)
						sn.DatasetExecution = &state
					}
				}
			}
		case NodeTypeGraph:
			if graphs != nil {
				if n, e, status, found := graphs(sn.ID); found {
					sn.GraphNodeCount = &n
					sn.GraphEdgeCount = &e
					state := graphDataExecutionState(status)
					sn.GraphState = &state
				}
			}
		}

		snap.Nodes = append(snap.Nodes, *sn)
	}

	for _, row := range edgeRows {
		e, err := fromEdgeRow(row)
		if err != nil {
			return nil, err
		}
		snap.Edges = append(snap.Edges, *e)
	}

	return snap, nil
}

func graphDataExecutionState(status storage.GraphDataStatus) ExecutionState {
	switch status {
	case storage.GraphDataActive:
		return ExecutionCompleted
	case storage.GraphDataProcessing:
		return ExecutionProcessing
	case storage.GraphDataFailed:
		return ExecutionError
	default:
		return ExecutionNotStarted
	}
}

func fromNodeRow(row storage.PlanDagNode) (*SnapshotNode, error) {
	var metadata, config map[string]any
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &metadata); err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode node %s metadata", row.ID)
		}
	}
	if row.Config != "" {
		if err := json.Unmarshal([]byte(row.Config), &config); err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode node %s config", row.ID)
		}
	}
	canonical, _ := CanonicalNodeType(row.NodeType)
	return &SnapshotNode{
		ID: row.ID, NodeType: canonical,
		Position: Position{X: row.PositionX, Y: row.PositionY},
		Metadata: metadata, Config: config,
	}, nil
}

func fromEdgeRow(row storage.PlanDagEdge) (*Edge, error) {
	var metadata map[string]any
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &metadata); err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode edge %s metadata", row.ID)
		}
	}
	return &Edge{
		ID: row.ID, PlanID: row.PlanID,
		SourceNodeID: row.SourceNodeID, TargetNodeID: row.TargetNodeID,
		Metadata: metadata,
	}, nil
}
