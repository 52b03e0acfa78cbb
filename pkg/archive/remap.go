package archive

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/storage"
)

func freshID(prefix string) string {
	simple := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "_" + simple[:12]
}

// insertDagSnapshot inserts dagFile's nodes and edges as a fresh plan DAG
// for planID: every node and edge gets a newly allocated id, and
// DataSet-node configs are rewritten through datasetIDMap so they
// reference the newly imported dataset rows rather than the ids recorded
// in the bundle.
func insertDagSnapshot(ctx context.Context, store storage.PlanStore, planID string, dagFile DagSnapshotFile, datasetIDMap map[string]string) error {
	nodeIDMap := make(map[string]string, len(dagFile.Nodes))
	var nodeRows []storage.PlanDagNode

	for _, n := range dagFile.Nodes {
		newID := freshID("node")
		nodeIDMap[n.ID] = newID

		config := n.Config
		if config != nil {
			if rawID, ok := config["dataSetId"].(string); ok {
				if newDatasetID, found := datasetIDMap[rawID]; found {
					config = cloneMap(config)
					config["dataSetId"] = newDatasetID
				}
			}
		}

		metaJSON, err := json.Marshal(n.Metadata)
		if err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to encode node %s metadata", n.ID)
		}
		cfgJSON, err := json.Marshal(config)
		if err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to encode node %s config", n.ID)
		}

		nodeRows = append(nodeRows, storage.PlanDagNode{
			ID: newID, PlanID: planID, NodeType: n.NodeType,
			PositionX: n.Position.X, PositionY: n.Position.Y,
			Metadata: string(metaJSON), Config: string(cfgJSON),
		})
	}

	var edgeRows []storage.PlanDagEdge
	for _, e := range dagFile.Edges {
		source, ok := nodeIDMap[e.Source]
		if !ok {
			source = e.Source
		}
		target, ok := nodeIDMap[e.Target]
		if !ok {
			target = e.Target
		}

		metaJSON, err := json.Marshal(e.Metadata)
		if err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to encode edge %s metadata", e.ID)
		}

		edgeRows = append(edgeRows, storage.PlanDagEdge{
			ID: freshID("edge"), PlanID: planID,
			SourceNodeID: source, TargetNodeID: target,
			Metadata: string(metaJSON),
		})
	}

	if err := store.PutNodes(ctx, nodeRows); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to write imported plan nodes")
	}
	if err := store.PutEdges(ctx, edgeRows); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to write imported plan edges")
	}
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
