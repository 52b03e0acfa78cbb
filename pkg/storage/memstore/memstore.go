// Package memstore provides an in-memory implementation of the storage
// interfaces, suitable for tests and single-process CLI use.
package memstore

import (
	"context"
	"sync"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/storage"
)

// Store implements every storage interface over plain Go maps guarded by a
// single mutex. It is not intended for multi-process deployments; see
// [github.com/layercake-run/layercake/pkg/storage/mongostore] for that.
type Store struct {
	mu sync.RWMutex

	projects     map[string]storage.Project
	layers       map[string][]storage.Layer
	layerAliases map[string][]storage.LayerAlias
	datasets     map[string]storage.Dataset
	graphs   map[string]storage.GraphData // keyed by dag_node_id
	plans    map[string]storage.Plan
	nodes    map[string]map[string]storage.PlanDagNode // plan id -> node id -> node
	edges    map[string]map[string]storage.PlanDagEdge // plan id -> edge id -> edge
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		projects:     make(map[string]storage.Project),
		layers:       make(map[string][]storage.Layer),
		layerAliases: make(map[string][]storage.LayerAlias),
		datasets:     make(map[string]storage.Dataset),
		graphs:   make(map[string]storage.GraphData),
		plans:    make(map[string]storage.Plan),
		nodes:    make(map[string]map[string]storage.PlanDagNode),
		edges:    make(map[string]map[string]storage.PlanDagEdge),
	}
}

// --- ProjectStore ---

func (s *Store) GetProject(_ context.Context, id string) (*storage.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, lcerrors.New(lcerrors.ErrCodeNotFound, "project %s not found", id)
	}
	return &p, nil
}

func (s *Store) InsertProject(_ context.Context, p *storage.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = *p
	return nil
}

func (s *Store) UpdateProject(_ context.Context, p *storage.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return lcerrors.New(lcerrors.ErrCodeNotFound, "project %s not found", p.ID)
	}
	s.projects[p.ID] = *p
	return nil
}

func (s *Store) ListLayers(_ context.Context, projectID string) ([]storage.Layer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Layer, len(s.layers[projectID]))
	copy(out, s.layers[projectID])
	return out, nil
}

func (s *Store) InsertLayer(_ context.Context, l *storage.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[l.ProjectID] = append(s.layers[l.ProjectID], *l)
	return nil
}

func (s *Store) ListLayerAliases(_ context.Context, projectID string) ([]storage.LayerAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.LayerAlias, len(s.layerAliases[projectID]))
	copy(out, s.layerAliases[projectID])
	return out, nil
}

func (s *Store) InsertLayerAlias(_ context.Context, a *storage.LayerAlias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layerAliases[a.ProjectID] = append(s.layerAliases[a.ProjectID], *a)
	return nil
}

// --- DatasetStore ---

func (s *Store) GetDataset(_ context.Context, id string) (*storage.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.datasets[id]
	if !ok {
		return nil, lcerrors.New(lcerrors.ErrCodeNotFound, "dataset %s not found", id)
	}
	return &d, nil
}

func (s *Store) ListDatasets(_ context.Context, projectID string) ([]storage.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Dataset
	for _, d := range s.datasets {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) InsertDataset(_ context.Context, d *storage.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[d.ID] = *d
	return nil
}

func (s *Store) ReplaceDatasetContent(_ context.Context, id string, graphJSON []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datasets[id]
	if !ok {
		return lcerrors.New(lcerrors.ErrCodeNotFound, "dataset %s not found", id)
	}
	d.GraphJSON = graphJSON
	s.datasets[id] = d
	return nil
}

// --- GraphDataStore ---

func (s *Store) GetByDagNode(_ context.Context, dagNodeID string) (*storage.GraphData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[dagNodeID]
	if !ok {
		return nil, lcerrors.New(lcerrors.ErrCodeNotFound, "graph_data for dag node %s not found", dagNodeID)
	}
	return &g, nil
}

func (s *Store) Put(_ context.Context, g *storage.GraphData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[g.DagNodeID] = *g
	return nil
}

func (s *Store) ReplaceRows(_ context.Context, id string, nodesJSON, edgesJSON []byte, sourceHash string, status storage.GraphDataStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.graphs {
		if g.ID == id {
			g.NodesJSON = nodesJSON
			g.EdgesJSON = edgesJSON
			g.SourceHash = sourceHash
			g.Status = status
			s.graphs[k] = g
			return nil
		}
	}
	return lcerrors.New(lcerrors.ErrCodeNotFound, "graph_data %s not found", id)
}

// --- PlanStore ---

func (s *Store) GetPlan(_ context.Context, id string) (*storage.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, lcerrors.New(lcerrors.ErrCodeNotFound, "plan %s not found", id)
	}
	return &p, nil
}

func (s *Store) ListPlansByProject(_ context.Context, projectID string) ([]storage.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Plan
	for _, p := range s.plans {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) InsertPlan(_ context.Context, p *storage.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = *p
	if s.nodes[p.ID] == nil {
		s.nodes[p.ID] = make(map[string]storage.PlanDagNode)
	}
	if s.edges[p.ID] == nil {
		s.edges[p.ID] = make(map[string]storage.PlanDagEdge)
	}
	return nil
}

// BumpVersion increments the plan's version under the store's single mutex,
// which serializes every mutation to a given plan (and, coarser than
// necessary, across plans) so the counter never goes backwards.
func (s *Store) BumpVersion(_ context.Context, planID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[planID]
	if !ok {
		return 0, lcerrors.New(lcerrors.ErrCodeNotFound, "plan %s not found", planID)
	}
	p.Version++
	s.plans[planID] = p
	return p.Version, nil
}

func (s *Store) ListNodes(_ context.Context, planID string) ([]storage.PlanDagNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.PlanDagNode
	for _, n := range s.nodes[planID] {
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) ListEdges(_ context.Context, planID string) ([]storage.PlanDagEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.PlanDagEdge
	for _, e := range s.edges[planID] {
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) PutNode(_ context.Context, n *storage.PlanDagNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nodes[n.PlanID] == nil {
		s.nodes[n.PlanID] = make(map[string]storage.PlanDagNode)
	}
	s.nodes[n.PlanID][n.ID] = *n
	return nil
}

func (s *Store) PutEdge(_ context.Context, e *storage.PlanDagEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edges[e.PlanID] == nil {
		s.edges[e.PlanID] = make(map[string]storage.PlanDagEdge)
	}
	s.edges[e.PlanID][e.ID] = *e
	return nil
}

func (s *Store) DeleteNode(_ context.Context, planID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes[planID], nodeID)
	return nil
}

func (s *Store) DeleteEdge(_ context.Context, planID, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges[planID], edgeID)
	return nil
}

func (s *Store) DeleteEdgesByNode(_ context.Context, planID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.edges[planID] {
		if e.SourceNodeID == nodeID || e.TargetNodeID == nodeID {
			delete(s.edges[planID], id)
		}
	}
	return nil
}

func (s *Store) PutNodes(_ context.Context, nodes []storage.PlanDagNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		if s.nodes[n.PlanID] == nil {
			s.nodes[n.PlanID] = make(map[string]storage.PlanDagNode)
		}
		s.nodes[n.PlanID][n.ID] = n
	}
	return nil
}

func (s *Store) PutEdges(_ context.Context, edges []storage.PlanDagEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		if s.edges[e.PlanID] == nil {
			s.edges[e.PlanID] = make(map[string]storage.PlanDagEdge)
		}
		s.edges[e.PlanID][e.ID] = e
	}
	return nil
}
