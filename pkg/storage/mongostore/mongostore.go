// Package mongostore implements the storage interfaces against MongoDB,
// for shared multi-process deployments. Each storage entity maps to its
// own collection within a single database.
package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/storage"
)

// Store implements every storage interface over a MongoDB database.
type Store struct {
	db *mongo.Database

	projects     *mongo.Collection
	layers       *mongo.Collection
	layerAliases *mongo.Collection
	datasets     *mongo.Collection
	graphData    *mongo.Collection
	plans        *mongo.Collection
	planNodes    *mongo.Collection
	planEdges    *mongo.Collection
}

// Connect dials MongoDB at uri and returns a Store backed by database
// dbName. The caller is responsible for calling [Store.Close] on shutdown.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to ping mongodb")
	}

	db := client.Database(dbName)
	return &Store{
		db:           db,
		projects:     db.Collection("projects"),
		layers:       db.Collection("project_layers"),
		layerAliases: db.Collection("layer_aliases"),
		datasets:     db.Collection("data_sets"),
		graphData:    db.Collection("graph_data"),
		plans:        db.Collection("plans"),
		planNodes:    db.Collection("plan_dag_nodes"),
		planEdges:    db.Collection("plan_dag_edges"),
	}, nil
}

// Close disconnects the underlying MongoDB client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func notFound(entity, id string, err error) error {
	if err == mongo.ErrNoDocuments {
		return lcerrors.New(lcerrors.ErrCodeNotFound, "%s %s not found", entity, id)
	}
	return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to query %s", entity)
}

// --- ProjectStore ---

func (s *Store) GetProject(ctx context.Context, id string) (*storage.Project, error) {
	var p storage.Project
	if err := s.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound("project", id, err)
	}
	return &p, nil
}

func (s *Store) InsertProject(ctx context.Context, p *storage.Project) error {
	doc := bson.M{
		"_id": p.ID, "name": p.Name, "description": p.Description,
		"tags": p.Tags, "created_at": p.CreatedAt, "updated_at": p.UpdatedAt,
	}
	_, err := s.projects.InsertOne(ctx, doc)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert project")
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *storage.Project) error {
	res, err := s.projects.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to update project")
	}
	if res.MatchedCount == 0 {
		return lcerrors.New(lcerrors.ErrCodeNotFound, "project %s not found", p.ID)
	}
	return nil
}

func (s *Store) ListLayers(ctx context.Context, projectID string) ([]storage.Layer, error) {
	cur, err := s.layers.Find(ctx, bson.M{"projectid": projectID})
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list layers")
	}
	defer cur.Close(ctx)

	var out []storage.Layer
	if err := cur.All(ctx, &out); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode layers")
	}
	return out, nil
}

func (s *Store) InsertLayer(ctx context.Context, l *storage.Layer) error {
	_, err := s.layers.InsertOne(ctx, l)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert layer")
	}
	return nil
}

func (s *Store) ListLayerAliases(ctx context.Context, projectID string) ([]storage.LayerAlias, error) {
	cur, err := s.layerAliases.Find(ctx, bson.M{"projectid": projectID})
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list layer aliases")
	}
	defer cur.Close(ctx)

	var out []storage.LayerAlias
	if err := cur.All(ctx, &out); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode layer aliases")
	}
	return out, nil
}

func (s *Store) InsertLayerAlias(ctx context.Context, a *storage.LayerAlias) error {
	_, err := s.layerAliases.InsertOne(ctx, a)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert layer alias")
	}
	return nil
}

// --- DatasetStore ---

func (s *Store) GetDataset(ctx context.Context, id string) (*storage.Dataset, error) {
	var d storage.Dataset
	if err := s.datasets.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, notFound("dataset", id, err)
	}
	return &d, nil
}

func (s *Store) ListDatasets(ctx context.Context, projectID string) ([]storage.Dataset, error) {
	cur, err := s.datasets.Find(ctx, bson.M{"projectid": projectID})
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list datasets")
	}
	defer cur.Close(ctx)

	var out []storage.Dataset
	if err := cur.All(ctx, &out); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode datasets")
	}
	return out, nil
}

func (s *Store) InsertDataset(ctx context.Context, d *storage.Dataset) error {
	_, err := s.datasets.InsertOne(ctx, d)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert dataset")
	}
	return nil
}

func (s *Store) ReplaceDatasetContent(ctx context.Context, id string, graphJSON []byte) error {
	res, err := s.datasets.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"graphjson": graphJSON, "updatedat": time.Now()}},
	)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to replace dataset content")
	}
	if res.MatchedCount == 0 {
		return lcerrors.New(lcerrors.ErrCodeNotFound, "dataset %s not found", id)
	}
	return nil
}

// --- GraphDataStore ---

func (s *Store) GetByDagNode(ctx context.Context, dagNodeID string) (*storage.GraphData, error) {
	var g storage.GraphData
	if err := s.graphData.FindOne(ctx, bson.M{"dagnodeid": dagNodeID}).Decode(&g); err != nil {
		return nil, notFound("graph_data", dagNodeID, err)
	}
	return &g, nil
}

func (s *Store) Put(ctx context.Context, g *storage.GraphData) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.graphData.ReplaceOne(ctx, bson.M{"dagnodeid": g.DagNodeID}, g, opts)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to upsert graph_data")
	}
	return nil
}

func (s *Store) ReplaceRows(ctx context.Context, id string, nodesJSON, edgesJSON []byte, sourceHash string, status storage.GraphDataStatus) error {
	res, err := s.graphData.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"nodesjson": nodesJSON, "edgesjson": edgesJSON,
			"sourcehash": sourceHash, "status": status, "updatedat": time.Now(),
		}},
	)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to replace graph_data rows")
	}
	if res.MatchedCount == 0 {
		return lcerrors.New(lcerrors.ErrCodeNotFound, "graph_data %s not found", id)
	}
	return nil
}

// --- PlanStore ---

func (s *Store) GetPlan(ctx context.Context, id string) (*storage.Plan, error) {
	var p storage.Plan
	if err := s.plans.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound("plan", id, err)
	}
	return &p, nil
}

func (s *Store) ListPlansByProject(ctx context.Context, projectID string) ([]storage.Plan, error) {
	cur, err := s.plans.Find(ctx, bson.M{"projectid": projectID})
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list plans")
	}
	defer cur.Close(ctx)

	var out []storage.Plan
	if err := cur.All(ctx, &out); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode plans")
	}
	return out, nil
}

func (s *Store) InsertPlan(ctx context.Context, p *storage.Plan) error {
	_, err := s.plans.InsertOne(ctx, p)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert plan")
	}
	return nil
}

// BumpVersion uses findOneAndUpdate with $inc, which MongoDB executes
// atomically per document, giving the monotonic version counter its
// required serialization without an explicit transaction.
func (s *Store) BumpVersion(ctx context.Context, planID string) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p storage.Plan
	err := s.plans.FindOneAndUpdate(ctx,
		bson.M{"_id": planID},
		bson.M{"$inc": bson.M{"version": int64(1)}},
		opts,
	).Decode(&p)
	if err != nil {
		return 0, notFound("plan", planID, err)
	}
	return p.Version, nil
}

func (s *Store) ListNodes(ctx context.Context, planID string) ([]storage.PlanDagNode, error) {
	cur, err := s.planNodes.Find(ctx, bson.M{"planid": planID})
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list plan nodes")
	}
	defer cur.Close(ctx)

	var out []storage.PlanDagNode
	if err := cur.All(ctx, &out); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode plan nodes")
	}
	return out, nil
}

func (s *Store) ListEdges(ctx context.Context, planID string) ([]storage.PlanDagEdge, error) {
	cur, err := s.planEdges.Find(ctx, bson.M{"planid": planID})
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list plan edges")
	}
	defer cur.Close(ctx)

	var out []storage.PlanDagEdge
	if err := cur.All(ctx, &out); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode plan edges")
	}
	return out, nil
}

func (s *Store) PutNode(ctx context.Context, n *storage.PlanDagNode) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.planNodes.ReplaceOne(ctx, bson.M{"_id": n.ID}, n, opts)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to upsert plan node")
	}
	return nil
}

func (s *Store) PutEdge(ctx context.Context, e *storage.PlanDagEdge) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.planEdges.ReplaceOne(ctx, bson.M{"_id": e.ID}, e, opts)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to upsert plan edge")
	}
	return nil
}

func (s *Store) DeleteNode(ctx context.Context, planID, nodeID string) error {
	_, err := s.planNodes.DeleteOne(ctx, bson.M{"_id": nodeID, "planid": planID})
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to delete plan node")
	}
	return nil
}

func (s *Store) DeleteEdge(ctx context.Context, planID, edgeID string) error {
	_, err := s.planEdges.DeleteOne(ctx, bson.M{"_id": edgeID, "planid": planID})
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to delete plan edge")
	}
	return nil
}

func (s *Store) DeleteEdgesByNode(ctx context.Context, planID, nodeID string) error {
	_, err := s.planEdges.DeleteMany(ctx, bson.M{
		"planid": planID,
		"$or":    bson.A{bson.M{"sourcenodeid": nodeID}, bson.M{"targetnodeid": nodeID}},
	})
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to cascade-delete plan edges")
	}
	return nil
}

func (s *Store) PutNodes(ctx context.Context, nodes []storage.PlanDagNode) error {
	if len(nodes) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(nodes))
	for i, n := range nodes {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": n.ID}).
			SetReplacement(n).
			SetUpsert(true)
	}
	_, err := s.planNodes.BulkWrite(ctx, models)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to batch-write plan nodes")
	}
	return nil
}

func (s *Store) PutEdges(ctx context.Context, edges []storage.PlanDagEdge) error {
	if len(edges) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(edges))
	for i, e := range edges {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": e.ID}).
			SetReplacement(e).
			SetUpsert(true)
	}
	_, err := s.planEdges.BulkWrite(ctx, models)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to batch-write plan edges")
	}
	return nil
}

var _ storage.ProjectStore = (*Store)(nil)
var _ storage.DatasetStore = (*Store)(nil)
var _ storage.GraphDataStore = (*Store)(nil)
var _ storage.PlanStore = (*Store)(nil)
