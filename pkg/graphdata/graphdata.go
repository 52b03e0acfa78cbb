// Package graphdata builds computed graph_data snapshots from upstream
// dataset/graph rows, with deterministic content hashing for change
// detection and a look-aside cache (a no-op cache.NullCache when no
// backend is configured) keyed by that hash.
package graphdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/layercake-run/layercake/pkg/cache"
	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/graph"
	"github.com/layercake-run/layercake/pkg/storage"
)

// Upstream is one upstream graph_data row's merged node/edge content, as
// loaded by the caller from storage.
type Upstream struct {
	Nodes []graph.Node
	Edges []graph.Edge
}

// Builder produces computed graph_data snapshots, persisting them through
// a GraphDataStore, with a look-aside Cache keyed by source_hash and
// dag_node_id, so a repeat build of unchanged upstream content whose
// result is still cached never touches the store (with the no-op
// NullCache every build reads the store). A
// Builder is safe for concurrent use; each build touches only the
// snapshot row named by its dag_node_id.
type Builder struct {
	store storage.GraphDataStore
	cache cache.Cache
	keyer cache.Keyer
}

// NewBuilder creates a Builder backed by store, looking aside to c before
// every store round-trip.
func NewBuilder(store storage.GraphDataStore, c cache.Cache) *Builder {
	return &Builder{store: store, cache: c, keyer: cache.NewDefaultKeyer()}
}

// BuildGraph merges the node/edge content of every upstream graph_data
// referenced by upstreamIDs, validates every referenced layer id against
// projectLayers, and persists (or reuses) the resulting snapshot for
// dagNodeID.
//
// The merged content's source_hash is looked up in the cache first; a hit
// is returned without touching the store at all. Failing that, if a
// graph_data row already exists for dagNodeID with status Active and a
// matching source_hash, it is returned untouched and the cache is
// populated for next time (step 8 of the testable properties: identical
// merged content yields an identical hash, and an identical hash
// short-circuits the write).
func (b *Builder) BuildGraph(ctx context.Context, projectID, dagNodeID, name string, upstreams []Upstream, projectLayers []storage.Layer) (*storage.GraphData, error) {
	nodes, edges := mergeUpstreams(upstreams)

	if missing := missingLayers(nodes, edges, projectLayers); len(missing) > 0 {
		return nil, lcerrors.NewMissingLayers(missing)
	}

	hash, err := SourceHash(nodes, edges)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to compute source hash")
	}
	cacheKey := b.keyer.GraphDataKey(hash, cache.GraphDataKeyOpts{DagNodeID: dagNodeID})

	if cached, hit, err := b.cache.Get(ctx, cacheKey); err == nil && hit {
		var gd storage.GraphData
		if err := json.Unmarshal(cached, &gd); err == nil {
			return &gd, nil
		}
	}

	existing, err := b.store.GetByDagNode(ctx, dagNodeID)
	if err == nil && existing.Status == storage.GraphDataActive && existing.SourceHash == hash {
		b.populateCache(ctx, cacheKey, existing)
		return existing, nil
	}

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to encode nodes")
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to encode edges")
	}

	now := time.Now()
	if existing == nil {
		existing = &storage.GraphData{
			ID:        dagNodeID,
			ProjectID: projectID,
			DagNodeID: dagNodeID,
			CreatedAt: now,
		}
	}
	existing.Status = storage.GraphDataProcessing
	existing.UpdatedAt = now
	if err := b.store.Put(ctx, existing); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to mark graph_data processing")
	}

	if err := b.store.ReplaceRows(ctx, existing.ID, nodesJSON, edgesJSON, hash, storage.GraphDataActive); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to persist graph_data rows")
	}

	existing.NodesJSON = nodesJSON
	existing.EdgesJSON = edgesJSON
	existing.SourceHash = hash
	existing.Status = storage.GraphDataActive
	existing.UpdatedAt = now
	b.populateCache(ctx, cacheKey, existing)
	return existing, nil
}

// populateCache stores gd under key for future look-asides. A zero TTL
// never expires the entry; the key itself already scopes it to one
// source_hash, so staleness isn't a concern. Cache write failures are
// swallowed: the cache is an optimization, not a source of truth.
func (b *Builder) populateCache(ctx context.Context, key string, gd *storage.GraphData) {
	data, err := json.Marshal(gd)
	if err != nil {
		return
	}
	_ = b.cache.Set(ctx, key, data, 0)
}

// mergeUpstreams concatenates every upstream's nodes and edges, preserving
// the order upstreams were supplied in (stable merge order given stable
// upstream ids).
func mergeUpstreams(upstreams []Upstream) ([]graph.Node, []graph.Edge) {
	var nodes []graph.Node
	var edges []graph.Edge
	for _, u := range upstreams {
		nodes = append(nodes, u.Nodes...)
		edges = append(edges, u.Edges...)
	}
	return nodes, edges
}

func missingLayers(nodes []graph.Node, edges []graph.Edge, palette []storage.Layer) []string {
	known := make(map[string]bool, len(palette))
	for _, l := range palette {
		known[l.ID] = true
	}

	referenced := make(map[string]bool)
	for _, n := range nodes {
		if n.Layer != "" {
			referenced[n.Layer] = true
		}
	}
	for _, e := range edges {
		if e.Layer != "" {
			referenced[e.Layer] = true
		}
	}

	var missing []string
	for layer := range referenced {
		if !known[layer] {
			missing = append(missing, layer)
		}
	}
	sort.Strings(missing)
	return missing
}

// graph.Node/graph.Edge carry no separate external_id field in this
// in-memory representation, so SourceHash sorts and hashes each node or
// edge by its own ID.

// SourceHash computes the deterministic content fingerprint for a merged
// node/edge sequence: SHA-256 over nodes sorted by id (hashing id, label,
// layer, weight) followed by edges sorted by id (hashing id, source,
// target, label, layer, weight).
func SourceHash(nodes []graph.Node, edges []graph.Edge) (string, error) {
	sortedNodes := make([]graph.Node, len(nodes))
	copy(sortedNodes, nodes)
	sort.Slice(sortedNodes, func(i, j int) bool { return sortedNodes[i].ID < sortedNodes[j].ID })

	sortedEdges := make([]graph.Edge, len(edges))
	copy(sortedEdges, edges)
	sort.Slice(sortedEdges, func(i, j int) bool { return sortedEdges[i].ID < sortedEdges[j].ID })

	h := sha256.New()
	for _, n := range sortedNodes {
		if _, err := h.Write([]byte(n.ID)); err != nil {
			return "", err
		}
		if _, err := h.Write([]byte(n.Label)); err != nil {
			return "", err
		}
		if _, err := h.Write([]byte(n.Layer)); err != nil {
			return "", err
		}
		if err := writeInt(h, n.Weight); err != nil {
			return "", err
		}
	}
	for _, e := range sortedEdges {
		if _, err := h.Write([]byte(e.ID)); err != nil {
			return "", err
		}
		if _, err := h.Write([]byte(e.Source)); err != nil {
			return "", err
		}
		if _, err := h.Write([]byte(e.Target)); err != nil {
			return "", err
		}
		if _, err := h.Write([]byte(e.Label)); err != nil {
			return "", err
		}
		if _, err := h.Write([]byte(e.Layer)); err != nil {
			return "", err
		}
		if err := writeInt(h, e.Weight); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeInt(h interface{ Write([]byte) (int, error) }, n int) error {
	_, err := h.Write([]byte{
		byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
	})
	return err
}
