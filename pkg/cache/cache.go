// Package cache provides a pluggable look-aside cache for computed graph
// data, keyed by content hash so unchanged upstream datasets skip storage
// round-trips entirely.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the storage-agnostic look-aside cache contract. Implementations
// must treat a missing or expired entry as a miss, never an error.
type Cache interface {
	// Get returns the cached bytes for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key with an optional TTL. A zero ttl means
	// the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key, if any. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer builds namespaced cache keys for the entities layercake caches.
type Keyer interface {
	// GraphDataKey generates the cache key for a computed graph snapshot,
	// identified by the content hash of its upstream node/edge data.
	GraphDataKey(sourceHash string, opts GraphDataKeyOpts) string

	// PlanSnapshotKey generates the cache key for a plan DAG snapshot view
	// at a specific version.
	PlanSnapshotKey(planID string, version int64) string
}

// GraphDataKeyOpts distinguishes cache entries for the same source_hash
// built for different plan DAG nodes.
type GraphDataKeyOpts struct {
	DagNodeID string
}

// DefaultKeyer is the standard Keyer implementation, hashing options
// alongside identifying fields so distinct option sets never collide.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphDataKey generates a key for a computed graph_data snapshot.
func (k *DefaultKeyer) GraphDataKey(sourceHash string, opts GraphDataKeyOpts) string {
	return hashKey("graphdata", sourceHash, opts)
}

// PlanSnapshotKey generates a key for a plan DAG snapshot view.
func (k *DefaultKeyer) PlanSnapshotKey(planID string, version int64) string {
	return fmt.Sprintf("plansnapshot:%s:%d", planID, version)
}
