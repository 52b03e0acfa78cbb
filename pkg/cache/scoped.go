package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-project isolation, so
// two projects sharing a cache backend never collide on key names.
//
// Example usage:
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "proj:"+projectID+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphDataKey generates a prefixed key for graph_data caching.
func (k *ScopedKeyer) GraphDataKey(sourceHash string, opts GraphDataKeyOpts) string {
	return k.prefix + k.inner.GraphDataKey(sourceHash, opts)
}

// PlanSnapshotKey generates a prefixed key for plan snapshot caching.
func (k *ScopedKeyer) PlanSnapshotKey(planID string, version int64) string {
	return k.prefix + k.inner.PlanSnapshotKey(planID, version)
}
