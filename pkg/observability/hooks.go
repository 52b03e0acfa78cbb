// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about transform execution, plan DAG mutations, and
// archive operations. Cache hooks can be registered as well, but no cache in
// this module calls them, so they receive no events.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTransformHooks(&myTransformHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Transform().OnTransformStart(ctx, "modify_graph_limit_partition_width", nodeCount, edgeCount)
//	// ... run transform ...
//	observability.Transform().OnTransformComplete(ctx, "modify_graph_limit_partition_width", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Transform Hooks
// =============================================================================

// TransformHooks receives events from graph structural transforms.
type TransformHooks interface {
	// OnTransformStart records the start of a structural transform.
	OnTransformStart(ctx context.Context, name string, nodeCount, edgeCount int)

	// OnTransformComplete records the completion of a structural transform.
	OnTransformComplete(ctx context.Context, name string, duration time.Duration, err error)
}

// =============================================================================
// Plan DAG Hooks
// =============================================================================

// PlanDagHooks receives events from plan DAG mutations.
type PlanDagHooks interface {
	// OnMutation records a plan DAG node mutation and the version it bumped to.
	OnMutation(ctx context.Context, planID, nodeType string, newVersion int64)
}

// =============================================================================
// Archive Hooks
// =============================================================================

// ArchiveHooks receives events from project archive export/import.
type ArchiveHooks interface {
	// OnExportStart records the start of a project export.
	OnExportStart(ctx context.Context, projectID string)

	// OnExportComplete records the completion of a project export.
	OnExportComplete(ctx context.Context, projectID string, duration time.Duration, err error)

	// OnImportStart records the start of a project import.
	OnImportStart(ctx context.Context, projectID string)

	// OnImportComplete records the completion of a project import.
	OnImportComplete(ctx context.Context, projectID string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopTransformHooks is a no-op implementation of TransformHooks.
type NoopTransformHooks struct{}

func (NoopTransformHooks) OnTransformStart(context.Context, string, int, int)            {}
func (NoopTransformHooks) OnTransformComplete(context.Context, string, time.Duration, error) {}

// NoopPlanDagHooks is a no-op implementation of PlanDagHooks.
type NoopPlanDagHooks struct{}

func (NoopPlanDagHooks) OnMutation(context.Context, string, string, int64) {}

// NoopArchiveHooks is a no-op implementation of ArchiveHooks.
type NoopArchiveHooks struct{}

func (NoopArchiveHooks) OnExportStart(context.Context, string)                       {}
func (NoopArchiveHooks) OnExportComplete(context.Context, string, time.Duration, error) {}
func (NoopArchiveHooks) OnImportStart(context.Context, string)                       {}
func (NoopArchiveHooks) OnImportComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	transformHooks TransformHooks = NoopTransformHooks{}
	planDagHooks   PlanDagHooks   = NoopPlanDagHooks{}
	archiveHooks   ArchiveHooks   = NoopArchiveHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetTransformHooks registers custom transform hooks.
// This should be called once at application startup before any transforms run.
func SetTransformHooks(h TransformHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		transformHooks = h
	}
}

// SetPlanDagHooks registers custom plan DAG hooks.
// This should be called once at application startup before any plan mutations.
func SetPlanDagHooks(h PlanDagHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		planDagHooks = h
	}
}

// SetArchiveHooks registers custom archive hooks.
// This should be called once at application startup before any export/import.
func SetArchiveHooks(h ArchiveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		archiveHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Transform returns the registered transform hooks.
func Transform() TransformHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return transformHooks
}

// PlanDag returns the registered plan DAG hooks.
func PlanDag() PlanDagHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return planDagHooks
}

// Archive returns the registered archive hooks.
func Archive() ArchiveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return archiveHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	transformHooks = NoopTransformHooks{}
	planDagHooks = NoopPlanDagHooks{}
	archiveHooks = NoopArchiveHooks{}
	cacheHooks = NoopCacheHooks{}
}
