package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Transform hooks
	tr := NoopTransformHooks{}
	tr.OnTransformStart(ctx, "modify_graph_limit_partition_width", 10, 14)
	tr.OnTransformComplete(ctx, "modify_graph_limit_partition_width", time.Second, nil)

	// Plan DAG hooks
	pd := NoopPlanDagHooks{}
	pd.OnMutation(ctx, "plan_1", "transform", 3)

	// Archive hooks
	a := NoopArchiveHooks{}
	a.OnExportStart(ctx, "proj_1")
	a.OnExportComplete(ctx, "proj_1", time.Second, nil)
	a.OnImportStart(ctx, "proj_1")
	a.OnImportComplete(ctx, "proj_1", time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "graphdata")
	c.OnCacheMiss(ctx, "graphdata")
	c.OnCacheSet(ctx, "graphdata", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Transform().(NoopTransformHooks); !ok {
		t.Error("Transform() should return NoopTransformHooks by default")
	}
	if _, ok := PlanDag().(NoopPlanDagHooks); !ok {
		t.Error("PlanDag() should return NoopPlanDagHooks by default")
	}
	if _, ok := Archive().(NoopArchiveHooks); !ok {
		t.Error("Archive() should return NoopArchiveHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customTransform := &testTransformHooks{}
	SetTransformHooks(customTransform)
	if Transform() != customTransform {
		t.Error("SetTransformHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customArchive := &testArchiveHooks{}
	SetArchiveHooks(customArchive)
	if Archive() != customArchive {
		t.Error("SetArchiveHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Transform().(NoopTransformHooks); !ok {
		t.Error("Reset() should restore NoopTransformHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testTransformHooks{}
	SetTransformHooks(custom)

	// Setting nil should be ignored
	SetTransformHooks(nil)

	if Transform() != custom {
		t.Error("SetTransformHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testTransformHooks struct{ NoopTransformHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testArchiveHooks struct{ NoopArchiveHooks }
