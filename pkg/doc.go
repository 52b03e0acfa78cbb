// Package pkg provides the core libraries for layercake, a workspace that
// ingests tabular edge/node/layer data into a typed in-memory graph, applies
// deterministic structural reshaping transforms, orchestrates reshaping via
// a persisted plan DAG, and round-trips whole projects through a ZIP
// archive codec.
//
// # Overview
//
// The pkg directory is organized into five main areas:
//
//  1. Graph Data Structures ([graph], [graph/transform])
//  2. Dataset Ingestion ([dataset])
//  3. Graph Persistence ([graphdata])
//  4. Plan Orchestration ([plandag])
//  5. Project Archive Codec ([archive])
//
// # Architecture
//
// The typical data flow through layercake:
//
//	CSV/TSV node, edge, layer files
//	         ↓
//	    [dataset] package (parse rows into typed sequences)
//	         ↓
//	    [graphdata] package (merge into a graph, hash, persist)
//	         ↓
//	    [graph/transform] package (reshape the graph in place)
//	         ↓
//	    [plandag] package (orchestrate the transform chain, track versions)
//	         ↓
//	    [archive] package (export/import the whole project as a ZIP bundle)
//
// # Quick Start
//
// Build a graph from a nodes file and reshape it:
//
//	import (
//	    "context"
//
//	    "github.com/layercake-run/layercake/pkg/dataset"
//	    "github.com/layercake-run/layercake/pkg/graph"
//	    "github.com/layercake-run/layercake/pkg/graph/transform"
//	)
//
//	// 1. Read the file and check its headers
//	headers, records, err := dataset.LoadFile("nodes.csv")
//	if err != nil { return err }
//	if err := dataset.VerifyNodeHeaders(headers); err != nil { return err }
//	profile := dataset.NewNodeLoadProfile(headers)
//
//	// 2. Assemble a graph (edges and layers load the same way through
//	//    EdgeFromRow and LayerFromRow)
//	g := graph.New("example")
//	for _, rec := range records { g.SetNode(dataset.NodeFromRow(rec, profile)) }
//
//	// 3. Reshape it
//	ctx := context.Background()
//	transform.SanitizeLabels(ctx, g)
//	summaries, err := transform.ModifyGraphLimitPartitionWidth(ctx, g, 5)
//
// # Main Packages
//
// ## Graph Data Structures
//
// [graph] - Node/Edge/Layer/Graph types and the core read contract:
// parent-pointer lookups, hierarchy views, integrity verification.
//
// [graph/transform] - Structural reshaping transforms: label truncation,
// line wrapping, sanitation, partition depth/width limiting, layer-based
// aggregation, hierarchy generation, inversion, edge aggregation,
// function-to-file coalescing, and dangling cleanup.
//
// ## Dataset Ingestion
//
// [dataset] - Converts a tabular file (CSV or TSV) plus a column profile
// into typed Node/Edge/Layer sequences.
//
// ## Graph Persistence
//
// [graphdata] - Builds a graph from merged dataset rows, computes a
// stable content hash, and persists the computed snapshot through a
// storage backend with an optional look-aside cache.
//
// ## Plan Orchestration
//
// [plandag] - The persisted plan DAG: typed processing nodes, UUID-derived
// ID allocation, monotonic version bumps on every mutation, and legacy
// node-type migration.
//
// ## Project Archive Codec
//
// [archive] - Export/import of a project's datasets, primary plan DAG and
// layer palette as a self-describing ZIP bundle, with ID remapping on
// import and stale-file pruning on directory export. Stories, further
// plans and knowledge-base files are neither exported nor imported.
//
// # Supporting Packages
//
// [storage] - Narrow persistence interfaces backing graphdata and plandag,
// with in-memory ([storage/memstore]) and MongoDB ([storage/mongostore])
// implementations.
//
// [cache] - A pluggable look-aside cache (null, file, Redis) keyed by
// content hash.
//
// [errors] - Structured errors with machine-readable codes, matching the
// taxonomy every operation in this module raises from.
//
// [observability] - No-op-by-default hooks for transform, plan DAG, and
// archive events; cache hooks can be registered but are never called.
//
// [config] - TOML-based ambient configuration for the CLI and service.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                       # All tests
//	go test ./pkg/graph/transform/...       # Specific package
//
// [graph]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/graph
// [graph/transform]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/graph/transform
// [dataset]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/dataset
// [graphdata]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/graphdata
// [plandag]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/plandag
// [archive]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/archive
// [storage]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/storage
// [storage/memstore]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/storage/memstore
// [storage/mongostore]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/storage/mongostore
// [cache]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/cache
// [errors]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/errors
// [observability]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/observability
// [config]: https://pkg.go.dev/github.com/layercake-run/layercake/pkg/config
package pkg
