package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/layercake-run/layercake/pkg/graph"
)

// CoalesceFunctionsToFiles maps every node in layer "function" to an owning
// node in layer "scope" (file-like), matched by belongs_to, comment, or the
// "file"/"file_path" attribute; unmatched functions attach to the scope
// root if one exists. Matched file nodes become flow nodes (is_partition
// set false). Edges touching a coalesced function are rewired onto its
// file and deduplicated by (source, target, layer), summing weights and
// concatenating unique labels. Functions that were successfully matched
// are removed; unmatched functions are kept. Returns the annotation
// recorded describing the change, or "" if nothing matched.
func CoalesceFunctionsToFiles(ctx context.Context, g *graph.Graph) string {
	var annotation string
	traced(ctx, g, "coalesce_functions_to_files", func() {
		annotation = coalesceFunctionsToFiles(g)
	})
	return annotation
}

func coalesceFunctionsToFiles(g *graph.Graph) string {
	var scopeRoot string
	hasScopeRoot := false
	for _, n := range g.Nodes {
		if n.Layer == "scope" && n.BelongsTo == nil {
			scopeRoot = n.ID
			hasScopeRoot = true
		}
	}

	var fileCandidates []graph.Node
	for _, n := range g.Nodes {
		if n.Layer != "scope" {
			continue
		}
		if strings.Contains(n.Label, ".") || (n.Comment != nil && strings.Contains(*n.Comment, ".")) {
			fileCandidates = append(fileCandidates, n)
		}
	}

	resolveFile := func(hints []string) (string, bool) {
		for _, candidate := range fileCandidates {
			for _, hint := range hints {
				if candidate.ID == hint ||
					strings.HasSuffix(candidate.Label, hint) ||
					(candidate.Comment != nil && strings.HasSuffix(*candidate.Comment, hint)) ||
					path.Base(candidate.Label) == hint {
					return candidate.ID, true
				}
			}
		}
		return "", false
	}

	functionToFile := make(map[string]string)
	unmatchedFunctions := 0

	for _, n := range g.Nodes {
		if n.Layer != "function" {
			continue
		}

		var hints []string
		if n.BelongsTo != nil {
			hints = append(hints, *n.BelongsTo)
		}
		if n.Comment != nil {
			hints = append(hints, *n.Comment)
		}
		if len(n.Attributes) > 0 {
			var attrs map[string]any
			if err := json.Unmarshal(n.Attributes, &attrs); err == nil {
				if file, ok := attrs["file"].(string); ok {
					hints = append(hints, file)
				}
				if file, ok := attrs["file_path"].(string); ok {
					hints = append(hints, file)
				}
			}
		}

		fileID, ok := resolveFile(hints)
		if !ok && hasScopeRoot {
			fileID, ok = scopeRoot, true
		}
		if ok {
			functionToFile[n.ID] = fileID
		} else {
			unmatchedFunctions++
		}
	}

	if len(functionToFile) == 0 {
		return ""
	}

	fileIDs := make(map[string]bool)
	for _, fileID := range functionToFile {
		fileIDs[fileID] = true
	}
	for i := range g.Nodes {
		if fileIDs[g.Nodes[i].ID] {
			g.Nodes[i].IsPartition = false
		}
	}

	type aggregated struct {
		edge   graph.Edge
		weight int
		labels []string
		seen   map[string]bool
	}
	type aggKey struct{ source, target, layer string }

	aggMap := make(map[aggKey]*aggregated)
	var aggOrder []aggKey

	for _, e := range g.Edges {
		newEdge := e
		if file, ok := functionToFile[e.Source]; ok {
			newEdge.Source = file
		}
		if file, ok := functionToFile[e.Target]; ok {
			newEdge.Target = file
		}

		weight := newEdge.Weight
		if weight < 1 {
			weight = 1
		}

		var labels []string
		for _, part := range strings.Split(newEdge.Label, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				labels = append(labels, part)
			}
		}

		key := aggKey{source: newEdge.Source, target: newEdge.Target, layer: newEdge.Layer}
		if existing, ok := aggMap[key]; ok {
			existing.weight += weight
			for _, l := range labels {
				if !existing.seen[l] {
					existing.seen[l] = true
					existing.labels = append(existing.labels, l)
				}
			}
			if existing.edge.Comment == nil {
				existing.edge.Comment = newEdge.Comment
			}
			if existing.edge.Dataset == nil {
				existing.edge.Dataset = newEdge.Dataset
			}
		} else {
			seen := make(map[string]bool, len(labels))
			var uniqueLabels []string
			for _, l := range labels {
				if !seen[l] {
					seen[l] = true
					uniqueLabels = append(uniqueLabels, l)
				}
			}
			aggMap[key] = &aggregated{edge: newEdge, weight: weight, labels: uniqueLabels, seen: seen}
			aggOrder = append(aggOrder, key)
		}
	}

	nextID := 1
	g.Edges = make([]graph.Edge, 0, len(aggOrder))
	for _, key := range aggOrder {
		a := aggMap[key]
		e := a.edge
		e.ID = fmt.Sprintf("edge_coalesced_%d", nextID)
		nextID++
		e.Weight = a.weight
		if len(a.labels) > 0 {
			e.Label = strings.Join(a.labels, ", ")
		}
		g.Edges = append(g.Edges, e)
	}

	beforeNodes := len(g.Nodes)
	kept := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.Layer == "function" {
			if _, matched := functionToFile[n.ID]; matched {
				continue
			}
		}
		kept = append(kept, n)
	}
	g.Nodes = kept
	removedNodes := beforeNodes - len(g.Nodes)

	annotation := fmt.Sprintf(
		"Coalesced functions into files: %d function nodes removed (%d unmatched kept); %d edges aggregated.",
		removedNodes, unmatchedFunctions, nextID-1)
	g.AppendAnnotation(annotation)
	return annotation
}
