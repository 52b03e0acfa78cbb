// Package transform provides deterministic structural reshaping operations
// over a [graph.Graph]: label cleanup, partition depth/width limiting,
// layer-based aggregation, hierarchy generation, inversion, edge
// aggregation, function-to-file coalescing, and dangling cleanup.
//
// Every transform is a free function taking *graph.Graph and mutating it in
// place (or, for InvertGraph, returning a new graph). Each reports its
// start and completion through [observability.Transform].
package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/layercake-run/layercake/pkg/graph"
	"github.com/layercake-run/layercake/pkg/observability"
)

func traced(ctx context.Context, g *graph.Graph, name string, fn func()) {
	hooks := observability.Transform()
	hooks.OnTransformStart(ctx, name, len(g.Nodes), len(g.Edges))
	start := time.Now()
	fn()
	hooks.OnTransformComplete(ctx, name, time.Since(start), nil)
}

func truncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	return text[:maxLength]
}

// TruncateNodeLabels clips every node label to maxLength bytes.
func TruncateNodeLabels(ctx context.Context, g *graph.Graph, maxLength int) {
	traced(ctx, g, "truncate_node_labels", func() {
		for i := range g.Nodes {
			g.Nodes[i].Label = truncateText(g.Nodes[i].Label, maxLength)
		}
	})
}

// TruncateEdgeLabels clips every edge label to maxLength bytes.
func TruncateEdgeLabels(ctx context.Context, g *graph.Graph, maxLength int) {
	traced(ctx, g, "truncate_edge_labels", func() {
		for i := range g.Edges {
			g.Edges[i].Label = truncateText(g.Edges[i].Label, maxLength)
		}
	})
}

func insertNewlinesInText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}

	var b strings.Builder
	currentLength := 0
	for _, word := range strings.Fields(text) {
		if currentLength+len(word) > maxLength {
			b.WriteByte('\n')
			currentLength = 0
		}
		b.WriteString(word)
		b.WriteByte(' ')
		currentLength += len(word) + 1
	}
	return strings.TrimSpace(b.String())
}

// InsertNewlinesInNodeLabels word-wraps every node label at maxLength bytes.
func InsertNewlinesInNodeLabels(ctx context.Context, g *graph.Graph, maxLength int) {
	traced(ctx, g, "insert_newlines_in_node_labels", func() {
		for i := range g.Nodes {
			g.Nodes[i].Label = insertNewlinesInText(g.Nodes[i].Label, maxLength)
		}
	})
}

// InsertNewlinesInEdgeLabels word-wraps every edge label at maxLength bytes.
func InsertNewlinesInEdgeLabels(ctx context.Context, g *graph.Graph, maxLength int) {
	traced(ctx, g, "insert_newlines_in_edge_labels", func() {
		for i := range g.Edges {
			g.Edges[i].Label = insertNewlinesInText(g.Edges[i].Label, maxLength)
		}
	})
}

func sanitizeLabelValue(label string) string {
	var cleaned strings.Builder
	for _, c := range label {
		switch {
		case c == '\n' || c == '\r' || c == '\t':
			cleaned.WriteByte(' ')
		case c == '"' || c == '\'' || c == '`' || c == '\\':
			cleaned.WriteByte(' ')
		case isControlRune(c):
			// drop
		default:
			cleaned.WriteRune(c)
		}
	}
	return strings.Join(strings.Fields(cleaned.String()), " ")
}

func isControlRune(c rune) bool {
	return c < 0x20 || c == 0x7f
}

// SanitizeLabels strips control characters and quote characters from every
// node and edge label, collapsing internal whitespace runs to a single
// space. It records an annotation naming how many of each were changed and
// returns those two counts.
func SanitizeLabels(ctx context.Context, g *graph.Graph) (sanitizedNodes, sanitizedEdges int) {
	traced(ctx, g, "sanitize_labels", func() {
		for i := range g.Nodes {
			cleaned := sanitizeLabelValue(g.Nodes[i].Label)
			if cleaned != g.Nodes[i].Label {
				g.Nodes[i].Label = cleaned
				sanitizedNodes++
			}
		}
		for i := range g.Edges {
			cleaned := sanitizeLabelValue(g.Edges[i].Label)
			if cleaned != g.Edges[i].Label {
				g.Edges[i].Label = cleaned
				sanitizedEdges++
			}
		}
		if sanitizedNodes > 0 || sanitizedEdges > 0 {
			g.AppendAnnotation(fmt.Sprintf(
				"Sanitized labels: removed quotes/newlines/control characters from %d nodes and %d edges.",
				sanitizedNodes, sanitizedEdges))
		}
	})
	return sanitizedNodes, sanitizedEdges
}
