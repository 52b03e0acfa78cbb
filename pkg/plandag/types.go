// Package plandag persists the user-authored plan DAG: a typed directed
// graph of processing nodes (dataset sources, graph builders, transforms,
// filters, merges, and artefact sinks) that an executor traverses. The
// service owns identity allocation and the plan's monotonic version
// counter; callers never mint ids or bump versions themselves.
package plandag

import (
	"strings"
)

// NodeType is the canonical, persisted tag for a plan DAG node's kind.
type NodeType string

const (
	NodeTypeDataSet          NodeType = "DataSetNode"
	NodeTypeGraph            NodeType = "GraphNode"
	NodeTypeTransform        NodeType = "TransformNode"
	NodeTypeFilter           NodeType = "FilterNode"
	NodeTypeMerge            NodeType = "MergeNode"
	NodeTypeGraphArtefact    NodeType = "GraphArtefactNode"
	NodeTypeTreeArtefact     NodeType = "TreeArtefactNode"
	NodeTypeProjection       NodeType = "ProjectionNode"
	NodeTypeStory            NodeType = "StoryNode"
	NodeTypeSequenceArtefact NodeType = "SequenceArtefactNode"
)

// idPrefixes maps each canonical node type to the short tag used as the
// prefix of its generated id.
var idPrefixes = map[NodeType]string{
	NodeTypeDataSet:          "dataset",
	NodeTypeGraph:            "graph",
	NodeTypeTransform:        "transform",
	NodeTypeFilter:           "filter",
	NodeTypeMerge:            "merge",
	NodeTypeGraphArtefact:    "graphartefact",
	NodeTypeTreeArtefact:     "treeartefact",
	NodeTypeProjection:       "projection",
	NodeTypeStory:            "story",
	NodeTypeSequenceArtefact: "sequenceartefact",
}

// legacyAliases maps a stored type string (as it may appear in older
// bundles or rows) to its canonical replacement. Matching is
// case-insensitive.
var legacyAliases = map[string]NodeType{
	"outputnode":        NodeTypeGraphArtefact,
	"output":            NodeTypeGraphArtefact,
	"graphartefact":     NodeTypeGraphArtefact,
	"graphartifact":     NodeTypeGraphArtefact,
	"graphartefactnode": NodeTypeGraphArtefact,
	"graphartifactnode": NodeTypeGraphArtefact,
	"treeartefact":      NodeTypeTreeArtefact,
	"treeartifact":      NodeTypeTreeArtefact,
}

// CanonicalNodeType rewrites a possibly-legacy stored node type string to
// its canonical form. The second return value reports whether rewriting
// changed anything.
func CanonicalNodeType(stored string) (NodeType, bool) {
	if canonical, ok := legacyAliases[strings.ToLower(stored)]; ok {
		return canonical, string(canonical) != stored
	}
	return NodeType(stored), false
}

// Position is a layout-only (x, y) pair. It carries no semantic meaning
// for execution.
type Position struct {
	X float64
	Y float64
}

// Node is the in-memory view of a persisted plan DAG node.
type Node struct {
	ID             string
	PlanID         string
	NodeType       NodeType
	Position       Position
	SourcePosition *Position
	TargetPosition *Position
	Metadata       map[string]any
	Config         map[string]any
}

// Edge is the in-memory view of a persisted plan DAG edge.
type Edge struct {
	ID           string
	PlanID       string
	SourceNodeID string
	TargetNodeID string
	Metadata     map[string]any
}

// Plan is the in-memory view of a persisted plan.
type Plan struct {
	ID           string
	ProjectID    string
	Name         string
	Description  string
	Tags         []string
	YAMLContent  string
	Dependencies []string
	Status       string
	Version      int64
}
