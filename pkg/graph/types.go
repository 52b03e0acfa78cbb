// Package graph provides the in-memory Graph/Node/Edge/Layer data model and
// the query operations consumed by transforms and exporters.
package graph

import "encoding/json"

// Node is a single vertex in a Graph. A partition node is a grouping
// container whose children reference it via BelongsTo; a non-partition
// (leaf) node carries the graph's actual domain content.
type Node struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Layer       string          `json:"layer"`
	IsPartition bool            `json:"is_partition"`
	BelongsTo   *string         `json:"belongs_to,omitempty"`
	Weight      int             `json:"weight"`
	Comment     *string         `json:"comment,omitempty"`
	Dataset     *int            `json:"dataset,omitempty"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// Edge is a directed connection between two nodes, both of which must exist
// in the owning Graph.
type Edge struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	Target     string          `json:"target"`
	Label      string          `json:"label"`
	Layer      string          `json:"layer"`
	Weight     int             `json:"weight"`
	Comment    *string         `json:"comment,omitempty"`
	Dataset    *int            `json:"dataset,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// Layer describes a visual/semantic grouping that nodes and edges reference
// by id.
type Layer struct {
	ID              string          `json:"id"`
	Label           string          `json:"label"`
	BackgroundColor string          `json:"background_color"`
	TextColor       string          `json:"text_color"`
	BorderColor     string          `json:"border_color"`
	Alias           *string         `json:"alias,omitempty"`
	Dataset         *int            `json:"dataset,omitempty"`
	Attributes      json.RawMessage `json:"attributes,omitempty"`
}

// NewLayer builds a Layer with the given colors, the shape every transform
// that synthesizes a placeholder layer (e.g. "aggregated", "hierarchy")
// uses.
func NewLayer(id, label, backgroundColor, textColor, borderColor string) Layer {
	return Layer{
		ID:              id,
		Label:           label,
		BackgroundColor: backgroundColor,
		TextColor:       textColor,
		BorderColor:     borderColor,
	}
}

// DefaultLayer builds a Layer using the library's default colors, used when
// a dataset row omits styling columns.
func DefaultLayer(id, label string) Layer {
	return Layer{
		ID:              id,
		Label:           label,
		BackgroundColor: "#ffffff",
		TextColor:       "#000000",
		BorderColor:     "#000000",
	}
}

// TreeNode is a Node annotated with its depth in a tree view and its
// children. Tree views are transient values produced on demand by
// Graph.BuildTree and Graph.BuildTreeFromEdges; they are never persisted.
type TreeNode struct {
	ID          string          `json:"id"`
	Depth       int             `json:"depth"`
	Label       string          `json:"label"`
	Layer       string          `json:"layer"`
	IsPartition bool            `json:"is_partition"`
	BelongsTo   *string         `json:"belongs_to,omitempty"`
	Weight      int             `json:"weight"`
	Comment     *string         `json:"comment,omitempty"`
	Dataset     *int            `json:"dataset,omitempty"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	Children    []*TreeNode     `json:"children"`
}

// treeNodeFromNode copies Node's fields into a fresh, childless TreeNode at
// depth 0.
func treeNodeFromNode(n *Node) *TreeNode {
	return &TreeNode{
		ID:          n.ID,
		Label:       n.Label,
		Layer:       n.Layer,
		IsPartition: n.IsPartition,
		BelongsTo:   n.BelongsTo,
		Weight:      n.Weight,
		Comment:     n.Comment,
		Dataset:     n.Dataset,
		Attributes:  n.Attributes,
		Children:    []*TreeNode{},
	}
}

func strPtr(s string) *string { return &s }
