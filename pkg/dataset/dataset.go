// Package dataset converts a tabular file (CSV or TSV) plus a column
// profile into typed node, edge, and layer sequences ready to merge into a
// graph.
package dataset

import "strings"

// NodeLoadProfile names which column index in a node row carries each
// recognized field. Auto-detection fills every index by matching header
// names case-insensitively; callers may override individual fields.
type NodeLoadProfile struct {
	IDColumn          int
	LabelColumn       int
	LayerColumn       int
	IsPartitionColumn int
	BelongsToColumn   int
	WeightColumn      int
	CommentColumn     int
}

// EdgeLoadProfile names which column index in an edge row carries each
// recognized field.
type EdgeLoadProfile struct {
	IDColumn      int
	SourceColumn  int
	TargetColumn  int
	LabelColumn   int
	LayerColumn   int
	WeightColumn  int
	CommentColumn int
}

func headerIndex(headers []string, names ...string) int {
	for i, h := range headers {
		normalized := strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if normalized == name {
				return i
			}
		}
	}
	return -1
}

// NewNodeLoadProfile auto-detects column positions from headers. Headers
// are matched case-insensitively; "is_container" is accepted as the legacy
// spelling of "is_partition".
func NewNodeLoadProfile(headers []string) NodeLoadProfile {
	return NodeLoadProfile{
		IDColumn:          headerIndex(headers, "id"),
		LabelColumn:       headerIndex(headers, "label"),
		LayerColumn:       headerIndex(headers, "layer"),
		IsPartitionColumn: headerIndex(headers, "is_partition", "is_container"),
		BelongsToColumn:   headerIndex(headers, "belongs_to"),
		WeightColumn:      headerIndex(headers, "weight"),
		CommentColumn:     headerIndex(headers, "comment"),
	}
}

// NewEdgeLoadProfile auto-detects column positions from headers.
func NewEdgeLoadProfile(headers []string) EdgeLoadProfile {
	return EdgeLoadProfile{
		IDColumn:      headerIndex(headers, "id"),
		SourceColumn:  headerIndex(headers, "source"),
		TargetColumn:  headerIndex(headers, "target"),
		LabelColumn:   headerIndex(headers, "label"),
		LayerColumn:   headerIndex(headers, "layer"),
		WeightColumn:  headerIndex(headers, "weight"),
		CommentColumn: headerIndex(headers, "comment"),
	}
}

// VerifyNodeHeaders fails the load if a nodes file is missing any of the
// required headers: id, label, layer, is_container (the legacy spelling of
// is_partition), belongs_to.
func VerifyNodeHeaders(headers []string) error {
	required := []string{"id", "label", "layer", "is_container", "belongs_to"}
	var missing []string
	for _, name := range required {
		if headerIndex(headers, name) == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingHeadersError{Missing: missing}
	}
	return nil
}

// MissingHeadersError reports the required headers a file failed to expose.
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return "missing required headers: " + strings.Join(e.Missing, ", ")
}
