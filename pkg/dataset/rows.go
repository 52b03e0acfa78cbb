package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/layercake-run/layercake/pkg/graph"
)

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "y", "yes":
		return true
	default:
		return false
	}
}

func stripQuotesAndWhitespace(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) >= 2 {
		if (strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`)) ||
			(strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'")) {
			return strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		}
	}
	return trimmed
}

func getStrippedValue(record []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(record) {
		return "", false
	}
	return stripQuotesAndWhitespace(record[idx]), true
}

// rawValue returns the column at idx unmodified (no quote-stripping), or ""
// if absent, matching the comment-handling rules that operate on the raw
// cell rather than the stripped value.
func rawValue(record []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(record) {
		return "", false
	}
	return record[idx], true
}

// NodeFromRow builds a Node from one dataset row using profile's column
// assignments.
//
// id defaults to "noId" when absent. is_partition is truthy iff the
// trimmed, lowercased value is "true", "y", or "yes". belongs_to is absent
// when empty or (case-insensitively) "null". weight parses as an integer,
// defaulting to 1 on any failure. comment defaults to the literal "null"
// when missing or empty.
func NodeFromRow(record []string, profile NodeLoadProfile) graph.Node {
	id, ok := getStrippedValue(record, profile.IDColumn)
	if !ok || id == "" {
		id = "noId"
	}

	label, _ := getStrippedValue(record, profile.LabelColumn)
	layer, _ := getStrippedValue(record, profile.LayerColumn)

	isPartitionRaw, _ := getStrippedValue(record, profile.IsPartitionColumn)
	isPartition := isTruthy(isPartitionRaw)

	var belongsTo *string
	if raw, ok := getStrippedValue(record, profile.BelongsToColumn); ok {
		if raw != "" && strings.ToLower(raw) != "null" {
			v := raw
			belongsTo = &v
		}
	}

	weight := 1
	if raw, ok := getStrippedValue(record, profile.WeightColumn); ok {
		if parsed, err := strconv.Atoi(raw); err == nil {
			weight = parsed
		}
	}

	comment := "null"
	if raw, ok := rawValue(record, profile.CommentColumn); ok && raw != "" {
		comment = raw
	}

	return graph.Node{
		ID:          id,
		Label:       label,
		Layer:       layer,
		IsPartition: isPartition,
		BelongsTo:   belongsTo,
		Weight:      weight,
		Comment:     &comment,
	}
}

// EdgeFromRow builds an Edge from one dataset row using profile's column
// assignments. Field defaulting mirrors NodeFromRow, with one asymmetry
// preserved from the format this ingests: a non-empty edge comment is
// wrapped in literal double quotes.
func EdgeFromRow(record []string, profile EdgeLoadProfile) graph.Edge {
	id, _ := getStrippedValue(record, profile.IDColumn)
	source, _ := getStrippedValue(record, profile.SourceColumn)
	target, _ := getStrippedValue(record, profile.TargetColumn)
	label, _ := getStrippedValue(record, profile.LabelColumn)
	layer, _ := getStrippedValue(record, profile.LayerColumn)

	weight := 1
	if raw, ok := getStrippedValue(record, profile.WeightColumn); ok {
		if parsed, err := strconv.Atoi(raw); err == nil {
			weight = parsed
		}
	}

	comment := "null"
	if raw, ok := rawValue(record, profile.CommentColumn); ok && raw != "" {
		comment = fmt.Sprintf(`"%s"`, raw)
	}

	return graph.Edge{
		ID:      id,
		Source:  source,
		Target:  target,
		Label:   label,
		Layer:   layer,
		Weight:  weight,
		Comment: &comment,
	}
}

// LayerFromRow builds a Layer from one dataset row. Columns are positional,
// not name-resolved: id(0), label(1), background(2), border(3), text(4).
func LayerFromRow(record []string) graph.Layer {
	id, _ := getStrippedValue(record, 0)
	label, _ := getStrippedValue(record, 1)
	background, _ := getStrippedValue(record, 2)
	border, _ := getStrippedValue(record, 3)
	text, _ := getStrippedValue(record, 4)

	return graph.Layer{
		ID:              id,
		Label:           label,
		BackgroundColor: background,
		BorderColor:     border,
		TextColor:       text,
	}
}
