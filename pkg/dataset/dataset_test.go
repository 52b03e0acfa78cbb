package dataset

import "testing"

func TestNewNodeLoadProfileDetectsLegacyIsContainer(t *testing.T) {
	headers := []string{"id", "label", "layer", "is_container", "belongs_to", "weight", "comment"}
	profile := NewNodeLoadProfile(headers)

	if profile.IDColumn != 0 || profile.LabelColumn != 1 || profile.LayerColumn != 2 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.IsPartitionColumn != 3 {
		t.Fatalf("IsPartitionColumn = %d, want 3 (legacy is_container)", profile.IsPartitionColumn)
	}
	if profile.BelongsToColumn != 4 || profile.WeightColumn != 5 || profile.CommentColumn != 6 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestVerifyNodeHeadersMissing(t *testing.T) {
	err := VerifyNodeHeaders([]string{"id", "label"})
	if err == nil {
		t.Fatal("expected an error for missing headers")
	}
}

func TestVerifyNodeHeadersComplete(t *testing.T) {
	headers := []string{"id", "label", "layer", "is_container", "belongs_to"}
	if err := VerifyNodeHeaders(headers); err != nil {
		t.Fatalf("VerifyNodeHeaders() error: %v", err)
	}
}

func TestNodeFromRow(t *testing.T) {
	headers := []string{"id", "label", "layer", "is_container", "belongs_to", "weight", "comment"}
	profile := NewNodeLoadProfile(headers)

	record := []string{"n1", "\"Node One\"", "app", "yes", "", "5", ""}
	n := NodeFromRow(record, profile)
	if n.ID != "n1" {
		t.Errorf("ID = %q, want n1", n.ID)
	}
	if n.Label != "Node One" {
		t.Errorf("Label = %q, want Node One (quotes stripped)", n.Label)
	}
	if !n.IsPartition {
		t.Error("IsPartition should be true for \"yes\"")
	}
	if n.BelongsTo != nil {
		t.Errorf("BelongsTo = %v, want nil for empty value", n.BelongsTo)
	}
	if n.Weight != 5 {
		t.Errorf("Weight = %d, want 5", n.Weight)
	}
	if n.Comment == nil || *n.Comment != "null" {
		t.Errorf("Comment = %v, want \"null\" for empty value", n.Comment)
	}
}

func TestNodeFromRowBelongsToNullSentinel(t *testing.T) {
	headers := []string{"id", "label", "layer", "is_container", "belongs_to"}
	profile := NewNodeLoadProfile(headers)

	record := []string{"n1", "Label", "app", "false", "NULL"}
	n := NodeFromRow(record, profile)
	if n.BelongsTo != nil {
		t.Errorf("BelongsTo = %v, want nil for case-insensitive null sentinel", n.BelongsTo)
	}
}

func TestNodeFromRowMissingIDDefaultsToNoId(t *testing.T) {
	headers := []string{"label", "layer", "is_container", "belongs_to"}
	profile := NewNodeLoadProfile(headers)

	record := []string{"Label", "app", "false", ""}
	n := NodeFromRow(record, profile)
	if n.ID != "noId" {
		t.Errorf("ID = %q, want noId when id column is absent", n.ID)
	}
}

func TestNodeFromRowWeightDefaultsOnParseFailure(t *testing.T) {
	headers := []string{"id", "label", "layer", "is_container", "belongs_to", "weight"}
	profile := NewNodeLoadProfile(headers)

	record := []string{"n1", "Label", "app", "false", "", "not-a-number"}
	n := NodeFromRow(record, profile)
	if n.Weight != 1 {
		t.Errorf("Weight = %d, want 1 on parse failure", n.Weight)
	}
}

func TestEdgeFromRowWrapsNonEmptyCommentInQuotes(t *testing.T) {
	headers := []string{"id", "source", "target", "label", "layer", "weight", "comment"}
	profile := NewEdgeLoadProfile(headers)

	record := []string{"e1", "a", "b", "calls", "app", "2", "a note"}
	e := EdgeFromRow(record, profile)
	if e.Comment == nil || *e.Comment != `"a note"` {
		t.Errorf("Comment = %v, want quoted \"a note\"", e.Comment)
	}
}

func TestEdgeFromRowEmptyCommentBecomesNullSentinel(t *testing.T) {
	headers := []string{"id", "source", "target", "label", "layer", "weight", "comment"}
	profile := NewEdgeLoadProfile(headers)

	record := []string{"e1", "a", "b", "calls", "app", "2", ""}
	e := EdgeFromRow(record, profile)
	if e.Comment == nil || *e.Comment != "null" {
		t.Errorf("Comment = %v, want \"null\"", e.Comment)
	}
}

func TestLayerFromRowIsPositional(t *testing.T) {
	// id, label, background, border, text -- border before text.
	record := []string{"app", "Application", "#ffffff", "#000000", "#111111"}
	l := LayerFromRow(record)

	if l.ID != "app" || l.Label != "Application" {
		t.Fatalf("unexpected layer: %+v", l)
	}
	if l.BackgroundColor != "#ffffff" {
		t.Errorf("BackgroundColor = %q, want #ffffff", l.BackgroundColor)
	}
	if l.BorderColor != "#000000" {
		t.Errorf("BorderColor = %q, want #000000 (column 3)", l.BorderColor)
	}
	if l.TextColor != "#111111" {
		t.Errorf("TextColor = %q, want #111111 (column 4)", l.TextColor)
	}
}
