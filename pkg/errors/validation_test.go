package errors

import (
	"testing"
)

func TestValidateArchivePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "manifest.json", false},
		{"valid nested", "datasets/nodes.csv", false},
		{"valid with dots in filename", "v1.2.3/package.json", false},

		{"empty", "", true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "datasets/../secrets", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArchivePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArchivePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeValidation) {
				t.Errorf("ValidateArchivePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateDatasetExtension(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"csv", "nodes.csv", false},
		{"tsv", "edges.tsv", false},
		{"uppercase CSV", "NODES.CSV", false},

		{"json", "nodes.json", true},
		{"no extension", "nodes", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatasetExtension(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDatasetExtension(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMinSharedNeighbors(t *testing.T) {
	tests := []struct {
		name    string
		input   int
		wantErr bool
	}{
		{"positive", 3, false},
		{"one", 1, false},

		{"zero", 0, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMinSharedNeighbors(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMinSharedNeighbors(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEntityID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "node_1", false},
		{"uuid-derived", "plan_4f9c2a8b1d3e", false},

		{"empty", "", true},
		{"whitespace", "node 1", true},
		{"tab", "node\t1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityID("node", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntityID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeNotFound,
		ErrCodeValidation,
		ErrCodeUnauthorized,
		ErrCodeForbidden,
		ErrCodeIntegrityViolation,
		ErrCodeMissingLayers,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
