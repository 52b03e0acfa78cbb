// Package archive implements the project archive codec: export/import of
// a whole project (datasets, plans, the primary plan's DAG) as a
// self-describing ZIP bundle, with id remapping on import and stale-file
// pruning on directory export.
package archive

import "time"

// BundleType distinguishes a full project export from a structure-only
// template.
type BundleType string

const (
	BundleTypeProjectArchive  BundleType = "project_archive"
	BundleTypeProjectTemplate BundleType = "project_template"
)

// Manifest is the bundle's top-level metadata file.
type Manifest struct {
	ManifestVersion     string     `json:"manifestVersion"`
	BundleType          BundleType `json:"bundleType"`
	CreatedWith         string     `json:"createdWith"`
	ProjectFormatVersion int       `json:"projectFormatVersion"`
	GeneratedAt         time.Time  `json:"generatedAt"`
	SourceProjectID      string    `json:"sourceProjectId"`
	PlanName            string     `json:"planName"`
}

// FormatMetadata is the bundle's metadata.json payload.
type FormatMetadata struct {
	LayercakeProjectFormatVersion int `json:"layercakeProjectFormatVersion"`
}

// ProjectFile is the bundle's project.json payload.
type ProjectFile struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// DatasetBundleDescriptor describes one dataset payload file within the
// bundle.
type DatasetBundleDescriptor struct {
	OriginalID  string `json:"originalId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Filename    string `json:"filename"`
	FileFormat  string `json:"fileFormat"`
	NodeCount   *int   `json:"nodeCount,omitempty"`
	EdgeCount   *int   `json:"edgeCount,omitempty"`
	LayerCount  *int   `json:"layerCount,omitempty"`
}

// DatasetIndex is the bundle's datasets/index.json payload.
type DatasetIndex struct {
	Datasets []DatasetBundleDescriptor `json:"datasets"`
}

// DagSnapshotMetadataFile is the camelCase wire form of a plan DAG
// snapshot's metadata block.
type DagSnapshotMetadataFile struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
	Author       string    `json:"author"`
}

// DagNodeFile is the camelCase wire form of one snapshot node.
type DagNodeFile struct {
	ID               string         `json:"id"`
	NodeType         string         `json:"nodeType"`
	Position         PositionFile   `json:"position"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Config           map[string]any `json:"config,omitempty"`
	DatasetExecution string         `json:"datasetExecution,omitempty"`
	GraphState       string         `json:"graphState,omitempty"`
}

// PositionFile is the camelCase wire form of a layout position.
type PositionFile struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DagEdgeFile is the camelCase wire form of one snapshot edge.
type DagEdgeFile struct {
	ID       string         `json:"id"`
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DagSnapshotFile is the bundle's dag.json payload.
type DagSnapshotFile struct {
	Version  string                  `json:"version"`
	Nodes    []DagNodeFile           `json:"nodes"`
	Edges    []DagEdgeFile           `json:"edges"`
	Metadata DagSnapshotMetadataFile `json:"metadata"`
}

// PlanIndexEntry names one plan's exported file within plans/index.json.
type PlanIndexEntry struct {
	OriginalID string `json:"originalId"`
	Filename   string `json:"filename"`
}

// ExportedPlanFile is the content of one plans/<filename> entry.
type ExportedPlanFile struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Tags         []string        `json:"tags"`
	YAMLContent  string          `json:"yamlContent"`
	Dependencies []string        `json:"dependencies"`
	Status       string          `json:"status"`
	DAG          DagSnapshotFile `json:"dag"`
}

// PaletteLayer is one layer entry within layers/palette.json.
type PaletteLayer struct {
	OriginalID      string  `json:"originalId"`
	Label           string  `json:"label"`
	BackgroundColor string  `json:"backgroundColor"`
	BorderColor     string  `json:"borderColor"`
	TextColor       string  `json:"textColor"`
	SourceDatasetID *string `json:"sourceDatasetId,omitempty"`
}

// PaletteAlias is one layer-alias entry within layers/palette.json.
type PaletteAlias struct {
	LayerOriginalID string `json:"layerOriginalId"`
	Alias           string `json:"alias"`
}

// PaletteExport is the bundle's layers/palette.json payload.
type PaletteExport struct {
	Layers  []PaletteLayer `json:"layers"`
	Aliases []PaletteAlias `json:"aliases"`
}

// StoryExport is one story within stories/stories.json.
type StoryExport struct {
	OriginalID        string   `json:"originalId"`
	Name              string   `json:"name"`
	EnabledDatasetIDs []string `json:"enabledDatasetIds"`
}

// StoriesExport is the bundle's stories/stories.json payload.
type StoriesExport struct {
	Stories []StoryExport `json:"stories"`
}
