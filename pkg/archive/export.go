package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"time"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/observability"
	"github.com/layercake-run/layercake/pkg/plandag"
	"github.com/layercake-run/layercake/pkg/storage"
)

const (
	manifestVersion      = "1.0"
	projectFormatVersion = 1
	createdWithPrefix    = "layercake-go"
)

// Exporter builds project archive bundles from the persisted state behind
// the supplied stores.
type Exporter struct {
	Projects storage.ProjectStore
	Datasets storage.DatasetStore
	Plans    *plandag.Service
}

// NewExporter creates an Exporter over the given stores.
func NewExporter(projects storage.ProjectStore, datasets storage.DatasetStore, plans *plandag.Service) *Exporter {
	return &Exporter{Projects: projects, Datasets: datasets, Plans: plans}
}

// ExportProject builds a project_archive bundle for projectID and returns
// its ZIP bytes.
func (e *Exporter) ExportProject(ctx context.Context, projectID string) ([]byte, error) {
	observability.Archive().OnExportStart(ctx, projectID)
	start := time.Now()
	data, err := e.exportProject(ctx, projectID, BundleTypeProjectArchive)
	observability.Archive().OnExportComplete(ctx, projectID, time.Since(start), err)
	return data, err
}

// ExportTemplate builds a project_template bundle: structure only, with
// every dataset payload omitted.
func (e *Exporter) ExportTemplate(ctx context.Context, projectID string) ([]byte, error) {
	observability.Archive().OnExportStart(ctx, projectID)
	start := time.Now()
	data, err := e.exportProject(ctx, projectID, BundleTypeProjectTemplate)
	observability.Archive().OnExportComplete(ctx, projectID, time.Since(start), err)
	return data, err
}

func (e *Exporter) exportProject(ctx context.Context, projectID string, bundleType BundleType) ([]byte, error) {
	project, err := e.Projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to load project %s", projectID)
	}

	plans, err := e.Plans.ListPlansByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	primary := mostRecentlyUpdated(plans)

	var dagFile DagSnapshotFile
	planName := project.Name + " Plan"
	if primary != nil {
		snap, err := e.Plans.Snapshot(ctx, primary.ID, nil, nil)
		if err != nil {
			return nil, err
		}
		dagFile = toDagSnapshotFile(snap)
		planName = primary.Name
	}

	datasets, err := e.Datasets.ListDatasets(ctx, projectID)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list datasets for project %s", projectID)
	}
	sort.Slice(datasets, func(i, j int) bool { return datasets[i].ID < datasets[j].ID })

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	manifest := Manifest{
		ManifestVersion:      manifestVersion,
		BundleType:           bundleType,
		CreatedWith:          createdWithPrefix,
		ProjectFormatVersion: projectFormatVersion,
		GeneratedAt:          time.Now(),
		SourceProjectID:      projectID,
		PlanName:             planName,
	}
	if err := writeJSONEntry(zw, "manifest.json", manifest); err != nil {
		return nil, err
	}
	if err := writeJSONEntry(zw, "metadata.json", FormatMetadata{LayercakeProjectFormatVersion: projectFormatVersion}); err != nil {
		return nil, err
	}
	if err := writeJSONEntry(zw, "project.json", ProjectFile{Name: project.Name, Description: project.Description, Tags: project.Tags}); err != nil {
		return nil, err
	}
	if err := writeJSONEntry(zw, "dag.json", dagFile); err != nil {
		return nil, err
	}

	index := DatasetIndex{}
	for _, d := range datasets {
		filename := datasetFilename(d.Name, d.ID)
		nodeCount, edgeCount, layerCount := countDatasetGraph(d.GraphJSON)
		index.Datasets = append(index.Datasets, DatasetBundleDescriptor{
			OriginalID: d.ID, Name: d.Name, Description: d.Description,
			Filename: filename, FileFormat: "json",
			NodeCount: &nodeCount, EdgeCount: &edgeCount, LayerCount: &layerCount,
		})

		if bundleType == BundleTypeProjectArchive {
			if err := writeRawEntry(zw, "datasets/"+filename, d.GraphJSON); err != nil {
				return nil, err
			}
		}
	}
	if err := writeJSONEntry(zw, "datasets/index.json", index); err != nil {
		return nil, err
	}

	if err := e.writePalette(ctx, zw, projectID); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to finalize archive")
	}
	return buf.Bytes(), nil
}

// writePalette writes layers/palette.json when the project has any
// layers defined; an empty palette is omitted entirely rather than
// written as an empty shell.
func (e *Exporter) writePalette(ctx context.Context, zw *zip.Writer, projectID string) error {
	layers, err := e.Projects.ListLayers(ctx, projectID)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list layers for project %s", projectID)
	}
	if len(layers) == 0 {
		return nil
	}

	export := PaletteExport{Layers: make([]PaletteLayer, 0, len(layers))}
	for _, l := range layers {
		pl := PaletteLayer{
			OriginalID:      l.ID,
			Label:           l.Label,
			BackgroundColor: l.BackgroundColor,
			BorderColor:     l.BorderColor,
			TextColor:       l.TextColor,
		}
		if l.SourceDatasetID != "" {
			pl.SourceDatasetID = &l.SourceDatasetID
		}
		export.Layers = append(export.Layers, pl)
	}

	aliases, err := e.Projects.ListLayerAliases(ctx, projectID)
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list layer aliases for project %s", projectID)
	}
	for _, a := range aliases {
		export.Aliases = append(export.Aliases, PaletteAlias{LayerOriginalID: a.TargetLayerID, Alias: a.Alias})
	}

	return writeJSONEntry(zw, "layers/palette.json", export)
}

func mostRecentlyUpdated(plans []storage.Plan) *storage.Plan {
	if len(plans) == 0 {
		return nil
	}
	best := plans[0]
	for _, p := range plans[1:] {
		if p.UpdatedAt.After(best.UpdatedAt) {
			best = p
		}
	}
	return &best
}

func countDatasetGraph(graphJSON []byte) (nodes, edges, layers int) {
	var g struct {
		Nodes  []json.RawMessage `json:"Nodes"`
		Edges  []json.RawMessage `json:"Edges"`
		Layers []json.RawMessage `json:"Layers"`
	}
	if err := json.Unmarshal(graphJSON, &g); err != nil {
		return 0, 0, 0
	}
	return len(g.Nodes), len(g.Edges), len(g.Layers)
}

func toDagSnapshotFile(snap *plandag.PlanDagSnapshot) DagSnapshotFile {
	out := DagSnapshotFile{
		Version: snap.Version,
		Metadata: DagSnapshotMetadataFile{
			Name: snap.Metadata.Name, Description: snap.Metadata.Description,
			Created: snap.Metadata.Created, LastModified: snap.Metadata.LastModified,
			Author: snap.Metadata.Author,
		},
	}
	for _, n := range snap.Nodes {
		nf := DagNodeFile{
			ID: n.ID, NodeType: string(n.NodeType),
			Position: PositionFile{X: n.Position.X, Y: n.Position.Y},
			Metadata: n.Metadata, Config: n.Config,
		}
		if n.DatasetExecution != nil {
			nf.DatasetExecution = string(*n.DatasetExecution)
		}
		if n.GraphState != nil {
			nf.GraphState = string(*n.GraphState)
		}
		out.Nodes = append(out.Nodes, nf)
	}
	for _, e := range snap.Edges {
		out.Edges = append(out.Edges, DagEdgeFile{ID: e.ID, Source: e.SourceNodeID, Target: e.TargetNodeID, Metadata: e.Metadata})
	}
	return out
}

func writeJSONEntry(zw *zip.Writer, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to encode %s", name)
	}
	return writeRawEntry(zw, name, data)
}

func writeRawEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to create archive entry %s", name)
	}
	if _, err := w.Write(data); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to write archive entry %s", name)
	}
	return nil
}
