package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/observability"
	"github.com/layercake-run/layercake/pkg/storage"
)

// Importer restores project archive bundles into the persisted state
// behind the supplied stores.
type Importer struct {
	Projects storage.ProjectStore
	Datasets storage.DatasetStore
	PlanStore storage.PlanStore
}

// NewImporter creates an Importer over the given stores.
func NewImporter(projects storage.ProjectStore, datasets storage.DatasetStore, planStore storage.PlanStore) *Importer {
	return &Importer{Projects: projects, Datasets: datasets, PlanStore: planStore}
}

// ImportResult reports what an import produced.
type ImportResult struct {
	ProjectID       string
	DatasetIDMap    map[string]string // original_id -> new id
	PlanID          string
	DatasetCount    int
	PlanEdgeCount   int
}

// ImportProject restores a project archive (or template) from zipData. If
// targetProjectID is empty, a fresh project id is minted; nameOverride, if
// non-empty, replaces the bundle's recorded project name.
func (im *Importer) ImportProject(ctx context.Context, zipData []byte, targetProjectID, nameOverride string) (*ImportResult, error) {
	observability.Archive().OnImportStart(ctx, targetProjectID)
	start := time.Now()
	res, err := im.importProject(ctx, zipData, targetProjectID, nameOverride)
	observability.Archive().OnImportComplete(ctx, targetProjectID, time.Since(start), err)
	return res, err
}

func (im *Importer) importProject(ctx context.Context, zipData []byte, targetProjectID, nameOverride string) (*ImportResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to open archive")
	}
	entries, err := indexEntries(zr)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := readJSONEntry(entries, "manifest.json", &manifest); err != nil {
		return nil, err
	}
	var projectFile ProjectFile
	if err := readJSONEntry(entries, "project.json", &projectFile); err != nil {
		return nil, err
	}
	var dagFile DagSnapshotFile
	if err := readJSONEntry(entries, "dag.json", &dagFile); err != nil {
		return nil, err
	}
	var index DatasetIndex
	if err := readJSONEntry(entries, "datasets/index.json", &index); err != nil {
		return nil, err
	}

	projectID := targetProjectID
	name := projectFile.Name
	if nameOverride != "" {
		name = nameOverride
	}
	now := time.Now()
	if projectID == "" {
		projectID = freshID("project")
		if err := im.Projects.InsertProject(ctx, &storage.Project{
			ID: projectID, Name: name, Description: projectFile.Description,
			Tags: projectFile.Tags, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert project")
		}
	}

	datasetIDMap := make(map[string]string, len(index.Datasets))
	for _, desc := range index.Datasets {
		newID := freshID("dataset")
		datasetIDMap[desc.OriginalID] = newID

		var graphJSON []byte
		if manifest.BundleType == BundleTypeProjectArchive {
			data, err := readRawEntry(entries, "datasets/"+desc.Filename)
			if err != nil {
				return nil, err
			}
			graphJSON = data
		}
		// Templates intentionally discard row-level data: create empty
		// datasets using only the descriptor's schema metadata.

		if err := im.Datasets.InsertDataset(ctx, &storage.Dataset{
			ID: newID, ProjectID: projectID, Name: desc.Name, Description: desc.Description,
			GraphJSON: graphJSON, Status: "ready", CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert dataset %s", desc.Name)
		}
	}

	planName := manifest.PlanName
	if planName == "" {
		planName = name + " Plan"
	}
	planID := freshID("plan")
	if err := im.PlanStore.InsertPlan(ctx, &storage.Plan{
		ID: planID, ProjectID: projectID, Name: planName, Status: "draft",
		Version: 1, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert plan")
	}
	if err := insertDagSnapshot(ctx, im.PlanStore, planID, dagFile, datasetIDMap); err != nil {
		return nil, err
	}

	if paletteEntry, ok := entries["layers/palette.json"]; ok {
		if err := im.importPalette(ctx, projectID, paletteEntry, datasetIDMap); err != nil {
			return nil, err
		}
	}

	return &ImportResult{
		ProjectID: projectID, DatasetIDMap: datasetIDMap, PlanID: planID,
		DatasetCount: len(index.Datasets), PlanEdgeCount: len(dagFile.Edges),
	}, nil
}

// importPalette inserts each bundled layer under projectID, rewriting
// source_dataset_id through datasetIDMap, then inserts each bundled alias
// against the newly assigned layer id it targets (spec §4.7 step 4).
func (im *Importer) importPalette(ctx context.Context, projectID string, entry *zip.File, datasetIDMap map[string]string) error {
	var palette PaletteExport
	if err := decodeZipEntry(entry, &palette); err != nil {
		return err
	}

	layerIDMap := make(map[string]string, len(palette.Layers))
	for _, l := range palette.Layers {
		newID := freshID("layer")
		layerIDMap[l.OriginalID] = newID

		var sourceDatasetID string
		if l.SourceDatasetID != nil {
			sourceDatasetID = datasetIDMap[*l.SourceDatasetID]
		}

		if err := im.Projects.InsertLayer(ctx, &storage.Layer{
			ID: newID, ProjectID: projectID, Label: l.Label,
			BackgroundColor: l.BackgroundColor, BorderColor: l.BorderColor, TextColor: l.TextColor,
			SourceDatasetID: sourceDatasetID,
		}); err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert layer %s", l.Label)
		}
	}

	for _, a := range palette.Aliases {
		targetLayerID, ok := layerIDMap[a.LayerOriginalID]
		if !ok {
			continue
		}
		if err := im.Projects.InsertLayerAlias(ctx, &storage.LayerAlias{
			ID: freshID("layeralias"), ProjectID: projectID,
			Alias: a.Alias, TargetLayerID: targetLayerID,
		}); err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to insert layer alias %s", a.Alias)
		}
	}
	return nil
}

// indexEntries builds a name -> entry lookup, rejecting any entry whose
// path escapes the bundle (traversal segments, absolute paths, or Windows
// drive/UNC prefixes) before it is ever read.
func indexEntries(zr *zip.Reader) (map[string]*zip.File, error) {
	m := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if err := rejectUnsafePath(f.Name); err != nil {
			return nil, err
		}
		m[f.Name] = f
	}
	return m, nil
}

func readRawEntry(entries map[string]*zip.File, name string) ([]byte, error) {
	f, ok := entries[name]
	if !ok {
		return nil, lcerrors.New(lcerrors.ErrCodeValidation, "archive missing required entry %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to open archive entry %s", name)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to read archive entry %s", name)
	}
	return data, nil
}

func readJSONEntry(entries map[string]*zip.File, name string, v any) error {
	data, err := readRawEntry(entries, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode archive entry %s", name)
	}
	return nil
}

func decodeZipEntry(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to open archive entry %s", f.Name)
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to decode archive entry %s", f.Name)
	}
	return nil
}
