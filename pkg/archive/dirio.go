package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
)

// expectedTopLevelDirs enumerates the bundle layout's top-level
// directories, used by directory-export pruning to recognize which stale
// files are ours to remove.
var expectedTopLevelDirs = map[string]bool{
	"datasets": true, "plans": true, "stories": true, "layers": true, "kb": true,
}

func rejectUnsafePath(name string) error {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return lcerrors.New(lcerrors.ErrCodeValidation, "archive path %q must not be absolute", name)
	}
	if (len(name) >= 2 && name[1] == ':') || strings.HasPrefix(name, `\\`) {
		return lcerrors.New(lcerrors.ErrCodeValidation, "archive path %q must not carry a Windows drive or UNC prefix", name)
	}
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return lcerrors.New(lcerrors.ErrCodeValidation, "archive path %q contains a traversal segment", name)
		}
	}
	return nil
}

// ExportToDirectory builds a project_archive bundle for projectID and
// extracts it directly into dir, overwriting files of the same name, then
// prunes stale files belonging to the bundle layout (but absent from the
// new bundle) and removes directories left empty. The extraction is not
// atomic: a failure part-way leaves dir partly updated. Hidden files and
// directories (starting with ".") are left untouched.
func (e *Exporter) ExportToDirectory(ctx context.Context, projectID, dir string) error {
	data, err := e.ExportProject(ctx, projectID)
	if err != nil {
		return err
	}
	return extractZipPruning(data, dir)
}

func extractZipPruning(data []byte, dir string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to open archive for extraction")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to create export directory")
	}

	newPaths := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		if err := rejectUnsafePath(f.Name); err != nil {
			return err
		}
		newPaths[filepath.FromSlash(f.Name)] = true

		dest := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to create directory for %s", f.Name)
		}

		rc, err := f.Open()
		if err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to open archive entry %s", f.Name)
		}
		out, err := os.Create(dest)
		if err != nil {
			rc.Close()
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to create %s", dest)
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, copyErr, "failed to write %s", dest)
		}
	}

	return pruneStale(dir, newPaths)
}

// pruneStale removes every file under dir whose top-level directory is a
// recognized bundle head but which wasn't part of the freshly written
// path set, then removes any directories left empty. Hidden entries are
// never touched.
func pruneStale(dir string, newPaths map[string]bool) error {
	var stale []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		if strings.HasPrefix(filepath.Base(rel), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		head := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		isBundleFile := newPaths[rel]
		isRecognizedHead := expectedTopLevelDirs[head] || isTopLevelBundleFile(rel)
		if isRecognizedHead && !isBundleFile {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil {
		return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to walk export directory")
	}

	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to remove stale file %s", path)
		}
	}

	return removeEmptyDirs(dir)
}

func isTopLevelBundleFile(rel string) bool {
	switch rel {
	case "manifest.json", "metadata.json", "project.json", "dag.json":
		return true
	default:
		return false
	}
}

func removeEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			os.Remove(dirs[i])
		}
	}
	return nil
}

// ImportFromDirectory archives dir in memory (ignoring hidden files,
// rejecting traversal), then imports it as an archive.
func (im *Importer) ImportFromDirectory(ctx context.Context, dir, targetProjectID, nameOverride string) (*ImportResult, error) {
	data, err := zipDirectory(dir)
	if err != nil {
		return nil, err
	}
	return im.ImportProject(ctx, data, targetProjectID, nameOverride)
}

func zipDirectory(dir string) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(filepath.Base(rel), ".") {
			return nil
		}
		slashRel := filepath.ToSlash(rel)
		if err := rejectUnsafePath(slashRel); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return writeRawEntry(zw, slashRel, data)
	})
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to archive directory %s", dir)
	}
	if err := zw.Close(); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to finalize in-memory archive")
	}
	return buf.Bytes(), nil
}
