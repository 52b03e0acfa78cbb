package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
)

// LoadFile reads a delimited file and returns its header row and data
// records. The separator is chosen by file extension: ".csv" selects a
// comma, ".tsv" selects a tab. Any other extension fails validation.
func LoadFile(path string) (headers []string, records [][]string, err error) {
	ext := strings.ToLower(filepath.Ext(path))

	var separator rune
	switch ext {
	case ".csv":
		separator = ','
	case ".tsv":
		separator = '\t'
	default:
		return nil, nil, lcerrors.New(lcerrors.ErrCodeValidation, "unsupported file extension: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to open dataset file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = separator
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to parse dataset file")
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	return rows[0], rows[1:], nil
}
