// Package loader reads datasets from local files.
//
// CSV and Parquet are supported. Column types are fixed at load time: CSV
// columns default to strings and Parquet columns follow the file's physical
// and logical types. Options.Types overrides either.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// Options controls how a file is turned into a dataset.
type Options struct {
	// Types assigns a column type by column name.
	Types map[string]dataset.Type
	// Delimiter is the CSV field separator. Defaults to ','.
	Delimiter rune
	// NullValues lists CSV cell texts read as null. The empty string is
	// always null.
	NullValues []string
}

// LoadFile reads path, choosing the format from its extension.
func LoadFile(path string, opts Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var d *dataset.Dataset
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		if ext == ".tsv" && opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		d, err = ReadCSV(f, opts)
	case ".parquet", ".pq":
		st, statErr := f.Stat()
		if statErr != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
		}
		d, err = ReadParquet(f, st.Size(), opts)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv, .tsv or .parquet)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return d, nil
}

// checkTypes reports override names that match no column.
func checkTypes(types map[string]dataset.Type, names []string) error {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for name := range types {
		if !known[name] {
			return fmt.Errorf("type given for unknown column %q", name)
		}
	}
	return nil
}
