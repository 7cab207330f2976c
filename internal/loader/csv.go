package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// ReadCSV reads a CSV stream whose first record is the header.
func ReadCSV(r io.Reader, opts Options) (*dataset.Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if err := checkTypes(opts.Types, names); err != nil {
		return nil, err
	}

	fields := make([]dataset.Field, len(names))
	for i, name := range names {
		fields[i] = dataset.Field{Name: name, Type: opts.Types[name]}
	}

	nulls := map[string]bool{"": true}
	for _, n := range opts.NullValues {
		nulls[n] = true
	}

	b := dataset.NewBuilder(fields...)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make([]any, len(record))
		for i, cell := range record {
			if !nulls[cell] {
				values[i] = cell
			}
		}
		if err := b.Append(values...); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return b.Build()
}
