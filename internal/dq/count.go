package dq

import (
	"fmt"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// CountMismatch is the diagnostic of a failed row count comparison.
type CountMismatch struct {
	Source int
	Target int
}

// String implements Diagnostic.
func (c *CountMismatch) String() string {
	return fmt.Sprintf("  source rows: %d\n  target rows: %d", c.Source, c.Target)
}

// CheckRowCount fails when the datasets have different row counts.
func CheckRowCount(source, target *dataset.Dataset) error {
	if source.Len() == target.Len() {
		return nil
	}
	return &AssertionError{
		Check:      KindRowCount,
		Message:    fmt.Sprintf("row count mismatch: %d != %d", source.Len(), target.Len()),
		Diagnostic: &CountMismatch{Source: source.Len(), Target: target.Len()},
	}
}

// CheckEmpty fails when expectEmpty is true and the dataset has rows, or when
// expectEmpty is false and the dataset has none.
func CheckEmpty(d *dataset.Dataset, expectEmpty bool) error {
	n := d.Len()
	switch {
	case expectEmpty && n > 0:
		return &AssertionError{
			Check:   KindEmpty,
			Message: fmt.Sprintf("dataset is not empty (%d rows)", n),
		}
	case !expectEmpty && n == 0:
		return &AssertionError{
			Check:   KindNotEmpty,
			Message: "dataset is empty",
		}
	}
	return nil
}
