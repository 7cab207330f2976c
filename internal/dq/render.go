package dq

import (
	"strings"
	"text/tabwriter"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// renderTable lays out rows as aligned columns under a header line.
func renderTable(indent string, header []string, rows [][]string) string {
	var buf strings.Builder
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	tw.Write([]byte(indent + strings.Join(header, "\t") + "\n"))
	for _, row := range rows {
		tw.Write([]byte(indent + strings.Join(row, "\t") + "\n"))
	}
	tw.Flush()

	return strings.TrimRight(buf.String(), "\n")
}

func formatCells(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = dataset.FormatValue(v)
	}
	return out
}
