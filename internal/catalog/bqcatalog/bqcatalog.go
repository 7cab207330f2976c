// Package bqcatalog implements catalog.Catalog for Google BigQuery.
package bqcatalog

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// Catalog runs queries and schema lookups through a BigQuery client.
type Catalog struct {
	client  *bigquery.Client
	project string
}

var _ catalog.Catalog = (*Catalog)(nil)

// New creates a BigQuery catalog billed to project. When credentialsFile is
// empty the client falls back to application default credentials.
func New(ctx context.Context, project, credentialsFile string) (*Catalog, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &Catalog{client: client, project: project}, nil
}

// Close releases the client.
func (c *Catalog) Close() error {
	return c.client.Close()
}

// ExecuteQuery runs a standard SQL query and materializes every row.
func (c *Catalog) ExecuteQuery(ctx context.Context, query string) (*dataset.Dataset, error) {
	it, err := c.client.Query(query).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var rows [][]bigquery.Value
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}

	return toDataset(it.Schema, rows)
}

// GetSchema reads the metadata of a table identified as
// "project.dataset.table" or "dataset.table".
func (c *Catalog) GetSchema(ctx context.Context, table string) (catalog.Schema, error) {
	ref, err := parseTableID(table, c.project)
	if err != nil {
		return nil, err
	}

	md, err := c.client.DatasetInProject(ref.project, ref.dataset).Table(ref.table).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata of %s: %w", table, err)
	}
	return toSchema(md.Schema), nil
}

type tableRef struct {
	project string
	dataset string
	table   string
}

// parseTableID accepts project.dataset.table, the legacy
// project:dataset.table, and dataset.table in the default project.
func parseTableID(id, defaultProject string) (tableRef, error) {
	cleaned := strings.Trim(strings.TrimSpace(id), "`")
	cleaned = strings.Replace(cleaned, ":", ".", 1)

	parts := strings.Split(cleaned, ".")
	switch {
	case len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "":
		return tableRef{project: parts[0], dataset: parts[1], table: parts[2]}, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "" && defaultProject != "":
		return tableRef{project: defaultProject, dataset: parts[0], table: parts[1]}, nil
	default:
		return tableRef{}, fmt.Errorf("invalid table id %q: want project.dataset.table", id)
	}
}

func toSchema(s bigquery.Schema) catalog.Schema {
	out := make(catalog.Schema, len(s))
	for i, f := range s {
		typ := string(f.Type)
		if f.Repeated {
			typ = "ARRAY<" + typ + ">"
		}
		out[i] = catalog.Field{Name: f.Name, Type: typ, Nullable: !f.Required}
	}
	return out
}

func toDataset(s bigquery.Schema, rows [][]bigquery.Value) (*dataset.Dataset, error) {
	fields := make([]dataset.Field, len(s))
	for i, f := range s {
		typ := catalog.DatasetType(string(f.Type))
		if f.Repeated || f.Type == bigquery.RecordFieldType {
			typ = dataset.String
		}
		fields[i] = dataset.Field{Name: f.Name, Type: typ}
	}

	b := dataset.NewBuilder(fields...)
	for i, row := range rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = convertValue(v)
		}
		if err := b.Append(values...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.Build()
}

// convertValue maps the client's Go representation of a cell onto values
// the dataset builder understands.
func convertValue(v bigquery.Value) any {
	switch val := v.(type) {
	case nil:
		return nil
	case civil.Date:
		return time.Date(val.Year, val.Month, val.Day, 0, 0, 0, 0, time.UTC)
	case civil.DateTime:
		return val.In(time.UTC)
	case civil.Time:
		return val.String()
	case *big.Rat:
		if val == nil {
			return nil
		}
		return val
	case []bigquery.Value:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = dataset.FormatValue(convertValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return val
	}
}
