package loader

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
	"github.com/shopspring/decimal"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// readBatch is the number of rows read from a row group at a time.
const readBatch = 256

// parquetColumn describes how to decode one leaf column.
type parquetColumn struct {
	name   string
	typ    dataset.Type
	decode func(v parquet.Value) any
}

// ReadParquet reads a flat Parquet file. Nested and repeated columns are
// rejected.
func ReadParquet(r io.ReaderAt, size int64, opts Options) (*dataset.Dataset, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	fields := f.Schema().Fields()
	cols := make([]parquetColumn, len(fields))
	names := make([]string, len(fields))
	for i, field := range fields {
		col, err := columnFor(field)
		if err != nil {
			return nil, err
		}
		cols[i] = col
		names[i] = col.name
	}
	if err := checkTypes(opts.Types, names); err != nil {
		return nil, err
	}

	dsFields := make([]dataset.Field, len(cols))
	for i, c := range cols {
		typ := c.typ
		if override, ok := opts.Types[c.name]; ok {
			typ = override
		}
		dsFields[i] = dataset.Field{Name: c.name, Type: typ}
	}

	b := dataset.NewBuilder(dsFields...)
	buf := make([]parquet.Row, readBatch)
	for _, rg := range f.RowGroups() {
		if err := readRowGroup(rg, cols, buf, b); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func readRowGroup(rg parquet.RowGroup, cols []parquetColumn, buf []parquet.Row, b *dataset.Builder) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			values := make([]any, len(cols))
			for _, v := range row {
				i := v.Column()
				if i < 0 || i >= len(cols) || v.IsNull() {
					continue
				}
				values[i] = cols[i].decode(v)
			}
			if err := b.Append(values...); err != nil {
				return fmt.Errorf("row %d: %w", b.Len(), err)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read rows: %w", err)
		}
	}
}

func columnFor(field parquet.Field) (parquetColumn, error) {
	name := field.Name()
	if !field.Leaf() || field.Repeated() {
		return parquetColumn{}, fmt.Errorf("column %q: nested and repeated columns are not supported", name)
	}

	t := field.Type()
	lt := t.LogicalType()
	col := parquetColumn{name: name}

	switch t.Kind() {
	case parquet.Boolean:
		col.typ = dataset.Bool
		col.decode = func(v parquet.Value) any { return v.Boolean() }

	case parquet.Int32:
		switch {
		case lt != nil && lt.Date != nil:
			col.typ = dataset.Date
			col.decode = func(v parquet.Value) any {
				return time.Unix(int64(v.Int32())*86400, 0).UTC()
			}
		case lt != nil && lt.Decimal != nil:
			scale := lt.Decimal.Scale
			col.typ = dataset.Numeric
			col.decode = func(v parquet.Value) any { return decimal.New(int64(v.Int32()), -scale) }
		default:
			col.typ = dataset.Int
			col.decode = func(v parquet.Value) any { return int64(v.Int32()) }
		}

	case parquet.Int64:
		switch {
		case lt != nil && lt.Timestamp != nil:
			unit := timestampUnit(lt.Timestamp.Unit)
			col.typ = dataset.Timestamp
			col.decode = func(v parquet.Value) any {
				return time.Unix(0, 0).Add(time.Duration(v.Int64()) * unit).UTC()
			}
		case lt != nil && lt.Decimal != nil:
			scale := lt.Decimal.Scale
			col.typ = dataset.Numeric
			col.decode = func(v parquet.Value) any { return decimal.New(v.Int64(), -scale) }
		default:
			col.typ = dataset.Int
			col.decode = func(v parquet.Value) any { return v.Int64() }
		}

	case parquet.Float:
		col.typ = dataset.Float
		col.decode = func(v parquet.Value) any { return float64(v.Float()) }

	case parquet.Double:
		col.typ = dataset.Float
		col.decode = func(v parquet.Value) any { return v.Double() }

	case parquet.ByteArray, parquet.FixedLenByteArray:
		if lt != nil && lt.Decimal != nil {
			scale := lt.Decimal.Scale
			col.typ = dataset.Numeric
			col.decode = func(v parquet.Value) any { return decimalFromBytes(v.ByteArray(), scale) }
		} else {
			col.typ = dataset.String
			col.decode = func(v parquet.Value) any { return string(v.ByteArray()) }
		}

	default:
		return parquetColumn{}, fmt.Errorf("column %q: unsupported parquet type %s", name, t)
	}

	return col, nil
}

func timestampUnit(u format.TimeUnit) time.Duration {
	switch {
	case u.Nanos != nil:
		return time.Nanosecond
	case u.Micros != nil:
		return time.Microsecond
	default:
		return time.Millisecond
	}
}

// decimalFromBytes decodes a big-endian two's complement unscaled value.
func decimalFromBytes(b []byte, scale int32) decimal.Decimal {
	unscaled := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		unscaled.Sub(unscaled, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return decimal.NewFromBigInt(unscaled, -scale)
}
