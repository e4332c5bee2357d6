package gateway

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pingcap/errors"

	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/objio"
	"github.com/cvkem/parquetops/pqschema"
)

// FileSource is the read side of the gateway: a Parquet file opened for
// row-group-at-a-time access, the shape RowStream is built on.
type FileSource struct {
	closer   func() error
	pq       *file.Reader
	arrow    *pqarrow.FileReader
	schema   *pqschema.Schema
	fullCols []int // nil for an unprojected source, else the file column indices to materialize, in schema order
}

// OpenReader opens an already-resolved objio.Reader as a Parquet source and
// recovers its schema from the file footer, the same information the
// teacher's writer embeds on write. Every column is materialized on each
// ReadRowGroup call; see OpenReaderProjected to read only a subset.
func OpenReader(r objio.Reader) (*FileSource, error) {
	return openSource(r, nil)
}

// OpenReaderProjected is open_reader_projected: it opens r the same way as
// OpenReader, but resolves projection's fields against the file's own
// schema and only materializes those columns on each ReadRowGroup call,
// driving the codec's column-index-bounded RowGroupReader.ReadTable instead
// of decoding every column and discarding the unwanted ones. Each field in
// projection must resolve by name to a column in the file's schema with an
// identical physical/converted type, or the open fails with
// SchemaMismatch.
func OpenReaderProjected(r objio.Reader, projection *pqschema.Schema) (*FileSource, error) {
	return openSource(r, projection)
}

func openSource(r objio.Reader, projection *pqschema.Schema) (*FileSource, error) {
	ras, err := newReaderAtSeeker(r)
	if err != nil {
		return nil, err
	}

	pq, err := file.NewParquetReader(ras)
	if err != nil {
		return nil, &errs.Open{Path: "<source>", Cause: errors.Trace(err)}
	}

	afr, err := pqarrow.NewFileReader(pq, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		pq.Close()
		return nil, &errs.Internal{Detail: errors.Trace(err).Error()}
	}

	fullSchema, err := fromSchema(pq.MetaData().Schema)
	if err != nil {
		pq.Close()
		return nil, err
	}

	if projection == nil {
		return &FileSource{
			closer: func() error { return pq.Close() },
			pq:     pq,
			arrow:  afr,
			schema: fullSchema,
		}, nil
	}

	cols := make([]int, len(projection.Fields))
	for i, f := range projection.Fields {
		idx, err := fullSchema.ColumnIndex(f.Name)
		if err != nil {
			pq.Close()
			return nil, &errs.SchemaMismatch{
				Expected: fmt.Sprintf("%s(converted=%s physical=%s)", f.Name, f.Converted, f.Physical),
				Actual:   err.Error(),
			}
		}
		if actual := fullSchema.Fields[idx]; actual != f {
			pq.Close()
			return nil, &errs.SchemaMismatch{
				Expected: fmt.Sprintf("%s(converted=%s physical=%s)", f.Name, f.Converted, f.Physical),
				Actual:   fmt.Sprintf("%s(converted=%s physical=%s)", actual.Name, actual.Converted, actual.Physical),
			}
		}
		cols[i] = idx
	}

	return &FileSource{
		closer:   func() error { return pq.Close() },
		pq:       pq,
		arrow:    afr,
		schema:   projection,
		fullCols: cols,
	}, nil
}

// Schema returns the schema this source materializes: the full file schema
// for OpenReader, or the projection for OpenReaderProjected.
func (f *FileSource) Schema() *pqschema.Schema { return f.schema }

// NumRowGroups reports the number of row groups in the file.
func (f *FileSource) NumRowGroups() int { return f.pq.NumRowGroups() }

// ReadRowGroup decodes row group i, materializing only the columns named by
// Schema() — every column for an unprojected source, or just the projected
// subset, in projection order.
func (f *FileSource) ReadRowGroup(ctx context.Context, i int) ([]pqschema.Row, error) {
	rgr := f.arrow.RowGroup(i)
	table, err := rgr.ReadTable(ctx, f.fullCols)
	if err != nil {
		return nil, &errs.Io{Op: "read_row_group", Cause: errors.Trace(err)}
	}
	defer table.Release()

	return tableToRows(table, f.schema)
}

// Close releases the underlying file handle.
func (f *FileSource) Close() error {
	return f.closer()
}

func tableToRows(table arrow.Table, schema *pqschema.Schema) ([]pqschema.Row, error) {
	numRows := int(table.NumRows())
	rows := make([]pqschema.Row, numRows)
	for i := range rows {
		rows[i] = pqschema.NewRow(make([]pqschema.Value, len(schema.Fields))...)
	}

	reader := array.NewTableReader(table, -1)
	defer reader.Release()

	base := 0
	for reader.Next() {
		rec := reader.Record()
		n := int(rec.NumRows())
		for col := 0; col < int(rec.NumCols()); col++ {
			if err := decodeColumn(rec.Column(col), schema.Fields[col], rows, base, n, col); err != nil {
				return nil, err
			}
		}
		base += n
	}
	return rows, nil
}

func decodeColumn(col arrow.Array, field pqschema.Field, rows []pqschema.Row, base, n, colIdx int) error {
	switch field.Physical {
	case pqschema.PhysicalInt32:
		a, ok := col.(*array.Int32)
		if !ok {
			return &errs.Internal{Detail: "arrow column type mismatch for int32 field " + field.Name}
		}
		for i := 0; i < n; i++ {
			rows[base+i].Values[colIdx] = pqschema.Int32Value(a.Value(i))
		}
	case pqschema.PhysicalInt64:
		switch a := col.(type) {
		case *array.Int64:
			for i := 0; i < n; i++ {
				rows[base+i].Values[colIdx] = pqschema.Int64Value(a.Value(i))
			}
		case *array.Uint64:
			for i := 0; i < n; i++ {
				rows[base+i].Values[colIdx] = pqschema.Uint64Value(a.Value(i))
			}
		case *array.Timestamp:
			for i := 0; i < n; i++ {
				rows[base+i].Values[colIdx] = pqschema.Int64Value(int64(a.Value(i)))
			}
		default:
			return &errs.Internal{Detail: "arrow column type mismatch for int64 field " + field.Name}
		}
	case pqschema.PhysicalByteArray:
		switch a := col.(type) {
		case *array.Binary:
			for i := 0; i < n; i++ {
				v := make([]byte, len(a.Value(i)))
				copy(v, a.Value(i))
				rows[base+i].Values[colIdx] = pqschema.BytesValue(v)
			}
		case *array.String:
			for i := 0; i < n; i++ {
				rows[base+i].Values[colIdx] = pqschema.StringValue(a.Value(i))
			}
		default:
			return &errs.Internal{Detail: "arrow column type mismatch for byte-array field " + field.Name}
		}
	default:
		return &errs.UnsupportedType{Field: field.Name, Physical: field.Physical.String()}
	}
	return nil
}
