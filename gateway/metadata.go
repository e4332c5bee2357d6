package gateway

import (
	"github.com/apache/arrow-go/v18/parquet/metadata"

	"github.com/cvkem/parquetops/pqschema"
)

// ColumnStats mirrors the per-row-group statistics the original prototype
// exposed via get_metadata: the values actually written to a column chunk's
// footer entry, decoded back into the flat schema's own value representation.
type ColumnStats struct {
	Name       string
	NumValues  int64
	HasMinMax  bool
	Min        pqschema.Value
	Max        pqschema.Value
}

// RowGroupMetadata summarizes one row group.
type RowGroupMetadata struct {
	NumRows    int64
	TotalBytes int64
	Columns    []ColumnStats
}

// FileMetadata is the full structural summary of a written Parquet file,
// recoverable without decoding any row data.
type FileMetadata struct {
	Schema       *pqschema.Schema
	NumRows      int64
	CreatedBy    string
	Version      string
	RowGroups    []RowGroupMetadata
}

// Metadata reads the footer of an already-open FileSource and decodes the
// per-row-group column statistics the codec's writer recorded.
func (f *FileSource) Metadata() (*FileMetadata, error) {
	md := f.pq.MetaData()

	out := &FileMetadata{
		Schema:    f.schema,
		NumRows:   f.pq.NumRows(),
		CreatedBy: md.CreatedBy(),
		Version:   md.Version().String(),
		RowGroups: make([]RowGroupMetadata, f.pq.NumRowGroups()),
	}

	for i := 0; i < f.pq.NumRowGroups(); i++ {
		rg := md.RowGroup(i)
		rgOut := RowGroupMetadata{
			NumRows:    rg.NumRows(),
			TotalBytes: rg.TotalByteSize(),
			Columns:    make([]ColumnStats, rg.NumColumns()),
		}
		for c := 0; c < rg.NumColumns(); c++ {
			col, err := rg.ColumnChunk(c)
			if err != nil {
				return nil, err
			}
			field := f.schema.Fields[c]
			stats := ColumnStats{Name: field.Name}
			if set, statErr := col.StatsSet(); statErr == nil && set {
				st, err := col.Statistics()
				if err == nil && st != nil && st.HasMinMax() {
					stats.HasMinMax = true
					stats.NumValues = st.NumValues()
					stats.Min, stats.Max = decodeStatBounds(field, st)
				}
			}
			rgOut.Columns[c] = stats
		}
		out.RowGroups[i] = rgOut
	}
	return out, nil
}

// decodeStatBounds recovers Min/Max from a column chunk's typed statistics,
// the concrete type selected by the physical type the same way encoder
// dispatches when writing the column in the first place.
func decodeStatBounds(field pqschema.Field, st metadata.TypedStatistics) (pqschema.Value, pqschema.Value) {
	switch field.Physical {
	case pqschema.PhysicalInt32:
		if s, ok := st.(*metadata.Int32Statistics); ok {
			return pqschema.Int32Value(s.Min()), pqschema.Int32Value(s.Max())
		}
	case pqschema.PhysicalInt64:
		if s, ok := st.(*metadata.Int64Statistics); ok {
			return pqschema.Int64Value(s.Min()), pqschema.Int64Value(s.Max())
		}
	case pqschema.PhysicalByteArray:
		if s, ok := st.(*metadata.ByteArrayStatistics); ok {
			return pqschema.BytesValue(s.Min()), pqschema.BytesValue(s.Max())
		}
	}
	return pqschema.Value{}, pqschema.Value{}
}
