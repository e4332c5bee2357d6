package parquetops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvkem/parquetops/pqschema"
)

func sampleSchema() *Schema {
	return pqschema.New(pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt64})
}

func TestWriteReadRowsRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.parquet")
	schema := sampleSchema()

	w, err := WriteRows(ctx, path, schema, nil, nil, WriterOptions{Compression: "snappy"})
	require.NoError(t, err)
	for i := int64(0); i < 5; i++ {
		require.NoError(t, w.AppendRow(pqschema.NewRow(pqschema.Int64Value(i))))
	}
	require.NoError(t, w.Close())

	r, err := ReadRows(ctx, path, nil, nil, nil)
	require.NoError(t, err)
	defer r.Close()

	rows := r.Drain()
	require.Len(t, rows, 5)
	require.NoError(t, r.Err())
}

func TestSortThenGetMetadata(t *testing.T) {
	ctx := context.Background()
	schema := sampleSchema()
	inPath := filepath.Join(t.TempDir(), "in.parquet")
	outPath := filepath.Join(t.TempDir(), "out.parquet")

	w, err := WriteRows(ctx, inPath, schema, nil, nil, WriterOptions{Compression: "snappy"})
	require.NoError(t, err)
	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, w.AppendRow(pqschema.NewRow(pqschema.Int64Value(id))))
	}
	require.NoError(t, w.Close())

	require.NoError(t, Sort(ctx, inPath, outPath, "id", nil, nil, SortOptions{}))

	r, err := ReadRows(ctx, outPath, nil, nil, nil)
	require.NoError(t, err)
	defer r.Close()
	rows := r.Drain()
	require.Len(t, rows, 3)
	require.Equal(t, int64(1), rows[0].Values[0].Int64)
	require.Equal(t, int64(3), rows[2].Values[0].Int64)

	md, err := GetMetadata(ctx, outPath, nil, nil)
	require.NoError(t, err)
	require.Len(t, md.RowGroups, 1)
	require.Equal(t, int64(3), md.RowGroups[0].NumRows)
}

func TestReadRowsProjectionRestrictsColumns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.parquet")
	schema := pqschema.New(
		pqschema.Field{Name: "account", Physical: pqschema.PhysicalByteArray, Converted: pqschema.ConvertedUTF8},
		pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt64},
	)

	w, err := WriteRows(ctx, path, schema, nil, nil, WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.AppendRow(pqschema.NewRow(pqschema.StringValue("alice"), pqschema.Int64Value(7))))
	require.NoError(t, w.Close())

	projection := pqschema.New(pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt64})
	r, err := ReadRows(ctx, path, projection, nil, nil)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 1, r.Schema().NumColumns())
	rows := r.Drain()
	require.Len(t, rows, 1)
	require.Equal(t, int64(7), rows[0].Values[0].Int64)
}

func TestMergeTwoSortedInputs(t *testing.T) {
	ctx := context.Background()
	schema := sampleSchema()

	writeSorted := func(ids ...int64) string {
		p := filepath.Join(t.TempDir(), "part.parquet")
		w, err := WriteRows(ctx, p, schema, nil, nil, WriterOptions{})
		require.NoError(t, err)
		for _, id := range ids {
			require.NoError(t, w.AppendRow(pqschema.NewRow(pqschema.Int64Value(id))))
		}
		require.NoError(t, w.Close())
		return p
	}

	a := writeSorted(1, 3, 5)
	b := writeSorted(2, 4, 6)
	outPath := filepath.Join(t.TempDir(), "merged.parquet")

	require.NoError(t, Merge(ctx, []string{a, b}, outPath, "id", nil, nil))

	r, err := ReadRows(ctx, outPath, nil, nil, nil)
	require.NoError(t, err)
	defer r.Close()
	rows := r.Drain()
	require.Len(t, rows, 6)
	for i := 1; i < len(rows); i++ {
		require.LessOrEqual(t, rows[i-1].Values[0].Int64, rows[i].Values[0].Int64)
	}
}
