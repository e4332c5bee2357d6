package rowstream

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvkem/parquetops/gateway"
	"github.com/cvkem/parquetops/objio"
	"github.com/cvkem/parquetops/pqschema"
)

func schema() *pqschema.Schema {
	return pqschema.New(pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt64})
}

func writeRowGroups(t *testing.T, groups [][]pqschema.Row) objio.Path {
	t.Helper()
	path, err := objio.ParsePath(filepath.Join(t.TempDir(), "data.parquet"))
	require.NoError(t, err)

	w, err := objio.OpenWriter(context.Background(), path, nil, 0, nil)
	require.NoError(t, err)
	sink, err := gateway.OpenWriter(w, schema(), gateway.DefaultWriterOptions())
	require.NoError(t, err)
	for _, g := range groups {
		require.NoError(t, sink.AppendGroup(g))
	}
	require.NoError(t, sink.Close())
	return path
}

func rowsOf(ids ...int64) []pqschema.Row {
	out := make([]pqschema.Row, len(ids))
	for i, id := range ids {
		out[i] = pqschema.NewRow(pqschema.Int64Value(id))
	}
	return out
}

func TestHeadAdvanceWalksAllRows(t *testing.T) {
	path := writeRowGroups(t, [][]pqschema.Row{rowsOf(1, 2), rowsOf(3)})

	s, err := Open(context.Background(), path, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	var ids []int64
	for {
		head, ok := s.Head()
		if !ok {
			break
		}
		ids = append(ids, head.Values[0].Int64)
		s.Advance()
	}
	require.Equal(t, []int64{1, 2, 3}, ids)
	require.NoError(t, s.Err())
}

func TestTakeReturnsShortReadAtExhaustion(t *testing.T) {
	path := writeRowGroups(t, [][]pqschema.Row{rowsOf(1, 2, 3)})

	s, err := Open(context.Background(), path, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	got := s.Take(10)
	require.Len(t, got, 3)
	_, ok := s.Head()
	require.False(t, ok)
}

func TestDrainConsumesRemainder(t *testing.T) {
	path := writeRowGroups(t, [][]pqschema.Row{rowsOf(1), rowsOf(2, 3)})

	s, err := Open(context.Background(), path, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	s.Advance() // consume the first row via Head/Advance, leaving two
	rest := s.Drain()
	require.Len(t, rest, 2)
	_, ok := s.Head()
	require.False(t, ok)
}

func twoColSchema() *pqschema.Schema {
	return pqschema.New(
		pqschema.Field{Name: "account", Physical: pqschema.PhysicalByteArray, Converted: pqschema.ConvertedUTF8},
		pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt64},
	)
}

func writeTwoColRowGroup(t *testing.T, accounts []string, ids []int64) objio.Path {
	t.Helper()
	path, err := objio.ParsePath(filepath.Join(t.TempDir(), "data.parquet"))
	require.NoError(t, err)

	rows := make([]pqschema.Row, len(ids))
	for i := range ids {
		rows[i] = pqschema.NewRow(pqschema.StringValue(accounts[i]), pqschema.Int64Value(ids[i]))
	}

	w, err := objio.OpenWriter(context.Background(), path, nil, 0, nil)
	require.NoError(t, err)
	sink, err := gateway.OpenWriter(w, twoColSchema(), gateway.DefaultWriterOptions())
	require.NoError(t, err)
	require.NoError(t, sink.AppendGroup(rows))
	require.NoError(t, sink.Close())
	return path
}

func TestOpenProjectedOnlyMaterializesNamedColumn(t *testing.T) {
	path := writeTwoColRowGroup(t, []string{"a", "b"}, []int64{10, 20})

	projection := pqschema.New(pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt64})
	s, err := OpenProjected(context.Background(), path, projection, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, 1, s.Schema().NumColumns())
	require.Equal(t, "id", s.Schema().Fields[0].Name)

	rows := s.Drain()
	require.Len(t, rows, 2)
	require.Equal(t, int64(10), rows[0].Values[0].Int64)
	require.Equal(t, int64(20), rows[1].Values[0].Int64)
	require.NoError(t, s.Err())
}

func TestOpenProjectedRejectsUnknownField(t *testing.T) {
	path := writeTwoColRowGroup(t, []string{"a"}, []int64{1})

	projection := pqschema.New(pqschema.Field{Name: "missing", Physical: pqschema.PhysicalInt64})
	_, err := OpenProjected(context.Background(), path, projection, nil, nil)
	require.Error(t, err)
}

func TestOpenProjectedRejectsTypeMismatch(t *testing.T) {
	path := writeTwoColRowGroup(t, []string{"a"}, []int64{1})

	// "id" is really INT64; asking for it as INT32 must fail with a schema
	// mismatch rather than silently decoding the wrong physical type.
	projection := pqschema.New(pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt32})
	_, err := OpenProjected(context.Background(), path, projection, nil, nil)
	require.Error(t, err)
}

func TestOpenEmptyFileIsImmediatelyExhausted(t *testing.T) {
	path := writeRowGroups(t, nil)

	s, err := Open(context.Background(), path, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Head()
	require.False(t, ok)
	require.NoError(t, s.Err())
	require.Empty(t, s.Take(5))
	require.Empty(t, s.Drain())
}
