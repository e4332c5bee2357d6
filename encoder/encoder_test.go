package encoder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvkem/parquetops/pqschema"
)

func rowsOf(ids []int64, accounts []string) []pqschema.Row {
	rows := make([]pqschema.Row, len(ids))
	for i := range ids {
		rows[i] = pqschema.NewRow(pqschema.Int64Value(ids[i]), pqschema.StringValue(accounts[i]))
	}
	return rows
}

func TestEncodeInt64ColumnStats(t *testing.T) {
	rows := rowsOf([]int64{5, 1, 4, 2, 3}, []string{"a", "b", "c", "d", "e"})
	field := pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt64, Converted: pqschema.ConvertedNone}

	out, err := EncodeColumn(field, rows, 0)
	require.NoError(t, err)

	col := out.(Int64Column)
	require.Equal(t, []int64{5, 1, 4, 2, 3}, col.Values)
	require.EqualValues(t, 1, col.Min)
	require.EqualValues(t, 5, col.Max)
	for _, v := range col.Values {
		require.GreaterOrEqual(t, v, col.Min)
		require.LessOrEqual(t, v, col.Max)
	}
}

func TestEncodeUTF8ColumnLexicographicMinMax(t *testing.T) {
	rows := rowsOf([]int64{1, 2, 3}, []string{"Hello", "World", "!"})
	field := pqschema.Field{Name: "account", Physical: pqschema.PhysicalByteArray, Converted: pqschema.ConvertedUTF8}

	out, err := EncodeColumn(field, rows, 1)
	require.NoError(t, err)

	col := out.(ByteArrayColumn)
	require.Equal(t, "!", string(col.Min))
	require.Equal(t, "World", string(col.Max))
}

func TestEncodeUnsupportedType(t *testing.T) {
	rows := rowsOf([]int64{1}, []string{"x"})
	field := pqschema.Field{Name: "account", Physical: pqschema.PhysicalByteArray, Converted: pqschema.ConvertedNone}

	_, err := EncodeColumn(field, rows, 1)
	require.Error(t, err)
}

func TestEncodeUint64Reinterpretation(t *testing.T) {
	var big uint64 = 1<<63 + 7
	rows := []pqschema.Row{pqschema.NewRow(pqschema.Uint64Value(big))}
	field := pqschema.Field{Name: "counter", Physical: pqschema.PhysicalInt64, Converted: pqschema.ConvertedUint64}

	out, err := EncodeColumn(field, rows, 0)
	require.NoError(t, err)

	col := out.(Int64Column)
	require.Equal(t, big, uint64(col.Values[0]))
}
