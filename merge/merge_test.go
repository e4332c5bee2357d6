package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvkem/parquetops/pqschema"
)

type fakeStream struct {
	rows []pqschema.Row
	pos  int
}

func newFakeStream(ids ...int64) *fakeStream {
	rows := make([]pqschema.Row, len(ids))
	for i, id := range ids {
		rows[i] = pqschema.NewRow(pqschema.Int64Value(id))
	}
	return &fakeStream{rows: rows}
}

func (f *fakeStream) Head() (*pqschema.Row, bool) {
	if f.pos >= len(f.rows) {
		return nil, false
	}
	return &f.rows[f.pos], true
}

func (f *fakeStream) Advance() bool {
	f.pos++
	return f.pos < len(f.rows)
}

func byID(a, b pqschema.Row) bool {
	return a.Values[0].Int64 < b.Values[0].Int64
}

func idsOf(rows []pqschema.Row) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.Values[0].Int64
	}
	return out
}

func TestMergeTwoWay(t *testing.T) {
	a := newFakeStream(1, 3, 5)
	b := newFakeStream(2, 4, 6)

	var out []pqschema.Row
	err := Merge([]Source{a, b}, byID, func(r pqschema.Row) error {
		out = append(out, r)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, idsOf(out))
}

func taggedStream(tag int64, ids ...int64) *fakeStream {
	rows := make([]pqschema.Row, len(ids))
	for i, id := range ids {
		rows[i] = pqschema.NewRow(pqschema.Int64Value(id), pqschema.Int64Value(tag))
	}
	return &fakeStream{rows: rows}
}

func TestMergeStableTieBreakFavorsLowerIndex(t *testing.T) {
	a := taggedStream(0, 1, 1, 1)
	b := taggedStream(1, 1, 1, 1)

	var order []int64
	err := Merge([]Source{a, b}, byID, func(r pqschema.Row) error {
		order = append(order, r.Values[1].Int64)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{0, 0, 0, 1, 1, 1}, order)
}

func TestMergeSingleInputDrains(t *testing.T) {
	a := newFakeStream(1, 2, 3)
	var out []pqschema.Row
	err := Merge([]Source{a}, byID, func(r pqschema.Row) error {
		out = append(out, r)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, idsOf(out))
}

func TestMergeFiltersEmptyInputs(t *testing.T) {
	empty := newFakeStream()
	a := newFakeStream(1, 2)
	var out []pqschema.Row
	err := Merge([]Source{empty, a}, byID, func(r pqschema.Row) error {
		out = append(out, r)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, idsOf(out))
}

func TestRequireMatchingSchemaMismatch(t *testing.T) {
	s1 := pqschema.New(pqschema.Field{Name: "id", Physical: pqschema.PhysicalInt64})
	s2 := pqschema.New(pqschema.Field{Name: "other", Physical: pqschema.PhysicalInt64})
	err := RequireMatchingSchema([]*pqschema.Schema{s1, s2})
	require.Error(t, err)
}
