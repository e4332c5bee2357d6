// Package merge implements the k-way streaming merge of sorted Parquet row
// streams, grounded directly on the original prototype's merge_parquet:
// filter out any input that is already empty, repeatedly pick the stream
// whose head compares smallest under a caller-supplied comparator (ties
// broken in favor of the lowest input index, exactly the reduce-with-first-
// wins-on-tie the prototype gets for free from Iterator::reduce), drain the
// last surviving stream without further comparisons once only one remains.
package merge

import (
	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/pqschema"
)

// Less compares two rows of the same schema for merge ordering.
type Less func(a, b pqschema.Row) bool

// Source is the subset of rowstream.RowStream the merger needs, kept
// narrow so callers can merge anything row-addressable, including test
// fakes, without depending on the concrete file-backed stream type.
type Source interface {
	Head() (*pqschema.Row, bool)
	Advance() bool
}

// Merge streams out of inputs, in sorted order under less, into emit. Input
// order is preserved as the tie-break: when two heads compare equal, the
// row from the lower-indexed input is emitted first.
func Merge(inputs []Source, less Less, emit func(pqschema.Row) error) error {
	active := make([]Source, 0, len(inputs))
	for _, in := range inputs {
		if _, ok := in.Head(); ok {
			active = append(active, in)
		}
	}

	for len(active) > 1 {
		minPos := 0
		minHead, _ := active[0].Head()
		for i := 1; i < len(active); i++ {
			head, _ := active[i].Head()
			if less(*head, *minHead) {
				minPos = i
				minHead = head
			}
		}

		if err := emit(*minHead); err != nil {
			return err
		}
		if !active[minPos].Advance() {
			active = append(active[:minPos], active[minPos+1:]...)
		}
	}

	if len(active) == 1 {
		for {
			head, ok := active[0].Head()
			if !ok {
				break
			}
			if err := emit(*head); err != nil {
				return err
			}
			if !active[0].Advance() {
				break
			}
		}
	}

	return nil
}

// RequireMatchingSchema validates that every input stream's schema is
// identical to the first, returning SchemaMismatch on the first divergence
// — the merge has no way to reconcile column order or type differences.
func RequireMatchingSchema(schemas []*pqschema.Schema) error {
	if len(schemas) == 0 {
		return nil
	}
	first := schemas[0]
	for _, s := range schemas[1:] {
		if !first.Equal(s) {
			return &errs.SchemaMismatch{Expected: first.String(), Actual: s.String()}
		}
	}
	return nil
}
