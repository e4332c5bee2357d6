// Package keydesc resolves a sort key field name against a schema and
// produces the comparators and partition predicate the external sort needs,
// grounded directly on the original prototype's ParquetKey /
// sort_multistage_typed trait: only INT32 and INT64 physical types are
// comparable keys, the record comparator indexes into the full row, the
// partition comparator operates over single-column sample rows carrying
// just the key, and the partition filter tests a full row against such a
// single-column splitter with a non-strict upper bound (key <= splitter).
package keydesc

import (
	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/pqschema"
)

// KeyDescriptor resolves one sort key field against a schema.
type KeyDescriptor struct {
	name      string
	colIndex  int
	physical  pqschema.PhysicalType
	converted pqschema.ConvertedType
}

// New resolves name against schema, failing with UnknownField/AmbiguousField
// if it cannot be uniquely located, or UnsupportedKeyType if its physical
// type is neither INT32 nor INT64.
func New(schema *pqschema.Schema, name string) (*KeyDescriptor, error) {
	idx, err := schema.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	phys := schema.Fields[idx].Physical
	if phys != pqschema.PhysicalInt32 && phys != pqschema.PhysicalInt64 {
		return nil, &errs.UnsupportedKeyType{Type: phys.String()}
	}
	return &KeyDescriptor{name: name, colIndex: idx, physical: phys, converted: schema.Fields[idx].Converted}, nil
}

// Name is the resolved field name.
func (k *KeyDescriptor) Name() string { return k.name }

// ColumnIndex is the key's position in the full row schema.
func (k *KeyDescriptor) ColumnIndex() int { return k.colIndex }

func (k *KeyDescriptor) keyOf(row pqschema.Row, col int) int64 {
	if k.physical == pqschema.PhysicalInt32 {
		return int64(row.Values[col].Int32)
	}
	return row.Values[col].Int64
}

// RecordLess compares two full rows by the key column.
func (k *KeyDescriptor) RecordLess(a, b pqschema.Row) bool {
	return k.keyOf(a, k.colIndex) < k.keyOf(b, k.colIndex)
}

// PartitionLess compares two single-column sample rows (as produced by
// PartitionSchema) by their sole key value.
func (k *KeyDescriptor) PartitionLess(a, b pqschema.Row) bool {
	return k.keyOf(a, 0) < k.keyOf(b, 0)
}

// PartitionFilter returns a predicate that is true for every full row whose
// key is less than or equal to splitter's key value — the non-strict upper
// bound every partition but the last is routed by.
func (k *KeyDescriptor) PartitionFilter(splitter pqschema.Row) func(pqschema.Row) bool {
	bound := k.keyOf(splitter, 0)
	col := k.colIndex
	phys := k.physical
	return func(row pqschema.Row) bool {
		if phys == pqschema.PhysicalInt32 {
			return int64(row.Values[col].Int32) <= bound
		}
		return row.Values[col].Int64 <= bound
	}
}

// PartitionSchema is the single-column schema sample rows and splitters are
// shaped as: just the key field, under its own name.
func (k *KeyDescriptor) PartitionSchema() *pqschema.Schema {
	return pqschema.SingleField(pqschema.Field{Name: k.name, Physical: k.physical, Converted: k.converted})
}
