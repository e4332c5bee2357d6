// Package pqschema defines the flat row/schema data model shared by every
// parquetops component, independent of the external Parquet codec's own
// in-memory representation. Conversion to and from the codec's schema.Node
// tree lives in gateway, which is the only package that imports the codec's
// schema package directly.
package pqschema

import (
	"fmt"

	"github.com/cvkem/parquetops/errs"
)

// PhysicalType is the on-disk physical encoding of a column, mirroring the
// subset of Parquet physical types this engine supports.
type PhysicalType int

const (
	PhysicalInt32 PhysicalType = iota
	PhysicalInt64
	PhysicalByteArray
)

func (t PhysicalType) String() string {
	switch t {
	case PhysicalInt32:
		return "INT32"
	case PhysicalInt64:
		return "INT64"
	case PhysicalByteArray:
		return "BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

// ConvertedType is the logical annotation carried on top of a PhysicalType.
type ConvertedType int

const (
	ConvertedNone ConvertedType = iota
	ConvertedInt32
	ConvertedInt64
	ConvertedUint64
	ConvertedTimestampMillis
	ConvertedUTF8
)

func (t ConvertedType) String() string {
	switch t {
	case ConvertedNone:
		return "NONE"
	case ConvertedInt32:
		return "INT_32"
	case ConvertedInt64:
		return "INT_64"
	case ConvertedUint64:
		return "UINT_64"
	case ConvertedTimestampMillis:
		return "TIMESTAMP_MILLIS"
	case ConvertedUTF8:
		return "UTF8"
	default:
		return "UNKNOWN"
	}
}

// Field is one column of a flat, required-only schema.
type Field struct {
	Name      string
	Physical  PhysicalType
	Converted ConvertedType
}

// Schema is an ordered, immutable list of required fields. Nested or
// repeated schemas are out of scope; every field is a top-level leaf.
type Schema struct {
	Fields []Field
}

// New builds a Schema from its fields, in column order.
func New(fields ...Field) *Schema {
	return &Schema{Fields: append([]Field(nil), fields...)}
}

// NumColumns returns the number of fields in the schema.
func (s *Schema) NumColumns() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

// ColumnIndex resolves a field name to its column index. It fails with
// errs.UnknownField if no field matches and errs.AmbiguousField if more
// than one does.
func (s *Schema) ColumnIndex(name string) (int, error) {
	found := -1
	for i, f := range s.Fields {
		if f.Name == name {
			if found != -1 {
				return 0, &errs.AmbiguousField{Name: name}
			}
			found = i
		}
	}
	if found == -1 {
		return 0, &errs.UnknownField{Name: name}
	}
	return found, nil
}

// Equal reports whether two schemas carry the same fields in the same
// order, used to validate a writer's schema against an append source.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f != other.Fields[i] {
			return false
		}
	}
	return true
}

// String renders the schema as the message-type literal grammar described
// in the external interfaces (REQUIRED <TYPE> <name> [(<CONVERTED>)];).
func (s *Schema) String() string {
	out := "message schema {\n"
	for _, f := range s.Fields {
		phys := f.Physical.String()
		if f.Physical == PhysicalByteArray {
			phys = "BINARY"
		}
		out += fmt.Sprintf("  REQUIRED %s %s%s;\n", phys, f.Name, convertedSuffix(f.Converted))
	}
	out += "}"
	return out
}

func convertedSuffix(c ConvertedType) string {
	switch c {
	case ConvertedUTF8:
		return " (UTF8)"
	case ConvertedTimestampMillis:
		return " (TIMESTAMP(MILLIS,true))"
	case ConvertedInt32:
		return " (INT_32)"
	case ConvertedInt64:
		return " (INT_64)"
	case ConvertedUint64:
		return " (UINT_64)"
	default:
		return ""
	}
}

// SingleField builds the single-column projection schema KeyDescriptor uses
// to sample a sort key without materializing the rest of the row.
func SingleField(f Field) *Schema {
	return New(f)
}
