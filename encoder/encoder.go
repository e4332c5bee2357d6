// Package encoder computes, for one column of a row-group batch, the typed
// value vector and the per-column min and max described by the
// column-encoder type table; no distinct count is computed. It is grounded on the
// teacher's per-SQL-type column writer dispatch and, for the exact min/max
// fold semantics (including the UTF-8 total-order fallback), on the
// original prototype's write_i64_column/write_u64_column/write_i32_column/
// write_utf8_column functions.
//
// This package is deliberately codec-agnostic: it returns plain Go slices
// and Stats values, never a parquet-go type. gateway is the only package
// that converts the Values slice into the external codec's on-disk column
// representation; the codec's own writer independently (and automatically)
// computes and embeds its own min/max/null-count into the column chunk
// footer as part of writing, which is what get_metadata reads back. The
// min/max computed here exist to make the per-row-group invariant
// "min <= every value <= max" a plain unit-testable property of this
// package, without touching the codec at all.
package encoder

import (
	"bytes"

	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/pqschema"
)

// Int32Column is the encoded form of an INT_32/NONE-over-INT32 column.
type Int32Column struct {
	Values []int32
	Min    int32
	Max    int32
}

// Int64Column is the encoded form of an INT_64, UINT_64-reinterpreted, or
// TIMESTAMP_MILLIS column — all three travel as an i64 column on disk.
type Int64Column struct {
	Values []int64
	Min    int64
	Max    int64
}

// ByteArrayColumn is the encoded form of a UTF8 column.
type ByteArrayColumn struct {
	Values [][]byte
	Min    []byte
	Max    []byte
}

// EncodeColumn dispatches on (converted, physical) exactly per the type
// table: INT_64/UINT_64/TIMESTAMP_MILLIS/NONE-over-INT64 all produce an
// Int64Column, INT_32/NONE-over-INT32 an Int32Column, UTF8 a
// ByteArrayColumn. Any other combination fails with UnsupportedType.
func EncodeColumn(field pqschema.Field, rows []pqschema.Row, colIdx int) (any, error) {
	switch field.Converted {
	case pqschema.ConvertedInt64, pqschema.ConvertedUint64, pqschema.ConvertedTimestampMillis:
		if field.Physical != pqschema.PhysicalInt64 {
			return nil, unsupportedType(field)
		}
		return encodeInt64(rows, colIdx), nil
	case pqschema.ConvertedInt32:
		if field.Physical != pqschema.PhysicalInt32 {
			return nil, unsupportedType(field)
		}
		return encodeInt32(rows, colIdx), nil
	case pqschema.ConvertedUTF8:
		if field.Physical != pqschema.PhysicalByteArray {
			return nil, unsupportedType(field)
		}
		return encodeUTF8(rows, colIdx), nil
	case pqschema.ConvertedNone:
		switch field.Physical {
		case pqschema.PhysicalInt64:
			return encodeInt64(rows, colIdx), nil
		case pqschema.PhysicalInt32:
			return encodeInt32(rows, colIdx), nil
		default:
			return nil, unsupportedType(field)
		}
	default:
		return nil, unsupportedType(field)
	}
}

func unsupportedType(field pqschema.Field) error {
	return &errs.UnsupportedType{
		Field:     field.Name,
		Converted: field.Converted.String(),
		Physical:  field.Physical.String(),
	}
}

func encodeInt64(rows []pqschema.Row, colIdx int) Int64Column {
	values := make([]int64, len(rows))
	for i, r := range rows {
		values[i] = r.Values[colIdx].Int64
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return Int64Column{Values: values, Min: minV, Max: maxV}
}

func encodeInt32(rows []pqschema.Row, colIdx int) Int32Column {
	values := make([]int32, len(rows))
	for i, r := range rows {
		values[i] = r.Values[colIdx].Int32
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return Int32Column{Values: values, Min: minV, Max: maxV}
}

// encodeUTF8 folds min/max over lexicographic byte order. The fold mirrors
// the original reduce-with-partial_cmp used by the prototype: on each step
// the "smaller" fold keeps the left operand on Equal or Less, swaps to the
// right operand only on Greater, and falls back to the left operand on an
// incomparable comparison (a case that cannot occur for byte slices, which
// are always totally ordered, but is preserved here as the same defensive
// fallback the prototype encodes).
func encodeUTF8(rows []pqschema.Row, colIdx int) ByteArrayColumn {
	values := make([][]byte, len(rows))
	for i, r := range rows {
		values[i] = r.Values[colIdx].Bytes
	}

	minV := values[0]
	maxV := values[0]
	for _, v := range values[1:] {
		minV = foldMin(minV, v)
		maxV = foldMax(maxV, v)
	}
	return ByteArrayColumn{Values: values, Min: minV, Max: maxV}
}

func foldMin(a, b []byte) []byte {
	switch bytes.Compare(a, b) {
	case 0, -1:
		return a
	case 1:
		return b
	default:
		return a
	}
}

func foldMax(a, b []byte) []byte {
	switch bytes.Compare(a, b) {
	case 0, 1:
		return a
	case -1:
		return b
	default:
		return a
	}
}
