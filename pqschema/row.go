package pqschema

// Row is an ordered, schema-aligned sequence of values. Field names are not
// carried on the row itself — position within the row matches position
// within the owning Schema.
type Row struct {
	Values []Value
}

// NewRow builds a Row from positional values.
func NewRow(values ...Value) Row {
	return Row{Values: values}
}

// Value is a single field's contents. Exactly one of the typed accessors is
// meaningful, selected by the owning Schema field's (Physical, Converted)
// pair: Int32 for PhysicalInt32, Int64 for PhysicalInt64 (including the
// UINT_64 reinterpretation and TIMESTAMP_MILLIS cases), Bytes for
// PhysicalByteArray (including UTF8).
type Value struct {
	Int32 int32
	Int64 int64
	Bytes []byte
}

// Int32Value builds a Value carrying a 32-bit integer.
func Int32Value(v int32) Value { return Value{Int32: v} }

// Int64Value builds a Value carrying a 64-bit integer (also used for the
// UINT_64-reinterpreted-as-int64 and TIMESTAMP_MILLIS cases).
func Int64Value(v int64) Value { return Value{Int64: v} }

// Uint64Value builds a Value carrying an unsigned 64-bit integer, stored
// bit-reinterpreted as a signed int64 the way the column encoder requires.
func Uint64Value(v uint64) Value { return Value{Int64: int64(v)} }

// StringValue builds a Value carrying a UTF-8 string.
func StringValue(v string) Value { return Value{Bytes: []byte(v)} }

// BytesValue builds a Value carrying a raw byte string.
func BytesValue(v []byte) Value { return Value{Bytes: v} }

// Uint64 reinterprets the value's Int64 field as an unsigned 64-bit integer.
func (v Value) Uint64() uint64 { return uint64(v.Int64) }

// String reinterprets the value's Bytes field as a UTF-8 string.
func (v Value) String() string { return string(v.Bytes) }
