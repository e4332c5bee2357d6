package pqschema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvkem/parquetops/errs"
)

func accountSchema() *Schema {
	return New(
		Field{Name: "id", Physical: PhysicalInt64, Converted: ConvertedNone},
		Field{Name: "account", Physical: PhysicalByteArray, Converted: ConvertedUTF8},
	)
}

func TestColumnIndex(t *testing.T) {
	s := accountSchema()

	idx, err := s.ColumnIndex("account")
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	_, err = s.ColumnIndex("missing")
	require.Error(t, err)
	var unknown *errs.UnknownField
	require.True(t, errors.As(err, &unknown))
}

func TestColumnIndexAmbiguous(t *testing.T) {
	s := New(
		Field{Name: "id", Physical: PhysicalInt64},
		Field{Name: "id", Physical: PhysicalInt32},
	)
	_, err := s.ColumnIndex("id")
	require.Error(t, err)
}

func TestParseMessageType(t *testing.T) {
	literal := `
        message schema {
          REQUIRED INT64 id;
          REQUIRED BINARY account (UTF8);
          REQUIRED INT32 amount;
          REQUIRED INT64 datetime (TIMESTAMP(MILLIS,true));
        }`

	s, err := ParseMessageType(literal)
	require.NoError(t, err)
	require.Len(t, s.Fields, 4)
	require.Equal(t, Field{Name: "id", Physical: PhysicalInt64, Converted: ConvertedNone}, s.Fields[0])
	require.Equal(t, Field{Name: "account", Physical: PhysicalByteArray, Converted: ConvertedUTF8}, s.Fields[1])
	require.Equal(t, Field{Name: "datetime", Physical: PhysicalInt64, Converted: ConvertedTimestampMillis}, s.Fields[3])
}

func TestParseMessageTypeRejectsOptional(t *testing.T) {
	_, err := ParseMessageType("message schema {\n  OPTIONAL INT64 id;\n}")
	require.Error(t, err)
}

func TestSchemaEqual(t *testing.T) {
	a := accountSchema()
	b := accountSchema()
	require.True(t, a.Equal(b))

	c := New(Field{Name: "id", Physical: PhysicalInt64})
	require.False(t, a.Equal(c))
}
