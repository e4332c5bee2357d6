// Package gateway is the thin facade over the external Parquet codec
// (github.com/apache/arrow-go/v18/parquet and its pqarrow companion). It is
// the only package that imports the codec's own schema/file/pqarrow types;
// everything else in this module works in terms of pqschema.Schema and
// pqschema.Row.
package gateway

import (
	"github.com/apache/arrow-go/v18/parquet"
	arrowschema "github.com/apache/arrow-go/v18/parquet/schema"
	"github.com/pingcap/errors"

	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/pqschema"
)

func physicalType(p pqschema.PhysicalType) (parquet.Type, error) {
	switch p {
	case pqschema.PhysicalInt32:
		return parquet.Types.Int32, nil
	case pqschema.PhysicalInt64:
		return parquet.Types.Int64, nil
	case pqschema.PhysicalByteArray:
		return parquet.Types.ByteArray, nil
	default:
		return 0, &errs.Internal{Detail: "unknown physical type"}
	}
}

func convertedType(c pqschema.ConvertedType) (arrowschema.ConvertedType, error) {
	switch c {
	case pqschema.ConvertedNone:
		return arrowschema.ConvertedTypes.None, nil
	case pqschema.ConvertedInt32:
		return arrowschema.ConvertedTypes.Int32, nil
	case pqschema.ConvertedInt64:
		return arrowschema.ConvertedTypes.Int64, nil
	case pqschema.ConvertedUint64:
		return arrowschema.ConvertedTypes.Uint64, nil
	case pqschema.ConvertedTimestampMillis:
		return arrowschema.ConvertedTypes.TimestampMillis, nil
	case pqschema.ConvertedUTF8:
		return arrowschema.ConvertedTypes.UTF8, nil
	default:
		return 0, &errs.Internal{Detail: "unknown converted type"}
	}
}

// toGroupNode builds the codec's required-fields group node for s, the same
// way the teacher's ParquetWriter.getWriter builds its schema.Node slice.
func toGroupNode(s *pqschema.Schema) (*arrowschema.GroupNode, error) {
	fields := make([]arrowschema.Node, len(s.Fields))
	for i, f := range s.Fields {
		phys, err := physicalType(f.Physical)
		if err != nil {
			return nil, err
		}
		conv, err := convertedType(f.Converted)
		if err != nil {
			return nil, err
		}
		node, err := arrowschema.NewPrimitiveNodeConverted(
			f.Name,
			parquet.Repetitions.Required,
			phys, conv,
			0, 0, 0,
			-1,
		)
		if err != nil {
			return nil, errors.Trace(err)
		}
		fields[i] = node
	}

	node, err := arrowschema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return node, nil
}

// fromSchema rebuilds a pqschema.Schema from the codec's own schema
// description, used when opening a reader to recover the field list
// without requiring the caller to already know it.
func fromSchema(sc *arrowschema.Schema) (*pqschema.Schema, error) {
	fields := make([]pqschema.Field, sc.NumColumns())
	for i := 0; i < sc.NumColumns(); i++ {
		col := sc.Column(i)
		physical, err := fromPhysicalType(col.PhysicalType())
		if err != nil {
			return nil, err
		}
		converted, err := fromConvertedType(col.ConvertedType())
		if err != nil {
			return nil, err
		}
		fields[i] = pqschema.Field{
			Name:      col.ColumnPath()[0],
			Physical:  physical,
			Converted: converted,
		}
	}
	return pqschema.New(fields...), nil
}

func fromPhysicalType(t parquet.Type) (pqschema.PhysicalType, error) {
	switch t {
	case parquet.Types.Int32:
		return pqschema.PhysicalInt32, nil
	case parquet.Types.Int64:
		return pqschema.PhysicalInt64, nil
	case parquet.Types.ByteArray:
		return pqschema.PhysicalByteArray, nil
	default:
		return 0, &errs.UnsupportedType{Field: "?", Physical: t.String()}
	}
}

func fromConvertedType(t arrowschema.ConvertedType) (pqschema.ConvertedType, error) {
	switch t {
	case arrowschema.ConvertedTypes.None:
		return pqschema.ConvertedNone, nil
	case arrowschema.ConvertedTypes.Int32:
		return pqschema.ConvertedInt32, nil
	case arrowschema.ConvertedTypes.Int64:
		return pqschema.ConvertedInt64, nil
	case arrowschema.ConvertedTypes.Uint64:
		return pqschema.ConvertedUint64, nil
	case arrowschema.ConvertedTypes.TimestampMillis:
		return pqschema.ConvertedTimestampMillis, nil
	case arrowschema.ConvertedTypes.UTF8:
		return pqschema.ConvertedUTF8, nil
	default:
		return 0, &errs.UnsupportedType{Field: "?", Converted: t.String()}
	}
}
