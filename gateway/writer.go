package gateway

import (
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/pingcap/errors"

	"github.com/cvkem/parquetops/encoder"
	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/pqschema"
)

// WriterOptions configures a Parquet writer, per the external interfaces:
// compression defaults to SNAPPY, group_size to 10,000 (enforced by the
// caller, not the gateway — RowWriteBuffer owns batching), block_size_bytes
// to 10 MiB and applies only to object-store destinations.
type WriterOptions struct {
	Compression     string
	BlockSizeBytes  int
}

// DefaultWriterOptions mirrors the documented defaults.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{Compression: "snappy", BlockSizeBytes: 10 << 20}
}

func compressionCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "uncompressed", "none":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, &errs.Internal{Detail: "unsupported parquet compression: " + name}
	}
}

// RowGroupSink is the write side of the gateway: append one row-group of
// already-batched rows at a time, and close to finalize the file footer.
type RowGroupSink struct {
	w      *file.Writer
	dst    io.Closer
	schema *pqschema.Schema
}

// OpenWriter opens dst (typically an objio.Writer) for writing per schema,
// honoring opts. Close closes both the codec's footer writer and dst, so
// the caller never needs to close dst itself.
func OpenWriter(dst io.WriteCloser, schema *pqschema.Schema, opts WriterOptions) (*RowGroupSink, error) {
	node, err := toGroupNode(schema)
	if err != nil {
		return nil, err
	}

	codec, err := compressionCodec(opts.Compression)
	if err != nil {
		return nil, err
	}

	props := []parquet.WriterProperty{parquet.WithCompression(codec)}
	writer := file.NewParquetWriter(dst, node, file.WithWriterProps(parquet.NewWriterProperties(props...)))

	return &RowGroupSink{w: writer, dst: dst, schema: schema}, nil
}

// AppendGroup encodes rows (all assumed to belong to the same row-group)
// column-by-column via the encoder package and writes them as one
// contiguous row-group, matching the teacher's per-column WriteBatch loop.
func (s *RowGroupSink) AppendGroup(rows []pqschema.Row) error {
	if len(rows) == 0 {
		return nil
	}

	rgw := s.w.AppendRowGroup()
	for colIdx, field := range s.schema.Fields {
		if err := s.writeColumn(rgw, field, rows, colIdx); err != nil {
			rgw.Close()
			return err
		}
	}
	return errors.Trace(rgw.Close())
}

func (s *RowGroupSink) writeColumn(rgw file.SerialRowGroupWriter, field pqschema.Field, rows []pqschema.Row, colIdx int) error {
	cw, err := rgw.NextColumn()
	if err != nil {
		return errors.Trace(err)
	}
	defer cw.Close()

	encoded, err := encoder.EncodeColumn(field, rows, colIdx)
	if err != nil {
		return err
	}

	switch col := encoded.(type) {
	case encoder.Int32Column:
		w, ok := cw.(*file.Int32ColumnChunkWriter)
		if !ok {
			return &errs.Internal{Detail: "column writer type mismatch for int32 column"}
		}
		_, err = w.WriteBatch(col.Values, nil, nil)
	case encoder.Int64Column:
		w, ok := cw.(*file.Int64ColumnChunkWriter)
		if !ok {
			return &errs.Internal{Detail: "column writer type mismatch for int64 column"}
		}
		_, err = w.WriteBatch(col.Values, nil, nil)
	case encoder.ByteArrayColumn:
		w, ok := cw.(*file.ByteArrayColumnChunkWriter)
		if !ok {
			return &errs.Internal{Detail: "column writer type mismatch for byte-array column"}
		}
		values := make([]parquet.ByteArray, len(col.Values))
		for i, v := range col.Values {
			values[i] = parquet.ByteArray(v)
		}
		_, err = w.WriteBatch(values, nil, nil)
	default:
		return &errs.Internal{Detail: "unknown encoded column kind"}
	}
	if err != nil {
		return &errs.Io{Op: "write_batch", Cause: err}
	}
	return nil
}

// Close finalizes the file footer and closes dst. It must be called exactly
// once.
func (s *RowGroupSink) Close() error {
	if err := s.w.Close(); err != nil {
		s.dst.Close()
		return &errs.Io{Op: "close", Cause: errors.Trace(err)}
	}
	if err := s.dst.Close(); err != nil {
		return &errs.Io{Op: "close", Cause: errors.Trace(err)}
	}
	return nil
}
