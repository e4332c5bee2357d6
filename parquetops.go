// Package parquetops is the public entry point of this module: the five
// operations spec.md §6 names as the public API surface — sort, merge,
// write_rows, read_rows, get_metadata — each a thin orchestration over the
// lower-level objio/gateway/rowstream/writebuffer/merge/sortx/keydesc
// packages. Library code never logs to stdout or prints results; every
// operation takes a context.Context and an injectable *zap.Logger,
// defaulting to a no-op logger the way every package below it does.
package parquetops

import (
	"context"

	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"

	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/gateway"
	"github.com/cvkem/parquetops/keydesc"
	"github.com/cvkem/parquetops/merge"
	"github.com/cvkem/parquetops/objio"
	"github.com/cvkem/parquetops/pqschema"
	"github.com/cvkem/parquetops/rowstream"
	"github.com/cvkem/parquetops/sortx"
	"github.com/cvkem/parquetops/writebuffer"
)

// Re-exported so callers never need to import the lower-level packages
// directly for everyday use.
type (
	Row           = pqschema.Row
	Schema        = pqschema.Schema
	Field         = pqschema.Field
	Metadata      = gateway.FileMetadata
	WriterOptions = gateway.WriterOptions
	SortOptions   = sortx.Options
)

// Sort reads the rows at inputPath, sorts them by keyField, and writes the
// sorted result to outputPath. It dispatches internally between an
// in-memory Simple Sort and a sample-partitioned External Sort based on the
// real size of the input object.
func Sort(ctx context.Context, inputPath, outputPath string, keyField string, store storage.ExternalStorage, logger *zap.Logger, opts SortOptions) error {
	in, err := objio.ParsePath(inputPath)
	if err != nil {
		return err
	}
	out, err := objio.ParsePath(outputPath)
	if err != nil {
		return err
	}
	opts.Store = store
	opts.Logger = logger
	return sortx.Sort(ctx, in, out, keyField, opts)
}

// Merge k-way merges already individually-sorted inputs, ordered by
// keyField, into a single output file. Every input must share the same
// schema; keyField must resolve to an INT32 or INT64 column in that schema.
func Merge(ctx context.Context, inputPaths []string, outputPath string, keyField string, store storage.ExternalStorage, logger *zap.Logger) error {
	if len(inputPaths) == 0 {
		return &errs.Internal{Detail: "merge requires at least one input"}
	}

	streams := make([]*rowstream.RowStream, 0, len(inputPaths))
	closeAll := func() {
		for _, s := range streams {
			s.Close()
		}
	}

	schemas := make([]*pqschema.Schema, 0, len(inputPaths))
	for _, p := range inputPaths {
		path, err := objio.ParsePath(p)
		if err != nil {
			closeAll()
			return err
		}
		s, err := rowstream.Open(ctx, path, store, logger)
		if err != nil {
			closeAll()
			return err
		}
		streams = append(streams, s)
		schemas = append(schemas, s.Schema())
	}
	defer closeAll()

	if err := merge.RequireMatchingSchema(schemas); err != nil {
		return err
	}
	schema := schemas[0]

	key, err := keydesc.New(schema, keyField)
	if err != nil {
		return err
	}

	out, err := objio.ParsePath(outputPath)
	if err != nil {
		return err
	}
	w, err := objio.OpenWriter(ctx, out, store, 0, logger)
	if err != nil {
		return err
	}
	sink, err := gateway.OpenWriter(w, schema, gateway.DefaultWriterOptions())
	if err != nil {
		return err
	}
	wb := writebuffer.Open(sink, defaultGroupSize)

	sources := make([]merge.Source, len(streams))
	for i, s := range streams {
		sources[i] = s
	}

	mergeErr := merge.Merge(sources, key.RecordLess, wb.AppendRow)
	if mergeErr != nil {
		wb.Close()
		return mergeErr
	}
	return wb.Close()
}

const defaultGroupSize = 10000

// RowWriter is a streaming write handle for write_rows: callers append rows
// (or whole row-groups) and Close to finalize the file.
type RowWriter struct {
	buf *writebuffer.RowWriteBuffer
}

// WriteRows opens path for writing per schema and returns a RowWriter. The
// caller must call Close to flush and finalize the file.
func WriteRows(ctx context.Context, path string, schema *Schema, store storage.ExternalStorage, logger *zap.Logger, opts WriterOptions) (*RowWriter, error) {
	p, err := objio.ParsePath(path)
	if err != nil {
		return nil, err
	}
	w, err := objio.OpenWriter(ctx, p, store, opts.BlockSizeBytes, logger)
	if err != nil {
		return nil, err
	}
	sink, err := gateway.OpenWriter(w, schema, opts)
	if err != nil {
		return nil, err
	}
	return &RowWriter{buf: writebuffer.Open(sink, defaultGroupSize)}, nil
}

// AppendRow buffers one row.
func (rw *RowWriter) AppendRow(row Row) error { return rw.buf.AppendRow(row) }

// AppendRows writes rows as one row-group of their own, regardless of the
// group size. It fails if rows added by AppendRow are still pending.
func (rw *RowWriter) AppendRows(rows []Row) error { return rw.buf.AppendRowGroup(rows) }

// Close flushes any partial batch and finalizes the file.
func (rw *RowWriter) Close() error { return rw.buf.Close() }

// RowReader is a streaming read handle for read_rows: a lookahead-1 cursor
// over one Parquet file's rows, optionally restricted to a column
// projection.
type RowReader struct {
	stream *rowstream.RowStream
}

// ReadRows opens path for streaming, lookahead-1 reading. projection, if
// non-nil, restricts decoding to the named fields (matched by name against
// the file's own schema); pass nil to read every column.
func ReadRows(ctx context.Context, path string, projection *Schema, store storage.ExternalStorage, logger *zap.Logger) (*RowReader, error) {
	p, err := objio.ParsePath(path)
	if err != nil {
		return nil, err
	}
	var s *rowstream.RowStream
	if projection != nil {
		s, err = rowstream.OpenProjected(ctx, p, projection, store, logger)
	} else {
		s, err = rowstream.Open(ctx, p, store, logger)
	}
	if err != nil {
		return nil, err
	}
	return &RowReader{stream: s}, nil
}

// Schema is the schema rows from this reader are shaped by.
func (rr *RowReader) Schema() *Schema { return rr.stream.Schema() }

// Head returns the current lookahead row, or false once exhausted.
func (rr *RowReader) Head() (*Row, bool) { return rr.stream.Head() }

// Advance discards the current head and loads the next row.
func (rr *RowReader) Advance() bool { return rr.stream.Advance() }

// Take returns up to n rows starting at the current head.
func (rr *RowReader) Take(n int) []Row { return rr.stream.Take(n) }

// Drain consumes every remaining row, head included.
func (rr *RowReader) Drain() []Row { return rr.stream.Drain() }

// Err reports any decode failure encountered while advancing.
func (rr *RowReader) Err() error { return rr.stream.Err() }

// Close releases the underlying file handle.
func (rr *RowReader) Close() error { return rr.stream.Close() }

// GetMetadata returns the file-level and per-row-group metadata for path:
// schema, row counts, created-by string, and per-column min/max statistics.
func GetMetadata(ctx context.Context, path string, store storage.ExternalStorage, logger *zap.Logger) (*Metadata, error) {
	p, err := objio.ParsePath(path)
	if err != nil {
		return nil, err
	}
	r, err := objio.OpenReader(ctx, p, store, logger)
	if err != nil {
		return nil, err
	}
	src, err := gateway.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.Metadata()
}
