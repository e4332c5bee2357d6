// Package rowstream provides a lookahead-1 cursor over a Parquet file's
// rows, the same shape the original prototype's RowIterExt built on top of
// the codec's row iterator: a "head" row that is always either the next row
// to be consumed or the terminal/exhausted marker, advanced one row-group
// worth of decoding at a time underneath.
package rowstream

import (
	"context"
	stderrors "errors"

	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"

	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/gateway"
	"github.com/cvkem/parquetops/objio"
	"github.com/cvkem/parquetops/pqschema"
)

// RowStream exposes head/advance/take/drain over one Parquet source.
type RowStream struct {
	ctx    context.Context
	source *gateway.FileSource
	schema *pqschema.Schema

	buf      []pqschema.Row
	bufPos   int
	rowGroup int

	head      *pqschema.Row
	exhausted bool
	err       error
}

// Open resolves path and opens a RowStream positioned at its first row, or
// already exhausted if the file contains zero rows. Every column of the
// file's schema is decoded; see OpenProjected to read only a subset.
func Open(ctx context.Context, path objio.Path, store storage.ExternalStorage, logger *zap.Logger) (*RowStream, error) {
	r, err := objio.OpenReader(ctx, path, store, logger)
	if err != nil {
		return nil, err
	}

	source, err := gateway.OpenReader(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return fromSource(ctx, source)
}

// OpenProjected is like Open, but only materializes the columns named in
// projection, driving the gateway's open_reader_projected instead of its
// full-row reader. Used by the external sort's phase-1 key sampling, which
// otherwise would decode and discard every non-key column of a multi-GB
// input just to read 1,000 keys.
func OpenProjected(ctx context.Context, path objio.Path, projection *pqschema.Schema, store storage.ExternalStorage, logger *zap.Logger) (*RowStream, error) {
	r, err := objio.OpenReader(ctx, path, store, logger)
	if err != nil {
		return nil, err
	}

	source, err := gateway.OpenReaderProjected(r, projection)
	if err != nil {
		r.Close()
		return nil, err
	}
	return fromSource(ctx, source)
}

func fromSource(ctx context.Context, source *gateway.FileSource) (*RowStream, error) {
	s := &RowStream{ctx: ctx, source: source, schema: source.Schema()}
	if err := s.fill(); err != nil {
		var exhausted *errs.Exhausted
		if !stderrors.As(err, &exhausted) {
			source.Close()
			return nil, err
		}
	}
	s.advanceHead()
	return s, nil
}

// Schema is the schema of the rows this stream yields: the file's own schema
// for Open, or the projection for OpenProjected.
func (s *RowStream) Schema() *pqschema.Schema { return s.schema }

// Head returns the current lookahead row and whether the stream is not yet
// exhausted. Calling Head on an exhausted stream returns (nil, false).
func (s *RowStream) Head() (*pqschema.Row, bool) {
	if s.exhausted {
		return nil, false
	}
	return s.head, true
}

// Advance discards the current head and loads the next row, returning false
// once the stream becomes exhausted (mirroring update_head's bool result).
func (s *RowStream) Advance() bool {
	s.advanceHead()
	return !s.exhausted
}

// Take returns up to n rows starting at the current head, advancing the
// stream by the number of rows actually returned. A short read (fewer than
// n rows) means the stream is exhausted after the call.
func (s *RowStream) Take(n int) []pqschema.Row {
	out := make([]pqschema.Row, 0, n)
	for len(out) < n && !s.exhausted {
		out = append(out, *s.head)
		s.advanceHead()
	}
	return out
}

// Drain consumes every remaining row, head included.
func (s *RowStream) Drain() []pqschema.Row {
	var out []pqschema.Row
	for !s.exhausted {
		out = append(out, *s.head)
		s.advanceHead()
	}
	return out
}

// Close releases the underlying file handle.
func (s *RowStream) Close() error {
	return s.source.Close()
}

// Err reports the first decode error encountered while advancing, if the
// stream became exhausted because of a failure rather than reaching the
// natural end of the file.
func (s *RowStream) Err() error { return s.err }

func (s *RowStream) advanceHead() {
	if s.bufPos >= len(s.buf) {
		if err := s.fill(); err != nil || len(s.buf) == 0 {
			if err != nil {
				var exhausted *errs.Exhausted
				if !stderrors.As(err, &exhausted) {
					s.err = err
				}
			}
			s.exhausted = true
			s.head = nil
			return
		}
	}
	row := s.buf[s.bufPos]
	s.head = &row
	s.bufPos++
}

// fill loads the next non-empty row group into buf, or leaves buf empty
// once every row group has been consumed.
func (s *RowStream) fill() error {
	for s.rowGroup < s.source.NumRowGroups() {
		rows, err := s.source.ReadRowGroup(s.ctx, s.rowGroup)
		s.rowGroup++
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			s.buf = rows
			s.bufPos = 0
			return nil
		}
	}
	s.buf = nil
	s.bufPos = 0
	return &errs.Exhausted{}
}
