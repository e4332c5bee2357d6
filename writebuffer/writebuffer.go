// Package writebuffer batches appended rows into row-groups and hands them
// off to a single background writer goroutine through a bounded channel,
// grounded directly on the original prototype's RowWriteBuffer: a
// capacity-2 synchronous channel so a slow writer applies backpressure to
// the producer after two row-groups are in flight, and a close sequence
// that flushes any partial group before joining the writer goroutine.
package writebuffer

import (
	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/gateway"
	"github.com/cvkem/parquetops/pqschema"
)

const channelCapacity = 2

// RowWriteBuffer accumulates rows up to groupSize before handing a
// row-group off to the writer goroutine.
type RowWriteBuffer struct {
	groupSize int
	buf       []pqschema.Row

	groups chan []pqschema.Row
	done   chan error

	closed bool
}

// Open starts the background writer goroutine over sink, which AppendGroup
// and Close will be called on as row-groups complete. The caller retains
// ownership of sink's lifecycle only indirectly: Close on the returned
// RowWriteBuffer is what finalizes and closes sink.
func Open(sink *gateway.RowGroupSink, groupSize int) *RowWriteBuffer {
	w := &RowWriteBuffer{
		groupSize: groupSize,
		buf:       make([]pqschema.Row, 0, groupSize),
		groups:    make(chan []pqschema.Row, channelCapacity),
		done:      make(chan error, 1),
	}

	go func() {
		var firstErr error
		for rows := range w.groups {
			if firstErr != nil {
				continue
			}
			if err := sink.AppendGroup(rows); err != nil {
				firstErr = err
			}
		}
		if firstErr == nil {
			firstErr = sink.Close()
		} else {
			sink.Close()
		}
		w.done <- firstErr
	}()

	return w
}

// AppendRow buffers one row, flushing a full row-group to the writer
// goroutine once groupSize rows have accumulated.
func (w *RowWriteBuffer) AppendRow(row pqschema.Row) error {
	if w.closed {
		return &errs.ClosedWriter{}
	}
	w.buf = append(w.buf, row)
	if len(w.buf) == w.groupSize {
		return w.Flush()
	}
	return nil
}

// AppendRowGroup hands rows to the writer goroutine as a single atomic
// row-group, bypassing groupSize batching entirely. The buffer must be
// empty when this is called — it replaces the buffer with rows and flushes
// immediately, for batch callers (sort/merge) that have already produced a
// whole group themselves.
func (w *RowWriteBuffer) AppendRowGroup(rows []pqschema.Row) error {
	if w.closed {
		return &errs.ClosedWriter{}
	}
	if len(w.buf) != 0 {
		return &errs.Internal{Detail: "AppendRowGroup called with a non-empty pending buffer"}
	}
	if len(rows) == 0 {
		return nil
	}
	w.groups <- rows
	return nil
}

// Flush hands the current partial buffer off to the writer goroutine
// immediately, regardless of whether it has reached groupSize.
func (w *RowWriteBuffer) Flush() error {
	if w.closed {
		return &errs.ClosedWriter{}
	}
	rows := w.buf
	w.buf = make([]pqschema.Row, 0, w.groupSize)
	w.groups <- rows
	return nil
}

// Close flushes any partial buffer, closes the channel to the writer
// goroutine, and blocks until it has drained and finalized the file — the
// join must happen even if rows were appended right up to close, and even
// on an early return, to guarantee the footer is always written.
func (w *RowWriteBuffer) Close() error {
	if w.closed {
		return &errs.ClosedWriter{}
	}
	w.closed = true

	if len(w.buf) > 0 {
		w.groups <- w.buf
		w.buf = nil
	}
	close(w.groups)
	return <-w.done
}
