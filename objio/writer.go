package objio

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"

	"github.com/cvkem/parquetops/errs"
)

// Writer is the append-only write capability ObjectIO exposes. It also
// satisfies io.Writer so it can be handed directly to the Parquet codec's
// writer constructor, the same adapter shape the teacher's writeWrapper
// used for its generator.
type Writer interface {
	Write(p []byte) (int, error)
	Close() error
}

// OpenWriter opens path for append-only writing, dispatching to the local
// or object-store backend.
func OpenWriter(ctx context.Context, path Path, store storage.ExternalStorage, blockSize int, logger *zap.Logger) (Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	if !path.IsObjectStore {
		return newLocalWriter(path.Raw)
	}

	if store == nil {
		return nil, &errs.Internal{Detail: "object-store path opened without a configured backend"}
	}

	inner, err := store.Create(ctx, path.Key, &storage.WriterOption{Concurrency: 8})
	if err != nil {
		return nil, &errs.Open{Path: path.Raw, Cause: errors.Trace(err)}
	}

	return &objectWriter{
		ctx:    ctx,
		inner:  inner,
		block:  blockSize,
		logger: logger,
	}, nil
}

// objectWriter passes each Write straight to the storage backend's file
// writer, which manages the multipart upload itself; it does no buffering
// of its own, and the block size it stores does not decide when data is
// flushed. A failed write or close must not leave an orphaned multipart upload, so
// any failure aborts by propagating the error without a further flush
// attempt — the caller is expected to delete the partial object per the
// error-handling design's "partial outputs on failure are invalid".
type objectWriter struct {
	ctx    context.Context
	inner  storage.ExternalFileWriter
	block  int
	logger *zap.Logger
	sent   int64
	failed bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.failed {
		return 0, &errs.Io{Op: "write", Cause: errors.New("writer previously failed")}
	}
	n, err := w.inner.Write(w.ctx, p)
	if err != nil {
		w.failed = true
		return n, &errs.Io{Op: "write", Cause: errors.Trace(err)}
	}
	w.sent += int64(n)
	return n, nil
}

func (w *objectWriter) Close() error {
	if w.failed {
		return &errs.Io{Op: "close", Cause: errors.New("aborting close after prior write failure")}
	}
	if err := w.inner.Close(w.ctx); err != nil {
		return &errs.Io{Op: "close", Cause: errors.Trace(err)}
	}
	w.logger.Debug("closed object-store writer", zap.Int64("bytes", w.sent))
	return nil
}
