package objio

import (
	"bufio"
	"os"

	"github.com/cvkem/parquetops/errs"
)

// localWriter is a buffered os.File writer, per the local ObjectIO backend.
type localWriter struct {
	f *os.File
	w *bufio.Writer
}

func newLocalWriter(path string) (*localWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &errs.Open{Path: path, Cause: err}
	}
	return &localWriter{f: f, w: bufio.NewWriterSize(f, DefaultBlockSize)}, nil
}

func (w *localWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil {
		return n, &errs.Io{Op: "write", Cause: err}
	}
	return n, nil
}

func (w *localWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		return &errs.Io{Op: "flush", Cause: err}
	}
	if err := w.f.Close(); err != nil {
		return &errs.Io{Op: "close", Cause: err}
	}
	return nil
}
