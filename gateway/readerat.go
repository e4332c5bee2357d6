package gateway

import (
	"io"

	"github.com/cvkem/parquetops/objio"
)

// readerAtSeeker adapts an objio.Reader (pure ReadAt+Length) into the
// Read+Seek+ReadAt shape the codec's file.NewParquetReader requires. objio
// never needs a Seek-based cursor itself (block-cache access is purely
// offset-addressed), so this tiny stateful wrapper lives in gateway, the
// package boundary that owns codec-facing conversions.
type readerAtSeeker struct {
	r   objio.Reader
	pos int64
	len int64
}

func newReaderAtSeeker(r objio.Reader) (*readerAtSeeker, error) {
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	return &readerAtSeeker{r: r, len: n}, nil
}

func (s *readerAtSeeker) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

func (s *readerAtSeeker) Read(p []byte) (int, error) {
	if s.pos >= s.len {
		return 0, io.EOF
	}
	n, err := s.r.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}

func (s *readerAtSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = s.len + offset
	default:
		return 0, io.ErrUnexpectedEOF
	}
	if newPos < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	s.pos = newPos
	return s.pos, nil
}

func (s *readerAtSeeker) Close() error {
	return s.r.Close()
}
