package table

import (
	"io"
	"log/slog"
	"math"
	"os"
	"sync/atomic"
)

// MaxMappedFileSize is the largest file OpenMapped accepts. Block offsets
// inside a mapping are addressed with 32-bit signed counts, which caps mapped
// tables at just under 2GB.
const MaxMappedFileSize = math.MaxInt32

// File is the byte source a table is decoded from.
//
// Slice returns length bytes starting at offset. Implementations backed by a
// mapping return a view into it: the slice is only valid until Close and must
// not be modified. Slice fails with ErrOutOfRange when the range does not fit
// in the file.
//
// Close releases the file exactly once; further calls return the result of
// the first one. Callers must not Close while a Slice is in flight.
type File interface {
	Size() uint64
	Slice(offset, length uint64) ([]byte, error)
	Close() error
}

func checkRange(offset, length, size uint64) error {
	if length > size || offset > size-length {
		return outOfRangeErrorf("sstable: range [%d, +%d) exceeds file size %d", offset, length, size)
	}
	return nil
}

// readerAtFile serves slices by copying out of an io.ReaderAt.
type readerAtFile struct {
	r      io.ReaderAt
	size   uint64
	closed atomic.Bool
	closer *closer
}

// OpenFile opens path for buffered positional reads instead of mapping it.
func OpenFile(path string, logger *slog.Logger) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioErrorf(err, "sstable: open %s", path)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ioErrorf(err, "sstable: stat %s", path)
	}
	return &readerAtFile{
		r:      f,
		size:   uint64(stat.Size()),
		closer: newCloser(path, nil, f, logger),
	}, nil
}

// NewReaderAtFile serves a table held by r, which must contain exactly size
// bytes. Closing the returned File does not close r.
func NewReaderAtFile(r io.ReaderAt, size uint64) File {
	return &readerAtFile{
		r:      r,
		size:   size,
		closer: newCloser("", nil, nil, nil),
	}
}

func (f *readerAtFile) Size() uint64 {
	return f.size
}

func (f *readerAtFile) Slice(offset, length uint64) ([]byte, error) {
	if f.closed.Load() {
		return nil, closedErrorf("sstable: read from closed file")
	}
	if err := checkRange(offset, length, f.size); err != nil {
		return nil, err
	}
	b := make([]byte, length)
	n, err := f.r.ReadAt(b, int64(offset))
	if n == len(b) {
		return b, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return nil, ioErrorf(err, "sstable: read %d bytes at %d", length, offset)
}

func (f *readerAtFile) Close() error {
	f.closed.Store(true)
	return f.closer.Close()
}
