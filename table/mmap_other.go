//go:build !unix

package table

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/exp/mmap"
)

// mmapFile maps a table through golang.org/x/exp/mmap. That package does not
// expose the mapped bytes, so slices are copies.
type mmapFile struct {
	r      *mmap.ReaderAt
	closed atomic.Bool
	closer *closer
}

// OpenMapped maps the file at path read-only in its entirety. Files larger
// than MaxMappedFileSize are rejected.
func OpenMapped(path string, logger *slog.Logger) (File, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, ioErrorf(err, "sstable: mmap %s", path)
	}
	if r.Len() > MaxMappedFileSize {
		r.Close()
		return nil, ioErrorf(nil, "sstable: %s is %d bytes, over the %d byte mapping limit", path, r.Len(), MaxMappedFileSize)
	}
	return &mmapFile{
		r:      r,
		closer: newCloser(path, r.Close, nil, logger),
	}, nil
}

func (m *mmapFile) Size() uint64 {
	return uint64(m.r.Len())
}

func (m *mmapFile) Slice(offset, length uint64) ([]byte, error) {
	if m.closed.Load() {
		return nil, closedErrorf("sstable: read from closed file")
	}
	if err := checkRange(offset, length, m.Size()); err != nil {
		return nil, err
	}
	b := make([]byte, length)
	if _, err := m.r.ReadAt(b, int64(offset)); err != nil {
		return nil, ioErrorf(err, "sstable: read %d bytes at %d", length, offset)
	}
	return b, nil
}

func (m *mmapFile) Close() error {
	m.closed.Store(true)
	return m.closer.Close()
}
