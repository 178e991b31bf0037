//go:build unix

package table

import (
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// mmapFile is a read-only mapping of an entire table file. Slices are views
// into the mapping.
type mmapFile struct {
	data   []byte
	closed atomic.Bool
	closer *closer
}

// OpenMapped maps the file at path read-only in its entirety. Files larger
// than MaxMappedFileSize are rejected.
func OpenMapped(path string, logger *slog.Logger) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioErrorf(err, "sstable: open %s", path)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ioErrorf(err, "sstable: stat %s", path)
	}
	size := stat.Size()
	if size > MaxMappedFileSize {
		f.Close()
		return nil, ioErrorf(nil, "sstable: %s is %d bytes, over the %d byte mapping limit", path, size, MaxMappedFileSize)
	}

	m := &mmapFile{}
	// mmap rejects zero-length mappings; an empty file gets an empty view.
	if size > 0 {
		m.data, err = unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			f.Close()
			return nil, ioErrorf(err, "sstable: mmap %s", path)
		}
		// Block reads jump around the file; readahead mostly wastes page cache.
		_ = unix.Madvise(m.data, unix.MADV_RANDOM)
	}
	m.closer = newCloser(path, m.unmap, f, logger)
	return m, nil
}

func (m *mmapFile) Size() uint64 {
	return uint64(len(m.data))
}

func (m *mmapFile) Slice(offset, length uint64) ([]byte, error) {
	if m.closed.Load() {
		return nil, closedErrorf("sstable: read from closed file")
	}
	if err := checkRange(offset, length, m.Size()); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length : offset+length], nil
}

func (m *mmapFile) unmap() error {
	if m.data == nil {
		return nil
	}
	return unix.Munmap(m.data)
}

func (m *mmapFile) Close() error {
	m.closed.Store(true)
	return m.closer.Close()
}
