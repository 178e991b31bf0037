package table

import "sync/atomic"

// bytesFile serves a table that already lives in memory.
type bytesFile struct {
	bytes  []byte
	closed atomic.Bool
}

// NewBytesFile returns a File over b. Slices alias b, so b must not be
// modified while the table is open.
func NewBytesFile(b []byte) File {
	return &bytesFile{
		bytes: b,
	}
}

func (f *bytesFile) Size() uint64 {
	return uint64(len(f.bytes))
}

func (f *bytesFile) Slice(offset, length uint64) ([]byte, error) {
	if f.closed.Load() {
		return nil, closedErrorf("sstable: read from closed file")
	}
	if err := checkRange(offset, length, f.Size()); err != nil {
		return nil, err
	}
	return f.bytes[offset : offset+length : offset+length], nil
}

func (f *bytesFile) Close() error {
	f.closed.Store(true)
	return nil
}
