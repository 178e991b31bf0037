package table

import (
	"log/slog"
	"math"
	"sync"

	"sstable_go/crc"
	"sstable_go/util"
)

// Reader decodes blocks from one immutable table file.
//
// ReadBlock may be called from many goroutines at once. Close waits for
// in-flight reads and makes every later read fail with ErrClosed.
type Reader struct {
	file           File
	name           string
	verifyChecksum bool
	cmp            util.Comparator
	logger         *slog.Logger
	metrics        *Metrics

	footer     Footer
	indexBlock *Block

	mu     sync.RWMutex
	closed bool
}

// Open opens the table at path with the file access strategy named in o.
// A nil o uses DefaultOptions.
func Open(path string, o *Options) (*Reader, error) {
	o = o.orDefault()
	if err := o.Validate(); err != nil {
		return nil, err
	}

	var (
		f   File
		err error
	)
	switch o.FileAccess {
	case FileAccessPread:
		f, err = OpenFile(path, o.Logger)
	default:
		f, err = OpenMapped(path, o.Logger)
	}
	if err != nil {
		return nil, err
	}

	r, err := newReader(f, path, o)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewReader decodes the table held by f. On success the Reader owns f and
// closes it; on failure f is left open.
func NewReader(f File, o *Options) (*Reader, error) {
	o = o.orDefault()
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return newReader(f, "", o)
}

func newReader(f File, name string, o *Options) (*Reader, error) {
	r := &Reader{
		file:           f,
		name:           name,
		verifyChecksum: !o.DisableChecksums,
		cmp:            o.Comparator,
		logger:         loggerOrDiscard(o.Logger),
		metrics:        o.Metrics,
	}
	if r.cmp == nil {
		r.cmp = util.BytewiseComparator
	}

	size := f.Size()
	if size < FooterLen {
		return nil, formatErrorf("sstable: file of %d bytes is too small for a table", size)
	}
	buf, err := f.Slice(size-FooterLen, FooterLen)
	if err != nil {
		return nil, err
	}
	r.footer, err = DecodeFooter(buf)
	if err != nil {
		return nil, err
	}

	r.indexBlock, err = r.ReadBlock(r.footer.Index)
	if err != nil {
		return nil, err
	}

	r.metrics.tableOpened()
	r.logger.Debug("sstable: opened table", "table", name, "size", size,
		"index", r.footer.Index.String(), "metaindex", r.footer.MetaIndex.String())
	return r, nil
}

// Footer returns the handles decoded from the table footer.
func (r *Reader) Footer() Footer {
	return r.footer
}

// Size returns the length of the table file in bytes.
func (r *Reader) Size() uint64 {
	return r.file.Size()
}

// IndexBlock returns the decoded index block read at open time.
func (r *Reader) IndexBlock() *Block {
	return r.indexBlock
}

// MetaIndex reads the metaindex block.
func (r *Reader) MetaIndex() (*Block, error) {
	return r.ReadBlock(r.footer.MetaIndex)
}

// ReadBlock reads, verifies and decompresses the block at bh. The returned
// block owns its bytes and may outlive the Reader.
func (r *Reader) ReadBlock(bh BlockHandle) (*Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, closedErrorf("sstable: read block %s from closed table %s", bh, r.name)
	}

	b, err := r.readBlock(bh)
	if err != nil {
		r.metrics.readFailed(errorKind(err))
		return nil, err
	}
	return b, nil
}

func (r *Reader) readBlock(bh BlockHandle) (*Block, error) {
	size := r.file.Size()
	if bh.Size > math.MaxUint64-BlockTrailerLen || bh.Offset > math.MaxUint64-BlockTrailerLen-bh.Size ||
		bh.Offset+bh.Size+BlockTrailerLen > size {
		return nil, outOfRangeErrorf("sstable: block %s with trailer exceeds file size %d", bh, size)
	}

	raw, err := r.file.Slice(bh.Offset, bh.Size+BlockTrailerLen)
	if err != nil {
		return nil, err
	}
	trailer, err := DecodeBlockTrailer(raw[bh.Size:])
	if err != nil {
		return nil, err
	}

	if r.verifyChecksum {
		// the checksum covers the payload and the compression tag
		actual := crc.New(raw[:bh.Size+1]).Value()
		if actual != trailer.Checksum {
			r.logger.Warn("sstable: block checksum mismatch", "table", r.name,
				"offset", bh.Offset, "size", bh.Size,
				"stored", trailer.Checksum, "computed", actual)
			return nil, corruptionErrorf("sstable: checksum mismatch in block %s: stored %#08x, computed %#08x",
				bh, trailer.Checksum, actual)
		}
	}

	data, err := decompress(trailer.Compression, raw[:bh.Size])
	if err != nil {
		return nil, err
	}
	r.metrics.blockRead(trailer.Compression, len(data))
	return NewBlock(data, r.cmp)
}

// Iterator returns a two-level iterator over every entry in the table.
func (r *Reader) Iterator() *TableIter {
	return &TableIter{
		r:         r,
		indexIter: r.indexBlock.Iterator(),
		cmp:       r.cmp,
	}
}

// Get returns a copy of the value stored under key, or ErrNotFound.
func (r *Reader) Get(key []byte) ([]byte, error) {
	it := r.Iterator()
	if !it.Seek(key) {
		if err := it.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	if r.cmp.Compare(it.Key(), key) != 0 {
		return nil, ErrNotFound
	}
	return append([]byte(nil), it.Value()...), nil
}

// GetIKey looks up the newest entry for the user key of ikey visible at its
// sequence number, in a table whose keys are util.IKey. Deletion markers
// report ErrNotFound.
func (r *Reader) GetIKey(ikey util.IKey) ([]byte, error) {
	it := r.Iterator()
	if !it.Seek(ikey) {
		if err := it.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	found := util.IKey(it.Key())
	if !found.Valid() || found.KeyType() == util.IKeyTypeDelete ||
		string(found.Key()) != string(ikey.Key()) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), it.Value()...), nil
}

// Close releases the file. It is safe to call more than once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.metrics.tableClosed()
	return r.file.Close()
}

// blockHandleFromValue decodes an index entry value.
func blockHandleFromValue(v []byte) (BlockHandle, error) {
	bh, n := DecodeBlockHandle(v)
	if n == 0 {
		return BlockHandle{}, formatErrorf("sstable: invalid block handle %x in index", v)
	}
	return bh, nil
}
