package table

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"sstable_go/crc"
)

// BlockWriter accumulates prefix-compressed entries in the block layout
// described on Block.
type BlockWriter struct {
	writer          bytes.Buffer
	restartInterval int
	scratch         []byte
	restarts        []uint32

	counter int
	lastKey []byte
}

func newBlockWriter(restartInterval int) *BlockWriter {
	return &BlockWriter{
		restartInterval: restartInterval,
		restarts:        []uint32{0},
		scratch:         make([]byte, binary.MaxVarintLen64),
	}
}

func (w *BlockWriter) append(key, value []byte) {
	shared := 0
	if w.counter < w.restartInterval {
		for len(key) > shared && len(w.lastKey) > shared && key[shared] == w.lastKey[shared] {
			shared++
		}
	} else {
		w.restarts = append(w.restarts, uint32(w.writer.Len()))
		w.counter = 0
	}
	nonshared := len(key) - shared
	n := binary.PutUvarint(w.scratch, uint64(shared))
	w.writer.Write(w.scratch[:n])
	n = binary.PutUvarint(w.scratch, uint64(nonshared))
	w.writer.Write(w.scratch[:n])
	n = binary.PutUvarint(w.scratch, uint64(len(value)))
	w.writer.Write(w.scratch[:n])

	w.writer.Write(key[shared:])
	w.writer.Write(value)

	w.lastKey = append(w.lastKey[:0], key...)
	w.counter++
}

func (w *BlockWriter) finish() []byte {
	for _, idx := range w.restarts {
		binary.LittleEndian.PutUint32(w.scratch, idx)
		w.writer.Write(w.scratch[:4])
	}
	binary.LittleEndian.PutUint32(w.scratch, uint32(len(w.restarts)))
	w.writer.Write(w.scratch[:4])
	return w.writer.Bytes()
}

func (w *BlockWriter) reset() {
	w.writer.Reset()
	w.restarts = w.restarts[:1]
	w.lastKey = w.lastKey[:0]
	w.counter = 0
}

func (w *BlockWriter) estimatedSize() int {
	return w.writer.Len() + 4*(len(w.restarts)+1)
}

func (w *BlockWriter) Empty() bool {
	return w.writer.Len() == 0
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	BlockSize       int
	RestartInterval int
	Compression     CompressionType
	// ForceCompression keeps compressed payloads even when they do not
	// shrink the block.
	ForceCompression bool
}

// Writer builds table files in the format Reader decodes. Keys must be
// added in increasing order.
type Writer struct {
	writer      *countingWriter
	dst         io.Writer
	blockWriter *BlockWriter
	indexWriter *BlockWriter
	opts        WriterOptions

	pendingBH  BlockHandle
	pendingKey []byte
	hasPending bool

	compressBuf []byte
	buf         []byte
}

// NewWriter returns a Writer emitting to w. A nil o writes snappy
// compressed 4KB blocks.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	opts := WriterOptions{
		BlockSize:       TableMaxBlockSize,
		RestartInterval: 16,
		Compression:     SnappyCompression,
	}
	if o != nil {
		opts = *o
		if opts.BlockSize <= 0 {
			opts.BlockSize = TableMaxBlockSize
		}
		if opts.RestartInterval <= 0 {
			opts.RestartInterval = 16
		}
	}
	return &Writer{
		writer:      &countingWriter{w: bufio.NewWriter(w)},
		dst:         w,
		blockWriter: newBlockWriter(opts.RestartInterval),
		indexWriter: newBlockWriter(1),
		opts:        opts,
		buf:         make([]byte, BlockHandleMaxLen),
	}
}

func (w *Writer) Add(key, value []byte) error {
	w.blockWriter.append(key, value)

	if w.blockWriter.estimatedSize() >= w.opts.BlockSize {
		return w.finishDataBlock()
	}
	return nil
}

func (w *Writer) finishDataBlock() error {
	if w.blockWriter.Empty() {
		return nil
	}
	data := w.blockWriter.finish()
	w.writePendingBH()
	bh, err := w.writeBlock(data, w.opts.Compression)
	if err != nil {
		return err
	}

	w.pendingBH = bh
	w.pendingKey = append(w.pendingKey[:0], w.blockWriter.lastKey...)
	w.hasPending = true
	w.blockWriter.reset()
	return nil
}

func (w *Writer) writePendingBH() {
	if w.hasPending {
		n := encodeBlockHandle(w.buf, w.pendingBH)
		w.indexWriter.append(w.pendingKey, w.buf[:n])
		w.hasPending = false
	}
}

func (w *Writer) writeBlock(block []byte, compression CompressionType) (BlockHandle, error) {
	data := block
	tag := NoCompression
	if compression != NoCompression {
		compressed, err := compress(compression, w.compressBuf, block)
		if err != nil {
			return BlockHandle{}, err
		}
		w.compressBuf = compressed
		if w.opts.ForceCompression || len(compressed) < len(block)-len(block)/8 {
			data = compressed
			tag = compression
		}
	}
	return w.writeRawBlock(data, tag)
}

func (w *Writer) writeRawBlock(data []byte, tag CompressionType) (BlockHandle, error) {
	offset := w.writer.n
	var trailer [BlockTrailerLen]byte
	trailer[0] = byte(tag)
	binary.LittleEndian.PutUint32(trailer[1:], crc.New(data).Update(trailer[:1]).Value())

	if _, err := w.writer.Write(data); err != nil {
		return BlockHandle{}, err
	}
	if _, err := w.writer.Write(trailer[:]); err != nil {
		return BlockHandle{}, err
	}
	return BlockHandle{
		Offset: offset,
		Size:   uint64(len(data)),
	}, nil
}

// Close writes the metaindex, index and footer, flushes, and closes the
// destination if it is an io.Closer.
func (w *Writer) Close() error {
	if err := w.finishDataBlock(); err != nil {
		return err
	}
	// the block writer is empty now and doubles as the metaindex
	metaIndexHandle, err := w.writeBlock(w.blockWriter.finish(), w.opts.Compression)
	if err != nil {
		return err
	}

	w.writePendingBH()
	indexHandle, err := w.writeBlock(w.indexWriter.finish(), w.opts.Compression)
	if err != nil {
		return err
	}

	footer := Footer{MetaIndex: metaIndexHandle, Index: indexHandle}
	if _, err := w.writer.Write(footer.Encode()); err != nil {
		return err
	}
	if err := w.writer.w.Flush(); err != nil {
		return err
	}
	if c, ok := w.dst.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type countingWriter struct {
	w *bufio.Writer
	n uint64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	written, err := w.w.Write(p)
	w.n += uint64(written)
	return written, err
}
