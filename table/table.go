package table

import (
	"encoding/binary"
	"fmt"
)

const (
	magic = "\x57\xfb\x80\x8b\x24\x75\x47\xdb"

	// MagicLen is the length of the magic number closing every table.
	MagicLen = 8
	// BlockHandleMaxLen is the longest encoding of a BlockHandle.
	BlockHandleMaxLen = 2 * binary.MaxVarintLen64
	// FooterLen is the fixed size of the footer at the end of the file.
	FooterLen = 2*BlockHandleMaxLen + MagicLen
	// BlockTrailerLen is the size of the compression tag plus checksum
	// following every block payload.
	BlockTrailerLen = 5

	// TableMaxBlockSize is the default uncompressed size of a data block.
	TableMaxBlockSize = 4096
)

// CompressionType is the tag stored in a block trailer.
type CompressionType byte

const (
	// NoCompression stores the payload as is.
	NoCompression CompressionType = 0x00
	// SnappyCompression is a snappy block with its length prefix.
	SnappyCompression CompressionType = 0x01
	// ZlibCompression is a zlib stream with header and adler32 checksum.
	ZlibCompression CompressionType = 0x02
	// ZlibRawCompression is a raw deflate stream.
	ZlibRawCompression CompressionType = 0x03
)

func (c CompressionType) String() string {
	switch c {
	case NoCompression:
		return "none"
	case SnappyCompression:
		return "snappy"
	case ZlibCompression:
		return "zlib"
	case ZlibRawCompression:
		return "zlib_raw"
	default:
		return fmt.Sprintf("unknown(%d)", byte(c))
	}
}

// BlockHandle locates the payload of a block: the bytes
// [Offset, Offset+Size). The block trailer follows immediately.
type BlockHandle struct {
	Offset uint64
	Size   uint64
}

func (h BlockHandle) String() string {
	return fmt.Sprintf("{offset:%d size:%d}", h.Offset, h.Size)
}

// DecodeBlockHandle reads a handle from the front of buf. It returns the
// number of bytes consumed, or 0 when buf does not hold a valid handle.
func DecodeBlockHandle(buf []byte) (BlockHandle, int) {
	offset, n := binary.Uvarint(buf)
	if n <= 0 {
		return BlockHandle{}, 0
	}
	size, m := binary.Uvarint(buf[n:])
	if m <= 0 {
		return BlockHandle{}, 0
	}
	return BlockHandle{
		Offset: offset,
		Size:   size,
	}, n + m
}

func encodeBlockHandle(buf []byte, bh BlockHandle) int {
	n := binary.PutUvarint(buf, bh.Offset)
	n += binary.PutUvarint(buf[n:], bh.Size)
	return n
}

// Footer is the fixed-size record closing a table file.
type Footer struct {
	MetaIndex BlockHandle
	Index     BlockHandle
}

// DecodeFooter parses the last FooterLen bytes of a table. The magic number
// is checked before anything else.
func DecodeFooter(buf []byte) (Footer, error) {
	if len(buf) != FooterLen {
		return Footer{}, formatErrorf("sstable: footer is %d bytes, want %d", len(buf), FooterLen)
	}
	if string(buf[FooterLen-MagicLen:]) != magic {
		return Footer{}, formatErrorf("sstable: bad magic number %x", buf[FooterLen-MagicLen:])
	}

	handles := buf[:FooterLen-MagicLen]
	meta, n := DecodeBlockHandle(handles)
	if n == 0 {
		return Footer{}, formatErrorf("sstable: invalid metaindex handle in footer")
	}
	index, m := DecodeBlockHandle(handles[n:])
	if m == 0 {
		return Footer{}, formatErrorf("sstable: invalid index handle in footer")
	}
	return Footer{
		MetaIndex: meta,
		Index:     index,
	}, nil
}

// Encode returns the FooterLen byte encoding of f.
func (f Footer) Encode() []byte {
	buf := make([]byte, FooterLen)
	n := encodeBlockHandle(buf, f.MetaIndex)
	encodeBlockHandle(buf[n:], f.Index)
	copy(buf[FooterLen-MagicLen:], magic)
	return buf
}

// BlockTrailer is the compression tag and masked CRC-32C stored after a
// block payload. The checksum covers the payload and the tag byte.
type BlockTrailer struct {
	Compression CompressionType
	Checksum    uint32
}

func DecodeBlockTrailer(buf []byte) (BlockTrailer, error) {
	if len(buf) != BlockTrailerLen {
		return BlockTrailer{}, formatErrorf("sstable: block trailer is %d bytes, want %d", len(buf), BlockTrailerLen)
	}
	return BlockTrailer{
		Compression: CompressionType(buf[0]),
		Checksum:    binary.LittleEndian.Uint32(buf[1:]),
	}, nil
}
