package table

import (
	"bytes"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

const (
	// Inflated blocks usually land within a few multiples of their payload.
	inflateSizeFactor = 5
	// Buffers grown past this are dropped instead of pooled.
	maxPooledBufferSize = 1 << 20
	// No block decodes to more than a mapped file can hold.
	maxDecodedBlockSize = MaxMappedFileSize
)

// inflateBufPool holds growable output buffers for the zlib codecs, whose
// streams carry no decoded length. Each call takes its own buffer, so
// concurrent reads never share scratch space.
var inflateBufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// decompress decodes a block payload into a freshly allocated slice that
// never aliases payload.
func decompress(t CompressionType, payload []byte) ([]byte, error) {
	switch t {
	case NoCompression:
		data := make([]byte, len(payload))
		copy(data, payload)
		return data, nil
	case SnappyCompression:
		n, err := snappy.DecodedLen(payload)
		if err != nil {
			return nil, wrapCorruption(err, "sstable: snappy length prefix")
		}
		if n > maxDecodedBlockSize {
			return nil, corruptionErrorf("sstable: snappy block claims %d decoded bytes", n)
		}
		data, err := snappy.Decode(make([]byte, n), payload)
		if err != nil {
			return nil, wrapCorruption(err, "sstable: snappy decode")
		}
		return data, nil
	case ZlibCompression:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, wrapCorruption(err, "sstable: zlib header")
		}
		defer zr.Close()
		return inflate(zr, len(payload))
	case ZlibRawCompression:
		fr := flate.NewReader(bytes.NewReader(payload))
		defer fr.Close()
		return inflate(fr, len(payload))
	default:
		return nil, formatErrorf("sstable: unsupported compression type %d", byte(t))
	}
}

func inflate(r io.Reader, payloadLen int) ([]byte, error) {
	buf := inflateBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		if buf.Cap() <= maxPooledBufferSize {
			inflateBufPool.Put(buf)
		}
	}()

	buf.Grow(payloadLen * inflateSizeFactor)
	if _, err := buf.ReadFrom(io.LimitReader(r, maxDecodedBlockSize+1)); err != nil {
		return nil, wrapCorruption(err, "sstable: inflate")
	}
	if buf.Len() > maxDecodedBlockSize {
		return nil, corruptionErrorf("sstable: inflated block exceeds %d bytes", maxDecodedBlockSize)
	}
	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())
	return data, nil
}

// compress encodes block with codec t, appending to dst[:0].
func compress(t CompressionType, dst, block []byte) ([]byte, error) {
	switch t {
	case NoCompression:
		return append(dst[:0], block...), nil
	case SnappyCompression:
		return snappy.Encode(dst[:cap(dst)], block), nil
	case ZlibCompression:
		out := bytes.NewBuffer(dst[:0])
		zw := zlib.NewWriter(out)
		if _, err := zw.Write(block); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	case ZlibRawCompression:
		out := bytes.NewBuffer(dst[:0])
		fw, err := flate.NewWriter(out, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(block); err != nil {
			return nil, err
		}
		if err := fw.Close(); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	default:
		return nil, formatErrorf("sstable: unsupported compression type %d", byte(t))
	}
}
