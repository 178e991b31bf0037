package table

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertErrorClass(t *testing.T, err error, class error) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, class), "want %v, got %v", class, err)
	}
}

func writeTable(t *testing.T, testKVs []testKV, o *WriterOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, o)
	for _, kv := range testKVs {
		require.NoError(t, w.Add([]byte(kv.key), []byte(kv.value)))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeTableFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "000001.ldb")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

type rawBlock struct {
	payload []byte
	tag     CompressionType
}

// rawTable lays out blocks exactly as given, followed by an empty metaindex
// and index, and returns the file bytes and the handle of each block.
func rawTable(t *testing.T, blocks ...rawBlock) ([]byte, []BlockHandle) {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, &WriterOptions{Compression: NoCompression})
	var handles []BlockHandle
	for _, b := range blocks {
		bh, err := w.writeRawBlock(b.payload, b.tag)
		require.NoError(t, err)
		handles = append(handles, bh)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), handles
}

func singleEntryBlock(key, value []byte) []byte {
	bw := newBlockWriter(16)
	bw.append(key, value)
	return append([]byte(nil), bw.finish()...)
}
