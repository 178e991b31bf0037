package table

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openFunc func(t *testing.T, data []byte) File

var fileOpeners = map[string]openFunc{
	"mmap": func(t *testing.T, data []byte) File {
		f, err := OpenMapped(writeTableFile(t, data), nil)
		require.NoError(t, err)
		return f
	},
	"pread": func(t *testing.T, data []byte) File {
		f, err := OpenFile(writeTableFile(t, data), nil)
		require.NoError(t, err)
		return f
	},
	"readerat": func(t *testing.T, data []byte) File {
		return NewReaderAtFile(bytes.NewReader(data), uint64(len(data)))
	},
	"bytes": func(t *testing.T, data []byte) File {
		return NewBytesFile(data)
	},
}

func TestFileSlice(t *testing.T) {
	data := []byte("0123456789abcdef")
	for name, open := range fileOpeners {
		t.Run(name, func(t *testing.T) {
			f := open(t, data)
			assert.Equal(t, uint64(len(data)), f.Size())

			b, err := f.Slice(4, 6)
			require.NoError(t, err)
			assert.Equal(t, "456789", string(b))

			b, err = f.Slice(0, uint64(len(data)))
			require.NoError(t, err)
			assert.Equal(t, data, b)

			b, err = f.Slice(uint64(len(data)), 0)
			require.NoError(t, err)
			assert.Empty(t, b)

			_, err = f.Slice(10, 7)
			assertErrorClass(t, err, ErrOutOfRange)
			_, err = f.Slice(17, 0)
			assertErrorClass(t, err, ErrOutOfRange)
			_, err = f.Slice(^uint64(0), 2)
			assertErrorClass(t, err, ErrOutOfRange)

			require.NoError(t, f.Close())
			require.NoError(t, f.Close())
			_, err = f.Slice(0, 1)
			assertErrorClass(t, err, ErrClosed)
		})
	}
}

func TestOpenMappedEmptyFile(t *testing.T) {
	f, err := OpenMapped(writeTableFile(t, nil), nil)
	require.NoError(t, err)
	assert.Zero(t, f.Size())
	_, err = f.Slice(0, 1)
	assertErrorClass(t, err, ErrOutOfRange)
	assert.NoError(t, f.Close())
}

func TestOpenMappedMissingFile(t *testing.T) {
	_, err := OpenMapped(filepath.Join(t.TempDir(), "missing.ldb"), nil)
	assertErrorClass(t, err, ErrIO)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.ldb"), nil)
	assertErrorClass(t, err, ErrIO)
}

func TestOpenMappedRejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.ldb")
	f, err := os.Create(path)
	require.NoError(t, err)
	// sparse, so no disk space is used
	require.NoError(t, f.Truncate(MaxMappedFileSize+1))
	require.NoError(t, f.Close())

	_, err = OpenMapped(path, nil)
	assertErrorClass(t, err, ErrIO)
	assert.Contains(t, err.Error(), "mapping limit")
}

func TestMappedFileConcurrentClose(t *testing.T) {
	f, err := OpenMapped(writeTableFile(t, []byte("data")), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.Close())
		}()
	}
	wg.Wait()
}
