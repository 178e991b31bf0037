package table

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sstable_go/util"
)

func TestTableIterate(t *testing.T) {
	testKVs := numberedKVs(1000)
	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			data := writeTable(t, testKVs, &WriterOptions{BlockSize: 256, Compression: codec})
			r := openReader(t, "mmap", data, nil)

			it := r.Iterator()
			i := 0
			for ; it.Next(); i++ {
				assert.Equal(t, testKVs[i].key, string(it.Key()))
				assert.Equal(t, testKVs[i].value, string(it.Value()))
			}
			require.NoError(t, it.Err())
			assert.Equal(t, len(testKVs), i)
			assert.False(t, it.Next())

			require.True(t, it.First())
			assert.Equal(t, testKVs[0].key, string(it.Key()))
		})
	}
}

func TestTableSeek(t *testing.T) {
	testKVs := numberedKVs(500)
	data := writeTable(t, testKVs, &WriterOptions{BlockSize: 200})
	r := openReader(t, "pread", data, nil)

	it := r.Iterator()
	for i := len(testKVs) - 1; i >= 0; i-- {
		require.True(t, it.Seek([]byte(testKVs[i].key)))
		assert.Equal(t, testKVs[i].key, string(it.Key()))
		assert.Equal(t, testKVs[i].value, string(it.Value()))
	}

	// between keys, including across block boundaries
	for i := 0; i < len(testKVs)-1; i++ {
		require.True(t, it.Seek([]byte(testKVs[i].key+"~")))
		assert.Equal(t, testKVs[i+1].key, string(it.Key()))
	}

	assert.False(t, it.Seek([]byte("zzz")))
	assert.NoError(t, it.Err())

	require.True(t, it.Seek([]byte("key250")))
	for i := 250; i < 260; i++ {
		assert.Equal(t, testKVs[i].key, string(it.Key()))
		it.Next()
	}
}

func TestTableGet(t *testing.T) {
	testKVs := numberedKVs(300)
	data := writeTable(t, testKVs, &WriterOptions{BlockSize: 128})
	r := openReader(t, "bytes", data, nil)

	for _, kv := range testKVs {
		v, err := r.Get([]byte(kv.key))
		require.NoError(t, err)
		assert.Equal(t, kv.value, string(v))
	}

	for _, missing := range []string{"", "key", "key0005", "zzz"} {
		_, err := r.Get([]byte(missing))
		assert.True(t, errors.Is(err, ErrNotFound), missing)
	}
}

func TestEmptyTable(t *testing.T) {
	data := writeTable(t, nil, nil)
	r := openReader(t, "mmap", data, nil)

	it := r.Iterator()
	assert.False(t, it.Next())
	assert.False(t, it.Seek([]byte("a")))
	assert.NoError(t, it.Err())

	meta, err := r.MetaIndex()
	require.NoError(t, err)
	assert.False(t, meta.Iterator().Next())
}

func TestTableGetIKey(t *testing.T) {
	var testKVs []testKV
	for i := 0; i < 100; i++ {
		key := []byte(fmt.Sprintf("key%03d", i))
		if i == 50 {
			testKVs = append(testKVs, testKV{string(util.CreateIKey(key, util.IKeyTypeDelete, 3)), ""})
		}
		testKVs = append(testKVs,
			testKV{string(util.CreateIKey(key, util.IKeyTypeSet, 2)), fmt.Sprint("new", i)},
			testKV{string(util.CreateIKey(key, util.IKeyTypeSet, 1)), fmt.Sprint("old", i)},
		)
	}

	data := writeTable(t, testKVs, &WriterOptions{BlockSize: 256})
	r := openReader(t, "mmap", data, &Options{Comparator: util.IKeyBytewiseCmp})

	for i := 0; i < 100; i++ {
		key := []byte(fmt.Sprintf("key%03d", i))
		latest, err := r.GetIKey(util.CreateIKey(key, util.IKeyTypeSet, util.MaxSeqNum))
		if i == 50 {
			assert.True(t, errors.Is(err, ErrNotFound))
		} else {
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprint("new", i), string(latest))
		}

		old, err := r.GetIKey(util.CreateIKey(key, util.IKeyTypeSet, 1))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint("old", i), string(old))
	}

	_, err := r.GetIKey(util.CreateIKey([]byte("key0005"), util.IKeyTypeSet, util.MaxSeqNum))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTableIterSurfacesCorruption(t *testing.T) {
	testKVs := numberedKVs(200)
	data := writeTable(t, testKVs, &WriterOptions{BlockSize: 256, Compression: NoCompression})
	// damage the second data block
	data[300] ^= 0xff

	r := openReader(t, "bytes", data, nil)
	it := r.Iterator()
	n := 0
	for it.Next() {
		n++
	}
	assertErrorClass(t, it.Err(), ErrCorruption)
	assert.Less(t, n, len(testKVs))
	assert.False(t, it.Next())
}
