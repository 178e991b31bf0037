package table

import (
	"encoding/binary"
	"sort"

	"sstable_go/util"
)

// Block is the decoded contents of one table block together with the key
// order of its table. Its bytes are owned by the block and stay valid after
// the table is closed.
//
// A block holds prefix-compressed entries followed by a restart array of
// little-endian uint32 offsets and the uint32 restart count. Every entry is
// uvarint(shared) uvarint(nonshared) uvarint(valueLen) key[shared:] value;
// entries at restart points have shared == 0.
type Block struct {
	data          []byte
	restartOffset int
	numRestarts   int
	cmp           util.Comparator
}

// NewBlock wraps decoded block bytes. It fails with ErrCorruption if the
// restart array does not fit.
func NewBlock(data []byte, cmp util.Comparator) (*Block, error) {
	if len(data) < 4 {
		return nil, corruptionErrorf("sstable: block of %d bytes is too short", len(data))
	}
	n := uint64(binary.LittleEndian.Uint32(data[len(data)-4:]))
	if n > uint64(len(data)-4)/4 {
		return nil, corruptionErrorf("sstable: block of %d bytes cannot hold %d restarts", len(data), n)
	}
	if cmp == nil {
		cmp = util.BytewiseComparator
	}
	return &Block{
		data:          data,
		restartOffset: len(data) - 4*(int(n)+1),
		numRestarts:   int(n),
		cmp:           cmp,
	}, nil
}

// Data returns the raw decoded bytes, restart array included.
func (b *Block) Data() []byte {
	return b.data
}

func (b *Block) Len() int {
	return len(b.data)
}

func (b *Block) Comparator() util.Comparator {
	return b.cmp
}

func (b *Block) NumRestarts() int {
	return b.numRestarts
}

func (b *Block) restartPoint(i int) int {
	return int(binary.LittleEndian.Uint32(b.data[b.restartOffset+4*i:]))
}

// entry decodes the entry header at offset and returns the shared and
// nonshared key lengths, the value length and the offset of the key bytes.
func (b *Block) entry(offset int) (shared, nonshared, valueLen, keyOffset int, err error) {
	entries := b.data[:b.restartOffset]
	if offset < 0 || offset >= len(entries) {
		return 0, 0, 0, 0, corruptionErrorf("sstable: entry offset %d outside block", offset)
	}
	p := offset
	var vals [3]uint64
	for i := range vals {
		v, n := binary.Uvarint(entries[p:])
		if n <= 0 {
			return 0, 0, 0, 0, corruptionErrorf("sstable: bad entry header at offset %d", offset)
		}
		vals[i] = v
		p += n
	}
	if vals[0] > uint64(len(entries)) {
		return 0, 0, 0, 0, corruptionErrorf("sstable: entry at offset %d shares %d key bytes", offset, vals[0])
	}
	rem := uint64(len(entries) - p)
	if vals[1] > rem || vals[2] > rem-vals[1] {
		return 0, 0, 0, 0, corruptionErrorf("sstable: entry at offset %d overruns block", offset)
	}
	return int(vals[0]), int(vals[1]), int(vals[2]), p, nil
}

func (b *Block) restartKey(i int) ([]byte, error) {
	offset := b.restartPoint(i)
	shared, nonshared, _, keyOffset, err := b.entry(offset)
	if err != nil {
		return nil, err
	}
	if shared != 0 {
		return nil, corruptionErrorf("sstable: restart entry at offset %d shares %d key bytes", offset, shared)
	}
	return b.data[keyOffset : keyOffset+nonshared], nil
}

// Iterator returns an iterator positioned before the first entry.
func (b *Block) Iterator() *BlockIter {
	return &BlockIter{
		b: b,
	}
}

// BlockIter walks the entries of a block in key order. Key is only valid
// until the next call that moves the iterator; Value aliases the block.
type BlockIter struct {
	b *Block

	nextOffset int
	valid      bool
	key        []byte
	value      []byte
	err        error
}

func (i *BlockIter) Key() []byte {
	if !i.valid {
		return nil
	}
	return i.key
}

func (i *BlockIter) Value() []byte {
	if !i.valid {
		return nil
	}
	return i.value
}

func (i *BlockIter) Valid() bool {
	return i.valid
}

// Err returns the corruption that stopped the iterator, if any.
func (i *BlockIter) Err() error {
	return i.err
}

// Reset positions the iterator before the first entry.
func (i *BlockIter) Reset() {
	i.seekOffset(0)
}

func (i *BlockIter) seekOffset(offset int) {
	i.nextOffset = offset
	i.key = i.key[:0]
	i.value = nil
	i.valid = false
	i.err = nil
}

// First moves to the first entry.
func (i *BlockIter) First() bool {
	i.Reset()
	return i.Next()
}

// Next moves to the following entry; on a fresh iterator that is the first.
func (i *BlockIter) Next() bool {
	if i.err != nil || i.nextOffset >= i.b.restartOffset {
		i.valid = false
		return false
	}

	shared, nonshared, valueLen, p, err := i.b.entry(i.nextOffset)
	if err != nil {
		return i.fail(err)
	}
	if shared > len(i.key) {
		return i.fail(corruptionErrorf("sstable: entry at offset %d shares %d bytes of a %d byte key",
			i.nextOffset, shared, len(i.key)))
	}

	i.key = append(i.key[:shared], i.b.data[p:p+nonshared]...)
	p += nonshared
	i.value = i.b.data[p : p+valueLen : p+valueLen]
	i.nextOffset = p + valueLen
	i.valid = true
	return true
}

// Seek moves to the first entry whose key is >= key.
func (i *BlockIter) Seek(key []byte) bool {
	if i.b.restartOffset == 0 {
		i.seekOffset(0)
		return false
	}

	var searchErr error
	// first restart point whose key is >= key; the answer lies after the
	// restart point before it.
	idx := sort.Search(i.b.numRestarts, func(j int) bool {
		if searchErr != nil {
			return true
		}
		rk, err := i.b.restartKey(j)
		if err != nil {
			searchErr = err
			return true
		}
		return i.b.cmp.Compare(rk, key) >= 0
	})
	if searchErr != nil {
		i.seekOffset(0)
		return i.fail(searchErr)
	}

	start := 0
	if idx > 0 {
		start = i.b.restartPoint(idx - 1)
	}
	i.seekOffset(start)
	for i.Next() {
		if i.b.cmp.Compare(i.key, key) >= 0 {
			return true
		}
	}
	return false
}

func (i *BlockIter) fail(err error) bool {
	i.err = err
	i.valid = false
	return false
}
