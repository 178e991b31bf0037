package table

import "sstable_go/util"

// TableIter walks a table in key order: the index block yields block
// handles, each resolved through Reader.ReadBlock into a data block.
type TableIter struct {
	r         *Reader
	indexIter *BlockIter
	dataIter  *BlockIter
	cmp       util.Comparator
	err       error
}

func (i *TableIter) Key() []byte {
	if i.dataIter == nil {
		return nil
	}
	return i.dataIter.Key()
}

func (i *TableIter) Value() []byte {
	if i.dataIter == nil {
		return nil
	}
	return i.dataIter.Value()
}

func (i *TableIter) Valid() bool {
	return i.err == nil && i.dataIter != nil && i.dataIter.Valid()
}

// Err returns the error that stopped iteration, if any.
func (i *TableIter) Err() error {
	return i.err
}

// First moves to the first entry of the table.
func (i *TableIter) First() bool {
	i.err = nil
	i.dataIter = nil
	i.indexIter.Reset()
	return i.nextBlock()
}

// Next moves to the following entry; on a fresh iterator that is the first.
func (i *TableIter) Next() bool {
	if i.err != nil {
		return false
	}
	if i.dataIter != nil {
		if i.dataIter.Next() {
			return true
		}
		if i.err = i.dataIter.Err(); i.err != nil {
			return false
		}
	}
	return i.nextBlock()
}

// Seek moves to the first entry whose key is >= key.
func (i *TableIter) Seek(key []byte) bool {
	i.err = nil
	i.dataIter = nil
	if !i.indexIter.Seek(key) {
		i.err = i.indexIter.Err()
		return false
	}
	if !i.loadBlock() {
		return false
	}
	if i.dataIter.Seek(key) {
		return true
	}
	if i.err = i.dataIter.Err(); i.err != nil {
		return false
	}
	// key sorts after the last entry of this block but not past its
	// index separator, so the answer is the start of the next block
	return i.nextBlock()
}

// nextBlock advances the index until a block yields an entry.
func (i *TableIter) nextBlock() bool {
	for i.indexIter.Next() {
		if !i.loadBlock() {
			return false
		}
		if i.dataIter.Next() {
			return true
		}
		if i.err = i.dataIter.Err(); i.err != nil {
			return false
		}
	}
	i.err = i.indexIter.Err()
	i.dataIter = nil
	return false
}

func (i *TableIter) loadBlock() bool {
	bh, err := blockHandleFromValue(i.indexIter.Value())
	if err != nil {
		i.err = err
		i.dataIter = nil
		return false
	}
	block, err := i.r.ReadBlock(bh)
	if err != nil {
		i.err = err
		i.dataIter = nil
		return false
	}
	i.dataIter = block.Iterator()
	return true
}
