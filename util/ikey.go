package util

import (
	"encoding/binary"
)

type IKeyType byte

const (
	IKeyTypeDelete IKeyType = 0
	IKeyTypeSet    IKeyType = 1
)

// MaxSeqNum is the largest sequence number that fits next to the type byte.
const MaxSeqNum = (uint64(1) << 56) - 1

const ikeyTrailerLen = 8

// IKey is an internal key: the user key followed by an 8-byte little-endian
// trailer packing (seq << 8 | type).
type IKey []byte

func CreateIKey(key []byte, t IKeyType, seq uint64) IKey {
	ikey := make(IKey, len(key)+ikeyTrailerLen)
	copy(ikey, key)
	binary.LittleEndian.PutUint64(ikey[len(key):], seq<<8|uint64(t))
	return ikey
}

// Valid reports whether k is long enough to carry a trailer.
func (k IKey) Valid() bool {
	return len(k) >= ikeyTrailerLen
}

func (k IKey) Key() []byte {
	return k[:len(k)-ikeyTrailerLen]
}

func (k IKey) KeyType() IKeyType {
	return IKeyType(k[len(k)-ikeyTrailerLen])
}

func (k IKey) SeqNum() uint64 {
	return k.trailer() >> 8
}

func (k IKey) trailer() uint64 {
	return binary.LittleEndian.Uint64(k[len(k)-ikeyTrailerLen:])
}

// IKeyCmp orders internal keys by user key ascending, then by trailer
// descending so that the newest entry for a user key comes first.
type IKeyCmp struct {
	cmp Comparator
}

func (i IKeyCmp) Compare(key1, key2 []byte) int {
	ak, bk := IKey(key1), IKey(key2)
	if !ak.Valid() || !bk.Valid() {
		return i.cmp.Compare(key1, key2)
	}
	r := i.cmp.Compare(ak.Key(), bk.Key())
	if r != 0 {
		return r
	}

	at, bt := ak.trailer(), bk.trailer()
	if at > bt {
		return -1
	}
	if at < bt {
		return 1
	}
	return 0
}

func CreateIKeyCmp(cmp Comparator) Comparator {
	return IKeyCmp{
		cmp: cmp,
	}
}

var IKeyBytewiseCmp = CreateIKeyCmp(BytewiseComparator)
