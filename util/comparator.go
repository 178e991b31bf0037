package util

import "bytes"

// Comparator orders keys inside a table. Compare returns a negative number
// when key1 sorts before key2, zero when equal and a positive number otherwise.
type Comparator interface {
	Compare(key1, key2 []byte) int
}

type bytewiseComparator struct{}

func (bytewiseComparator) Compare(key1, key2 []byte) int {
	return bytes.Compare(key1, key2)
}

// BytewiseComparator orders keys lexicographically by their bytes.
var BytewiseComparator Comparator = bytewiseComparator{}
