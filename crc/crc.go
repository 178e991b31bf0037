// Package crc implements the masked CRC-32C checksum used by table blocks.
package crc

import "hash/crc32"

var table = crc32.MakeTable(crc32.Castagnoli)

const maskDelta = 0xa282ead8

// CRC is an unmasked running CRC-32C value.
type CRC uint32

// New returns the CRC-32C of b.
func New(b []byte) CRC {
	return CRC(0).Update(b)
}

// Update extends c with b.
func (c CRC) Update(b []byte) CRC {
	return CRC(crc32.Update(uint32(c), table, b))
}

// Value returns the masked checksum, the form stored on disk.
func (c CRC) Value() uint32 {
	return Mask(uint32(c))
}

// Mask rotates v and adds a constant. Checksumming data that itself embeds
// checksums is then less likely to produce trivial values.
func Mask(v uint32) uint32 {
	return (v>>15 | v<<17) + maskDelta
}

// Unmask reverses Mask.
func Unmask(v uint32) uint32 {
	r := v - maskDelta
	return r>>17 | r<<15
}
