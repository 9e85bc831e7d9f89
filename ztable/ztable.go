// Package ztable implements the Z-machine's generic table opcodes
// (scan_table, copy_table, print_table): operations over arbitrary byte or
// word arrays in story memory, independent of any particular table's
// semantic layout (spec.md's "object/property tree" accessors live in
// zobject instead; this package is for caller-defined tables).
package ztable

import (
	"strings"

	"github.com/zmterp/zengine/zcore"
)

// PrintTable renders the byte table at baddr as width x height rows (height
// defaults to 1 row of the full table when the caller doesn't specify),
// skipping `skip` bytes between rows for tables wider than their printed
// width.
func PrintTable(m *zcore.Memory, baddr uint32, width, height, skip uint16) string {
	if height == 0 {
		height = 1
	}
	var s strings.Builder
	for row := uint16(0); row < height; row++ {
		if row != 0 {
			s.WriteByte('\n')
		}
		rowStart := baddr + uint32(row)*(uint32(width)+uint32(skip))
		for col := uint16(0); col < width; col++ {
			s.WriteByte(m.ReadByte(rowStart + uint32(col)))
		}
	}
	return s.String()
}

// ScanTable searches length fields of fieldSize bytes starting at baddr for
// one equal to test, per the Z-machine's scan_table opcode: form's bit 7
// selects word (2-byte) versus byte comparisons, and its low 7 bits are the
// field size (covering fields wider than the compared value, e.g.
// structured records). Returns the address of the first match, or 0.
func ScanTable(m *zcore.Memory, test uint16, baddr uint32, length uint16, form uint16) uint32 {
	fieldSize := form & 0x7f
	checkWord := form&0x80 != 0
	if fieldSize == 0 {
		return 0
	}

	ptr := baddr
	for i := uint16(0); i < length; i++ {
		var value uint16
		if checkWord {
			value = m.ReadWord(ptr)
		} else {
			value = uint16(m.ReadByte(ptr))
		}
		if value == test {
			return ptr
		}
		ptr += uint32(fieldSize)
	}
	return 0
}

// CopyTable implements the copy_table opcode: copies |size| bytes from
// first to second. A zero second address zeroes the first table instead. A
// negative size permits overlap-unsafe copying (the story's way of saying
// "I know the ranges overlap and that's fine"); a non-negative size copies
// via a temporary buffer so overlapping ranges never corrupt mid-copy.
func CopyTable(m *zcore.Memory, first, second uint16, size int16) error {
	sizeAbs := uint16(size)
	if size < 0 {
		sizeAbs = uint16(-size)
	}

	switch {
	case second == 0:
		for i := uint16(0); i < sizeAbs; i++ {
			if err := m.WriteByte(uint32(first)+uint32(i), 0); err != nil {
				return err
			}
		}
	case size >= 0:
		tmp := make([]uint8, sizeAbs)
		for i := uint16(0); i < sizeAbs; i++ {
			tmp[i] = m.ReadByte(uint32(first) + uint32(i))
		}
		for i := uint16(0); i < sizeAbs; i++ {
			if err := m.WriteByte(uint32(second)+uint32(i), tmp[i]); err != nil {
				return err
			}
		}
	default:
		for i := uint16(0); i < sizeAbs; i++ {
			if err := m.WriteByte(uint32(second)+uint32(i), m.ReadByte(uint32(first)+uint32(i))); err != nil {
				return err
			}
		}
	}
	return nil
}
