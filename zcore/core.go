// Package zcore implements the Z-machine memory model: a byte-addressed
// view of a story file plus the header fields decoded from it.
package zcore

import (
	"encoding/binary"
	"fmt"
)

// MemoryViolationError is returned by WriteByte and WriteWord when a write
// targets static or high memory. Reads are not checked against the story's
// bounds and never return it: an out-of-range ReadByte or ReadWord panics
// with a slice index error.
type MemoryViolationError struct {
	Addr uint32
	Op   string
}

func (e *MemoryViolationError) Error() string {
	return fmt.Sprintf("memory violation: %s at 0x%x", e.Op, e.Addr)
}

// Memory is the byte-addressed RAM view of a loaded story file, with
// endian-aware word access and the header fields the Z-machine Standard
// defines as bytes 0x00-0x3f.
type Memory struct {
	bytes []uint8

	Version                  uint8
	FlagByte1                uint8
	StatusBarTimeBased       bool
	ReleaseNumber            uint16
	HighMemoryBase           uint16
	InitialPC                uint16
	DictionaryBase           uint16
	ObjectTableBase          uint16
	GlobalVariableBase       uint16
	StaticMemoryBase         uint16
	Serial                   string
	AbbreviationTableBase    uint16
	FileChecksum             uint16
	InterpreterNumber        uint8
	InterpreterVersion       uint8
	ScreenHeightLines        uint8
	ScreenWidthChars         uint8
	ScreenWidthUnits         uint16
	ScreenHeightUnits        uint16
	FontHeight               uint8
	FontWidth                uint8
	RoutinesOffset           uint16
	StringOffset             uint16
	DefaultBackgroundColor   uint8
	DefaultForegroundColor   uint8
	TerminatingCharTableBase uint16
	StandardRevisionNumber   uint16
	AlphabetTableBase        uint16
	ExtensionTableBaseAddr   uint16
	InformVersion            string
}

// Load builds a Memory from raw story-file bytes, decoding the header and
// patching the interpreter-identity fields the way this engine reports
// itself to the story (closest IBM-PC-like interpreter number, claimed
// Standard revision 1.2 support, a nominal 80x25 text screen).
func Load(storyBytes []uint8) *Memory {
	b := make([]uint8, len(storyBytes))
	copy(b, storyBytes)

	b[0x1e] = 0x06 // Interpreter number - nearest match is "IBM PC"
	b[0x1f] = 0x01 // Interpreter version - games rarely check this

	b[0x20] = 25 // Screen height (lines)
	b[0x21] = 80 // Screen width (characters)
	b[0x22] = 0
	b[0x23] = 80 // Screen width (units) - 1 unit per character
	b[0x24] = 0
	b[0x25] = 25 // Screen height (units) - 1 unit per line
	b[0x26] = 1  // Font height (units)
	b[0x27] = 1  // Font width (units)

	b[0x32] = 0x01 // Standard revision - major
	b[0x33] = 0x02 // Standard revision - minor

	version := b[0x00]
	if version <= 3 {
		b[1] |= 0b0010_0000 // Status line + split screen available
	} else {
		// colors(0x01) | bold(0x04) | italic(0x08) | split screen(0x20)
		b[1] |= 0b0010_1101
	}

	extensionTableBase := binary.BigEndian.Uint16(b[0x36:0x38])
	alphabetTableBase := binary.BigEndian.Uint16(b[0x34:0x36])

	m := &Memory{
		bytes:                    b,
		Version:                  version,
		FlagByte1:                b[0x01],
		StatusBarTimeBased:       b[0x01]&0b0000_0010 != 0,
		ReleaseNumber:            binary.BigEndian.Uint16(b[0x02:0x04]),
		HighMemoryBase:           binary.BigEndian.Uint16(b[0x04:0x06]),
		InitialPC:                binary.BigEndian.Uint16(b[0x06:0x08]),
		DictionaryBase:           binary.BigEndian.Uint16(b[0x08:0x0a]),
		ObjectTableBase:          binary.BigEndian.Uint16(b[0x0a:0x0c]),
		GlobalVariableBase:       binary.BigEndian.Uint16(b[0x0c:0x0e]),
		StaticMemoryBase:         binary.BigEndian.Uint16(b[0x0e:0x10]),
		Serial:                   string(b[0x12:0x18]),
		AbbreviationTableBase:    binary.BigEndian.Uint16(b[0x18:0x1a]),
		FileChecksum:             binary.BigEndian.Uint16(b[0x1c:0x1e]),
		InterpreterNumber:        b[0x1e],
		InterpreterVersion:       b[0x1f],
		ScreenHeightLines:        b[0x20],
		ScreenWidthChars:         b[0x21],
		ScreenWidthUnits:         binary.BigEndian.Uint16(b[0x22:0x24]),
		ScreenHeightUnits:        binary.BigEndian.Uint16(b[0x24:0x26]),
		FontHeight:               b[0x26],
		FontWidth:                b[0x27],
		RoutinesOffset:           binary.BigEndian.Uint16(b[0x28:0x2a]),
		StringOffset:             binary.BigEndian.Uint16(b[0x2a:0x2c]),
		DefaultBackgroundColor:   b[0x2c],
		DefaultForegroundColor:   b[0x2d],
		TerminatingCharTableBase: binary.BigEndian.Uint16(b[0x2e:0x30]),
		StandardRevisionNumber:   binary.BigEndian.Uint16(b[0x32:0x34]),
		AlphabetTableBase:        alphabetTableBase,
		ExtensionTableBaseAddr:   extensionTableBase,
	}

	if extensionTableBase != 0 {
		numWords := m.ReadByte(uint32(extensionTableBase))
		if numWords >= 3 {
			lo := m.ReadByte(uint32(extensionTableBase) + 6)
			hi := m.ReadByte(uint32(extensionTableBase) + 7)
			m.InformVersion = fmt.Sprintf("%d.%02d", lo, hi)
		}
	}

	return m
}

// FileLength returns the story's declared length in bytes, scaling the
// header's file-length word by the version-dependent divisor.
func (m *Memory) FileLength() uint32 {
	var multiplier uint32
	switch {
	case m.Version <= 3:
		multiplier = 2
	case m.Version <= 5:
		multiplier = 4
	default:
		multiplier = 8
	}
	return uint32(binary.BigEndian.Uint16(m.bytes[0x1a:0x1c])) * multiplier
}

// Size is the number of bytes backing this Memory.
func (m *Memory) Size() uint32 { return uint32(len(m.bytes)) }

// ReadByte reads a single byte. Reads are permitted anywhere in the story.
func (m *Memory) ReadByte(addr uint32) uint8 {
	return m.bytes[addr]
}

// ReadWord reads a big-endian 16-bit word.
func (m *Memory) ReadWord(addr uint32) uint16 {
	return binary.BigEndian.Uint16(m.bytes[addr : addr+2])
}

// ReadSlice returns a read-only view of [start, end).
func (m *Memory) ReadSlice(start, end uint32) []uint8 {
	return m.bytes[start:end]
}

// WriteByte writes a single byte. Fails with MemoryViolationError if addr
// is at or above StaticMemoryBase.
func (m *Memory) WriteByte(addr uint32, value uint8) error {
	if addr >= uint32(m.StaticMemoryBase) {
		return &MemoryViolationError{Addr: addr, Op: "write-byte"}
	}
	m.bytes[addr] = value
	return nil
}

// WriteWord writes a big-endian 16-bit word. Fails with MemoryViolationError
// if either byte touched is at or above StaticMemoryBase.
func (m *Memory) WriteWord(addr uint32, value uint16) error {
	if addr+1 >= uint32(m.StaticMemoryBase) {
		return &MemoryViolationError{Addr: addr, Op: "write-word"}
	}
	binary.BigEndian.PutUint16(m.bytes[addr:addr+2], value)
	return nil
}

// PackedAddress unpacks a packed routine or string address. isString
// selects the v6/v7 string offset over the routine offset.
func (m *Memory) PackedAddress(packed uint32, isString bool) uint32 {
	switch {
	case m.Version <= 3:
		return packed * 2
	case m.Version <= 5:
		return packed * 4
	case m.Version <= 7:
		offset := uint32(m.RoutinesOffset)
		if isString {
			offset = uint32(m.StringOffset)
		}
		return packed*4 + 8*offset
	default: // v8
		return packed * 8
	}
}

// RawBytes exposes the full backing slice for components (save-state
// snapshotting, checksum verification) that need direct access rather than
// bounds-checked word reads.
func (m *Memory) RawBytes() []uint8 { return m.bytes }
