// Package zstring implements Z-machine text: decoding and encoding the
// 5-bit Z-character stream packed three-to-a-word into Z-machine memory,
// alphabet shifting/locking, abbreviation expansion and the ZSCII/10-bit
// escape sequences (spec.md S3's "ZSCII / Z-text" component).
package zstring

import (
	"encoding/binary"
	"strings"

	"github.com/zmterp/zengine/zcore"
)

var a0Default = [26]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}
var a2V1 = [26]byte{0, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '<', '-', ':', '(', ')'}
var a2Default = [26]byte{0, '\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

// Alphabet selects one of the three 26-entry character tables a Z-string
// shift or shift-lock can switch into.
type Alphabet int

const (
	A0 Alphabet = 0
	A1 Alphabet = 1
	A2 Alphabet = 2
)

// Alphabets holds the three character tables in effect for a story,
// either the version-appropriate defaults or a custom table the story
// supplies via the header's alphabet-table-base field (v5+ only).
type Alphabets struct {
	Version uint8
	A0      [26]byte
	A1      [26]byte
	A2      [26]byte
}

// LoadAlphabets builds the Alphabets in effect for m: the story's custom
// table if it declares one (v5+, header field AlphabetTableBase nonzero),
// otherwise the version-appropriate built-in default.
func LoadAlphabets(m *zcore.Memory) *Alphabets {
	if m.Version >= 5 && m.AlphabetTableBase != 0 {
		base := uint32(m.AlphabetTableBase)
		a := &Alphabets{Version: m.Version}
		for i := 0; i < 26; i++ {
			a.A0[i] = m.ReadByte(base + uint32(i))
			a.A1[i] = m.ReadByte(base + 26 + uint32(i))
			a.A2[i] = m.ReadByte(base + 52 + uint32(i))
		}
		return a
	}

	a := &Alphabets{Version: m.Version, A0: a0Default, A1: a1Default}
	if m.Version == 1 {
		a.A2 = a2V1
	} else {
		a.A2 = a2Default
	}
	return a
}

func (a *Alphabets) table(which Alphabet) [26]byte {
	switch which {
	case A1:
		return a.A1
	case A2:
		return a.A2
	default:
		return a.A0
	}
}

// zcharsFromBytes unpacks the 5-bit Z-character stream starting at addr,
// returning the stream and the byte count consumed (always a multiple of
// 2, ending at the first word with its high bit set).
func zcharsFromBytes(m *zcore.Memory, addr uint32) ([]uint8, uint32) {
	var zchrs []uint8
	ptr := addr
	for {
		w := m.ReadWord(ptr)
		ptr += 2
		zchrs = append(zchrs, uint8((w>>10)&0x1f), uint8((w>>5)&0x1f), uint8(w&0x1f))
		if w&0x8000 != 0 {
			break
		}
	}
	return zchrs, ptr - addr
}

// Decode reads a Z-string starting at addr and returns the decoded text
// plus the number of bytes consumed from memory. Abbreviation references
// (valid from v2 on) are expanded inline, one level deep, per the
// Standard's prohibition on nested abbreviations.
func Decode(m *zcore.Memory, addr uint32, alphabets *Alphabets) (string, uint32) {
	zchrs, consumed := zcharsFromBytes(m, addr)
	return decodeZChars(m, zchrs, alphabets), consumed
}

// zcharsFromWords unpacks an already-read sequence of Z-text words (as the
// instruction decoder hands the processor for inline print text) into its
// 5-bit Z-character stream, the same shape zcharsFromBytes produces.
func zcharsFromWords(words []uint16) []uint8 {
	zchrs := make([]uint8, 0, len(words)*3)
	for _, w := range words {
		zchrs = append(zchrs, uint8((w>>10)&0x1f), uint8((w>>5)&0x1f), uint8(w&0x1f))
	}
	return zchrs
}

// DecodeWords decodes Z-text already extracted as 16-bit words (an
// instruction's inline print text, read by the decoder via
// Reader.NextZWords) rather than a fresh memory read.
func DecodeWords(m *zcore.Memory, words []uint16, alphabets *Alphabets) string {
	return decodeZChars(m, zcharsFromWords(words), alphabets)
}

func decodeZChars(m *zcore.Memory, zchrs []uint8, alphabets *Alphabets) string {
	version := alphabets.Version
	var out strings.Builder

	baseAlphabet := A0
	currentAlphabet := A0
	nextAlphabet := A0

	for i := 0; i < len(zchrs); i++ {
		zchr := zchrs[i]
		currentAlphabet = nextAlphabet
		nextAlphabet = baseAlphabet

		switch zchr {
		case 0:
			out.WriteByte(' ')
		case 1:
			if version == 1 {
				out.WriteByte('\n')
			} else if m.AbbreviationTableBase != 0 && i+1 < len(zchrs) {
				i++
				out.WriteString(FindAbbreviation(m, alphabets, 1, zchrs[i]))
			}
		case 2:
			if version >= 3 {
				if m.AbbreviationTableBase != 0 && i+1 < len(zchrs) {
					i++
					out.WriteString(FindAbbreviation(m, alphabets, 2, zchrs[i]))
				}
			} else {
				nextAlphabet = (nextAlphabet + 1) % 3
			}
		case 3:
			if version >= 3 {
				if m.AbbreviationTableBase != 0 && i+1 < len(zchrs) {
					i++
					out.WriteString(FindAbbreviation(m, alphabets, 3, zchrs[i]))
				}
			} else {
				nextAlphabet = (nextAlphabet + 2) % 3
			}
		case 4:
			if version >= 3 {
				nextAlphabet = (nextAlphabet + 1) % 3
			} else {
				baseAlphabet = (baseAlphabet + 1) % 3
				nextAlphabet = baseAlphabet
			}
		case 5:
			if version >= 3 {
				nextAlphabet = (nextAlphabet + 2) % 3
			} else {
				baseAlphabet = (baseAlphabet + 2) % 3
				nextAlphabet = baseAlphabet
			}
		default:
			if currentAlphabet == A2 && zchr == 6 {
				if i+2 < len(zchrs) {
					zscii := zchrs[i+1]<<5 | zchrs[i+2]
					i += 2
					if r, ok := ZsciiToUnicode(zscii); ok {
						out.WriteRune(r)
					} else {
						out.WriteByte(zscii)
					}
				}
			} else {
				table := alphabets.table(currentAlphabet)
				idx := zchr - 6
				if int(idx) < len(table) && table[idx] != 0 {
					out.WriteByte(table[idx])
				}
			}
		}
	}

	return out.String()
}

// FindAbbreviation resolves abbreviation (z, x) - z in {1,2,3}, x in
// [0,31] - into its expansion text, per spec.md's abbreviation table
// layout: a 96-entry word array of word addresses (byte address / 2) at
// AbbreviationTableBase.
func FindAbbreviation(m *zcore.Memory, alphabets *Alphabets, z, x uint8) string {
	abbrIx := 32*(z-1) + x
	addr := uint32(m.AbbreviationTableBase) + 2*uint32(abbrIx)
	strAddr := 2 * uint32(m.ReadWord(addr))
	text, _ := Decode(m, strAddr, alphabets)
	return text
}

// Encode packs runes into a Z-character stream the way dictionary lookups
// and tokenisation need: truncated/padded to the version's fixed word
// count (2 words / 4 bytes on v1-3, 3 words / 6 bytes on v4+).
func Encode(runes []rune, version uint8, alphabets *Alphabets) []uint8 {
	wordCount := 2
	if version >= 4 {
		wordCount = 3
	}
	maxZChars := wordCount * 3

	var zchrs []uint8
	for _, r := range runes {
		if len(zchrs) >= maxZChars {
			break
		}
		zchrs = append(zchrs, encodeRune(r, alphabets)...)
	}
	for len(zchrs) < maxZChars {
		zchrs = append(zchrs, 5)
	}
	zchrs = zchrs[:maxZChars]

	out := make([]uint8, wordCount*2)
	for w := 0; w < wordCount; w++ {
		word := uint16(zchrs[w*3])<<10 | uint16(zchrs[w*3+1])<<5 | uint16(zchrs[w*3+2])
		if w == wordCount-1 {
			word |= 0x8000
		}
		binary.BigEndian.PutUint16(out[w*2:w*2+2], word)
	}
	return out
}

func encodeRune(r rune, alphabets *Alphabets) []uint8 {
	if idx, ok := findInTable(alphabets.A0, byte(r)); ok {
		return []uint8{idx + 6}
	}
	if idx, ok := findInTable(alphabets.A1, byte(r)); ok {
		return []uint8{4, idx + 6}
	}
	if idx, ok := findInTable(alphabets.A2, byte(r)); ok {
		return []uint8{5, idx + 6}
	}
	if zscii, ok := UnicodeToZscii(r); ok {
		return []uint8{5, 6, zscii >> 5, zscii & 0x1f}
	}
	return []uint8{5}
}

func findInTable(table [26]byte, b byte) (uint8, bool) {
	for i, c := range table {
		if c == b {
			return uint8(i), true
		}
	}
	return 0, false
}
