// Package zdictionary implements the Z-machine word dictionary and the
// lexical analysis (tokenise) the sread/tokenise opcodes perform against
// it, per spec.md's "dictionary lookup" narrow collaborator.
package zdictionary

import (
	"strings"

	"github.com/zmterp/zengine/zcore"
	"github.com/zmterp/zengine/zstring"
)

// entry is one decoded dictionary word: its encoded Z-characters (for
// equality comparison against tokenised input) and its address (the value
// stored into a parse buffer on a match).
type entry struct {
	address uint32
	zchars  []uint8
}

// Dictionary is a parsed dictionary table: its word separators plus every
// entry, linearly searchable. The Standard allows a negative entry count to
// mark an unsorted table expecting linear search instead of binary search;
// this engine always searches linearly, so that distinction doesn't change
// behavior here.
type Dictionary struct {
	Address        uint32
	Separators     []uint8
	EntryLength    uint8
	encodedWordLen int
	entries        []entry
}

// Parse reads the dictionary table at address: the separator-character
// list, the per-entry length and count, then every entry's encoded word.
func Parse(m *zcore.Memory, address uint32, alphabets *zstring.Alphabets) *Dictionary {
	n := m.ReadByte(address)
	separators := make([]uint8, n)
	for i := uint8(0); i < n; i++ {
		separators[i] = m.ReadByte(address + 1 + uint32(i))
	}

	entryLenAddr := address + 1 + uint32(n)
	entryLength := m.ReadByte(entryLenAddr)
	count := int16(m.ReadWord(entryLenAddr + 1))
	numEntries := int(count)
	if numEntries < 0 {
		numEntries = -numEntries
	}

	encodedWordLen := 4
	if m.Version >= 4 {
		encodedWordLen = 6
	}

	entriesBase := entryLenAddr + 3
	entries := make([]entry, numEntries)
	for i := 0; i < numEntries; i++ {
		addr := entriesBase + uint32(i)*uint32(entryLength)
		zchars := make([]uint8, encodedWordLen)
		for j := 0; j < encodedWordLen; j++ {
			zchars[j] = m.ReadByte(addr + uint32(j))
		}
		entries[i] = entry{address: addr, zchars: zchars}
	}

	return &Dictionary{
		Address:        address,
		Separators:     separators,
		EntryLength:    entryLength,
		encodedWordLen: encodedWordLen,
		entries:        entries,
	}
}

// Find returns the dictionary address of the entry whose encoded word
// matches encoded exactly, or 0 if no entry matches.
func (d *Dictionary) Find(encoded []uint8) uint32 {
	for _, e := range d.entries {
		if sliceEqual(e.zchars, encoded) {
			return e.address
		}
	}
	return 0
}

func sliceEqual(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// wordSpan is a lexed word's byte range within the raw typed text,
// zero-indexed from the first character the player typed.
type wordSpan struct {
	start, length int
}

// splitWords lexes text into words: runs of non-separator, non-space bytes,
// plus one-byte tokens for every separator character itself (the Standard
// requires separators be returned as their own dictionary words so a parser
// can treat "north," as "north" followed by ",").
func splitWords(text string, separators []uint8) []wordSpan {
	isSeparator := func(c byte) bool {
		for _, s := range separators {
			if s == c {
				return true
			}
		}
		return false
	}

	var spans []wordSpan
	wordStart := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == ' ':
			if wordStart >= 0 {
				spans = append(spans, wordSpan{wordStart, i - wordStart})
				wordStart = -1
			}
		case isSeparator(c):
			if wordStart >= 0 {
				spans = append(spans, wordSpan{wordStart, i - wordStart})
				wordStart = -1
			}
			spans = append(spans, wordSpan{i, 1})
		default:
			if wordStart < 0 {
				wordStart = i
			}
		}
	}
	if wordStart >= 0 {
		spans = append(spans, wordSpan{wordStart, len(text) - wordStart})
	}
	return spans
}

// readTypedText recovers the raw text a prior sread call stored in
// textBuffer, whose layout is version-dependent per spec.md S6.1: v1-4
// store a NUL-terminated (or buffer-length-bounded) string starting at byte
// 1; v5+ store an explicit typed-length byte at byte 1 and the text itself
// starting at byte 2.
func readTypedText(m *zcore.Memory, textBuffer uint32) (string, uint32) {
	maxLen := m.ReadByte(textBuffer)
	if m.Version >= 5 {
		typedLen := m.ReadByte(textBuffer + 1)
		start := textBuffer + 2
		var sb strings.Builder
		for i := uint8(0); i < typedLen; i++ {
			sb.WriteByte(m.ReadByte(start + uint32(i)))
		}
		return sb.String(), start
	}

	start := textBuffer + 1
	var sb strings.Builder
	for i := uint8(0); i < maxLen; i++ {
		c := m.ReadByte(start + uint32(i))
		if c == 0 {
			break
		}
		sb.WriteByte(c)
	}
	return sb.String(), start
}

// Tokenise implements the tokenise/sread lexical pass: split the text
// already sitting in textBuffer into words, encode and look each one up,
// and write the parse buffer's word-address/length/position triples.
// skipUnrecognised mirrors the tokenise opcode's flag argument: when set, a
// word absent from the dictionary leaves its parse-buffer slot untouched
// instead of being zeroed, per the Standard.
func (d *Dictionary) Tokenise(m *zcore.Memory, alphabets *zstring.Alphabets, textBuffer, parseBuffer uint32, skipUnrecognised bool) error {
	text, _ := readTypedText(m, textBuffer)
	spans := splitWords(text, d.Separators)

	maxWords := int(m.ReadByte(parseBuffer))
	if len(spans) > maxWords {
		spans = spans[:maxWords]
	}

	if err := m.WriteByte(parseBuffer+1, uint8(len(spans))); err != nil {
		return err
	}

	for i, span := range spans {
		word := text[span.start : span.start+span.length]
		encoded := zstring.Encode([]rune(word), m.Version, alphabets)
		addr := d.Find(encoded)

		entryAddr := parseBuffer + 2 + uint32(i)*4
		if addr == 0 && skipUnrecognised {
			continue
		}
		if err := m.WriteWord(entryAddr, uint16(addr)); err != nil {
			return err
		}
		if err := m.WriteByte(entryAddr+2, uint8(span.length)); err != nil {
			return err
		}
		if err := m.WriteByte(entryAddr+3, uint8(span.start+1)); err != nil {
			return err
		}
	}

	return nil
}
