package zstring

import (
	"os"
	"testing"

	"github.com/zmterp/zengine/zcore"
)

// newTestMemory builds a minimal valid story buffer of the given version
// with payload placed at offset 0x40, for exercising Decode/Encode without
// a full story file on disk.
func newTestMemory(version uint8, payload []uint8) (*zcore.Memory, uint32) {
	const base = 0x40
	buf := make([]uint8, base+len(payload))
	buf[0] = version
	copy(buf[base:], payload)
	return zcore.Load(buf), base
}

var zstringDecodingTests = []struct {
	name    string
	in      []uint8
	out     string
	version uint8
}{
	{"all three alphabets", []uint8{11, 45, 42, 234, 1, 216, 0, 192, 98, 70, 70, 32, 72, 206, 68, 244, 116, 13, 42, 234, 142, 37, 11, 45, 42, 234, 1, 216}, "There is a small mailbox here.", 1},
	{"zscii escape", []uint8{12, 193, 248, 165}, ">", 1},
}

func TestDecode(t *testing.T) {
	for _, tt := range zstringDecodingTests {
		t.Run(tt.name, func(t *testing.T) {
			m, addr := newTestMemory(tt.version, tt.in)
			alphabets := LoadAlphabets(m)
			got, _ := Decode(m, addr, alphabets)
			if got != tt.out {
				t.Fatalf("Decode() = %q, want %q", got, tt.out)
			}
		})
	}
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	m, addr := newTestMemory(3, make([]uint8, 8))
	alphabets := LoadAlphabets(m)

	encoded := Encode([]rune("go"), 3, alphabets)
	copy(m.RawBytes()[addr:], encoded)

	got, consumed := Decode(m, addr, alphabets)
	if got != "go" {
		t.Fatalf("round trip = %q, want %q", got, "go")
	}
	if consumed != uint32(len(encoded)) {
		t.Fatalf("consumed = %d, want %d", consumed, len(encoded))
	}
}

func TestV3Abbreviations(t *testing.T) {
	storyFileBytes, err := os.ReadFile("../advent.z3")
	if err != nil {
		t.Skip("test story file not present in this tree")
	}

	m := zcore.Load(storyFileBytes)
	alphabets := LoadAlphabets(m)

	str, _ := Decode(m, 0x44ef, alphabets)
	if str != "Welcome to Adventure! Do you need instructions?" {
		t.Fatalf("invalid welcome string: %s", str)
	}
}
