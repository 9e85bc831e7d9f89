package zmachine

// Value is a 16-bit Z-machine word with two equally valid interpretations:
// unsigned (0..65535) and signed (-32768..32767) via two's-complement
// reinterpretation. Arithmetic opcodes operate on the signed view;
// truncation to 16 bits on overflow is defined behavior, not an error.
type Value uint16

const (
	ZERO Value = 0
	ONE  Value = 1
)

// Signed reinterprets the value as a two's-complement int16.
func (v Value) Signed() int16 { return int16(v) }

// FromSigned wraps a signed 16-bit quantity back into a Value, truncating
// on overflow exactly as the Z-machine's arithmetic opcodes require.
func FromSigned(i int32) Value { return Value(int16(i)) }
