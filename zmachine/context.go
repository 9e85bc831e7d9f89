package zmachine

import (
	"github.com/zmterp/zengine/zcore"
	"github.com/zmterp/zengine/zdictionary"
	"github.com/zmterp/zengine/zstring"
)

// ExecutionContext is the capability surface spec.md S6.3 grants to opcode
// handlers. Handlers never touch a *Processor field directly; everything
// they need to read or mutate machine state goes through this interface,
// which keeps the handler table decoupled from the processor's internal
// bookkeeping (undo snapshots, observer dispatch, the instruction cache).
type ExecutionContext interface {
	Memory() *zcore.Memory

	ReadVariable(v zcore.Variable, indirect bool) (Value, error)
	WriteVariable(v zcore.Variable, val Value, indirect bool) error

	ReadByte(addr uint32) uint8
	WriteByte(addr uint32, val uint8) error
	ReadWord(addr uint32) uint16
	WriteWord(addr uint32, val uint16) error

	// Call pushes a new frame and leaves Step to resume fetch at the
	// routine's first instruction. store is nil for call_*n variants.
	Call(packedAddr uint16, args []Value, store *zcore.Variable) error
	// Return pops the current frame, stores the result in the caller's
	// frame if one was requested, and resumes the caller's PC.
	Return(val Value) error
	// Jump applies a jump offset to PC (PC + offset - 2). Offsets 0 and 1
	// get no special treatment here; Branch handles the return-false/
	// return-true shortcuts of a branch field.
	Jump(offset int16) error
	Branch(b zcore.Branch, condition bool) error

	UnpackRoutineAddress(packed uint16) uint32
	UnpackStringAddress(packed uint16) uint32

	Print(s string)
	PrintZWords(words []uint16)
	Random(n int16) Value
	Quit()
	Restart()
	Verify() bool
	SaveUndo() Value
	RestoreUndo() Value

	// SetWindow records which window Print targets, for the set_window
	// opcode.
	SetWindow(window int)
	// BeginMemoryStream redirects Print into the table at addr instead of
	// the screen, for output_stream 3.
	BeginMemoryStream(addr uint32)
	// EndMemoryStream ends the innermost memory-stream redirect, writing
	// its length-prefixed text back into the table, for output_stream -3.
	EndMemoryStream() error

	Screen() Screen
	CurrentFrame() (*StackFrame, error)
	Version() uint8

	// ArgumentCount is the number of values the caller actually passed to
	// the current routine, for check_arg_count.
	ArgumentCount() int
	Alphabets() *zstring.Alphabets
	Dictionary() *zdictionary.Dictionary
}
