package zmachine

import (
	"math/rand"
	"time"

	"github.com/zmterp/zengine/zcore"
	"github.com/zmterp/zengine/zdictionary"
	"github.com/zmterp/zengine/zstring"
)

// Processor is the fetch-decode-execute engine: a call stack, the memory it
// operates on, and the ambient state (alphabets, dictionary, RNG, undo
// snapshots) opcode handlers reach through ExecutionContext. It never talks
// to a terminal directly - all visible output and blocking input go through
// Screen (spec.md S6).
type Processor struct {
	memory   *zcore.Memory
	original []uint8

	stack CallStack
	cache *InstructionCache
	undo  undoStack

	decoder  *Decoder
	observer Observer
	screen   Screen

	rng *rand.Rand

	alphabets  *zstring.Alphabets
	dictionary *zdictionary.Dictionary

	currentWindow int
	quitting      bool

	memStreams []memStream

	lastInstruction *Instruction
}

// memStream is one active output_stream-3 redirect: Print calls append to
// buf instead of reaching the screen until EndMemoryStream backpatches
// table addr with the accumulated text.
type memStream struct {
	addr uint32
	buf  []byte
}

// NewProcessor builds a Processor ready to run from a loaded story. The
// screen may be nil at construction time (a front end can attach one later
// via RegisterScreen); it must be set before Step runs any instruction that
// touches output or input.
func NewProcessor(m *zcore.Memory, screen Screen) *Processor {
	alphabets := zstring.LoadAlphabets(m)

	p := &Processor{
		memory:     m,
		original:   append([]uint8(nil), m.RawBytes()...),
		cache:      NewInstructionCache(),
		decoder:    NewDecoder(m),
		observer:   NoopObserver{},
		screen:     screen,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		alphabets:  alphabets,
		dictionary: zdictionary.Parse(m, uint32(m.DictionaryBase), alphabets),
	}
	p.stack.push(StackFrame{PC: uint32(m.InitialPC), Kind: RoutineProcedure})
	return p
}

// RegisterScreen attaches (or replaces) the Screen a front end drives the
// processor's output and input through.
func (p *Processor) RegisterScreen(s Screen) { p.screen = s }

// RegisterObserver attaches one or more Observers, fanning out through a
// MultiObserver when more than one is given.
func (p *Processor) RegisterObserver(observers ...Observer) {
	if len(observers) == 1 {
		p.observer = observers[0]
		return
	}
	p.observer = MultiObserver(observers)
}

// PC is the current frame's next-instruction address, for debugger
// introspection.
func (p *Processor) PC() uint32 {
	frame, err := p.stack.Current()
	if err != nil {
		return 0
	}
	return frame.PC
}

// ExecutingInstruction is the most recently decoded instruction, for
// debugger introspection.
func (p *Processor) ExecutingInstruction() *Instruction { return p.lastInstruction }

// Quitting reports whether the quit opcode has run.
func (p *Processor) Quitting() bool { return p.quitting }

// Step decodes and executes exactly one instruction. On error, the current
// frame's PC is left pointing at the faulting instruction's start address
// so a caller can inspect or retry.
func (p *Processor) Step() error {
	frame, err := p.stack.Current()
	if err != nil {
		return err
	}
	addr := frame.PC

	ins, ok := p.cache.Get(addr)
	if !ok {
		ins, err = p.decoder.Decode(addr)
		if err != nil {
			return err
		}
		p.cache.Put(addr, ins)
	}

	p.observer.Stepping(ins, frame)
	frame.PC = addr + ins.Length
	p.lastInstruction = ins

	if err := ins.Opcode.Handler(p, ins); err != nil {
		if f, ferr := p.stack.Current(); ferr == nil {
			f.PC = addr
		}
		return err
	}

	newFrame, _ := p.stack.Current()
	p.observer.Stepped(ins, newFrame)
	return nil
}

// Run steps until the quit opcode runs or a Step returns an error.
func (p *Processor) Run() error {
	for !p.quitting {
		if err := p.Step(); err != nil {
			return err
		}
	}
	return nil
}

// --- ExecutionContext ---

func (p *Processor) Memory() *zcore.Memory { return p.memory }

func (p *Processor) ReadVariable(v zcore.Variable, indirect bool) (Value, error) {
	frame, err := p.stack.Current()
	if err != nil {
		return ZERO, err
	}
	switch v.Kind {
	case zcore.VarStack:
		if indirect {
			return frame.peek()
		}
		return frame.pop()
	case zcore.VarLocal:
		if v.Index < 0 || v.Index >= len(frame.Locals) {
			return ZERO, &LocalOutOfRangeError{Index: v.Index, Count: len(frame.Locals)}
		}
		return frame.Locals[v.Index], nil
	default: // VarGlobal
		addr := uint32(p.memory.GlobalVariableBase) + uint32(v.Index)*2
		return Value(p.memory.ReadWord(addr)), nil
	}
}

func (p *Processor) WriteVariable(v zcore.Variable, val Value, indirect bool) error {
	frame, err := p.stack.Current()
	if err != nil {
		return err
	}
	switch v.Kind {
	case zcore.VarStack:
		if indirect {
			if _, err := frame.pop(); err != nil {
				return err
			}
		}
		frame.push(val)
		return nil
	case zcore.VarLocal:
		if v.Index < 0 || v.Index >= len(frame.Locals) {
			return &LocalOutOfRangeError{Index: v.Index, Count: len(frame.Locals)}
		}
		old := frame.Locals[v.Index]
		frame.Locals[v.Index] = val
		p.observer.LocalVariableChanged(frame, v.Index, old, val)
		return nil
	default: // VarGlobal
		addr := uint32(p.memory.GlobalVariableBase) + uint32(v.Index)*2
		return p.memory.WriteWord(addr, uint16(val))
	}
}

func (p *Processor) ReadByte(addr uint32) uint8       { return p.memory.ReadByte(addr) }
func (p *Processor) WriteByte(addr uint32, v uint8) error { return p.memory.WriteByte(addr, v) }
func (p *Processor) ReadWord(addr uint32) uint16      { return p.memory.ReadWord(addr) }
func (p *Processor) WriteWord(addr uint32, v uint16) error { return p.memory.WriteWord(addr, v) }

// Call implements the full call protocol: packed-address unpacking, the
// local-count byte, version-dependent initial locals (read from memory on
// v1-4, zeroed on v5+), argument binding and frame setup. Calling address 0
// is special-cased per the Standard: it does nothing but store false (for
// call_*s variants) without pushing a frame.
func (p *Processor) Call(packedAddr uint16, args []Value, store *zcore.Variable) error {
	if packedAddr == 0 {
		if store != nil {
			return p.WriteVariable(*store, ZERO, false)
		}
		return nil
	}

	addr := p.memory.PackedAddress(uint32(packedAddr), false)
	localCount := int(p.memory.ReadByte(addr))
	if localCount > 15 {
		return &IllegalStateError{Reason: "routine declares more than 15 locals"}
	}

	locals := make([]Value, localCount)
	var pc uint32
	if p.Version() <= 4 {
		for i := 0; i < localCount; i++ {
			locals[i] = Value(p.memory.ReadWord(addr + 1 + uint32(i)*2))
		}
		pc = addr + 1 + uint32(localCount)*2
	} else {
		pc = addr + 1
	}

	n := len(args)
	if n > localCount {
		n = localCount
	}
	copy(locals, args[:n])

	caller, err := p.stack.Current()
	if err != nil {
		return err
	}

	frame := StackFrame{
		RoutineAddress: addr,
		PC:             pc,
		Locals:         locals,
		ArgumentCount:  len(args),
		ReturnAddress:  caller.PC,
		HasReturnAddr:  true,
		Kind:           RoutineProcedure,
	}
	if store != nil {
		frame.HasStoreVar = true
		frame.StoreVariable = *store
		frame.Kind = RoutineFunction
	}

	p.stack.push(frame)
	top, _ := p.stack.Current()
	p.observer.EnterFrame(top)
	return nil
}

// Return pops the current frame, resumes the caller's PC and stores the
// result if the call requested one. Popping the synthetic bottom "main"
// frame is an illegal state - only quit may end the machine.
func (p *Processor) Return(val Value) error {
	if p.stack.Depth() <= 1 {
		return &IllegalStateError{Reason: "return would empty the call stack"}
	}

	frame, err := p.stack.pop()
	if err != nil {
		return err
	}

	caller, err := p.stack.Current()
	if err != nil {
		return err
	}
	caller.PC = frame.ReturnAddress

	p.observer.ExitFrame(&frame, val)

	if frame.HasStoreVar {
		return p.WriteVariable(frame.StoreVariable, val, false)
	}
	return nil
}

// Jump applies a signed offset to the current frame's PC per the jump
// opcode's own encoding (not a Branch field: the offset is biased by -2,
// same as a branch address, but always taken).
func (p *Processor) Jump(offset int16) error {
	frame, err := p.stack.Current()
	if err != nil {
		return err
	}
	frame.PC = uint32(int64(frame.PC) + int64(offset) - 2)
	return nil
}

// Branch evaluates a decoded branch field against the instruction's actual
// condition, taking the jump/rtrue/rfalse shortcut only when they match.
func (p *Processor) Branch(b zcore.Branch, condition bool) error {
	if condition != b.Condition {
		return nil
	}
	switch b.Kind {
	case zcore.BranchRTrue:
		return p.Return(ONE)
	case zcore.BranchRFalse:
		return p.Return(ZERO)
	default:
		frame, err := p.stack.Current()
		if err != nil {
			return err
		}
		frame.PC = uint32(int64(frame.PC) + int64(b.Offset) - 2)
		return nil
	}
}

func (p *Processor) UnpackRoutineAddress(packed uint16) uint32 {
	return p.memory.PackedAddress(uint32(packed), false)
}

func (p *Processor) UnpackStringAddress(packed uint16) uint32 {
	return p.memory.PackedAddress(uint32(packed), true)
}

func (p *Processor) Print(s string) {
	if n := len(p.memStreams); n > 0 {
		p.memStreams[n-1].buf = append(p.memStreams[n-1].buf, s...)
		return
	}
	if p.screen != nil {
		p.screen.Print(p.currentWindow, s)
	}
}

// BeginMemoryStream implements output_stream 3.
func (p *Processor) BeginMemoryStream(addr uint32) {
	p.memStreams = append(p.memStreams, memStream{addr: addr})
}

// EndMemoryStream implements output_stream -3.
func (p *Processor) EndMemoryStream() error {
	n := len(p.memStreams)
	if n == 0 {
		return nil
	}
	top := p.memStreams[n-1]
	p.memStreams = p.memStreams[:n-1]

	if err := p.memory.WriteWord(top.addr, uint16(len(top.buf))); err != nil {
		return err
	}
	for i, b := range top.buf {
		if err := p.memory.WriteByte(top.addr+2+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) PrintZWords(words []uint16) {
	p.Print(zstring.DecodeWords(p.memory, words, p.alphabets))
}

// Random resolves the random opcode's three modes: n > 0 draws uniformly
// from [1, n] inclusive, n < 0 reseeds deterministically from -n, n == 0
// reseeds from an unpredictable source. A negative-or-zero call always
// stores 0.
func (p *Processor) Random(n int16) Value {
	switch {
	case n > 0:
		return Value(p.rng.Int31n(int32(n)) + 1)
	case n < 0:
		p.rng = rand.New(rand.NewSource(int64(-n)))
		return ZERO
	default:
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		return ZERO
	}
}

func (p *Processor) Quit() {
	p.quitting = true
	p.observer.Quit()
}

// Restart reloads the story's original bytes and resets the call stack,
// instruction cache and undo snapshots, preserving the transcribing and
// fixed-pitch bits the Standard requires survive a restart.
func (p *Processor) Restart() {
	preserved := p.memory.RawBytes()[0x10] & 0b0000_0011
	copy(p.memory.RawBytes(), p.original)
	cur := p.memory.RawBytes()[0x10]
	p.memory.RawBytes()[0x10] = (cur &^ 0b0000_0011) | preserved

	p.stack = CallStack{}
	p.stack.push(StackFrame{PC: uint32(p.memory.InitialPC), Kind: RoutineProcedure})
	p.cache = NewInstructionCache()
	p.undo = undoStack{}
	p.currentWindow = 0
	p.quitting = false
}

// Verify checksums bytes [0x40, FileLength) and compares against the
// header's declared checksum, per the verify opcode.
func (p *Processor) Verify() bool {
	length := p.memory.FileLength()
	if length == 0 || length > p.memory.Size() {
		return false
	}
	var sum uint16
	raw := p.memory.RawBytes()
	for i := uint32(0x40); i < length; i++ {
		sum += uint16(raw[i])
	}
	return sum == p.memory.FileChecksum
}

func (p *Processor) Screen() Screen { return p.screen }

func (p *Processor) CurrentFrame() (*StackFrame, error) { return p.stack.Current() }

func (p *Processor) Version() uint8 { return p.memory.Version }

func (p *Processor) ArgumentCount() int {
	frame, err := p.stack.Current()
	if err != nil {
		return 0
	}
	return frame.ArgumentCount
}

func (p *Processor) Alphabets() *zstring.Alphabets { return p.alphabets }

func (p *Processor) Dictionary() *zdictionary.Dictionary { return p.dictionary }

// SetWindow records which window subsequent Print calls target; set_window
// is the only opcode that changes it.
func (p *Processor) SetWindow(window int) {
	p.currentWindow = window
	if p.screen != nil {
		p.screen.SetWindow(window)
	}
}

// CurrentWindowIndex reports the window Print currently targets.
func (p *Processor) CurrentWindowIndex() int { return p.currentWindow }
