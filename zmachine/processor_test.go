package zmachine

import (
	"encoding/binary"
	"testing"

	"github.com/zmterp/zengine/zcore"
)

// newTestStory builds a minimal, internally-consistent v5 story buffer:
// an empty dictionary, a 240-word global table, and a static-memory base
// high enough that nothing the tests write collides with header fields.
// initialPC points at codeAddr so NewProcessor's bottom frame starts
// executing wherever each test pokes its instruction bytes.
func newTestStory(t *testing.T, codeAddr uint32) *zcore.Memory {
	t.Helper()
	const (
		dictionaryBase = 0x00f0
		globalBase     = 0x0100
		staticBase     = 0x0300
	)

	raw := make([]uint8, 0x0800)
	raw[0x00] = 5 // version
	binary.BigEndian.PutUint16(raw[0x04:0x06], staticBase) // high memory base
	binary.BigEndian.PutUint16(raw[0x06:0x08], uint16(codeAddr))
	binary.BigEndian.PutUint16(raw[0x08:0x0a], dictionaryBase)
	binary.BigEndian.PutUint16(raw[0x0a:0x0c], 0x0040) // object table (unused)
	binary.BigEndian.PutUint16(raw[0x0c:0x0e], globalBase)
	binary.BigEndian.PutUint16(raw[0x0e:0x10], staticBase)
	copy(raw[0x12:0x18], "000000")

	// Empty dictionary: zero separators, entry length 6, zero entries.
	raw[dictionaryBase] = 0
	raw[dictionaryBase+1] = 6
	binary.BigEndian.PutUint16(raw[dictionaryBase+2:dictionaryBase+4], 0)

	return zcore.Load(raw)
}

// writeCode pokes raw instruction bytes directly into story memory,
// bypassing the static-memory write guard - test setup, not an opcode
// under test.
func writeCode(m *zcore.Memory, addr uint32, bytes ...uint8) {
	copy(m.RawBytes()[addr:], bytes)
}

func mustFrame(t *testing.T, p *Processor) *StackFrame {
	t.Helper()
	f, err := p.CurrentFrame()
	if err != nil {
		t.Fatalf("CurrentFrame: %v", err)
	}
	return f
}

// TestAddWraps covers spec.md S8 scenario 2: add -32768, -1 wraps to
// 0x7fff rather than overflowing.
func TestAddWraps(t *testing.T) {
	const routine = 0x0320
	m := newTestStory(t, 0x0200)
	m.RawBytes()[routine] = 1 // one local
	// add (large,large) -> local 0: variable-form 2OP, both large constants.
	writeCode(m, routine+1,
		0xd4,       // variable-form, 2OP number 20 (add)
		0x0f,       // kinds: large, large, omitted, omitted
		0x80, 0x00, // -32768
		0xff, 0xff, // -1
		0x01, // store -> local 0 (wire 1)
	)

	p := NewProcessor(m, nil)
	if err := p.Call(uint16(routine/4), nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	f := mustFrame(t, p)
	if got := f.Locals[0]; got != Value(0x7fff) {
		t.Fatalf("local 0 = 0x%x, want 0x7fff", uint16(got))
	}
}

// TestCallVsToZero covers spec.md S8 scenario 4: calling packed address 0
// stores false and never pushes a frame.
func TestCallVsToZero(t *testing.T) {
	const codeAddr = 0x0200
	m := newTestStory(t, codeAddr)
	writeCode(m, codeAddr,
		0xe0,       // variable-form VAR number 0 (call_vs)
		0x7f,       // kinds: small constant, rest omitted
		0x00,       // packed address 0
		0x00,       // store -> stack
	)

	p := NewProcessor(m, nil)
	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	f := mustFrame(t, p)
	if got := len(f.EvalStack()); got != 1 {
		t.Fatalf("eval stack len = %d, want 1", got)
	}
	if top := f.EvalStack()[0]; top != ZERO {
		t.Fatalf("pushed value = %d, want 0", top)
	}
	if p.PC() != codeAddr+4 {
		t.Fatalf("PC = 0x%x, want 0x%x", p.PC(), codeAddr+4)
	}
}

// TestNestedCallAndRet covers spec.md S8 scenario 5: call_vs f, 7, 8 -> g0
// where f sums its two locals and ret_popped's the result.
func TestNestedCallAndRet(t *testing.T) {
	const (
		codeAddr = 0x0200
		routine  = 0x0320 // must be a multiple of 4 (v5 packed*4)
	)
	m := newTestStory(t, codeAddr)

	m.RawBytes()[routine] = 2 // two locals, v5: no initial values stored inline
	writeCode(m, routine+1,
		0x74,       // long form, var/var, 2OP number 20 (add)
		0x01, 0x02, // local 0, local 1
		0x00, // store -> stack (push)
	)
	writeCode(m, routine+5, 0xb8) // 0OP number 8: ret_popped

	writeCode(m, codeAddr,
		0xe0,                          // variable-form VAR number 0 (call_vs)
		0x17,                          // kinds: large, small, small, omitted
		uint8(routine/4>>8), uint8(routine/4), // packed routine address
		0x07, 0x08, // args 7, 8
		0x10, // store -> global 0
	)

	p := NewProcessor(m, nil)
	for i := 0; i < 3; i++ {
		if err := p.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	g0, err := p.ReadVariable(zcore.Variable{Kind: zcore.VarGlobal, Index: 0}, true)
	if err != nil {
		t.Fatalf("ReadVariable: %v", err)
	}
	if g0 != Value(15) {
		t.Fatalf("g0 = %d, want 15", g0)
	}
	if p.PC() != codeAddr+7 {
		t.Fatalf("PC = 0x%x, want 0x%x", p.PC(), codeAddr+7)
	}

	f := mustFrame(t, p)
	if f.RoutineAddress == routine {
		t.Fatalf("routine frame was not popped")
	}
}

// TestBranchRTrue covers spec.md S8 scenario 6: a taken branch whose kind
// is RTrue returns 1 to the caller's store variable.
func TestBranchRTrue(t *testing.T) {
	const (
		codeAddr = 0x0200
		routine  = 0x0320
	)
	m := newTestStory(t, codeAddr)

	m.RawBytes()[routine] = 0 // no locals
	writeCode(m, routine+1,
		0x90, // short form, 1OP number 0 (jz), small constant operand
		0x00, // operand value 0
		0xc1, // branch: condition=true, single-byte, offset=1 (-> RTrue)
	)

	writeCode(m, codeAddr,
		0xe0, // variable-form VAR number 0 (call_vs)
		0x3f, // kinds: large constant, rest omitted
		uint8(routine/4>>8), uint8(routine/4),
		0x11, // store -> global 1
	)

	p := NewProcessor(m, nil)
	for i := 0; i < 2; i++ {
		if err := p.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	g1, err := p.ReadVariable(zcore.Variable{Kind: zcore.VarGlobal, Index: 1}, true)
	if err != nil {
		t.Fatalf("ReadVariable: %v", err)
	}
	if g1 != ONE {
		t.Fatalf("g1 = %d, want 1", g1)
	}
	if p.PC() != codeAddr+5 {
		t.Fatalf("PC = 0x%x, want 0x%x", p.PC(), codeAddr+5)
	}
	mustFrame(t, p)
}

// TestJeSingleStackPop covers spec.md S8 scenario 3: je sp, 1, 2, 3 with
// stack top 2 pops the stack exactly once and takes the branch.
func TestJeSingleStackPop(t *testing.T) {
	const codeAddr = 0x0200
	m := newTestStory(t, codeAddr)
	writeCode(m, codeAddr,
		0xc1,       // variable-form 2OP number 1 (je)
		0x95,       // kinds: variable, small, small, small
		0x00,       // operand 0: stack
		0x01,       // operand 1: 1
		0x02,       // operand 2: 2
		0x03,       // operand 3: 3
		0xc5,       // branch: condition=true, single-byte, offset=5
	)

	p := NewProcessor(m, nil)
	if err := p.WriteVariable(zcore.Variable{Kind: zcore.VarStack}, Value(2), false); err != nil {
		t.Fatalf("seed stack: %v", err)
	}

	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	f := mustFrame(t, p)
	if got := len(f.EvalStack()); got != 0 {
		t.Fatalf("eval stack len = %d, want 0 (exactly one pop)", got)
	}
	if want := uint32(codeAddr + 7 + 3); p.PC() != want {
		t.Fatalf("PC = 0x%x, want 0x%x", p.PC(), want)
	}
}

// TestStepAdvancesPC is the general "every non-trivial instruction
// advances the PC" invariant from spec.md S8, exercised against a plain
// nop.
func TestStepAdvancesPC(t *testing.T) {
	const codeAddr = 0x0200
	m := newTestStory(t, codeAddr)
	writeCode(m, codeAddr, 0xb4) // 0OP number 4: nop

	p := NewProcessor(m, nil)
	before := p.PC()
	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if p.PC() == before {
		t.Fatalf("PC did not advance past a nop")
	}
}

// TestCallStackNeverEmpty asserts spec.md S8's |call_stack| >= 1 invariant:
// returning from the bottom frame is an IllegalStateError, not a panic or
// an empty stack.
func TestCallStackNeverEmpty(t *testing.T) {
	const codeAddr = 0x0200
	m := newTestStory(t, codeAddr)
	writeCode(m, codeAddr, 0xb0) // 0OP number 0: rtrue

	p := NewProcessor(m, nil)
	err := p.Step()
	if err == nil {
		t.Fatalf("expected IllegalStateError returning from the bottom frame, got nil")
	}
	if _, ok := err.(*IllegalStateError); !ok {
		t.Fatalf("expected *IllegalStateError, got %T: %v", err, err)
	}
	if _, ferr := p.CurrentFrame(); ferr != nil {
		t.Fatalf("call stack became empty: %v", ferr)
	}
}
