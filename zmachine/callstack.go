package zmachine

import "github.com/zmterp/zengine/zcore"

// RoutineKind distinguishes a routine called expecting a stored return
// value (function) from one called for its side effects only (procedure).
type RoutineKind int

const (
	RoutineFunction RoutineKind = iota
	RoutineProcedure
)

// StackFrame is the per-call activation record: local variables, argument
// count, return address, store target and evaluation sub-stack, per
// spec.md S3. Only the top frame (the "current" frame) is ever mutated.
type StackFrame struct {
	RoutineAddress uint32
	PC             uint32
	Locals         []Value
	ArgumentCount  int
	ReturnAddress  uint32
	HasReturnAddr  bool // false only for the synthetic bottom "main" frame
	HasStoreVar    bool
	StoreVariable  zcore.Variable
	Kind           RoutineKind
	evalStack      []Value
}

func (f *StackFrame) push(v Value) {
	f.evalStack = append(f.evalStack, v)
}

func (f *StackFrame) pop() (Value, error) {
	n := len(f.evalStack)
	if n == 0 {
		return ZERO, &StackUnderflowError{Which: "evaluation stack pop"}
	}
	v := f.evalStack[n-1]
	f.evalStack = f.evalStack[:n-1]
	return v, nil
}

func (f *StackFrame) peek() (Value, error) {
	n := len(f.evalStack)
	if n == 0 {
		return ZERO, &StackUnderflowError{Which: "evaluation stack peek"}
	}
	return f.evalStack[n-1], nil
}

// EvalStack exposes a read-only view of the frame's evaluation stack, top
// last, for debugger introspection.
func (f *StackFrame) EvalStack() []Value { return f.evalStack }

// clone deep-copies a frame, used by the in-memory undo mechanism.
func (f *StackFrame) clone() StackFrame {
	c := *f
	c.Locals = append([]Value(nil), f.Locals...)
	c.evalStack = append([]Value(nil), f.evalStack...)
	return c
}

// CallStack is the processor's non-empty stack of StackFrames. The bottom
// frame represents the implicit "main" routine and is never popped (doing
// so is only legal via the quit opcode tearing down the whole machine).
type CallStack struct {
	frames []StackFrame
}

func (s *CallStack) push(f StackFrame) {
	s.frames = append(s.frames, f)
}

func (s *CallStack) pop() (StackFrame, error) {
	n := len(s.frames)
	if n == 0 {
		return StackFrame{}, &StackUnderflowError{Which: "call stack pop"}
	}
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f, nil
}

// Current returns a pointer to the top (current) frame.
func (s *CallStack) Current() (*StackFrame, error) {
	n := len(s.frames)
	if n == 0 {
		return nil, &StackUnderflowError{Which: "call stack peek"}
	}
	return &s.frames[n-1], nil
}

// Depth is the number of live frames.
func (s *CallStack) Depth() int { return len(s.frames) }

// Frames exposes a read-only view of all frames, bottom to top, for
// debugger introspection.
func (s *CallStack) Frames() []StackFrame { return s.frames }

// clone deep-copies the whole call stack, used by the in-memory undo
// mechanism (SAVE_UNDO/RESTORE_UNDO), not by file-based save/restore,
// which is out of scope per spec.md's Non-goals.
func (s *CallStack) clone() CallStack {
	c := CallStack{frames: make([]StackFrame, len(s.frames))}
	for i, f := range s.frames {
		c.frames[i] = f.clone()
	}
	return c
}
