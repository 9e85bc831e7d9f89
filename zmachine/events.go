package zmachine

// Observer receives synchronous notifications of processor activity, for
// debugger front ends (breakpoints, single-stepping, call tracing). These
// calls happen in-line on the goroutine driving Step; spec.md's Design
// Notes S9 are explicit that this is a plain synchronous callback set, not
// a channel-based event bus, so a debugger can halt execution mid-step by
// simply not returning.
type Observer interface {
	// Stepping fires before an instruction executes.
	Stepping(ins *Instruction, frame *StackFrame)
	// Stepped fires after an instruction executes.
	Stepped(ins *Instruction, frame *StackFrame)
	// EnterFrame fires when a call pushes a new frame.
	EnterFrame(frame *StackFrame)
	// ExitFrame fires when a return pops a frame.
	ExitFrame(frame *StackFrame, result Value)
	// LocalVariableChanged fires when a variable write stores to a local in
	// the current frame. Binding call arguments into a new frame's locals
	// does not fire it.
	LocalVariableChanged(frame *StackFrame, index int, old, new Value)
	// Quit fires when the quit opcode runs.
	Quit()
}

// NoopObserver implements Observer with empty bodies, so a Processor can
// always have a non-nil observer without every handler needing a nil
// check.
type NoopObserver struct{}

func (NoopObserver) Stepping(*Instruction, *StackFrame)                {}
func (NoopObserver) Stepped(*Instruction, *StackFrame)                 {}
func (NoopObserver) EnterFrame(*StackFrame)                            {}
func (NoopObserver) ExitFrame(*StackFrame, Value)                      {}
func (NoopObserver) LocalVariableChanged(*StackFrame, int, Value, Value) {}
func (NoopObserver) Quit()                                             {}

// MultiObserver fans notifications out to several observers in order, so
// the TUI's screen-output observer and a debugger's tracing observer can
// both be attached at once.
type MultiObserver []Observer

func (m MultiObserver) Stepping(ins *Instruction, f *StackFrame) {
	for _, o := range m {
		o.Stepping(ins, f)
	}
}
func (m MultiObserver) Stepped(ins *Instruction, f *StackFrame) {
	for _, o := range m {
		o.Stepped(ins, f)
	}
}
func (m MultiObserver) EnterFrame(f *StackFrame) {
	for _, o := range m {
		o.EnterFrame(f)
	}
}
func (m MultiObserver) ExitFrame(f *StackFrame, result Value) {
	for _, o := range m {
		o.ExitFrame(f, result)
	}
}
func (m MultiObserver) LocalVariableChanged(f *StackFrame, index int, old, new Value) {
	for _, o := range m {
		o.LocalVariableChanged(f, index, old, new)
	}
}
func (m MultiObserver) Quit() {
	for _, o := range m {
		o.Quit()
	}
}
