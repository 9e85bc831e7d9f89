package zmachine

// undoState is an in-memory snapshot of everything save_undo/restore_undo
// needs to roll back: dynamic memory and the call stack. This is the
// in-memory undo mechanism spec.md's Non-goals carve out from file-based
// quetzal save/restore, which this engine does not implement.
type undoState struct {
	dynamicMemory []uint8
	callStack     CallStack
}

// undoStack holds the states SAVE_UNDO has captured, most recent last.
type undoStack struct {
	states []undoState
}

func (p *Processor) captureUndoState() undoState {
	base := uint32(p.memory.StaticMemoryBase)
	dyn := make([]uint8, base)
	copy(dyn, p.memory.RawBytes()[:base])
	return undoState{dynamicMemory: dyn, callStack: p.stack.clone()}
}

func (p *Processor) applyUndoState(s undoState) bool {
	base := uint32(p.memory.StaticMemoryBase)
	if uint32(len(s.dynamicMemory)) != base {
		return false
	}
	copy(p.memory.RawBytes()[:base], s.dynamicMemory)
	p.stack = s.callStack.clone()
	p.cache = NewInstructionCache()
	return true
}

// SaveUndo pushes the current machine state and reports success (1) per
// the save_undo opcode's store value.
func (p *Processor) SaveUndo() Value {
	p.undo.states = append(p.undo.states, p.captureUndoState())
	return ONE
}

// RestoreUndo pops the most recent undo snapshot and applies it, returning
// the restore_undo opcode's store value: 0 on failure (nothing to
// restore), 2 on success (matching the restore opcode's own "2" result so
// a story can't tell the two apart).
func (p *Processor) RestoreUndo() Value {
	n := len(p.undo.states)
	if n == 0 {
		return ZERO
	}
	s := p.undo.states[n-1]
	p.undo.states = p.undo.states[:n-1]
	if !p.applyUndoState(s) {
		return ZERO
	}
	return Value(2)
}
