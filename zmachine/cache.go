package zmachine

// InstructionCache memoizes decoded instructions by address. Code memory
// is immutable once a story is loaded (self-modifying code is not a thing
// the Z-machine permits outside of explicit low-memory table writes that
// never touch the code stream), so entries never need invalidation
// (spec.md S4.3).
type InstructionCache struct {
	entries map[uint32]*Instruction
}

func NewInstructionCache() *InstructionCache {
	return &InstructionCache{entries: make(map[uint32]*Instruction)}
}

func (c *InstructionCache) Get(addr uint32) (*Instruction, bool) {
	ins, ok := c.entries[addr]
	return ins, ok
}

func (c *InstructionCache) Put(addr uint32, ins *Instruction) {
	c.entries[addr] = ins
}

// Len reports the number of cached addresses, for diagnostics.
func (c *InstructionCache) Len() int { return len(c.entries) }
