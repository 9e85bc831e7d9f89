package zmachine

import "github.com/zmterp/zengine/zcore"

// OperandCount is the decoded operand-count class of an instruction, used
// both to select the right slice of the opcode table and, combined with
// the opcode number, as the table's lookup key (spec.md S4.3 calls this
// "kind" and names it TwoOp/OneOp/ZeroOp/VarOp/Ext).
type OperandCount int

const (
	OP0 OperandCount = iota
	OP1
	OP2
	VAR
	EXTOP
)

func (c OperandCount) String() string {
	switch c {
	case OP0:
		return "0OP"
	case OP1:
		return "1OP"
	case OP2:
		return "2OP"
	case VAR:
		return "VAR"
	case EXTOP:
		return "EXT"
	default:
		return "?"
	}
}

// OpcodeForm is the on-wire instruction shape (spec.md S4.4).
type OpcodeForm int

const (
	LongForm OpcodeForm = iota
	ShortForm
	VariableForm
	ExtendedForm
)

// HandlerFunc implements one opcode's semantics against an
// ExecutionContext. The handler set is closed and known at build time
// (spec.md Design Notes S9); each opcode table entry carries exactly one.
type HandlerFunc func(ctx ExecutionContext, ins *Instruction) error

// OpcodeInfo is the opcode-table entry spec.md S4.3 describes: mnemonic,
// flags (properties of the opcode, never of a particular instance) and a
// handler reference. A given (form, number) pair may resolve to a
// different OpcodeInfo depending on story version (e.g. 1OP:15 is `not`
// on v1-4 and `call_1n` on v5+).
type OpcodeInfo struct {
	Mnemonic         string
	Count            OperandCount
	Number           uint8
	HasStore         bool
	HasBranch        bool
	HasZText         bool
	IsDoubleVariable bool
	IsCall           bool
	IsJump           bool
	Handler          HandlerFunc
}

// maxOperands is the most operands a single instruction can carry: the
// double-variable call_vs2/call_vn2 opcodes read two kinds bytes for up to
// 8 operands (spec.md S4.4).
const maxOperands = 8

// Instruction is the immutable decoded record spec.md S3 defines. Operands
// live in a fixed inline array rather than a slice so decoding a hot
// address doesn't allocate on every re-decode before the cache absorbs it
// (spec.md Design Notes S9 on operand-array pooling).
type Instruction struct {
	Address   uint32
	Length    uint32
	Opcode    *OpcodeInfo
	Operands  [maxOperands]Operand
	NumOperands int

	HasStoreVariable bool
	StoreVariable    zcore.Variable

	HasBranch bool
	Branch    zcore.Branch

	HasZText bool
	ZText    []uint16
}

// OperandSlice returns the live prefix of the operand array.
func (ins *Instruction) OperandSlice() []Operand {
	return ins.Operands[:ins.NumOperands]
}
