package zmachine

import "github.com/zmterp/zengine/zcore"

// Decoder turns a memory address into a fully-decoded Instruction,
// implementing the form dispatch spec.md S4.4 lays out: long/short/
// variable/extended forms, the 2-bit operand-kind fields, the
// double-variable kinds-byte extension for call_vs2/call_vn2, and the
// trailing store-variable/branch/inline-text fields in wire order.
type Decoder struct {
	Memory  *zcore.Memory
	Version uint8
}

func NewDecoder(m *zcore.Memory) *Decoder {
	return &Decoder{Memory: m, Version: m.Version}
}

// Decode reads one instruction starting at addr.
func (d *Decoder) Decode(addr uint32) (*Instruction, error) {
	r := zcore.NewReader(d.Memory, addr)
	first := r.NextByte()

	var (
		count  OperandCount
		ext    bool
		number uint8
		kinds  []OperandKind
	)

	switch {
	case first == 0xbe && d.Version >= 5:
		ext = true
		number = r.NextByte()
		count = EXTOP
		kb := r.NextByte()
		kinds = decodeKindsByte(kb)
	case first&0xc0 == 0xc0: // variable form
		number = first & 0x1f
		if first&0x20 != 0 {
			count = VAR
		} else {
			count = OP2
		}
		kb := r.NextByte()
		kinds = decodeKindsByte(kb)
	case first&0xc0 == 0x80: // short form
		number = first & 0x0f
		kindBits := (first >> 4) & 0x03
		if kindBits == 0x03 {
			count = OP0
		} else {
			count = OP1
			kinds = []OperandKind{kindFromBits(kindBits)}
		}
	default: // long form, top two bits 00 or 01
		number = first & 0x1f
		count = OP2
		k1 := SmallConstant
		if first&0x40 != 0 {
			k1 = VariableOperand
		}
		k2 := SmallConstant
		if first&0x20 != 0 {
			k2 = VariableOperand
		}
		kinds = []OperandKind{k1, k2}
	}

	info, ok := LookupOpcode(ext, count, number, d.Version)
	if !ok {
		return nil, &DecodeError{Addr: addr, Reason: (&UnknownOpcodeError{Form: count, Number: number, Ext: ext}).Error()}
	}

	// call_vs2/call_vn2 read a second kinds byte for up to 8 operands.
	if info.IsDoubleVariable {
		kb2 := r.NextByte()
		kinds = append(kinds, decodeKindsByte(kb2)...)
	}

	ins := &Instruction{Address: addr, Opcode: info}
	for _, k := range kinds {
		if k == Omitted {
			break
		}
		op := Operand{Kind: k}
		switch k {
		case LargeConstant:
			op.Raw = r.NextWord()
		case SmallConstant:
			op.Raw = uint16(r.NextByte())
		case VariableOperand:
			op.Var = r.NextVariable()
		}
		ins.Operands[ins.NumOperands] = op
		ins.NumOperands++
	}

	if info.HasStore {
		ins.HasStoreVariable = true
		ins.StoreVariable = r.NextVariable()
	}

	if info.HasBranch {
		ins.HasBranch = true
		ins.Branch = r.NextBranch()
	}

	if info.HasZText {
		ins.HasZText = true
		ins.ZText = r.NextZWords()
	}

	ins.Length = r.Address - addr
	return ins, nil
}

// decodeKindsByte unpacks the four 2-bit fields of an operand-kinds byte,
// most significant pair first, stopping callers at the first Omitted.
func decodeKindsByte(b uint8) []OperandKind {
	return []OperandKind{
		kindFromBits(b >> 6),
		kindFromBits(b >> 4),
		kindFromBits(b >> 2),
		kindFromBits(b),
	}
}
