package zmachine

import "github.com/zmterp/zengine/zobject"

func opJz(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return boolBranch(ctx, ins, vals[0] == ZERO)
}

// je branches if the first operand equals any of the (up to three)
// remaining operands, the one Z-machine comparison opcode that takes more
// than two operands.
func opJe(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	for _, v := range vals[1:] {
		if vals[0] == v {
			return boolBranch(ctx, ins, true)
		}
	}
	return boolBranch(ctx, ins, false)
}

func opJl(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return boolBranch(ctx, ins, vals[0].Signed() < vals[1].Signed())
}

func opJg(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return boolBranch(ctx, ins, vals[0].Signed() > vals[1].Signed())
}

func opJin(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		return boolBranch(ctx, ins, uint16(vals[1]) == 0)
	}
	return boolBranch(ctx, ins, obj.Parent == uint16(vals[1]))
}

func opTest(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return boolBranch(ctx, ins, vals[0]&vals[1] == vals[1])
}

func opTestAttr(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		return boolBranch(ctx, ins, false)
	}
	return boolBranch(ctx, ins, obj.TestAttribute(uint16(vals[1])))
}
