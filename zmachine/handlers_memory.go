package zmachine

import "github.com/zmterp/zengine/ztable"

// store writes value into the referenced variable. Writing to the stack
// variable (number 0) pushes, matching the Standard's "reading the stack
// pops, writing pushes" rule - unlike inc/dec's in-place exception.
func opStore(ctx ExecutionContext, ins *Instruction) error {
	ref, err := variableRef(ctx, ins.Operands[0])
	if err != nil {
		return err
	}
	value, err := ins.Operands[1].Resolve(ctx)
	if err != nil {
		return err
	}
	return ctx.WriteVariable(ref, value, false)
}

// load reads the referenced variable without the usual destructive stack
// pop - the Standard's one read-only exception, so a routine can inspect
// the stack top without consuming it.
func opLoad(ctx ExecutionContext, ins *Instruction) error {
	ref, err := variableRef(ctx, ins.Operands[0])
	if err != nil {
		return err
	}
	v, err := ctx.ReadVariable(ref, true)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, v)
}

func opLoadw(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	addr := uint32(vals[0]) + 2*uint32(vals[1])
	return storeResult(ctx, ins, Value(ctx.ReadWord(addr)))
}

func opLoadb(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	addr := uint32(vals[0]) + uint32(vals[1])
	return storeResult(ctx, ins, Value(ctx.ReadByte(addr)))
}

func opStorew(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	addr := uint32(vals[0]) + 2*uint32(vals[1])
	return ctx.WriteWord(addr, uint16(vals[2]))
}

func opStoreb(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	addr := uint32(vals[0]) + uint32(vals[1])
	return ctx.WriteByte(addr, uint8(vals[2]))
}

func opCopyTable(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ztable.CopyTable(ctx.Memory(), uint16(vals[0]), uint16(vals[1]), vals[2].Signed())
}

func opScanTable(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	form := operandAt(vals, 3, Value(0x82))
	addr := ztable.ScanTable(ctx.Memory(), uint16(vals[0]), uint32(vals[1]), uint16(vals[2]), uint16(form))
	if err := storeResult(ctx, ins, Value(addr)); err != nil {
		return err
	}
	return boolBranch(ctx, ins, addr != 0)
}

func opPrintTable(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	width := vals[1]
	height := operandAt(vals, 2, ONE)
	skip := operandAt(vals, 3, ZERO)
	ctx.Print(ztable.PrintTable(ctx.Memory(), uint32(vals[0]), uint16(width), uint16(height), uint16(skip)))
	return nil
}
