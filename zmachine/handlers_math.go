package zmachine

import "github.com/zmterp/zengine/zcore"

// variableRef resolves an operand that names a variable rather than a
// value: a constant operand gives the variable number directly; a
// variable-kind operand is read like any other operand (a stack operand is
// popped) to get the variable number indirectly. inc, dec, inc_chk, dec_chk, load and
// store all address their target this way.
func variableRef(ctx ExecutionContext, o Operand) (zcore.Variable, error) {
	v, err := o.Resolve(ctx)
	if err != nil {
		return zcore.Variable{}, err
	}
	return zcore.DecodeVariable(uint8(v)), nil
}

func opAdd(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, vals[0]+vals[1])
}

func opSub(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, vals[0]-vals[1])
}

func opMul(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, vals[0]*vals[1])
}

func opDiv(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	b := vals[1].Signed()
	if b == 0 {
		return &DivisionByZeroError{}
	}
	return storeResult(ctx, ins, FromSigned(int32(vals[0].Signed())/int32(b)))
}

func opMod(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	b := vals[1].Signed()
	if b == 0 {
		return &DivisionByZeroError{}
	}
	return storeResult(ctx, ins, FromSigned(int32(vals[0].Signed())%int32(b)))
}

func opAnd(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, vals[0]&vals[1])
}

func opOr(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, vals[0]|vals[1])
}

func opNotCommon(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, ^vals[0])
}

func opNot(ctx ExecutionContext, ins *Instruction) error    { return opNotCommon(ctx, ins) }
func opNotVar(ctx ExecutionContext, ins *Instruction) error { return opNotCommon(ctx, ins) }

func opLogShift(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	places := vals[1].Signed()
	var result uint16
	switch {
	case places >= 0:
		result = uint16(vals[0]) << uint(places)
	default:
		result = uint16(vals[0]) >> uint(-places)
	}
	return storeResult(ctx, ins, Value(result))
}

func opArtShift(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	places := vals[1].Signed()
	signed := vals[0].Signed()
	var result int16
	switch {
	case places >= 0:
		result = signed << uint(places)
	default:
		result = signed >> uint(-places)
	}
	return storeResult(ctx, ins, FromSigned(int32(result)))
}

func opRandom(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, ctx.Random(vals[0].Signed()))
}

func opInc(ctx ExecutionContext, ins *Instruction) error {
	ref, err := variableRef(ctx, ins.Operands[0])
	if err != nil {
		return err
	}
	v, err := ctx.ReadVariable(ref, true)
	if err != nil {
		return err
	}
	return ctx.WriteVariable(ref, FromSigned(int32(v.Signed())+1), true)
}

func opDec(ctx ExecutionContext, ins *Instruction) error {
	ref, err := variableRef(ctx, ins.Operands[0])
	if err != nil {
		return err
	}
	v, err := ctx.ReadVariable(ref, true)
	if err != nil {
		return err
	}
	return ctx.WriteVariable(ref, FromSigned(int32(v.Signed())-1), true)
}

func opIncChk(ctx ExecutionContext, ins *Instruction) error {
	ref, err := variableRef(ctx, ins.Operands[0])
	if err != nil {
		return err
	}
	cmp, err := ins.Operands[1].Resolve(ctx)
	if err != nil {
		return err
	}
	v, err := ctx.ReadVariable(ref, true)
	if err != nil {
		return err
	}
	newVal := FromSigned(int32(v.Signed()) + 1)
	if err := ctx.WriteVariable(ref, newVal, true); err != nil {
		return err
	}
	return boolBranch(ctx, ins, newVal.Signed() > cmp.Signed())
}

func opDecChk(ctx ExecutionContext, ins *Instruction) error {
	ref, err := variableRef(ctx, ins.Operands[0])
	if err != nil {
		return err
	}
	cmp, err := ins.Operands[1].Resolve(ctx)
	if err != nil {
		return err
	}
	v, err := ctx.ReadVariable(ref, true)
	if err != nil {
		return err
	}
	newVal := FromSigned(int32(v.Signed()) - 1)
	if err := ctx.WriteVariable(ref, newVal, true); err != nil {
		return err
	}
	return boolBranch(ctx, ins, newVal.Signed() < cmp.Signed())
}
