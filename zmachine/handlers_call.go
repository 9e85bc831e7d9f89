package zmachine

// callArgs converts every operand after the routine address into Call's
// argument list.
func callArgs(vals []Value) []Value {
	if len(vals) <= 1 {
		return nil
	}
	return vals[1:]
}

func opCallVs(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.Call(uint16(vals[0]), callArgs(vals), &ins.StoreVariable)
}

func opCallVs2(ctx ExecutionContext, ins *Instruction) error { return opCallVs(ctx, ins) }

func opCallVn(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.Call(uint16(vals[0]), callArgs(vals), nil)
}

func opCallVn2(ctx ExecutionContext, ins *Instruction) error { return opCallVn(ctx, ins) }

func opCall1s(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.Call(uint16(vals[0]), nil, &ins.StoreVariable)
}

func opCall1n(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.Call(uint16(vals[0]), nil, nil)
}

func opCall2s(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.Call(uint16(vals[0]), vals[1:], &ins.StoreVariable)
}

func opCall2n(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.Call(uint16(vals[0]), vals[1:], nil)
}

// check_arg_count branches if the current frame actually received at least
// as many arguments as the operand names - routines use it to detect
// optional arguments the caller omitted.
func opCheckArgCount(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return boolBranch(ctx, ins, int(vals[0]) <= ctx.ArgumentCount())
}
