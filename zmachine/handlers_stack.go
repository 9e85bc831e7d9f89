package zmachine

import "github.com/zmterp/zengine/zcore"

func opRtrue(ctx ExecutionContext, ins *Instruction) error { return ctx.Return(ONE) }

func opRfalse(ctx ExecutionContext, ins *Instruction) error { return ctx.Return(ZERO) }

func opRet(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.Return(vals[0])
}

func opRetPopped(ctx ExecutionContext, ins *Instruction) error {
	v, err := ctx.ReadVariable(zcore.Variable{Kind: zcore.VarStack}, false)
	if err != nil {
		return err
	}
	return ctx.Return(v)
}

func opPop(ctx ExecutionContext, ins *Instruction) error {
	_, err := ctx.ReadVariable(zcore.Variable{Kind: zcore.VarStack}, false)
	return err
}

func opPush(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.WriteVariable(zcore.Variable{Kind: zcore.VarStack}, vals[0], false)
}

// pull writes to the destination variable it's given. Per the Standard,
// pulling into the stack variable (0x00) is itself special-cased to mean
// "discard the top value and push the popped one in its place" - the usual
// indirect-write semantics - rather than an ordinary push.
func opPull(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	v, err := ctx.ReadVariable(zcore.Variable{Kind: zcore.VarStack}, false)
	if err != nil {
		return err
	}
	dest := zcore.DecodeVariable(uint8(vals[0]))
	return ctx.WriteVariable(dest, v, dest.Kind == zcore.VarStack)
}

func opJump(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return ctx.Jump(vals[0].Signed())
}

func opNop(ctx ExecutionContext, ins *Instruction) error { return nil }
