package zmachine

import (
	"strconv"

	"github.com/zmterp/zengine/zstring"
)

func opPrint(ctx ExecutionContext, ins *Instruction) error {
	ctx.PrintZWords(ins.ZText)
	return nil
}

func opPrintRet(ctx ExecutionContext, ins *Instruction) error {
	ctx.PrintZWords(ins.ZText)
	ctx.Print("\n")
	return ctx.Return(ONE)
}

func opPrintAddr(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	text, _ := zstring.Decode(ctx.Memory(), uint32(vals[0]), ctx.Alphabets())
	ctx.Print(text)
	return nil
}

func opPrintPaddr(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	addr := ctx.UnpackStringAddress(uint16(vals[0]))
	text, _ := zstring.Decode(ctx.Memory(), addr, ctx.Alphabets())
	ctx.Print(text)
	return nil
}

func opPrintChar(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	code := uint8(vals[0])
	if r, ok := zstring.ZsciiToUnicode(code); ok {
		ctx.Print(string(r))
		return nil
	}
	ctx.Print(string(rune(code)))
	return nil
}

func opPrintNum(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.Print(strconv.Itoa(int(vals[0].Signed())))
	return nil
}

func opNewLine(ctx ExecutionContext, ins *Instruction) error {
	ctx.Print("\n")
	return nil
}

func opPrintUnicode(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.Print(string(rune(vals[0])))
	return nil
}

// check_unicode reports (as a two-bit store value) whether the interpreter
// can print and read the given codepoint. This engine's Screen takes
// arbitrary runes, so both bits are always set.
func opCheckUnicode(ctx ExecutionContext, ins *Instruction) error {
	return storeResult(ctx, ins, Value(0b11))
}
