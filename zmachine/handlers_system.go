package zmachine

import (
	"context"
	"strings"

	"github.com/zmterp/zengine/zcore"
	"github.com/zmterp/zengine/zdictionary"
	"github.com/zmterp/zengine/zobject"
)

func opRestart(ctx ExecutionContext, ins *Instruction) error {
	ctx.Restart()
	return nil
}

func opQuit(ctx ExecutionContext, ins *Instruction) error {
	ctx.Quit()
	return nil
}

func opVerify(ctx ExecutionContext, ins *Instruction) error {
	return boolBranch(ctx, ins, ctx.Verify())
}

// opPiracy always reports a genuine copy: spec.md has no interest in
// modelling copy protection, and the Standard explicitly allows an
// interpreter to always branch.
func opPiracy(ctx ExecutionContext, ins *Instruction) error {
	return boolBranch(ctx, ins, true)
}

// opSaveUnimplemented and opRestoreUnimplemented back every save/restore
// opcode form (0OP branch/store pre-v5, EXTOP store v5+). Quetzal
// persistence is out of scope; callers see a named, catchable error
// instead of a silent no-op.
func opSaveUnimplemented(ctx ExecutionContext, ins *Instruction) error {
	return &ErrUnimplementedOpcode{Mnemonic: "save"}
}

func opRestoreUnimplemented(ctx ExecutionContext, ins *Instruction) error {
	return &ErrUnimplementedOpcode{Mnemonic: "restore"}
}

func opSaveUndo(ctx ExecutionContext, ins *Instruction) error {
	return storeResult(ctx, ins, ctx.SaveUndo())
}

func opRestoreUndo(ctx ExecutionContext, ins *Instruction) error {
	return storeResult(ctx, ins, ctx.RestoreUndo())
}

// statusBarGlobals are the three globals the Standard's status line
// convention reads from: current location object, then score/hours and
// moves/minutes depending on the header's time-game flag.
var statusBarGlobals = [3]zcore.Variable{
	{Kind: zcore.VarGlobal, Index: 0},
	{Kind: zcore.VarGlobal, Index: 1},
	{Kind: zcore.VarGlobal, Index: 2},
}

func refreshStatusBar(ctx ExecutionContext) error {
	m := ctx.Memory()

	locVal, err := ctx.ReadVariable(statusBarGlobals[0], true)
	if err != nil {
		return err
	}
	var name string
	if obj, err := zobject.Get(m, uint16(locVal)); err == nil {
		name = obj.Name(m, ctx.Alphabets())
	}

	scoreVal, err := ctx.ReadVariable(statusBarGlobals[1], true)
	if err != nil {
		return err
	}
	movesVal, err := ctx.ReadVariable(statusBarGlobals[2], true)
	if err != nil {
		return err
	}

	ctx.Screen().ShowStatus(name, int(scoreVal.Signed()), int(movesVal.Signed()), m.StatusBarTimeBased)
	return nil
}

func opShowStatus(ctx ExecutionContext, ins *Instruction) error {
	return refreshStatusBar(ctx)
}

func opSetColour(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.Screen().SetColour(uint16(vals[0]), uint16(vals[1]))
	return nil
}

func opSplitWindow(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.Screen().SplitWindow(int(vals[0].Signed()))
	return nil
}

func opSetWindow(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.SetWindow(int(vals[0]))
	return nil
}

func opEraseWindow(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.Screen().EraseWindow(int(vals[0].Signed()))
	return nil
}

func opEraseLine(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	if vals[0] != 1 {
		return nil
	}
	ctx.Screen().EraseLine()
	return nil
}

func opGetCursor(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	line, col := ctx.Screen().CursorPosition()
	addr := uint32(vals[0])
	if err := ctx.WriteWord(addr, uint16(line)); err != nil {
		return err
	}
	return ctx.WriteWord(addr+2, uint16(col))
}

func opSetCursor(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.Screen().SetCursor(int(vals[0]), int(vals[1]))
	return nil
}

func opSetTextStyle(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.Screen().SetTextStyle(TextStyle(vals[0]))
	return nil
}

func opBufferMode(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	ctx.Screen().SetBufferMode(vals[0] != 0)
	return nil
}

// opOutputStream implements streams 3/-3 (the memory-table redirect).
// Streams 1, 2 and 4 (screen, transcript, command log) aren't modelled;
// selecting them is a no-op rather than an error.
func opOutputStream(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	switch vals[0].Signed() {
	case 3:
		ctx.BeginMemoryStream(uint32(vals[1]))
	case -3:
		return ctx.EndMemoryStream()
	}
	return nil
}

func opReadChar(ctx ExecutionContext, ins *Instruction) error {
	c, err := ctx.Screen().ReadChar(context.Background())
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, Value(c))
}

func opTokenise(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	textBuffer := uint32(vals[0])
	parseBuffer := uint32(vals[1])

	dict := ctx.Dictionary()
	if len(vals) > 2 && vals[2] != 0 {
		dict = zdictionary.Parse(ctx.Memory(), uint32(vals[2]), ctx.Alphabets())
	}
	skipUnrecognised := len(vals) > 3 && vals[3] != 0

	return dict.Tokenise(ctx.Memory(), ctx.Alphabets(), textBuffer, parseBuffer, skipUnrecognised)
}

// isTypedZsciiByte reports whether b is a printable ZSCII code sread/aread
// accepts straight into the text buffer: the printable ASCII range plus
// the extended character block (Standard SS3.8.3.2).
func isTypedZsciiByte(b byte) bool {
	return (b >= 32 && b <= 126) || (b >= 155 && b <= 251)
}

// opSread backs both pre-v5 "sread" and v5+ "aread". It drives the
// blocking Screen.ReadLine call, lowercases and writes the typed text
// into the story's text buffer per the version's layout, tokenises
// against the parse buffer when one is supplied, and - v5+ only - stores
// the terminating character.
//
// The terminating-character table (header TerminatingCharTableBase) isn't
// surfaced to Screen.ReadLine; like the Enter-only input model it
// implies, every read is treated as newline-terminated. A host wanting
// single-keystroke terminators needs a richer Screen contract than
// spec.md's S6 calls for.
func opSread(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}

	m := ctx.Memory()
	version := ctx.Version()

	if version <= 3 {
		if err := refreshStatusBar(ctx); err != nil {
			return err
		}
	}

	textBuffer := uint32(vals[0])
	maxLen := int(m.ReadByte(textBuffer))
	if version <= 4 {
		maxLen--
	}

	text, err := ctx.Screen().ReadLine(context.Background(), maxLen, "")
	if err != nil {
		return err
	}
	text = strings.ToLower(text)
	if len(text) > maxLen {
		text = text[:maxLen]
	}

	start := textBuffer + 1
	if version >= 5 {
		start = textBuffer + 2
	}
	written := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !isTypedZsciiByte(c) {
			c = ' '
		}
		if err := ctx.WriteByte(start+uint32(written), c); err != nil {
			return err
		}
		written++
	}
	if version >= 5 {
		if err := ctx.WriteByte(textBuffer+1, uint8(written)); err != nil {
			return err
		}
	} else if err := ctx.WriteByte(start+uint32(written), 0); err != nil {
		return err
	}

	if len(vals) > 1 && vals[1] != 0 {
		if err := ctx.Dictionary().Tokenise(m, ctx.Alphabets(), textBuffer, uint32(vals[1]), false); err != nil {
			return err
		}
	}

	if ins.HasStoreVariable {
		return storeResult(ctx, ins, Value(13))
	}
	return nil
}
