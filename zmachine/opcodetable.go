package zmachine

// opcodeEntry is the table-construction-time representation of one
// (kind, number) opcode across its valid version range; it expands into
// one or more OpcodeInfo values keyed by a single version each, so that a
// runtime lookup is one indexed map access rather than a version-range
// scan (spec.md Design Notes S9: "dispatch should be a single indexed
// load, not a per-instruction scan or reconstruction").
type opcodeEntry struct {
	Count      OperandCount
	Number     uint8
	MinVersion uint8 // 0 means unbounded below
	MaxVersion uint8 // 0 means unbounded above
	Mnemonic   string
	HasStore   bool
	HasBranch  bool
	HasZText   bool
	IsCall     bool
	IsJump     bool
	DoubleVar  bool
	Handler    HandlerFunc
}

func (e opcodeEntry) appliesTo(version uint8) bool {
	if e.MinVersion != 0 && version < e.MinVersion {
		return false
	}
	if e.MaxVersion != 0 && version > e.MaxVersion {
		return false
	}
	return true
}

type opcodeKey struct {
	ext     bool
	count   OperandCount
	number  uint8
	version uint8
}

var opcodeIndex map[opcodeKey]*OpcodeInfo

func init() {
	opcodeIndex = make(map[opcodeKey]*OpcodeInfo)
	register(opEntries, false)
	register(extEntries, true)
}

func register(entries []opcodeEntry, ext bool) {
	for _, e := range entries {
		info := &OpcodeInfo{
			Mnemonic:         e.Mnemonic,
			Count:            e.Count,
			Number:           e.Number,
			HasStore:         e.HasStore,
			HasBranch:        e.HasBranch,
			HasZText:         e.HasZText,
			IsDoubleVariable: e.DoubleVar,
			IsCall:           e.IsCall,
			IsJump:           e.IsJump,
			Handler:          e.Handler,
		}
		for v := uint8(1); v <= 8; v++ {
			if !e.appliesTo(v) {
				continue
			}
			opcodeIndex[opcodeKey{ext: ext, count: e.Count, number: e.Number, version: v}] = info
		}
	}
}

// LookupOpcode resolves a decoded (kind, number) pair against the story's
// version. It returns (nil, false) when no entry matches, which the
// decoder turns into an UnknownOpcodeError.
func LookupOpcode(ext bool, count OperandCount, number uint8, version uint8) (*OpcodeInfo, bool) {
	info, ok := opcodeIndex[opcodeKey{ext: ext, count: count, number: number, version: version}]
	return info, ok
}

// opEntries is the non-extended opcode table, grouped by operand count and
// number. Mnemonics and the set of which opcodes carry a store/branch/text
// tail follow the Z-machine Standard; coverage matches the set this engine
// implements (spec.md's Non-goals excuse quetzal save/restore, sound
// effects and the v6 framebuffer colour opcodes from needing handlers).
var opEntries = []opcodeEntry{
	// 0OP
	{Count: OP0, Number: 0, Mnemonic: "rtrue", Handler: opRtrue},
	{Count: OP0, Number: 1, Mnemonic: "rfalse", Handler: opRfalse},
	{Count: OP0, Number: 2, Mnemonic: "print", HasZText: true, Handler: opPrint},
	{Count: OP0, Number: 3, Mnemonic: "print_ret", HasZText: true, Handler: opPrintRet},
	{Count: OP0, Number: 4, Mnemonic: "nop", Handler: opNop},
	{Count: OP0, Number: 5, MaxVersion: 3, Mnemonic: "save", HasBranch: true, Handler: opSaveUnimplemented},
	{Count: OP0, Number: 5, MinVersion: 4, MaxVersion: 4, Mnemonic: "save", HasStore: true, Handler: opSaveUnimplemented},
	{Count: OP0, Number: 6, MaxVersion: 3, Mnemonic: "restore", HasBranch: true, Handler: opRestoreUnimplemented},
	{Count: OP0, Number: 6, MinVersion: 4, MaxVersion: 4, Mnemonic: "restore", HasStore: true, Handler: opRestoreUnimplemented},
	{Count: OP0, Number: 7, Mnemonic: "restart", Handler: opRestart},
	{Count: OP0, Number: 8, Mnemonic: "ret_popped", Handler: opRetPopped},
	{Count: OP0, Number: 9, MinVersion: 1, MaxVersion: 4, Mnemonic: "pop", Handler: opPop},
	{Count: OP0, Number: 10, Mnemonic: "quit", Handler: opQuit},
	{Count: OP0, Number: 11, Mnemonic: "new_line", Handler: opNewLine},
	{Count: OP0, Number: 12, MaxVersion: 3, Mnemonic: "show_status", Handler: opShowStatus},
	{Count: OP0, Number: 13, Mnemonic: "verify", HasBranch: true, Handler: opVerify},
	{Count: OP0, Number: 15, MinVersion: 5, Mnemonic: "piracy", HasBranch: true, Handler: opPiracy},

	// 1OP
	{Count: OP1, Number: 0, Mnemonic: "jz", HasBranch: true, Handler: opJz},
	{Count: OP1, Number: 1, Mnemonic: "get_sibling", HasStore: true, HasBranch: true, Handler: opGetSibling},
	{Count: OP1, Number: 2, Mnemonic: "get_child", HasStore: true, HasBranch: true, Handler: opGetChild},
	{Count: OP1, Number: 3, Mnemonic: "get_parent", HasStore: true, Handler: opGetParent},
	{Count: OP1, Number: 4, Mnemonic: "get_prop_len", HasStore: true, Handler: opGetPropLen},
	{Count: OP1, Number: 5, Mnemonic: "inc", Handler: opInc},
	{Count: OP1, Number: 6, Mnemonic: "dec", Handler: opDec},
	{Count: OP1, Number: 7, Mnemonic: "print_addr", Handler: opPrintAddr},
	{Count: OP1, Number: 8, Mnemonic: "call_1s", MinVersion: 4, HasStore: true, IsCall: true, Handler: opCall1s},
	{Count: OP1, Number: 9, Mnemonic: "remove_obj", Handler: opRemoveObj},
	{Count: OP1, Number: 10, Mnemonic: "print_obj", Handler: opPrintObj},
	{Count: OP1, Number: 11, Mnemonic: "ret", Handler: opRet},
	{Count: OP1, Number: 12, Mnemonic: "jump", IsJump: true, Handler: opJump},
	{Count: OP1, Number: 13, Mnemonic: "print_paddr", Handler: opPrintPaddr},
	{Count: OP1, Number: 14, Mnemonic: "load", HasStore: true, Handler: opLoad},
	{Count: OP1, Number: 15, MaxVersion: 4, Mnemonic: "not", HasStore: true, Handler: opNot},
	{Count: OP1, Number: 15, MinVersion: 5, Mnemonic: "call_1n", IsCall: true, Handler: opCall1n},

	// 2OP
	{Count: OP2, Number: 1, Mnemonic: "je", HasBranch: true, Handler: opJe},
	{Count: OP2, Number: 2, Mnemonic: "jl", HasBranch: true, Handler: opJl},
	{Count: OP2, Number: 3, Mnemonic: "jg", HasBranch: true, Handler: opJg},
	{Count: OP2, Number: 4, Mnemonic: "dec_chk", HasBranch: true, Handler: opDecChk},
	{Count: OP2, Number: 5, Mnemonic: "inc_chk", HasBranch: true, Handler: opIncChk},
	{Count: OP2, Number: 6, Mnemonic: "jin", HasBranch: true, Handler: opJin},
	{Count: OP2, Number: 7, Mnemonic: "test", HasBranch: true, Handler: opTest},
	{Count: OP2, Number: 8, Mnemonic: "or", HasStore: true, Handler: opOr},
	{Count: OP2, Number: 9, Mnemonic: "and", HasStore: true, Handler: opAnd},
	{Count: OP2, Number: 10, Mnemonic: "test_attr", HasBranch: true, Handler: opTestAttr},
	{Count: OP2, Number: 11, Mnemonic: "set_attr", Handler: opSetAttr},
	{Count: OP2, Number: 12, Mnemonic: "clear_attr", Handler: opClearAttr},
	{Count: OP2, Number: 13, Mnemonic: "store", Handler: opStore},
	{Count: OP2, Number: 14, Mnemonic: "insert_obj", Handler: opInsertObj},
	{Count: OP2, Number: 15, Mnemonic: "loadw", HasStore: true, Handler: opLoadw},
	{Count: OP2, Number: 16, Mnemonic: "loadb", HasStore: true, Handler: opLoadb},
	{Count: OP2, Number: 17, Mnemonic: "get_prop", HasStore: true, Handler: opGetProp},
	{Count: OP2, Number: 18, Mnemonic: "get_prop_addr", HasStore: true, Handler: opGetPropAddr},
	{Count: OP2, Number: 19, Mnemonic: "get_next_prop", HasStore: true, Handler: opGetNextProp},
	{Count: OP2, Number: 20, Mnemonic: "add", HasStore: true, Handler: opAdd},
	{Count: OP2, Number: 21, Mnemonic: "sub", HasStore: true, Handler: opSub},
	{Count: OP2, Number: 22, Mnemonic: "mul", HasStore: true, Handler: opMul},
	{Count: OP2, Number: 23, Mnemonic: "div", HasStore: true, Handler: opDiv},
	{Count: OP2, Number: 24, Mnemonic: "mod", HasStore: true, Handler: opMod},
	{Count: OP2, Number: 25, MinVersion: 4, Mnemonic: "call_2s", HasStore: true, IsCall: true, Handler: opCall2s},
	{Count: OP2, Number: 26, MinVersion: 5, Mnemonic: "call_2n", IsCall: true, Handler: opCall2n},
	{Count: OP2, Number: 27, MinVersion: 5, Mnemonic: "set_colour", Handler: opSetColour},

	// VAR
	{Count: VAR, Number: 0, Mnemonic: "call_vs", HasStore: true, IsCall: true, Handler: opCallVs},
	{Count: VAR, Number: 1, Mnemonic: "storew", Handler: opStorew},
	{Count: VAR, Number: 2, Mnemonic: "storeb", Handler: opStoreb},
	{Count: VAR, Number: 3, Mnemonic: "put_prop", Handler: opPutProp},
	{Count: VAR, Number: 4, MaxVersion: 4, Mnemonic: "sread", Handler: opSread},
	{Count: VAR, Number: 4, MinVersion: 5, Mnemonic: "aread", HasStore: true, Handler: opSread},
	{Count: VAR, Number: 5, Mnemonic: "print_char", Handler: opPrintChar},
	{Count: VAR, Number: 6, Mnemonic: "print_num", Handler: opPrintNum},
	{Count: VAR, Number: 7, Mnemonic: "random", HasStore: true, Handler: opRandom},
	{Count: VAR, Number: 8, Mnemonic: "push", Handler: opPush},
	{Count: VAR, Number: 9, Mnemonic: "pull", Handler: opPull},
	{Count: VAR, Number: 10, Mnemonic: "split_window", Handler: opSplitWindow},
	{Count: VAR, Number: 11, Mnemonic: "set_window", Handler: opSetWindow},
	{Count: VAR, Number: 12, MinVersion: 4, Mnemonic: "call_vs2", HasStore: true, IsCall: true, DoubleVar: true, Handler: opCallVs2},
	{Count: VAR, Number: 13, Mnemonic: "erase_window", Handler: opEraseWindow},
	{Count: VAR, Number: 14, MinVersion: 4, Mnemonic: "erase_line", Handler: opEraseLine},
	{Count: VAR, Number: 15, MinVersion: 4, Mnemonic: "set_cursor", Handler: opSetCursor},
	{Count: VAR, Number: 16, MinVersion: 4, Mnemonic: "get_cursor", Handler: opGetCursor},
	{Count: VAR, Number: 17, MinVersion: 4, Mnemonic: "set_text_style", Handler: opSetTextStyle},
	{Count: VAR, Number: 18, MinVersion: 4, Mnemonic: "buffer_mode", Handler: opBufferMode},
	{Count: VAR, Number: 19, MinVersion: 3, Mnemonic: "output_stream", Handler: opOutputStream},
	{Count: VAR, Number: 22, MinVersion: 4, Mnemonic: "read_char", HasStore: true, Handler: opReadChar},
	{Count: VAR, Number: 23, MinVersion: 4, Mnemonic: "scan_table", HasStore: true, HasBranch: true, Handler: opScanTable},
	{Count: VAR, Number: 24, MinVersion: 5, Mnemonic: "not", HasStore: true, Handler: opNotVar},
	{Count: VAR, Number: 25, MinVersion: 5, Mnemonic: "call_vn", IsCall: true, Handler: opCallVn},
	{Count: VAR, Number: 26, MinVersion: 5, Mnemonic: "call_vn2", IsCall: true, DoubleVar: true, Handler: opCallVn2},
	{Count: VAR, Number: 27, MinVersion: 5, Mnemonic: "tokenise", Handler: opTokenise},
	{Count: VAR, Number: 29, MinVersion: 5, Mnemonic: "copy_table", Handler: opCopyTable},
	{Count: VAR, Number: 30, MinVersion: 5, Mnemonic: "print_table", Handler: opPrintTable},
	{Count: VAR, Number: 31, MinVersion: 5, Mnemonic: "check_arg_count", HasBranch: true, Handler: opCheckArgCount},
}

// extEntries is the extended-form (0xbe-prefixed) opcode table, version 5+
// only.
var extEntries = []opcodeEntry{
	{Count: EXTOP, Number: 0, MinVersion: 5, Mnemonic: "save", HasStore: true, Handler: opSaveUnimplemented},
	{Count: EXTOP, Number: 1, MinVersion: 5, Mnemonic: "restore", HasStore: true, Handler: opRestoreUnimplemented},
	{Count: EXTOP, Number: 2, MinVersion: 5, Mnemonic: "log_shift", HasStore: true, Handler: opLogShift},
	{Count: EXTOP, Number: 3, MinVersion: 5, Mnemonic: "art_shift", HasStore: true, Handler: opArtShift},
	{Count: EXTOP, Number: 9, MinVersion: 5, Mnemonic: "save_undo", HasStore: true, Handler: opSaveUndo},
	{Count: EXTOP, Number: 10, MinVersion: 5, Mnemonic: "restore_undo", HasStore: true, Handler: opRestoreUndo},
	{Count: EXTOP, Number: 11, MinVersion: 5, Mnemonic: "print_unicode", Handler: opPrintUnicode},
	{Count: EXTOP, Number: 12, MinVersion: 5, Mnemonic: "check_unicode", HasStore: true, Handler: opCheckUnicode},
}
