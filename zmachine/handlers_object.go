package zmachine

import "github.com/zmterp/zengine/zobject"

func opGetSibling(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		if err := storeResult(ctx, ins, ZERO); err != nil {
			return err
		}
		return boolBranch(ctx, ins, false)
	}
	if err := storeResult(ctx, ins, Value(obj.Sibling)); err != nil {
		return err
	}
	return boolBranch(ctx, ins, obj.Sibling != 0)
}

func opGetChild(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		if err := storeResult(ctx, ins, ZERO); err != nil {
			return err
		}
		return boolBranch(ctx, ins, false)
	}
	if err := storeResult(ctx, ins, Value(obj.Child)); err != nil {
		return err
	}
	return boolBranch(ctx, ins, obj.Child != 0)
}

func opGetParent(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		return storeResult(ctx, ins, ZERO)
	}
	return storeResult(ctx, ins, Value(obj.Parent))
}

func opGetPropLen(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, Value(zobject.GetPropertyLength(ctx.Memory(), uint32(vals[0]))))
}

func opRemoveObj(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		return nil
	}
	return zobject.Unlink(ctx.Memory(), obj)
}

func opPrintObj(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		return nil
	}
	ctx.Print(obj.Name(ctx.Memory(), ctx.Alphabets()))
	return nil
}

// insert_obj moves object onto destination's child list, unlinking it from
// wherever it was first (spec.md's "object tree" move operation).
func opInsertObj(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	m := ctx.Memory()
	obj, err := zobject.Get(m, uint16(vals[0]))
	if err != nil {
		return err
	}
	dest, err := zobject.Get(m, uint16(vals[1]))
	if err != nil {
		return err
	}

	if err := zobject.Unlink(m, obj); err != nil {
		return err
	}
	if err := obj.SetSibling(m, dest.Child); err != nil {
		return err
	}
	if err := obj.SetParent(m, dest.Id); err != nil {
		return err
	}
	return dest.SetChild(m, obj.Id)
}

func opSetAttr(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		return err
	}
	return obj.SetAttribute(ctx.Memory(), uint16(vals[1]))
}

func opClearAttr(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	obj, err := zobject.Get(ctx.Memory(), uint16(vals[0]))
	if err != nil {
		return err
	}
	return obj.ClearAttribute(ctx.Memory(), uint16(vals[1]))
}

func opGetProp(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	m := ctx.Memory()
	obj, err := zobject.Get(m, uint16(vals[0]))
	if err != nil {
		return err
	}
	propertyId := uint8(vals[1])
	p := zobject.GetProperty(m, obj, propertyId)
	if p.DataAddress == 0 {
		return storeResult(ctx, ins, Value(zobject.PropertyDefault(m, propertyId)))
	}
	if p.Length == 1 {
		return storeResult(ctx, ins, Value(m.ReadByte(p.DataAddress)))
	}
	return storeResult(ctx, ins, Value(m.ReadWord(p.DataAddress)))
}

func opGetPropAddr(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	m := ctx.Memory()
	obj, err := zobject.Get(m, uint16(vals[0]))
	if err != nil {
		return err
	}
	p := zobject.GetProperty(m, obj, uint8(vals[1]))
	return storeResult(ctx, ins, Value(p.DataAddress))
}

func opGetNextProp(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	m := ctx.Memory()
	obj, err := zobject.Get(m, uint16(vals[0]))
	if err != nil {
		return err
	}
	next, err := zobject.GetNextProperty(m, obj, uint8(vals[1]))
	if err != nil {
		return err
	}
	return storeResult(ctx, ins, Value(next))
}

func opPutProp(ctx ExecutionContext, ins *Instruction) error {
	vals, err := readOperands(ctx, ins)
	if err != nil {
		return err
	}
	m := ctx.Memory()
	obj, err := zobject.Get(m, uint16(vals[0]))
	if err != nil {
		return err
	}
	return zobject.SetProperty(m, obj, uint8(vals[1]), uint16(vals[2]))
}
