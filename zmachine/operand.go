package zmachine

import "github.com/zmterp/zengine/zcore"

// OperandKind discriminates how an Operand's raw bits should be
// interpreted, per spec.md S3.
type OperandKind uint8

const (
	LargeConstant OperandKind = iota
	SmallConstant
	VariableOperand
	Omitted
)

// kindFromBits decodes one of the four 2-bit fields of an operand-kinds
// byte (spec.md S4.4): 00=large constant, 01=small constant, 10=variable,
// 11=omitted.
func kindFromBits(bits uint8) OperandKind {
	switch bits & 0b11 {
	case 0b00:
		return LargeConstant
	case 0b01:
		return SmallConstant
	case 0b10:
		return VariableOperand
	default:
		return Omitted
	}
}

// Operand is a single decoded instruction operand: its kind plus the raw
// bits read from the story (a literal value, or a Variable's wire byte).
type Operand struct {
	Kind    OperandKind
	Raw     uint16
	Var     zcore.Variable // valid only when Kind == VariableOperand
}

// Resolve evaluates this operand to a Value against the given execution
// context. Variable reads of the stack are destructive (they pop), which
// is why operand evaluation order is observable (spec.md S4.6).
func (o Operand) Resolve(ctx ExecutionContext) (Value, error) {
	switch o.Kind {
	case LargeConstant, SmallConstant:
		return Value(o.Raw), nil
	case VariableOperand:
		return ctx.ReadVariable(o.Var, false)
	default:
		return ZERO, nil
	}
}
