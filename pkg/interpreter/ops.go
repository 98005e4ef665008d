package interpreter

import (
	"cmp"
	"math"
	"strings"

	"tacvm/pkg/program"
	"tacvm/pkg/value"
)

// MaxStringLen bounds the byte length of a string built by MUL.
const MaxStringLen = 1 << 24

// evalBinary evaluates an arithmetic, comparison or logic opcode
func evalBinary(op program.Opcode, a, b value.Value) (value.Value, *Fault) {
	switch op {
	case program.OpAdd:
		if a.Kind == value.KindString && b.Kind == value.KindString {
			return value.NewString(a.Str + b.Str), nil
		}
		return arith(op, a, b)

	case program.OpMul:
		if s, n, ok := stringTimesInt(a, b); ok {
			if n < 0 {
				n = 0
			}
			if n > 0 && int64(len(s)) > MaxStringLen/n {
				return value.Value{}, faultf(FaultInvalidSize, "String repeat result exceeds %d bytes", MaxStringLen)
			}
			return value.NewString(strings.Repeat(s, int(n))), nil
		}
		return arith(op, a, b)

	case program.OpSub, program.OpDiv, program.OpMod:
		return arith(op, a, b)

	case program.OpEq:
		return value.NewBool(a.Equal(b)), nil
	case program.OpNe:
		return value.NewBool(!a.Equal(b)), nil

	case program.OpLt, program.OpLe, program.OpGt, program.OpGe:
		return compare(op, a, b)

	// both operands are already evaluated; the result is whichever decides
	case program.OpOr:
		if a.Truthy() {
			return a, nil
		}
		return b, nil
	case program.OpAnd:
		if !a.Truthy() {
			return a, nil
		}
		return b, nil

	default:
		return value.Value{}, faultf(FaultUnknownOpcode, "unsupported binary op: %s", op)
	}
}

func stringTimesInt(a, b value.Value) (string, int64, bool) {
	if a.Kind == value.KindString && b.Kind == value.KindInt {
		return a.Str, b.I64, true
	}
	if a.Kind == value.KindInt && b.Kind == value.KindString {
		return b.Str, a.I64, true
	}
	return "", 0, false
}

func mismatch(op program.Opcode, a, b value.Value) *Fault {
	return faultf(FaultTypeMismatch, "unsupported operand kinds for %s: %s and %s", op, a.Kind, b.Kind)
}

// arith applies a numeric opcode. Integers stay integers unless either side
// is a float; DIV is true division and always yields a float.
func arith(op program.Opcode, a, b value.Value) (value.Value, *Fault) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return value.Value{}, mismatch(op, a, b)
	}

	useFloat := a.Kind == value.KindFloat || b.Kind == value.KindFloat || op == program.OpDiv
	if useFloat {
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		switch op {
		case program.OpAdd:
			return value.NewFloat(af + bf), nil
		case program.OpSub:
			return value.NewFloat(af - bf), nil
		case program.OpMul:
			return value.NewFloat(af * bf), nil
		case program.OpDiv:
			if bf == 0 {
				return value.Value{}, faultf(FaultDivisionByZero, "Division by zero")
			}
			return value.NewFloat(af / bf), nil
		case program.OpMod:
			if bf == 0 {
				return value.Value{}, faultf(FaultModuloByZero, "Modulo by zero")
			}
			r := math.Mod(af, bf)
			if r != 0 && (r < 0) != (bf < 0) {
				r += bf
			}
			return value.NewFloat(r), nil
		}
	}

	ai, _ := a.AsInt64()
	bi, _ := b.AsInt64()
	switch op {
	case program.OpAdd:
		return value.NewInt(ai + bi), nil
	case program.OpSub:
		return value.NewInt(ai - bi), nil
	case program.OpMul:
		return value.NewInt(ai * bi), nil
	case program.OpMod:
		if bi == 0 {
			return value.Value{}, faultf(FaultModuloByZero, "Modulo by zero")
		}
		// floored: the result takes the divisor's sign
		r := ai % bi
		if r != 0 && (r < 0) != (bi < 0) {
			r += bi
		}
		return value.NewInt(r), nil
	}

	return value.Value{}, faultf(FaultUnknownOpcode, "unsupported arithmetic op: %s", op)
}

// compare orders two numerics or two strings
func compare(op program.Opcode, a, b value.Value) (value.Value, *Fault) {
	var c int
	switch {
	case a.Kind == value.KindString && b.Kind == value.KindString:
		c = strings.Compare(a.Str, b.Str)

	case a.IsNumeric() && b.IsNumeric():
		if a.Kind != value.KindFloat && b.Kind != value.KindFloat {
			ai, _ := a.AsInt64()
			bi, _ := b.AsInt64()
			c = cmp.Compare(ai, bi)
		} else {
			af, _ := a.AsFloat64()
			bf, _ := b.AsFloat64()
			if math.IsNaN(af) || math.IsNaN(bf) {
				return value.NewBool(false), nil
			}
			c = cmp.Compare(af, bf)
		}

	default:
		return value.Value{}, mismatch(op, a, b)
	}

	switch op {
	case program.OpLt:
		return value.NewBool(c < 0), nil
	case program.OpLe:
		return value.NewBool(c <= 0), nil
	case program.OpGt:
		return value.NewBool(c > 0), nil
	default:
		return value.NewBool(c >= 0), nil
	}
}

// negate implements UMINUS
func negate(v value.Value) (value.Value, *Fault) {
	switch v.Kind {
	case value.KindInt, value.KindBool:
		i, _ := v.AsInt64()
		return value.NewInt(-i), nil
	case value.KindFloat:
		return value.NewFloat(-v.F64), nil
	default:
		return value.Value{}, faultf(FaultTypeMismatch, "UMINUS expects a number, got %s", v.Kind)
	}
}
