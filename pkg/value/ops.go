package value

import (
	"fmt"
	"math"

	"github.com/rayone121/widow/pkg/diag"
)

// BinaryOp is an operator shared by the compiler, the VM and the tree walker.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
)

var binarySymbols = [...]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binarySymbols) {
		return binarySymbols[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

func mismatch(op string, a, b Value) error {
	return fmt.Errorf("%w: cannot apply '%s' to %s and %s", diag.ErrTypeMismatch, op, a.TypeName(), b.TypeName())
}

func isNumber(v Value) bool { return v.Kind == KindInt || v.Kind == KindFloat }

func toFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.I64)
	}
	return v.F64
}

// Binary applies op to a and b. Integer pairs stay integers except for
// division, which always yields a float; any int/float mix is promoted.
func Binary(op BinaryOp, a, b Value) (Value, error) {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return arith(op, a, b)
	case OpEqual, OpNotEqual:
		eq, err := Equal(a, b)
		if err != nil {
			return Nil, err
		}
		if op == OpNotEqual {
			eq = !eq
		}
		return Bool(eq), nil
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		c, err := Compare(a, b)
		if err != nil {
			return Nil, fmt.Errorf("%w: cannot apply '%s' to %s and %s", diag.ErrTypeMismatch, op, a.TypeName(), b.TypeName())
		}
		switch op {
		case OpLess:
			return Bool(c < 0), nil
		case OpLessEqual:
			return Bool(c <= 0), nil
		case OpGreater:
			return Bool(c > 0), nil
		default:
			return Bool(c >= 0), nil
		}
	}
	return Nil, fmt.Errorf("%w: operator %s", diag.ErrUnsupported, op)
}

func arith(op BinaryOp, a, b Value) (Value, error) {
	if op == OpAdd && a.Kind == KindString && b.Kind == KindString {
		return String(a.Str + b.Str), nil
	}
	if !isNumber(a) || !isNumber(b) {
		return Nil, mismatch(op.String(), a, b)
	}
	switch op {
	case OpDiv:
		if toFloat(b) == 0 {
			return Nil, diag.ErrDivisionByZero
		}
		return Float(toFloat(a) / toFloat(b)), nil
	case OpMod:
		if toFloat(b) == 0 {
			return Nil, diag.ErrModuloByZero
		}
	}
	if a.Kind == KindInt && b.Kind == KindInt {
		x, y := a.I64, b.I64
		switch op {
		case OpAdd:
			return Int(x + y), nil
		case OpSub:
			return Int(x - y), nil
		case OpMul:
			return Int(x * y), nil
		default:
			return Int(x % y), nil
		}
	}
	x, y := toFloat(a), toFloat(b)
	switch op {
	case OpAdd:
		return Float(x + y), nil
	case OpSub:
		return Float(x - y), nil
	case OpMul:
		return Float(x * y), nil
	default:
		return Float(math.Mod(x, y)), nil
	}
}

// Equal compares scalars of the same kind, with int/float promotion.
// nil equals only nil.
func Equal(a, b Value) (bool, error) {
	if isNumber(a) && isNumber(b) {
		if a.Kind == KindInt && b.Kind == KindInt {
			return a.I64 == b.I64, nil
		}
		return toFloat(a) == toFloat(b), nil
	}
	if a.Kind == KindNil || b.Kind == KindNil {
		return a.Kind == b.Kind, nil
	}
	if a.Kind != b.Kind {
		return false, mismatch("==", a, b)
	}
	switch a.Kind {
	case KindString:
		return a.Str == b.Str, nil
	case KindBool:
		return a.Bool == b.Bool, nil
	case KindChar:
		return a.Char == b.Char, nil
	}
	return false, mismatch("==", a, b)
}

// Compare orders numbers, strings, chars and booleans; the result is
// negative, zero or positive.
func Compare(a, b Value) (int, error) {
	if isNumber(a) && isNumber(b) {
		if a.Kind == KindInt && b.Kind == KindInt {
			return cmp3(a.I64 < b.I64, a.I64 > b.I64), nil
		}
		x, y := toFloat(a), toFloat(b)
		return cmp3(x < y, x > y), nil
	}
	if a.Kind != b.Kind {
		return 0, mismatch("<", a, b)
	}
	switch a.Kind {
	case KindString:
		return cmp3(a.Str < b.Str, a.Str > b.Str), nil
	case KindChar:
		return cmp3(a.Char < b.Char, a.Char > b.Char), nil
	case KindBool:
		return cmp3(!a.Bool && b.Bool, a.Bool && !b.Bool), nil
	}
	return 0, mismatch("<", a, b)
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

func Negate(v Value) (Value, error) {
	switch v.Kind {
	case KindInt:
		return Int(-v.I64), nil
	case KindFloat:
		return Float(-v.F64), nil
	}
	return Nil, fmt.Errorf("%w: cannot negate %s", diag.ErrTypeMismatch, v.TypeName())
}

func Not(v Value) (Value, error) {
	if v.Kind != KindBool {
		return Nil, fmt.Errorf("%w: cannot apply '!' to %s", diag.ErrTypeMismatch, v.TypeName())
	}
	return Bool(!v.Bool), nil
}
