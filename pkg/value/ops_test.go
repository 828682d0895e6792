package value

import (
	"errors"
	"math"
	"testing"

	"github.com/rayone121/widow/pkg/diag"
)

func TestBinary(t *testing.T) {
	tests := []struct {
		name string
		op   BinaryOp
		a, b Value
		want Value
	}{
		{"int add", OpAdd, Int(2), Int(3), Int(5)},
		{"int sub", OpSub, Int(2), Int(3), Int(-1)},
		{"int mul", OpMul, Int(4), Int(3), Int(12)},
		{"int div promotes", OpDiv, Int(7), Int(2), Float(3.5)},
		{"exact int div is float", OpDiv, Int(8), Int(2), Float(4)},
		{"int mod", OpMod, Int(7), Int(3), Int(1)},
		{"mixed add", OpAdd, Int(1), Float(0.5), Float(1.5)},
		{"mixed mod", OpMod, Float(7.5), Int(2), Float(1.5)},
		{"concat", OpAdd, String("foo"), String("bar"), String("foobar")},
		{"int eq", OpEqual, Int(1), Int(1), Bool(true)},
		{"promoted eq", OpEqual, Int(1), Float(1), Bool(true)},
		{"string ne", OpNotEqual, String("a"), String("b"), Bool(true)},
		{"nil eq", OpEqual, Nil, Nil, Bool(true)},
		{"nil vs int", OpEqual, Nil, Int(0), Bool(false)},
		{"less", OpLess, Int(1), Float(1.5), Bool(true)},
		{"greater equal", OpGreaterEqual, Int(2), Int(2), Bool(true)},
		{"string order", OpGreater, String("b"), String("a"), Bool(true)},
		{"bool order", OpLess, Bool(false), Bool(true), Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Binary(tt.op, tt.a, tt.b)
			if err != nil {
				t.Fatalf("Binary failed: %v", err)
			}
			if got.Kind != tt.want.Kind || got.String() != tt.want.String() {
				t.Errorf("Binary(%s, %v, %v) = %v (%s), want %v (%s)",
					tt.op, tt.a, tt.b, got, got.Kind, tt.want, tt.want.Kind)
			}
		})
	}
}

func TestBinaryErrors(t *testing.T) {
	tests := []struct {
		name string
		op   BinaryOp
		a, b Value
		want error
	}{
		{"string plus int", OpAdd, String("a"), Int(1), diag.ErrTypeMismatch},
		{"bool mul", OpMul, Bool(true), Int(2), diag.ErrTypeMismatch},
		{"div by zero", OpDiv, Int(10), Int(0), diag.ErrDivisionByZero},
		{"div by float zero", OpDiv, Float(1), Float(0), diag.ErrDivisionByZero},
		{"mod by zero", OpMod, Int(10), Int(0), diag.ErrModuloByZero},
		{"cross-type eq", OpEqual, String("1"), Int(1), diag.ErrTypeMismatch},
		{"cross-type less", OpLess, String("1"), Int(1), diag.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Binary(tt.op, tt.a, tt.b)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// Division of any two integers with a nonzero divisor equals the float quotient.
func TestIntDivisionAlwaysFloat(t *testing.T) {
	samples := []int64{-1000, -17, -3, -1, 1, 2, 3, 7, 10, 255, 1 << 20, math.MaxInt32}
	for _, a := range append(samples, 0) {
		for _, b := range samples {
			got, err := Binary(OpDiv, Int(a), Int(b))
			if err != nil {
				t.Fatalf("%d / %d: %v", a, b, err)
			}
			if got.Kind != KindFloat || got.F64 != float64(a)/float64(b) {
				t.Errorf("%d / %d = %v (%s), want %v", a, b, got, got.Kind, float64(a)/float64(b))
			}
		}
		if _, err := Binary(OpDiv, Int(a), Int(0)); !errors.Is(err, diag.ErrDivisionByZero) {
			t.Errorf("%d / 0: err = %v, want division by zero", a, err)
		}
	}
}

func TestUnary(t *testing.T) {
	if v, err := Negate(Int(5)); err != nil || v.I64 != -5 {
		t.Errorf("Negate(5) = %v, %v", v, err)
	}
	if v, err := Negate(Float(1.5)); err != nil || v.F64 != -1.5 {
		t.Errorf("Negate(1.5) = %v, %v", v, err)
	}
	if _, err := Negate(String("x")); !errors.Is(err, diag.ErrTypeMismatch) {
		t.Errorf("Negate(string) err = %v", err)
	}
	if v, err := Not(Bool(true)); err != nil || v.Bool {
		t.Errorf("Not(true) = %v, %v", v, err)
	}
	if _, err := Not(Int(0)); !errors.Is(err, diag.ErrTypeMismatch) {
		t.Errorf("Not(int) err = %v", err)
	}
}
