package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rayone121/widow/pkg/bytecode"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/memory"
	"github.com/rayone121/widow/pkg/value"
)

// asm assembles a chunk by hand; every instruction is on line 1 unless set.
type asm struct {
	t    *testing.T
	c    *bytecode.Chunk
	line int
}

func newAsm(t *testing.T) *asm {
	return &asm{t: t, c: bytecode.NewChunk(), line: 1}
}

func (a *asm) k(v value.Value) byte {
	a.t.Helper()
	idx, err := a.c.AddConstant(v, a.line)
	if err != nil {
		a.t.Fatalf("AddConstant failed: %v", err)
	}
	return byte(idx)
}

func (a *asm) op(op bytecode.Opcode, operands ...byte) *asm {
	a.c.Emit(op, a.line, operands...)
	return a
}

func (a *asm) push(v value.Value) *asm {
	return a.op(bytecode.OpConstant, a.k(v))
}

func (a *asm) name(op bytecode.Opcode, n string) *asm {
	return a.op(op, a.k(value.String(n)))
}

func run(t *testing.T, m *bytecode.Module, opts ...Option) (value.Value, string, error) {
	t.Helper()
	var out bytes.Buffer
	v, err := Execute(m, append([]Option{WithWriter(&out)}, opts...)...)
	return v, out.String(), err
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		a, b value.Value
		op   bytecode.Opcode
		want string
	}{
		{"add", value.Int(2), value.Int(3), bytecode.OpAdd, "5"},
		{"subtract", value.Int(2), value.Int(3), bytecode.OpSubtract, "-1"},
		{"multiply", value.Float(1.5), value.Int(2), bytecode.OpMultiply, "3"},
		{"divide", value.Int(7), value.Int(2), bytecode.OpDivide, "3.5"},
		{"modulo", value.Int(7), value.Int(4), bytecode.OpModulo, "3"},
		{"less", value.Int(1), value.Int(2), bytecode.OpLess, "true"},
		{"greater equal", value.Float(1), value.Int(2), bytecode.OpGreaterEq, "false"},
		{"equal", value.String("a"), value.String("a"), bytecode.OpEqual, "true"},
		{"concat", value.String("foo"), value.String("bar"), bytecode.OpAdd, "foobar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAsm(t).push(tt.a).push(tt.b).op(tt.op).op(bytecode.OpReturn)
			got, _, err := run(t, bytecode.NewModule(a.c))
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("result = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestIntDivideIsFloat(t *testing.T) {
	a := newAsm(t).push(value.Int(8)).push(value.Int(2)).op(bytecode.OpDivide).op(bytecode.OpReturn)
	got, _, err := run(t, bytecode.NewModule(a.c))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got.Kind != value.KindFloat || got.F64 != 4 {
		t.Errorf("8 / 2 = %v (%s), want float 4", got, got.Kind)
	}
}

func TestPrintGlobal(t *testing.T) {
	// x = 2 + 3 * 4; print(x)
	a := newAsm(t).
		push(value.Int(2)).push(value.Int(3)).push(value.Int(4)).
		op(bytecode.OpMultiply).op(bytecode.OpAdd).
		name(bytecode.OpDefGlobal, "x")
	a.line = 2
	a.name(bytecode.OpGetGlobal, "x").op(bytecode.OpPrint).op(bytecode.OpReturn)

	got, out, err := run(t, bytecode.NewModule(a.c))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "14\n" {
		t.Errorf("output = %q, want %q", out, "14\n")
	}
	if !got.IsNil() {
		t.Errorf("result = %v, want nil on empty stack", got)
	}
}

func TestDivisionByZeroAborts(t *testing.T) {
	a := newAsm(t)
	a.line = 3
	a.push(value.Int(10)).push(value.Int(0)).op(bytecode.OpDivide).op(bytecode.OpPrint).op(bytecode.OpReturn)

	_, out, err := run(t, bytecode.NewModule(a.c))
	if !errors.Is(err, diag.ErrDivisionByZero) {
		t.Fatalf("err = %v, want division by zero", err)
	}
	var de *diag.Error
	if !errors.As(err, &de) || de.Kind != diag.Runtime || de.Line != 3 {
		t.Errorf("err = %v, want runtime error at line 3", err)
	}
	if out != "" {
		t.Errorf("output = %q, want nothing", out)
	}
}

func TestTypeMismatch(t *testing.T) {
	a := newAsm(t).push(value.String("a")).push(value.Int(1)).op(bytecode.OpAdd).op(bytecode.OpReturn)
	if _, _, err := run(t, bytecode.NewModule(a.c)); !errors.Is(err, diag.ErrTypeMismatch) {
		t.Errorf("err = %v, want type mismatch", err)
	}
	b := newAsm(t).push(value.Int(1)).op(bytecode.OpNot).op(bytecode.OpReturn)
	if _, _, err := run(t, bytecode.NewModule(b.c)); !errors.Is(err, diag.ErrTypeMismatch) {
		t.Errorf("not int: err = %v, want type mismatch", err)
	}
}

func TestScopeShadowing(t *testing.T) {
	a := newAsm(t).
		push(value.Int(1)).name(bytecode.OpDefGlobal, "x").
		op(bytecode.OpPushScope).
		push(value.Int(2)).name(bytecode.OpDefGlobal, "x").
		name(bytecode.OpGetGlobal, "x").op(bytecode.OpPrint).
		op(bytecode.OpPopScope).
		name(bytecode.OpGetGlobal, "x").op(bytecode.OpPrint).
		op(bytecode.OpReturn)

	_, out, err := run(t, bytecode.NewModule(a.c))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "2\n1\n" {
		t.Errorf("output = %q, want %q", out, "2\n1\n")
	}
}

func TestPopGlobalScope(t *testing.T) {
	a := newAsm(t).op(bytecode.OpPushScope).op(bytecode.OpPopScope).op(bytecode.OpPopScope).op(bytecode.OpReturn)
	if _, _, err := run(t, bytecode.NewModule(a.c)); !errors.Is(err, diag.ErrScopeUnderflow) {
		t.Errorf("err = %v, want scope underflow", err)
	}
}

func TestGlobals(t *testing.T) {
	t.Run("set peeks", func(t *testing.T) {
		a := newAsm(t).
			push(value.Int(1)).name(bytecode.OpDefGlobal, "x").
			push(value.Int(5)).name(bytecode.OpSetGlobal, "x").
			op(bytecode.OpReturn)
		m := New(bytecode.NewModule(a.c), WithWriter(&bytes.Buffer{}))
		got, err := m.Run()
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if got.I64 != 5 {
			t.Errorf("result = %v, want 5 left on the stack", got)
		}
		if x, _ := m.Scopes().Get("x"); x.I64 != 5 {
			t.Errorf("x = %v, want 5", x)
		}
	})

	t.Run("redefinition overwrites", func(t *testing.T) {
		a := newAsm(t).
			push(value.Int(1)).name(bytecode.OpDefGlobal, "x").
			push(value.String("two")).name(bytecode.OpDefGlobal, "x").
			name(bytecode.OpGetGlobal, "x").op(bytecode.OpReturn)
		got, _, err := run(t, bytecode.NewModule(a.c))
		if err != nil || got.Str != "two" {
			t.Errorf("result = %v, %v; want two", got, err)
		}
	})

	t.Run("undefined", func(t *testing.T) {
		a := newAsm(t).name(bytecode.OpGetGlobal, "nope").op(bytecode.OpReturn)
		_, _, err := run(t, bytecode.NewModule(a.c))
		if !errors.Is(err, diag.ErrUndefinedVariable) {
			t.Errorf("err = %v, want undefined variable", err)
		}
	})

	t.Run("set undefined", func(t *testing.T) {
		a := newAsm(t).push(value.Int(1)).name(bytecode.OpSetGlobal, "nope").op(bytecode.OpReturn)
		_, _, err := run(t, bytecode.NewModule(a.c))
		if !errors.Is(err, diag.ErrUndefinedVariable) {
			t.Errorf("err = %v, want undefined variable", err)
		}
	})
}

func TestBorrowInstructions(t *testing.T) {
	a := newAsm(t).
		push(value.Int(42)).name(bytecode.OpDefGlobal, "x").
		name(bytecode.OpBorrowShr, "x").
		name(bytecode.OpBorrowShr, "x").
		name(bytecode.OpRelease, "x").
		name(bytecode.OpRelease, "x").
		name(bytecode.OpBorrowMut, "x").
		op(bytecode.OpReturn)
	m := New(bytecode.NewModule(a.c), WithWriter(&bytes.Buffer{}))
	got, err := m.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got.I64 != 42 {
		t.Errorf("result = %v, want borrowed value 42", got)
	}
	if st := m.Borrows().State("x"); st.Kind != memory.Exclusive {
		t.Errorf("state = %v, want exclusive", st)
	}
	if n := len(m.Stack()); n != 3 {
		t.Errorf("stack depth = %d, want 3 borrowed values", n)
	}
}

func TestBorrowConflicts(t *testing.T) {
	tests := []struct {
		name  string
		ops   []bytecode.Opcode
		want  error
		state memory.BorrowState
	}{
		{"shared while exclusive", []bytecode.Opcode{bytecode.OpBorrowMut, bytecode.OpBorrowShr},
			diag.ErrBorrowConflict, memory.BorrowState{Kind: memory.Exclusive}},
		{"exclusive while shared", []bytecode.Opcode{bytecode.OpBorrowShr, bytecode.OpBorrowShr, bytecode.OpRelease, bytecode.OpBorrowMut},
			diag.ErrBorrowConflict, memory.BorrowState{Kind: memory.Shared, Count: 1}},
		{"exclusive twice", []bytecode.Opcode{bytecode.OpBorrowMut, bytecode.OpBorrowMut},
			diag.ErrBorrowConflict, memory.BorrowState{Kind: memory.Exclusive}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAsm(t).push(value.Int(1)).name(bytecode.OpDefGlobal, "x")
			for _, op := range tt.ops {
				a.name(op, "x")
			}
			a.op(bytecode.OpReturn)
			m := New(bytecode.NewModule(a.c), WithWriter(&bytes.Buffer{}))
			_, err := m.Run()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if st := m.Borrows().State("x"); st != tt.state {
				t.Errorf("state = %v, want %v", st, tt.state)
			}
		})
	}
}

func TestBorrowUndefined(t *testing.T) {
	a := newAsm(t).name(bytecode.OpBorrowMut, "ghost").op(bytecode.OpReturn)
	m := New(bytecode.NewModule(a.c), WithWriter(&bytes.Buffer{}))
	if _, err := m.Run(); !errors.Is(err, diag.ErrUndefinedVariable) {
		t.Fatalf("err = %v, want undefined variable", err)
	}
	if st := m.Borrows().State("ghost"); st.Kind != memory.Unborrowed {
		t.Errorf("failed borrow changed state to %v", st)
	}
	b := newAsm(t).name(bytecode.OpRelease, "ghost").op(bytecode.OpReturn)
	if _, _, err := run(t, bytecode.NewModule(b.c)); err != nil {
		t.Errorf("release of unborrowed name failed: %v", err)
	}
}

// sub(a, b) returns a - b using only its own slots.
func subModule(t *testing.T) (*bytecode.Module, value.Value) {
	fn := newAsm(t).
		op(bytecode.OpGetLocal, 0).op(bytecode.OpGetLocal, 1).
		op(bytecode.OpSubtract).op(bytecode.OpReturn)
	m := bytecode.NewModule(bytecode.NewChunk())
	idx := m.AddChunk(fn.c)
	return m, value.NewFunction(&value.Function{Name: "sub", Arity: 2, Params: []string{"a", "b"}, Chunk: idx})
}

func TestCallFrameIsolation(t *testing.T) {
	m, sub := subModule(t)
	main := &asm{t: t, c: m.Chunks[0], line: 1}
	main.push(value.Int(100)).
		push(sub).push(value.Int(10)).push(value.Int(3)).
		op(bytecode.OpCall, 2).
		op(bytecode.OpAdd).
		op(bytecode.OpReturn)

	v := New(m, WithWriter(&bytes.Buffer{}))
	got, err := v.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got.I64 != 107 {
		t.Errorf("result = %v, want 107", got)
	}
	if st := v.Stack(); len(st) != 1 {
		t.Errorf("stack = %v, want only the final value", st)
	}
	if v.Depth() != 0 {
		t.Errorf("frames left = %d", v.Depth())
	}
}

func TestCalleeCannotPopCallerOperands(t *testing.T) {
	fn := newAsm(t)
	fn.op(bytecode.OpPop).op(bytecode.OpPop).op(bytecode.OpPop).
		push(value.Int(-1)).push(value.Int(-2)).push(value.Int(7)).
		op(bytecode.OpReturn)
	m := bytecode.NewModule(bytecode.NewChunk())
	idx := m.AddChunk(fn.c)

	main := &asm{t: t, c: m.Chunks[0], line: 1}
	main.push(value.Int(100)).
		push(value.NewFunction(&value.Function{Name: "greedy", Arity: 1, Chunk: idx})).
		push(value.Int(1)).
		op(bytecode.OpCall, 1).
		op(bytecode.OpAdd).
		op(bytecode.OpReturn)

	got, _, err := run(t, m)
	if !errors.Is(err, diag.ErrStackUnderflow) {
		t.Fatalf("result = %v, err = %v; want stack underflow", got, err)
	}
}

func TestRecursion(t *testing.T) {
	// fact(n) = n <= 1 ? 1 : n * fact(n - 1)
	fn := newAsm(t)
	fn.op(bytecode.OpGetLocal, 0).push(value.Int(1)).op(bytecode.OpLessEq)
	elseJump := fn.c.EmitJump(bytecode.OpJumpIfFalse, 1)
	fn.op(bytecode.OpPop).push(value.Int(1)).op(bytecode.OpReturn)
	if err := fn.c.PatchJump(elseJump); err != nil {
		t.Fatal(err)
	}
	fn.op(bytecode.OpPop).
		op(bytecode.OpGetLocal, 0).
		name(bytecode.OpGetGlobal, "fact").
		op(bytecode.OpGetLocal, 0).push(value.Int(1)).op(bytecode.OpSubtract).
		op(bytecode.OpCall, 1).
		op(bytecode.OpMultiply).
		op(bytecode.OpReturn)

	m := bytecode.NewModule(bytecode.NewChunk())
	idx := m.AddChunk(fn.c)
	main := &asm{t: t, c: m.Chunks[0], line: 1}
	main.push(value.NewFunction(&value.Function{Name: "fact", Arity: 1, Chunk: idx})).
		name(bytecode.OpDefGlobal, "fact").
		name(bytecode.OpGetGlobal, "fact").push(value.Int(10)).op(bytecode.OpCall, 1).
		op(bytecode.OpPrint).
		op(bytecode.OpReturn)

	_, out, err := run(t, m)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "3628800\n" {
		t.Errorf("output = %q, want 3628800", out)
	}

	_, _, err = run(t, m, WithMaxFrames(5))
	if !errors.Is(err, diag.ErrStackOverflow) {
		t.Errorf("with 5 frames: err = %v, want stack overflow", err)
	}
}

func TestCallErrors(t *testing.T) {
	m, sub := subModule(t)
	main := &asm{t: t, c: m.Chunks[0], line: 1}
	main.push(sub).push(value.Int(1)).op(bytecode.OpCall, 1).op(bytecode.OpReturn)
	if _, _, err := run(t, m); !errors.Is(err, diag.ErrArity) {
		t.Errorf("arity: err = %v", err)
	}

	a := newAsm(t).push(value.Int(3)).op(bytecode.OpCall, 0).op(bytecode.OpReturn)
	if _, _, err := run(t, bytecode.NewModule(a.c)); !errors.Is(err, diag.ErrNotCallable) {
		t.Errorf("int callee: err = %v", err)
	}

	b := newAsm(t).push(value.NewFunction(&value.Function{Name: "tree", Chunk: -1})).op(bytecode.OpCall, 0).op(bytecode.OpReturn)
	if _, _, err := run(t, bytecode.NewModule(b.c)); !errors.Is(err, diag.ErrNotCallable) {
		t.Errorf("bodiless callee: err = %v", err)
	}
}

func TestHostGlobalFunction(t *testing.T) {
	m, sub := subModule(t)
	main := &asm{t: t, c: m.Chunks[0], line: 1}
	main.name(bytecode.OpGetGlobal, "sub").push(value.Int(5)).push(value.Int(8)).op(bytecode.OpCall, 2).op(bytecode.OpReturn)
	got, _, err := run(t, m, WithGlobal("sub", sub))
	if err != nil || got.I64 != -3 {
		t.Errorf("result = %v, %v; want -3", got, err)
	}
}

func TestFailures(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want error
	}{
		{"unknown opcode", []byte{200}, diag.ErrUnknownInstruction},
		{"pop empty", []byte{byte(bytecode.OpPop)}, diag.ErrStackUnderflow},
		{"add empty", []byte{byte(bytecode.OpAdd)}, diag.ErrStackUnderflow},
		{"truncated operand", []byte{byte(bytecode.OpConstant)}, diag.ErrInvalidOperand},
		{"constant out of range", []byte{byte(bytecode.OpConstant), 9}, diag.ErrInvalidOperand},
		{"local out of range", []byte{byte(bytecode.OpGetLocal), 0}, diag.ErrInvalidOperand},
		{"jump outside", []byte{byte(bytecode.OpJump), 0x10, 0}, diag.ErrInvalidOperand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := bytecode.NewChunk()
			for _, b := range tt.code {
				c.Write(b, 4)
			}
			_, _, err := run(t, bytecode.NewModule(c))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if k, _ := diag.KindOf(err); k != diag.Runtime {
				t.Errorf("kind = %v, want runtime", k)
			}
		})
	}
}

func TestUnknownOpcodeMessage(t *testing.T) {
	c := bytecode.NewChunk()
	c.Write(250, 1)
	_, _, err := run(t, bytecode.NewModule(c))
	if err == nil || err.Error() != "runtime error at line 1: unknown instruction: 250" {
		t.Errorf("err = %v", err)
	}
}

func TestMaxSteps(t *testing.T) {
	c := bytecode.NewChunk()
	c.Emit(bytecode.OpJump, 1, 0, 0)
	if err := c.PatchJumpTo(1, 0); err != nil {
		t.Fatal(err)
	}
	_, _, err := run(t, bytecode.NewModule(c), WithMaxSteps(100))
	if !errors.Is(err, diag.ErrMaxStepsExceeded) {
		t.Errorf("err = %v, want max steps exceeded", err)
	}
}

func TestImplicitReturn(t *testing.T) {
	a := newAsm(t).push(value.Int(9))
	got, _, err := run(t, bytecode.NewModule(a.c))
	if err != nil || got.I64 != 9 {
		t.Errorf("result = %v, %v; want 9", got, err)
	}
	empty, _, err := run(t, bytecode.NewModule(bytecode.NewChunk()))
	if err != nil || !empty.IsNil() {
		t.Errorf("empty chunk = %v, %v; want nil", empty, err)
	}
}

func TestJumpIfFalseKeepsCondition(t *testing.T) {
	a := newAsm(t).push(value.Bool(false))
	j := a.c.EmitJump(bytecode.OpJumpIfFalse, 1)
	a.push(value.Int(1))
	if err := a.c.PatchJump(j); err != nil {
		t.Fatal(err)
	}
	a.op(bytecode.OpReturn)
	v := New(bytecode.NewModule(a.c), WithWriter(&bytes.Buffer{}))
	got, err := v.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got.Kind != value.KindBool || got.Bool {
		t.Errorf("result = %v, want false left on the stack", got)
	}
}

func TestCollections(t *testing.T) {
	t.Run("array index", func(t *testing.T) {
		a := newAsm(t).
			push(value.Int(10)).push(value.Int(20)).op(bytecode.OpArray, 2).
			name(bytecode.OpDefGlobal, "xs").
			name(bytecode.OpGetGlobal, "xs").push(value.Int(0)).push(value.Int(99)).op(bytecode.OpSetIndex).op(bytecode.OpPop).
			name(bytecode.OpGetGlobal, "xs").op(bytecode.OpPrint).
			name(bytecode.OpGetGlobal, "xs").push(value.Int(1)).op(bytecode.OpGetIndex).
			op(bytecode.OpReturn)
		got, out, err := run(t, bytecode.NewModule(a.c))
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if out != "[99, 20]\n" || got.I64 != 20 {
			t.Errorf("out = %q, result = %v", out, got)
		}
	})

	t.Run("index out of bounds", func(t *testing.T) {
		a := newAsm(t).op(bytecode.OpArray, 0).push(value.Int(0)).op(bytecode.OpGetIndex).op(bytecode.OpReturn)
		if _, _, err := run(t, bytecode.NewModule(a.c)); !errors.Is(err, diag.ErrIndex) {
			t.Errorf("err = %v, want index error", err)
		}
	})

	t.Run("struct fields", func(t *testing.T) {
		p := value.NewStruct("Point", []string{"x", "y"})
		a := newAsm(t).
			name(bytecode.OpGetGlobal, "p").push(value.Int(9)).name(bytecode.OpSetField, "x").op(bytecode.OpPop).
			name(bytecode.OpGetGlobal, "p").name(bytecode.OpGetField, "x").
			op(bytecode.OpReturn)
		got, _, err := run(t, bytecode.NewModule(a.c), WithGlobal("p", p))
		if err != nil || got.I64 != 9 {
			t.Fatalf("result = %v, %v; want 9", got, err)
		}
		if p.String() != "Point{x: 9, y: nil}" {
			t.Errorf("host struct = %v, want write visible through handle", p)
		}
	})
}
