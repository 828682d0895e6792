package interpreter_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/interpreter"
	"github.com/rayone121/widow/pkg/parser"
	"github.com/rayone121/widow/pkg/value"
)

func run(t *testing.T, src string, opts ...interpreter.Option) (string, value.Value, error) {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	var out bytes.Buffer
	opts = append([]interpreter.Option{interpreter.WithWriter(&out)}, opts...)
	result, err := interpreter.Exec(prog, opts...)
	return out.String(), result, err
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		output string
	}{
		{"arithmetic", "print(1 + 2 * 3)\nprint(7 / 2)\nprint(7 % 3)\nprint(\"a\" + \"b\")", "7\n3.5\n1\nab\n"},
		{"shadowing", "let x = 1\n{ let x = 2\n print(x) }\nprint(x)", "2\n1\n"},
		{"assign outer", "let x = 1\n{ x = 5 }\nprint(x)", "5\n"},
		{"if elif else", "let n = 2\nif n == 1 { print(\"one\") } elif n == 2 { print(\"two\") } else { print(\"many\") }", "two\n"},
		{"range", "for i in 0..6 {\n if i == 1 { continue }\n if i == 4 { break }\n print(i)\n}", "0\n2\n3\n"},
		{"condition loop", "let n = 0\nfor n < 3 { n = n + 1 }\nprint(n)", "3\n"},
		{"infinite loop with break", "let n = 0\nfor {\n n = n + 1\n if n > 4 { break }\n}\nprint(n)", "5\n"},
		{"foreach", "for x in [1, 2] { print(x) }\nlet m = {\"a\": 1, \"b\": 2}\nfor k in m { print(k) }\nfor c in \"hi\" { print(c) }", "1\n2\na\nb\n'h'\n'i'\n"},
		{"recursion", "func fact(n) {\n if n <= 1 { ret 1 }\n ret n * fact(n - 1)\n}\nprint(fact(10))", "3628800\n"},
		{"switch", "let v = 3\nswitch v {\ncase 1, 2:\n print(\"low\")\ncase 3:\n print(\"three\")\ndefault:\n print(\"other\")\n}\nswitch \"x\" {\ncase 1:\n print(\"int\")\ndefault:\n print(\"default\")\n}", "three\ndefault\n"},
		{"structs and indexing", "struct P { x, y }\nlet p = P{x: 1}\np.y = 2\nprint(p.x + p.y)\nlet a = [1, 2]\na[0] = 9\nprint(a)\nprint(p)", "3\n[9, 2]\nP{x: 1, y: 2}\n"},
		{"maps", "let m = {\"k\": 1}\nm[\"j\"] = 2\nm.k = 3\nprint(m)\nprint(m.j)", "{\"k\": 3, \"j\": 2}\n2\n"},
		{"short circuit", "let calls = 0\nfunc hit() {\n calls = calls + 1\n ret true\n}\nprint(false && hit())\nprint(true || hit())\nprint(calls)\nprint(0 || \"x\")\nprint(1 && hit())\nprint(calls)", "false\ntrue\n0\nx\ntrue\n1\n"},
		{"call sees caller scope", "func show() { print(secret) }\n{ let secret = 42\n show() }", "42\n"},
		{"shared array handle", "let a = [1]\nlet b = a\nb[0] = 7\nprint(a[0])", "7\n"},
		{"string index", "print(\"abc\"[1])", "'b'\n"},
		{"nil and floats", "let z\nprint(z)\nprint(2.5 * 2)\nprint(-3 % 2.0)", "nil\n5\n-1\n"},
		{"return from loop", "func find(xs, want) {\n for x in xs {\n if x == want { ret true }\n }\n ret false\n}\nprint(find([1, 2, 3], 2))\nprint(find([1], 5))", "true\nfalse\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("run failed: %v (output %q)", err, out)
			}
			if out != tt.output {
				t.Errorf("output = %q, want %q", out, tt.output)
			}
		})
	}
}

func TestTopLevelReturn(t *testing.T) {
	out, result, err := run(t, "ret 5\nprint(1)")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want none", out)
	}
	if result.Kind != value.KindInt || result.I64 != 5 {
		t.Errorf("result = %v, want 5", result)
	}

	_, result, _ = run(t, "let x = 1")
	if !result.IsNil() {
		t.Errorf("result = %v, want nil", result)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
		line int
	}{
		{"division by zero", "print(1 / 0)", diag.ErrDivisionByZero, 1},
		{"modulo by zero", "let a = 4\nprint(a % 0)", diag.ErrModuloByZero, 2},
		{"type mismatch", "let x = 1\nprint(x + \"a\")", diag.ErrTypeMismatch, 2},
		{"block local does not leak", "{ y = 3 }\nprint(y)", diag.ErrUndefinedVariable, 2},
		{"print arity", "print(1, 2)", diag.ErrArity, 1},
		{"function arity", "func f(a) { ret a }\nf()", diag.ErrArity, 2},
		{"not callable", "let x = 1\nx()", diag.ErrNotCallable, 2},
		{"impl", "impl P {\n}", diag.ErrUnsupported, 1},
		{"break outside loop", "let a = 1\nbreak", diag.ErrUnsupported, 2},
		{"index out of bounds", "let a = [1]\nprint(a[5])", diag.ErrIndex, 2},
		{"range bounds", "for i in 0..\"a\" { }", diag.ErrTypeMismatch, 1},
		{"unknown struct", "let p = Q{x: 1}", diag.ErrUndefinedVariable, 1},
		{"unknown field", "struct P { x }\nlet p = P{y: 1}", diag.ErrIndex, 2},
		{"iterate int", "for x in 3 { }", diag.ErrTypeMismatch, 1},
		{"unbounded recursion", "func f() { ret f() }\nf()", diag.ErrStackOverflow, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var de *diag.Error
			if !errors.As(err, &de) || de.Kind != diag.Runtime || de.Line != tt.line {
				t.Errorf("err = %v, want runtime error at line %d", err, tt.line)
			}
		})
	}
}

func TestErrorStopsOutput(t *testing.T) {
	out, _, err := run(t, "print(1)\nprint(2 / 0)\nprint(3)")
	if !errors.Is(err, diag.ErrDivisionByZero) {
		t.Fatalf("err = %v, want division by zero", err)
	}
	if out != "1\n" {
		t.Errorf("output = %q, want %q", out, "1\n")
	}
}

func TestScopesBalanced(t *testing.T) {
	prog, err := parser.ParseProgram("func f(n) {\n { for i in 0..3 { ret n / 0 } }\n}\nf(1)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := interpreter.NewInterpreter(interpreter.WithWriter(&bytes.Buffer{}))
	if _, err := it.Run(prog); !errors.Is(err, diag.ErrDivisionByZero) {
		t.Fatalf("err = %v, want division by zero", err)
	}
	if d := it.Scopes().Depth(); d != 0 {
		t.Errorf("scope depth after error = %d, want 0", d)
	}
	if d := it.Depth(); d != 0 {
		t.Errorf("call depth after error = %d, want 0", d)
	}
}

func TestMaxSteps(t *testing.T) {
	_, _, err := run(t, "for { }", interpreter.WithMaxSteps(100))
	if !errors.Is(err, diag.ErrMaxStepsExceeded) {
		t.Fatalf("err = %v, want max steps exceeded", err)
	}
}

func TestMaxDepth(t *testing.T) {
	src := "func down(n) {\n if n == 0 { ret 0 }\n ret down(n - 1)\n}\nprint(down(10))"
	if _, _, err := run(t, src, interpreter.WithMaxDepth(5)); !errors.Is(err, diag.ErrStackOverflow) {
		t.Errorf("depth 5: err = %v, want stack overflow", err)
	}
	if out, _, err := run(t, src, interpreter.WithMaxDepth(20)); err != nil || out != "0\n" {
		t.Errorf("depth 20: out %q err %v", out, err)
	}
}

func TestWithGlobal(t *testing.T) {
	out, _, err := run(t, "print(limit * 2)", interpreter.WithGlobal("limit", value.Int(21)))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "42\n" {
		t.Errorf("output = %q, want 42", out)
	}
}
