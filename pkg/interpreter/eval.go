package interpreter

import (
	"fmt"

	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

var binaryOps = map[string]value.BinaryOp{
	"+":  value.OpAdd,
	"-":  value.OpSub,
	"*":  value.OpMul,
	"/":  value.OpDiv,
	"%":  value.OpMod,
	"==": value.OpEqual,
	"!=": value.OpNotEqual,
	"<":  value.OpLess,
	"<=": value.OpLessEqual,
	">":  value.OpGreater,
	">=": value.OpGreaterEqual,
}

func (i *Interpreter) eval(e ast.Expression) (value.Value, error) {
	switch e := e.(type) {
	case *ast.Literal:
		return literal(e), nil

	case *ast.Identifier:
		v, err := i.scopes.Get(e.Name)
		return v, fail(e, err)

	case *ast.Prefix:
		right, err := i.eval(e.Right)
		if err != nil {
			return value.Nil, err
		}
		switch e.Op {
		case "-":
			v, err := value.Negate(right)
			return v, fail(e, err)
		case "!":
			v, err := value.Not(right)
			return v, fail(e, err)
		}

	case *ast.Infix:
		return i.infix(e)

	case *ast.Call:
		return i.call(e)

	case *ast.Index:
		coll, err := i.eval(e.Left)
		if err != nil {
			return value.Nil, err
		}
		idx, err := i.eval(e.Index)
		if err != nil {
			return value.Nil, err
		}
		v, err := value.Index(coll, idx)
		return v, fail(e, err)

	case *ast.Member:
		obj, err := i.eval(e.Object)
		if err != nil {
			return value.Nil, err
		}
		v, err := value.Field(obj, e.Name)
		return v, fail(e, err)

	case *ast.ArrayLit:
		elems := make([]value.Value, 0, len(e.Elems))
		for _, el := range e.Elems {
			v, err := i.eval(el)
			if err != nil {
				return value.Nil, err
			}
			elems = append(elems, v)
		}
		return value.NewArray(elems...), nil

	case *ast.MapLit:
		m := value.NewMap()
		for _, entry := range e.Entries {
			k, err := i.eval(entry.Key)
			if err != nil {
				return value.Nil, err
			}
			v, err := i.eval(entry.Value)
			if err != nil {
				return value.Nil, err
			}
			if err := value.SetIndex(m, k, v); err != nil {
				return value.Nil, fail(entry.Key, err)
			}
		}
		return m, nil

	case *ast.StructInit:
		fields, ok := i.structs[e.Name]
		if !ok {
			return value.Nil, diag.New(diag.Runtime, e.Line, e.Column, diag.ErrUndefinedVariable,
				"undefined struct '%s'", e.Name)
		}
		obj := value.NewStruct(e.Name, fields)
		for _, f := range e.Fields {
			v, err := i.eval(f.Value)
			if err != nil {
				return value.Nil, err
			}
			if err := value.SetField(obj, f.Name, v); err != nil {
				return value.Nil, fail(e, err)
			}
		}
		return obj, nil
	}

	p := e.Position()
	return value.Nil, diag.New(diag.Runtime, p.Line, p.Column, diag.ErrUnsupported,
		"cannot evaluate %s", ast.Describe(e))
}

func literal(l *ast.Literal) value.Value {
	switch l.Kind {
	case ast.LitInt:
		return value.Int(l.Int)
	case ast.LitFloat:
		return value.Float(l.Float)
	case ast.LitString:
		return value.String(l.Str)
	case ast.LitChar:
		return value.Char(l.Char)
	case ast.LitBool:
		return value.Bool(l.Bool)
	}
	return value.Nil
}

// infix evaluates binary operators. && and || short circuit and yield the
// operand that decided the result.
func (i *Interpreter) infix(e *ast.Infix) (value.Value, error) {
	left, err := i.eval(e.Left)
	if err != nil {
		return value.Nil, err
	}

	switch e.Op {
	case "&&":
		if !left.Truthy() {
			return left, nil
		}
		return i.eval(e.Right)
	case "||":
		if left.Truthy() {
			return left, nil
		}
		return i.eval(e.Right)
	}

	op, ok := binaryOps[e.Op]
	if !ok {
		return value.Nil, diag.New(diag.Runtime, e.Line, e.Column, diag.ErrUnsupported,
			"unknown infix operator '%s'", e.Op)
	}
	right, err := i.eval(e.Right)
	if err != nil {
		return value.Nil, err
	}
	v, err := value.Binary(op, left, right)
	return v, fail(e, err)
}

// call invokes print or a user function.
func (i *Interpreter) call(e *ast.Call) (value.Value, error) {
	if id, ok := e.Callee.(*ast.Identifier); ok && id.Name == "print" {
		if len(e.Args) != 1 {
			return value.Nil, diag.New(diag.Runtime, e.Line, e.Column, diag.ErrArity,
				"print expects exactly 1 argument, got %d", len(e.Args))
		}
		v, err := i.eval(e.Args[0])
		if err != nil {
			return value.Nil, err
		}
		_, err = fmt.Fprintln(i.out, v.String())
		return value.Nil, fail(e, err)
	}

	callee, err := i.eval(e.Callee)
	if err != nil {
		return value.Nil, err
	}
	args := make([]value.Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := i.eval(a)
		if err != nil {
			return value.Nil, err
		}
		args = append(args, v)
	}
	return i.invoke(e, callee, args)
}
