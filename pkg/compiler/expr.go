package compiler

import (
	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/bytecode"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

var binaryOps = map[string]bytecode.Opcode{
	"+":  bytecode.OpAdd,
	"-":  bytecode.OpSubtract,
	"*":  bytecode.OpMultiply,
	"/":  bytecode.OpDivide,
	"%":  bytecode.OpModulo,
	"==": bytecode.OpEqual,
	"!=": bytecode.OpNotEqual,
	">":  bytecode.OpGreater,
	">=": bytecode.OpGreaterEq,
	"<":  bytecode.OpLess,
	"<=": bytecode.OpLessEq,
}

func (c *Compiler) expression(e ast.Expression) error {
	switch e := e.(type) {
	case *ast.Literal:
		return c.literal(e)
	case *ast.Identifier:
		if slot := c.resolveLocal(e.Name); slot >= 0 {
			c.chunk.Emit(bytecode.OpGetLocal, e.Line, byte(slot))
			return nil
		}
		idx, err := c.nameConstant(e.Name, e.Line)
		if err != nil {
			return err
		}
		c.chunk.Emit(bytecode.OpGetGlobal, e.Line, idx)
		return nil
	case *ast.Prefix:
		return c.prefix(e)
	case *ast.Infix:
		return c.infix(e)
	case *ast.Call:
		return c.call(e)
	default:
		return unsupported(e)
	}
}

func (c *Compiler) literal(l *ast.Literal) error {
	switch l.Kind {
	case ast.LitInt:
		return c.constant(value.Int(l.Int), l.Line)
	case ast.LitFloat:
		return c.constant(value.Float(l.Float), l.Line)
	case ast.LitString:
		return c.constant(value.String(l.Str), l.Line)
	case ast.LitChar:
		return c.constant(value.Char(l.Char), l.Line)
	case ast.LitBool:
		return c.constant(value.Bool(l.Bool), l.Line)
	default:
		c.chunk.Emit(bytecode.OpNil, l.Line)
		return nil
	}
}

func (c *Compiler) prefix(p *ast.Prefix) error {
	if err := c.expression(p.Right); err != nil {
		return err
	}
	switch p.Op {
	case "-":
		c.chunk.Emit(bytecode.OpNegate, p.Line)
	case "!":
		c.chunk.Emit(bytecode.OpNot, p.Line)
	default:
		return diag.New(diag.Compile, p.Line, p.Column, diag.ErrUnsupported, "unknown prefix operator '%s'", p.Op)
	}
	return nil
}

func (c *Compiler) infix(in *ast.Infix) error {
	switch in.Op {
	case "&&":
		return c.and(in)
	case "||":
		return c.or(in)
	}
	op, ok := binaryOps[in.Op]
	if !ok {
		return diag.New(diag.Compile, in.Line, in.Column, diag.ErrUnsupported, "unknown infix operator '%s'", in.Op)
	}
	if err := c.expression(in.Left); err != nil {
		return err
	}
	if err := c.expression(in.Right); err != nil {
		return err
	}
	c.chunk.Emit(op, in.Line)
	return nil
}

// and leaves the left operand as the result when it is falsy and skips the
// right operand entirely.
func (c *Compiler) and(in *ast.Infix) error {
	if err := c.expression(in.Left); err != nil {
		return err
	}
	end := c.chunk.EmitJump(bytecode.OpJumpIfFalse, in.Line)
	c.chunk.Emit(bytecode.OpPop, in.Line)
	if err := c.expression(in.Right); err != nil {
		return err
	}
	return c.chunk.PatchJump(end)
}

// or leaves the left operand as the result when it is truthy.
func (c *Compiler) or(in *ast.Infix) error {
	if err := c.expression(in.Left); err != nil {
		return err
	}
	elseJump := c.chunk.EmitJump(bytecode.OpJumpIfFalse, in.Line)
	endJump := c.chunk.EmitJump(bytecode.OpJump, in.Line)
	if err := c.chunk.PatchJump(elseJump); err != nil {
		return err
	}
	c.chunk.Emit(bytecode.OpPop, in.Line)
	if err := c.expression(in.Right); err != nil {
		return err
	}
	return c.chunk.PatchJump(endJump)
}

// print is an instruction, not a function: it writes its single argument and
// the call expression evaluates to nil.
func (c *Compiler) call(call *ast.Call) error {
	if id, ok := call.Callee.(*ast.Identifier); ok && id.Name == "print" {
		if len(call.Args) != 1 {
			return diag.New(diag.Compile, call.Line, call.Column, diag.ErrArity,
				"print expects exactly 1 argument, got %d", len(call.Args))
		}
		if err := c.expression(call.Args[0]); err != nil {
			return err
		}
		c.chunk.Emit(bytecode.OpPrint, call.Line)
		c.chunk.Emit(bytecode.OpNil, call.Line)
		return nil
	}

	if len(call.Args) > 255 {
		return diag.New(diag.Compile, call.Line, call.Column, diag.ErrArity,
			"too many arguments in call (max 255)")
	}
	if err := c.expression(call.Callee); err != nil {
		return err
	}
	for _, arg := range call.Args {
		if err := c.expression(arg); err != nil {
			return err
		}
	}
	c.chunk.Emit(bytecode.OpCall, call.Line, byte(len(call.Args)))
	return nil
}
