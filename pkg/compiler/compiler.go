package compiler

import (
	"github.com/charmbracelet/log"

	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/bytecode"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

// maxLocals matches the one-byte slot operand.
const maxLocals = 256

// Local is a block-scoped variable living in a stack slot.
type Local struct {
	Name  string
	Depth int
}

// Compiler turns a syntax tree into a bytecode module. Locals are resolved
// to stack slots at compile time; everything at depth zero is a global
// looked up by name at run time.
type Compiler struct {
	module *bytecode.Module
	chunk  *bytecode.Chunk

	locals     []Local
	scopeDepth int

	globals map[string]bool
	names   map[string]int
}

func New() *Compiler {
	main := bytecode.NewChunk()
	return &Compiler{
		module:  bytecode.NewModule(main),
		chunk:   main,
		globals: make(map[string]bool),
		names:   make(map[string]int),
	}
}

// Compile compiles prog into a fresh module.
func Compile(prog *ast.Program) (*bytecode.Module, error) {
	return New().Compile(prog)
}

func (c *Compiler) Compile(prog *ast.Program) (*bytecode.Module, error) {
	line := 0
	for _, stmt := range prog.Statements {
		if err := c.statement(stmt); err != nil {
			return nil, err
		}
		line = stmt.Position().Line
	}
	c.chunk.Emit(bytecode.OpReturn, line)

	log.Debug("Compiled module", "chunks", len(c.module.Chunks), "bytes", len(c.chunk.Code),
		"constants", len(c.chunk.Constants))
	return c.module, nil
}

func unsupported(n ast.Node) error {
	p := n.Position()
	return diag.New(diag.Compile, p.Line, p.Column, diag.ErrUnsupported,
		"%s is not supported by the bytecode compiler", ast.Describe(n))
}

func (c *Compiler) statement(s ast.Statement) error {
	switch s := s.(type) {
	case *ast.ExpressionStatement:
		if err := c.expression(s.Expr); err != nil {
			return err
		}
		c.chunk.Emit(bytecode.OpPop, s.Line)
		return nil
	case *ast.VarDecl:
		return c.varDecl(s)
	case *ast.Assignment:
		return c.assignment(s)
	default:
		return unsupported(s)
	}
}

func (c *Compiler) varDecl(d *ast.VarDecl) error {
	if d.Value != nil {
		if err := c.expression(d.Value); err != nil {
			return err
		}
	} else {
		c.chunk.Emit(bytecode.OpNil, d.Line)
	}
	return c.declare(d.Name, d.Pos)
}

// declare binds the value on top of the stack to name: it becomes a local
// slot inside a scope, or a global definition at the top level.
func (c *Compiler) declare(name string, pos ast.Pos) error {
	if c.scopeDepth > 0 {
		return c.addLocal(name, pos)
	}
	idx, err := c.nameConstant(name, pos.Line)
	if err != nil {
		return err
	}
	c.chunk.Emit(bytecode.OpDefGlobal, pos.Line, idx)
	c.globals[name] = true
	return nil
}

// An assignment to a name the compiler has never seen declares it, the same
// way the tree walker defines unknown names on assignment.
func (c *Compiler) assignment(a *ast.Assignment) error {
	id, ok := a.Target.(*ast.Identifier)
	if !ok {
		p := a.Target.Position()
		return diag.New(diag.Compile, p.Line, p.Column, diag.ErrUnsupported,
			"assignment to %s is not supported by the bytecode compiler", ast.Describe(a.Target))
	}
	if err := c.expression(a.Value); err != nil {
		return err
	}
	if slot := c.resolveLocal(id.Name); slot >= 0 {
		c.chunk.Emit(bytecode.OpSetLocal, a.Line, byte(slot))
		c.chunk.Emit(bytecode.OpPop, a.Line)
		return nil
	}
	if c.globals[id.Name] {
		idx, err := c.nameConstant(id.Name, a.Line)
		if err != nil {
			return err
		}
		c.chunk.Emit(bytecode.OpSetGlobal, a.Line, idx)
		c.chunk.Emit(bytecode.OpPop, a.Line)
		return nil
	}
	return c.declare(id.Name, a.Pos)
}

func (c *Compiler) addLocal(name string, pos ast.Pos) error {
	if len(c.locals) >= maxLocals {
		return diag.New(diag.Compile, pos.Line, pos.Column, diag.ErrTooManyLocals,
			"too many local variables in one chunk (max %d)", maxLocals)
	}
	c.locals = append(c.locals, Local{Name: name, Depth: c.scopeDepth})
	c.chunk.Locals = append(c.chunk.Locals, name)
	return nil
}

// resolveLocal returns the slot of the innermost local called name, or -1.
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return i
		}
	}
	return -1
}

// beginScope opens a local-slot scope. Blocks do not compile yet, so Compile
// never reaches the slot path; TestLocalSlots drives it directly.
func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope drops the locals declared in the closing scope, popping each
// slot off the stack.
func (c *Compiler) endScope(line int) {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		c.chunk.Emit(bytecode.OpPop, line)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) nameConstant(name string, line int) (byte, error) {
	if idx, ok := c.names[name]; ok {
		return byte(idx), nil
	}
	idx, err := c.chunk.AddConstant(value.String(name), line)
	if err != nil {
		return 0, err
	}
	c.names[name] = idx
	return byte(idx), nil
}

func (c *Compiler) constant(v value.Value, line int) error {
	idx, err := c.chunk.AddConstant(v, line)
	if err != nil {
		return err
	}
	c.chunk.Emit(bytecode.OpConstant, line, byte(idx))
	return nil
}
