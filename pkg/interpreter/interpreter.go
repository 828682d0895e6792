package interpreter

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/memory"
	"github.com/rayone121/widow/pkg/value"
)

const defaultMaxDepth = 1024

// Interpreter executes a syntax tree directly, on the same variable store
// and operators as the bytecode VM.
type Interpreter struct {
	scopes  *memory.Scopes
	structs map[string][]string // declared struct name -> field names
	frames  []Frame             // active calls

	out io.Writer // output writer for print

	maxSteps int // maximum steps (0 = unlimited)
	steps    int // statements and calls executed
	maxDepth int

	ret value.Value // value carried by the pending ret
}

type Option func(*Interpreter)

// WithWriter sets the output writer for print statements
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithMaxSteps sets a maximum number of interpreter steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithMaxDepth bounds the call depth
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) { i.maxDepth = n }
}

// WithGlobal predefines a global binding
func WithGlobal(name string, v value.Value) Option {
	return func(i *Interpreter) { i.scopes.Global().Define(name, v) }
}

// NewInterpreter creates a new Interpreter instance
func NewInterpreter(opts ...Option) *Interpreter {
	it := &Interpreter{
		scopes:   memory.NewScopes(),
		structs:  make(map[string][]string),
		maxDepth: defaultMaxDepth,
	}
	for _, o := range opts {
		o(it)
	}
	if it.out == nil {
		it.out = os.Stdout
	}
	return it
}

// Exec runs prog with stdout as the writer
func Exec(prog *ast.Program, opts ...Option) (value.Value, error) {
	return NewInterpreter(opts...).Run(prog)
}

// Run executes every top-level statement in order. A top-level ret stops the
// program and its value becomes the result; otherwise the result is nil.
func (i *Interpreter) Run(prog *ast.Program) (value.Value, error) {
	for _, stmt := range prog.Statements {
		ctl, err := i.exec(stmt)
		if err != nil {
			return value.Nil, err
		}
		switch ctl {
		case ctlReturn:
			log.Debug("Program returned", "steps", i.steps)
			return i.ret, nil
		case ctlBreak, ctlContinue:
			return value.Nil, misplaced(stmt, ctl)
		}
	}
	log.Debug("Program finished", "steps", i.steps)
	return value.Nil, nil
}

// Scopes exposes the variable store, mainly for tests and hosts
func (i *Interpreter) Scopes() *memory.Scopes {
	return i.scopes
}

// Steps returns the number of steps executed so far
func (i *Interpreter) Steps() int {
	return i.steps
}

// Depth returns the number of active calls
func (i *Interpreter) Depth() int {
	return len(i.frames)
}

func (i *Interpreter) tick(n ast.Node) error {
	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		p := n.Position()
		return diag.Wrap(diag.Runtime, p.Line, p.Column, diag.ErrMaxStepsExceeded)
	}
	i.steps++
	return nil
}

// fail positions err at n unless it already carries a position.
func fail(n ast.Node, err error) error {
	p := n.Position()
	return diag.Wrap(diag.Runtime, p.Line, p.Column, err)
}
