package engine

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/compiler"
	"github.com/rayone121/widow/pkg/interpreter"
	"github.com/rayone121/widow/pkg/parser"
	"github.com/rayone121/widow/pkg/value"
	"github.com/rayone121/widow/pkg/vm"
)

// Backend executes a parsed program, writing print output to out.
type Backend interface {
	Name() string
	Execute(prog *ast.Program, out io.Writer) (value.Value, error)
}

// Bytecode compiles the program and runs it on the VM.
type Bytecode struct {
	Options []vm.Option
}

func (Bytecode) Name() string { return "vm" }

func (b Bytecode) Execute(prog *ast.Program, out io.Writer) (value.Value, error) {
	m, err := compiler.Compile(prog)
	if err != nil {
		return value.Nil, err
	}
	opts := append([]vm.Option{vm.WithWriter(out)}, b.Options...)
	return vm.Execute(m, opts...)
}

// TreeWalk evaluates the syntax tree directly.
type TreeWalk struct {
	Options []interpreter.Option
}

func (TreeWalk) Name() string { return "tree" }

func (t TreeWalk) Execute(prog *ast.Program, out io.Writer) (value.Value, error) {
	opts := append([]interpreter.Option{interpreter.WithWriter(out)}, t.Options...)
	return interpreter.Exec(prog, opts...)
}

// Limits are the execution guards shared by both backends. Zero values
// keep each backend's default.
type Limits struct {
	MaxSteps  int
	MaxFrames int
	Trace     bool
}

// New returns the backend called name ("vm" or "tree") configured with l.
func New(name string, l Limits) (Backend, error) {
	switch name {
	case "vm", "":
		return Bytecode{Options: VMOptions(l)}, nil
	case "tree":
		var opts []interpreter.Option
		if l.MaxSteps > 0 {
			opts = append(opts, interpreter.WithMaxSteps(l.MaxSteps))
		}
		if l.MaxFrames > 0 {
			opts = append(opts, interpreter.WithMaxDepth(l.MaxFrames))
		}
		return TreeWalk{Options: opts}, nil
	}
	return nil, fmt.Errorf("unknown backend %q (want vm or tree)", name)
}

// VMOptions translates l into VM options, for running modules that were
// loaded rather than compiled.
func VMOptions(l Limits) []vm.Option {
	var opts []vm.Option
	if l.MaxSteps > 0 {
		opts = append(opts, vm.WithMaxSteps(l.MaxSteps))
	}
	if l.MaxFrames > 0 {
		opts = append(opts, vm.WithMaxFrames(l.MaxFrames))
	}
	if l.Trace {
		opts = append(opts, vm.WithTrace(true))
	}
	return opts
}

// Run parses src and executes it on b.
func Run(src string, b Backend, out io.Writer) (value.Value, error) {
	prog, err := parser.ParseProgram(src)
	if err != nil {
		return value.Nil, err
	}
	log.Debug("Parsed program", "statements", len(prog.Statements), "backend", b.Name())
	return b.Execute(prog, out)
}
