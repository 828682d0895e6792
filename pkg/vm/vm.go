package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/rayone121/widow/pkg/bytecode"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/memory"
	"github.com/rayone121/widow/pkg/value"
)

const defaultMaxFrames = 1024

// VM executes a bytecode module on an operand stack.
type VM struct {
	module   *bytecode.Module
	chunkIdx int
	chunk    *bytecode.Chunk
	ip       int

	stack  []value.Value
	frames []Frame

	scopes  *memory.Scopes
	borrows *memory.BorrowTracker

	out io.Writer

	maxSteps  int // 0 = unlimited
	steps     int
	maxFrames int
	trace     bool

	halted bool
	result value.Value
}

type Option func(*VM)

// WithWriter sets the output writer for print
func WithWriter(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithMaxSteps stops execution with ErrMaxStepsExceeded after n instructions
func WithMaxSteps(n int) Option {
	return func(vm *VM) { vm.maxSteps = n }
}

// WithMaxFrames bounds call depth
func WithMaxFrames(n int) Option {
	return func(vm *VM) { vm.maxFrames = n }
}

// WithTrace logs every instruction at debug level
func WithTrace(on bool) Option {
	return func(vm *VM) { vm.trace = on }
}

// WithGlobal predefines a global binding before execution starts
func WithGlobal(name string, v value.Value) Option {
	return func(vm *VM) { vm.scopes.Define(name, v) }
}

func New(m *bytecode.Module, opts ...Option) *VM {
	vm := &VM{
		module:    m,
		stack:     make([]value.Value, 0, 256),
		frames:    make([]Frame, 0, 16),
		scopes:    memory.NewScopes(),
		borrows:   memory.NewBorrowTracker(),
		maxFrames: defaultMaxFrames,
	}
	for _, o := range opts {
		o(vm)
	}
	if vm.out == nil {
		vm.out = os.Stdout
	}
	if m != nil && m.Entry >= 0 && m.Entry < len(m.Chunks) {
		vm.chunkIdx = m.Entry
		vm.chunk = m.EntryChunk()
	}
	return vm
}

// Execute runs m to completion and returns its final value.
func Execute(m *bytecode.Module, opts ...Option) (value.Value, error) {
	return New(m, opts...).Run()
}

// Run executes until the entry chunk returns or an error occurs.
func (vm *VM) Run() (value.Value, error) {
	if vm.module == nil {
		return value.Nil, fmt.Errorf("no module loaded")
	}
	if err := vm.module.Validate(); err != nil {
		return value.Nil, err
	}
	for {
		halted, err := vm.Step()
		if err != nil {
			return value.Nil, err
		}
		if halted {
			return vm.result, nil
		}
	}
}

// Step executes a single instruction, returning (halted, error)
func (vm *VM) Step() (bool, error) {
	if vm.halted {
		return true, nil
	}
	if vm.chunk == nil {
		return false, fmt.Errorf("no module loaded")
	}
	if vm.maxSteps > 0 && vm.steps >= vm.maxSteps {
		return false, diag.Wrap(diag.Runtime, vm.chunk.LineAt(vm.ip), 0, diag.ErrMaxStepsExceeded)
	}
	vm.steps++

	start := vm.ip
	if err := vm.execute(); err != nil {
		return false, diag.Wrap(diag.Runtime, vm.chunk.LineAt(start), 0, err)
	}
	return vm.halted, nil
}

// Stack returns a copy of the operand stack, bottom first.
func (vm *VM) Stack() []value.Value {
	return append([]value.Value(nil), vm.stack...)
}

func (vm *VM) Scopes() *memory.Scopes          { return vm.scopes }
func (vm *VM) Borrows() *memory.BorrowTracker { return vm.borrows }
func (vm *VM) Depth() int                     { return len(vm.frames) }
func (vm *VM) Steps() int                     { return vm.steps }

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

// pop never reaches below the running frame's base pointer, so a callee
// cannot consume its caller's operands.
func (vm *VM) pop() (value.Value, error) {
	if len(vm.stack) <= vm.bp() {
		return value.Nil, diag.ErrStackUnderflow
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// pop2 returns the two topmost values in push order.
func (vm *VM) pop2() (value.Value, value.Value, error) {
	b, err := vm.pop()
	if err != nil {
		return value.Nil, value.Nil, err
	}
	a, err := vm.pop()
	if err != nil {
		return value.Nil, value.Nil, err
	}
	return a, b, nil
}

func (vm *VM) peek() (value.Value, error) {
	if len(vm.stack) <= vm.bp() {
		return value.Nil, diag.ErrStackUnderflow
	}
	return vm.stack[len(vm.stack)-1], nil
}
