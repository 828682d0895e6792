package diag

import (
	"errors"
	"fmt"
)

// Kind identifies the pipeline stage that produced an error.
type Kind int

const (
	Lexical Kind = iota
	Parse
	Compile
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Parse:
		return "parse"
	case Compile:
		return "compile"
	case Runtime:
		return "runtime"
	default:
		return "unknown"
	}
}

var (
	ErrUndefinedVariable  = errors.New("undefined variable")
	ErrScopeUnderflow     = errors.New("cannot pop global scope")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrModuloByZero       = errors.New("modulo by zero")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrInvalidOperand     = errors.New("invalid operand")
	ErrBorrowConflict     = errors.New("borrow conflict")
	ErrUnsupported        = errors.New("unsupported construct")
	ErrConstantOverflow   = errors.New("too many constants in one chunk")
	ErrTooManyLocals      = errors.New("too many local variables in one chunk")
	ErrArity              = errors.New("wrong number of arguments")
	ErrNotCallable        = errors.New("value is not callable")
	ErrIndex              = errors.New("index error")
	ErrMaxStepsExceeded   = errors.New("maximum steps exceeded")
)

// Error is a positioned failure from any stage. Column is zero when the
// producing layer does not track columns.
type Error struct {
	Kind   Kind
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("%s error at line %d, column %d: %s", e.Kind, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s error at line %d: %s", e.Kind, e.Line, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error whose message is the formatted text.
func New(kind Kind, line, col int, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Column: col, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Wrap lifts err into a positioned Error of the given kind. An err that is
// already an *Error is returned unchanged so the innermost position wins.
func Wrap(kind Kind, line, col int, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: kind, Line: line, Column: col, Msg: err.Error(), Err: err}
}

// KindOf reports the stage of err, or false when err carries no position.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}
