package interpreter

import (
	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

// Frame represents a function call frame.
type Frame struct {
	FuncName string // function name for this frame
	Line     int    // line of the call site
}

// invoke calls fn with already evaluated arguments. The call scope is pushed
// on top of the caller's current scope, so the body also sees the caller's
// locals.
func (i *Interpreter) invoke(site *ast.Call, callee value.Value, args []value.Value) (result value.Value, err error) {
	if callee.Kind != value.KindFunction {
		return value.Nil, diag.New(diag.Runtime, site.Line, site.Column, diag.ErrNotCallable,
			"cannot call %s", callee.TypeName())
	}
	fn := callee.Fn
	if fn.Body == nil {
		return value.Nil, diag.New(diag.Runtime, site.Line, site.Column, diag.ErrNotCallable,
			"function '%s' has no body", fn.Name)
	}
	if len(args) != fn.Arity {
		return value.Nil, diag.New(diag.Runtime, site.Line, site.Column, diag.ErrArity,
			"function '%s' expects %d arguments, got %d", fn.Name, fn.Arity, len(args))
	}
	if len(i.frames) >= i.maxDepth {
		return value.Nil, diag.New(diag.Runtime, site.Line, site.Column, diag.ErrStackOverflow,
			"call depth exceeded %d calling '%s'", i.maxDepth, fn.Name)
	}
	if err := i.tick(site); err != nil {
		return value.Nil, err
	}

	i.frames = append(i.frames, Frame{FuncName: fn.Name, Line: site.Line})
	i.scopes.Push()
	defer func() {
		i.frames = i.frames[:len(i.frames)-1]
		if perr := i.scopes.Pop(); err == nil {
			err = perr
		}
	}()

	for k, name := range fn.Params {
		i.scopes.Define(name, args[k])
	}

	ctl, err := i.run(fn.Body.Statements)
	switch {
	case err != nil:
		return value.Nil, err
	case ctl == ctlReturn:
		return i.ret, nil
	case ctl == ctlBreak || ctl == ctlContinue:
		return value.Nil, misplaced(site, ctl)
	}
	return value.Nil, nil
}
