package interpreter

import (
	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

// control reports how a statement finished.
type control int

const (
	ctlNext control = iota
	ctlBreak
	ctlContinue
	ctlReturn
)

func misplaced(n ast.Node, ctl control) error {
	word := "break"
	if ctl == ctlContinue {
		word = "continue"
	}
	p := n.Position()
	return diag.New(diag.Runtime, p.Line, p.Column, diag.ErrUnsupported, "'%s' outside of a loop", word)
}

// exec runs a single statement
func (i *Interpreter) exec(s ast.Statement) (control, error) {
	if err := i.tick(s); err != nil {
		return ctlNext, err
	}

	switch s := s.(type) {
	case *ast.ExpressionStatement:
		_, err := i.eval(s.Expr)
		return ctlNext, err

	case *ast.VarDecl:
		v := value.Nil
		if s.Value != nil {
			var err error
			if v, err = i.eval(s.Value); err != nil {
				return ctlNext, err
			}
		}
		i.scopes.Define(s.Name, v)
		return ctlNext, nil

	case *ast.FuncDecl:
		params := make([]string, len(s.Params))
		for k, p := range s.Params {
			params[k] = p.Name
		}
		i.scopes.Define(s.Name, value.NewFunction(&value.Function{
			Name:   s.Name,
			Arity:  len(params),
			Params: params,
			Body:   s.Body,
			Chunk:  -1,
		}))
		return ctlNext, nil

	case *ast.StructDecl:
		fields := make([]string, len(s.Fields))
		for k, f := range s.Fields {
			fields[k] = f.Name
		}
		i.structs[s.Name] = fields
		return ctlNext, nil

	case *ast.ImplDecl:
		return ctlNext, diag.New(diag.Runtime, s.Line, s.Column, diag.ErrUnsupported,
			"impl blocks are not supported")

	case *ast.Assignment:
		return ctlNext, i.assign(s)

	case *ast.Block:
		return i.block(s.Statements)

	case *ast.If:
		return i.execIf(s)

	case *ast.ForCond:
		return i.forCond(s)

	case *ast.ForRange:
		return i.forRange(s)

	case *ast.ForEach:
		return i.forEach(s)

	case *ast.Switch:
		return i.execSwitch(s)

	case *ast.Return:
		i.ret = value.Nil
		if s.Value != nil {
			v, err := i.eval(s.Value)
			if err != nil {
				return ctlNext, err
			}
			i.ret = v
		}
		return ctlReturn, nil

	case *ast.Break:
		return ctlBreak, nil

	case *ast.Continue:
		return ctlContinue, nil
	}

	p := s.Position()
	return ctlNext, diag.New(diag.Runtime, p.Line, p.Column, diag.ErrUnsupported,
		"cannot execute %s", ast.Describe(s))
}

// block runs statements in a fresh scope, popping it however the block ends.
func (i *Interpreter) block(stmts []ast.Statement) (ctl control, err error) {
	i.scopes.Push()
	defer func() {
		if perr := i.scopes.Pop(); err == nil {
			err = perr
		}
	}()
	return i.run(stmts)
}

// run executes stmts in the current scope and stops at the first statement
// that does not fall through.
func (i *Interpreter) run(stmts []ast.Statement) (control, error) {
	for _, s := range stmts {
		ctl, err := i.exec(s)
		if err != nil || ctl != ctlNext {
			return ctl, err
		}
	}
	return ctlNext, nil
}

// assign stores into an identifier, index or member target. Assigning an
// unknown name defines it in the current scope.
func (i *Interpreter) assign(s *ast.Assignment) error {
	v, err := i.eval(s.Value)
	if err != nil {
		return err
	}

	switch t := s.Target.(type) {
	case *ast.Identifier:
		if !i.scopes.Current().Has(t.Name) {
			i.scopes.Define(t.Name, v)
			return nil
		}
		return fail(t, i.scopes.Assign(t.Name, v))

	case *ast.Index:
		coll, err := i.eval(t.Left)
		if err != nil {
			return err
		}
		idx, err := i.eval(t.Index)
		if err != nil {
			return err
		}
		return fail(t, value.SetIndex(coll, idx, v))

	case *ast.Member:
		obj, err := i.eval(t.Object)
		if err != nil {
			return err
		}
		return fail(t, value.SetField(obj, t.Name, v))
	}

	return diag.New(diag.Runtime, s.Line, s.Column, diag.ErrUnsupported,
		"cannot assign to %s", ast.Describe(s.Target))
}

func (i *Interpreter) execIf(s *ast.If) (control, error) {
	cond, err := i.eval(s.Cond)
	if err != nil {
		return ctlNext, err
	}
	if cond.Truthy() {
		return i.block(s.Then.Statements)
	}
	for _, elif := range s.Elifs {
		cond, err := i.eval(elif.Cond)
		if err != nil {
			return ctlNext, err
		}
		if cond.Truthy() {
			return i.block(elif.Body.Statements)
		}
	}
	if s.Else != nil {
		return i.block(s.Else.Statements)
	}
	return ctlNext, nil
}

// loopBody runs one iteration and reports whether the loop should stop,
// passing a pending ret outward.
func (i *Interpreter) loopBody(body *ast.Block) (stop bool, ctl control, err error) {
	if err := i.tick(body); err != nil {
		return true, ctlNext, err
	}
	ctl, err = i.block(body.Statements)
	switch {
	case err != nil:
		return true, ctlNext, err
	case ctl == ctlReturn:
		return true, ctlReturn, nil
	case ctl == ctlBreak:
		return true, ctlNext, nil
	}
	return false, ctlNext, nil
}

func (i *Interpreter) forCond(s *ast.ForCond) (control, error) {
	for {
		if s.Cond != nil {
			cond, err := i.eval(s.Cond)
			if err != nil {
				return ctlNext, err
			}
			if !cond.Truthy() {
				return ctlNext, nil
			}
		}
		if stop, ctl, err := i.loopBody(s.Body); stop {
			return ctl, err
		}
	}
}

// forRange iterates over [start, end). The loop variable lives in a scope
// around the body.
func (i *Interpreter) forRange(s *ast.ForRange) (ctl control, err error) {
	start, err := i.eval(s.Start)
	if err != nil {
		return ctlNext, err
	}
	end, err := i.eval(s.End)
	if err != nil {
		return ctlNext, err
	}
	if start.Kind != value.KindInt || end.Kind != value.KindInt {
		return ctlNext, diag.New(diag.Runtime, s.Line, s.Column, diag.ErrTypeMismatch,
			"range bounds must be int, got %s..%s", start.TypeName(), end.TypeName())
	}

	i.scopes.Push()
	defer func() {
		if perr := i.scopes.Pop(); err == nil {
			err = perr
		}
	}()
	for n := start.I64; n < end.I64; n++ {
		i.scopes.Define(s.Var, value.Int(n))
		if stop, ctl, err := i.loopBody(s.Body); stop {
			return ctl, err
		}
	}
	return ctlNext, nil
}

// forEach visits array elements, map keys in insertion order, or the
// characters of a string.
func (i *Interpreter) forEach(s *ast.ForEach) (ctl control, err error) {
	coll, err := i.eval(s.Iterable)
	if err != nil {
		return ctlNext, err
	}

	var items []value.Value
	switch coll.Kind {
	case value.KindArray:
		items = append(items, coll.Arr.Elems...)
	case value.KindMap:
		items = make([]value.Value, 0, coll.Map.Len())
		for _, k := range coll.Map.Keys() {
			items = append(items, value.String(k))
		}
	case value.KindString:
		for _, r := range coll.Str {
			items = append(items, value.Char(r))
		}
	default:
		return ctlNext, diag.New(diag.Runtime, s.Line, s.Column, diag.ErrTypeMismatch,
			"cannot iterate over %s", coll.TypeName())
	}

	i.scopes.Push()
	defer func() {
		if perr := i.scopes.Pop(); err == nil {
			err = perr
		}
	}()
	for _, item := range items {
		i.scopes.Define(s.Var, item)
		if stop, ctl, err := i.loopBody(s.Body); stop {
			return ctl, err
		}
	}
	return ctlNext, nil
}

// execSwitch runs the first case holding a value equal to the subject.
// Values of another kind never match.
func (i *Interpreter) execSwitch(s *ast.Switch) (control, error) {
	subject, err := i.eval(s.Subject)
	if err != nil {
		return ctlNext, err
	}
	for _, c := range s.Cases {
		for _, ve := range c.Values {
			v, err := i.eval(ve)
			if err != nil {
				return ctlNext, err
			}
			if eq, err := value.Equal(subject, v); err == nil && eq {
				return i.block(c.Body.Statements)
			}
		}
	}
	if s.Default != nil {
		return i.block(s.Default.Statements)
	}
	return ctlNext, nil
}
