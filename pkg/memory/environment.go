package memory

import (
	"fmt"

	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

// Environment is one lexical scope. Lookups walk the parent chain outward.
type Environment struct {
	parent *Environment
	vars   map[string]value.Value
}

func NewEnvironment(parent *Environment) *Environment {
	return &Environment{parent: parent, vars: make(map[string]value.Value)}
}

func (e *Environment) Parent() *Environment { return e.parent }

// Define binds name in this scope, replacing any binding of the same name
// already here.
func (e *Environment) Define(name string, v value.Value) {
	e.vars[name] = v
}

func (e *Environment) Get(name string) (value.Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, nil
		}
	}
	return value.Nil, undefined(name)
}

// Assign overwrites the nearest binding of name.
func (e *Environment) Assign(name string, v value.Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return nil
		}
	}
	return undefined(name)
}

func (e *Environment) Has(name string) bool {
	_, err := e.Get(name)
	return err == nil
}

// HasLocal reports whether name is bound in this scope itself.
func (e *Environment) HasLocal(name string) bool {
	_, ok := e.vars[name]
	return ok
}

func undefined(name string) error {
	return fmt.Errorf("%w '%s'", diag.ErrUndefinedVariable, name)
}
