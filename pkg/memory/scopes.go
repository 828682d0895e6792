package memory

import (
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

// Scopes is the variable store for one run: a global scope that lives for
// the whole run plus a stack of nested scopes above it.
type Scopes struct {
	global  *Environment
	current *Environment
	depth   int
}

func NewScopes() *Scopes {
	g := NewEnvironment(nil)
	return &Scopes{global: g, current: g}
}

func (s *Scopes) Global() *Environment  { return s.global }
func (s *Scopes) Current() *Environment { return s.current }

// Depth is the number of scopes pushed above the global scope.
func (s *Scopes) Depth() int { return s.depth }

func (s *Scopes) Push() {
	s.current = NewEnvironment(s.current)
	s.depth++
}

func (s *Scopes) Pop() error {
	parent := s.current.Parent()
	if parent == nil {
		return diag.ErrScopeUnderflow
	}
	s.current = parent
	s.depth--
	return nil
}

func (s *Scopes) Define(name string, v value.Value) {
	s.current.Define(name, v)
}

func (s *Scopes) Get(name string) (value.Value, error) {
	return s.current.Get(name)
}

func (s *Scopes) Assign(name string, v value.Value) error {
	return s.current.Assign(name, v)
}

// IsMutable reports whether name may be borrowed exclusively. Every binding
// in the store is mutable; the error is for names that do not exist.
func (s *Scopes) IsMutable(name string) (bool, error) {
	if _, err := s.current.Get(name); err != nil {
		return false, err
	}
	return true, nil
}
