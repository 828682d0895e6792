package memory

import (
	"fmt"

	"github.com/rayone121/widow/pkg/diag"
)

type BorrowKind int

const (
	Unborrowed BorrowKind = iota
	Shared
	Exclusive
)

func (k BorrowKind) String() string {
	switch k {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return "unborrowed"
	}
}

// BorrowState is the borrow status of one name. Count is the number of
// outstanding shared borrows and is zero otherwise.
type BorrowState struct {
	Kind  BorrowKind
	Count int
}

func (s BorrowState) String() string {
	if s.Kind == Shared {
		return fmt.Sprintf("shared(%d)", s.Count)
	}
	return s.Kind.String()
}

// BorrowTracker enforces, at run time, that a name is either borrowed
// exclusively once or shared any number of times. A failed borrow leaves
// the state untouched.
type BorrowTracker struct {
	states map[string]BorrowState
}

func NewBorrowTracker() *BorrowTracker {
	return &BorrowTracker{states: make(map[string]BorrowState)}
}

func (t *BorrowTracker) State(name string) BorrowState {
	return t.states[name]
}

func (t *BorrowTracker) BorrowShared(name string) error {
	st := t.states[name]
	switch st.Kind {
	case Exclusive:
		return fmt.Errorf("%w: cannot borrow '%s' as immutable because it is already borrowed as mutable",
			diag.ErrBorrowConflict, name)
	case Shared:
		st.Count++
	default:
		st = BorrowState{Kind: Shared, Count: 1}
	}
	t.states[name] = st
	return nil
}

func (t *BorrowTracker) BorrowExclusive(name string) error {
	st := t.states[name]
	switch st.Kind {
	case Shared:
		return fmt.Errorf("%w: cannot borrow '%s' as mutable because it is already borrowed as immutable",
			diag.ErrBorrowConflict, name)
	case Exclusive:
		return fmt.Errorf("%w: cannot borrow '%s' as mutable because it is already borrowed as mutable",
			diag.ErrBorrowConflict, name)
	}
	t.states[name] = BorrowState{Kind: Exclusive}
	return nil
}

// Release drops one borrow of name. Releasing an unborrowed name is a no-op.
func (t *BorrowTracker) Release(name string) {
	st, ok := t.states[name]
	if !ok {
		return
	}
	if st.Kind == Shared && st.Count > 1 {
		st.Count--
		t.states[name] = st
		return
	}
	t.states[name] = BorrowState{}
}
