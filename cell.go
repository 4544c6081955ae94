package borrowecs

import (
	"fmt"
	"math"
)

// Mode is the kind of access a guard or query holds on a component cell.
type Mode uint8

const (
	// ModeNone means the component is inspected for presence only.
	ModeNone Mode = iota
	// ModeShared is a read borrow. Any number may be live at once.
	ModeShared
	// ModeExclusive is a write borrow. It excludes every other borrow.
	ModeExclusive
)

// String returns the borrow notation for the mode.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeShared:
		return "&"
	case ModeExclusive:
		return "&mut"
	default:
		return "?"
	}
}

// BorrowState is the runtime borrow flag of a cell: 0 is free, a positive
// value is the number of live shared guards and -1 is a live exclusive guard.
type BorrowState int32

const (
	stateFree      BorrowState = 0
	stateExclusive BorrowState = -1
	maxShared      BorrowState = math.MaxInt32
)

// IsFree reports whether no guard is live.
func (s BorrowState) IsFree() bool { return s == stateFree }

// IsExclusive reports whether an exclusive guard is live.
func (s BorrowState) IsExclusive() bool { return s == stateExclusive }

// Shared returns the number of live shared guards.
func (s BorrowState) Shared() int {
	if s < 0 {
		return 0
	}
	return int(s)
}

func (s BorrowState) String() string {
	switch {
	case s == stateFree:
		return "free"
	case s == stateExclusive:
		return "exclusive"
	case s > 0:
		return fmt.Sprintf("shared(%d)", int32(s))
	default:
		return fmt.Sprintf("invalid(%d)", int32(s))
	}
}

func (s *BorrowState) acquireShared() bool {
	if *s < 0 {
		return false
	}
	if *s == maxShared {
		panic("ecs: shared borrow count overflow (leaked guard)")
	}
	*s++
	return true
}

func (s *BorrowState) acquireExclusive() bool {
	if *s != stateFree {
		return false
	}
	*s = stateExclusive
	return true
}

func (s *BorrowState) releaseShared() {
	if *s <= 0 {
		panic(fmt.Sprintf("ecs: shared release on cell in state %s", *s))
	}
	*s--
}

func (s *BorrowState) releaseExclusive() {
	if *s != stateExclusive {
		panic(fmt.Sprintf("ecs: exclusive release on cell in state %s", *s))
	}
	*s = stateFree
}

// Guard is a live claim on one cell. Release ends the claim; calling it again
// has no effect.
type Guard interface {
	Release()
	Mode() Mode
}

// guard carries the release bookkeeping shared by Ref and RefMut.
type guard struct {
	state    *BorrowState
	mode     Mode
	released bool
}

// Release returns the borrow to the cell exactly once.
func (g *guard) Release() {
	if g.released {
		return
	}
	g.released = true
	switch g.mode {
	case ModeShared:
		g.state.releaseShared()
	case ModeExclusive:
		g.state.releaseExclusive()
	}
}

// Mode returns the access mode held by the guard.
func (g *guard) Mode() Mode { return g.mode }

// Released reports whether Release has been called.
func (g *guard) Released() bool { return g.released }

func (g *guard) mustLive() {
	if g.released {
		panic("ecs: use of released borrow guard")
	}
}

// Cell stores one component value together with its borrow state. The value
// is only reachable through a guard.
type Cell[T any] struct {
	value T
	state BorrowState
}

func newCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// State returns the current borrow state.
func (c *Cell[T]) State() BorrowState { return c.state }

// TryShared acquires a shared guard. It fails while an exclusive guard is live.
func (c *Cell[T]) TryShared() (*Ref[T], bool) {
	if !c.state.acquireShared() {
		return nil, false
	}
	return &Ref[T]{guard: guard{state: &c.state, mode: ModeShared}, cell: c}, true
}

// TryExclusive acquires an exclusive guard. It fails unless the cell is free.
func (c *Cell[T]) TryExclusive() (*RefMut[T], bool) {
	if !c.state.acquireExclusive() {
		return nil, false
	}
	return &RefMut[T]{guard: guard{state: &c.state, mode: ModeExclusive}, cell: c}, true
}

// cellState and cellValue let an Entity inspect cells without knowing T.
func (c *Cell[T]) cellState() BorrowState { return c.state }
func (c *Cell[T]) cellValue() any         { return c.value }

// Ref is a shared guard on a Cell.
type Ref[T any] struct {
	guard
	cell *Cell[T]
}

// Get returns a copy of the borrowed value.
func (r *Ref[T]) Get() T {
	r.mustLive()
	return r.cell.value
}

// RefMut is an exclusive guard on a Cell.
type RefMut[T any] struct {
	guard
	cell *Cell[T]
}

// Get returns a pointer to the borrowed value. The pointer must not outlive
// the guard.
func (r *RefMut[T]) Get() *T {
	r.mustLive()
	return &r.cell.value
}

// Set overwrites the borrowed value.
func (r *RefMut[T]) Set(v T) {
	r.mustLive()
	r.cell.value = v
}

// Borrows is a bundle of guards acquired by one query attempt, in acquisition
// order.
type Borrows []Guard

// Release releases every guard, latest first.
func (b Borrows) Release() {
	for i := len(b) - 1; i >= 0; i-- {
		b[i].Release()
	}
}
