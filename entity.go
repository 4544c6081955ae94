package borrowecs

import (
	"fmt"
	"reflect"
	"slices"
)

// EntityID is a handle to an entity owned by a World. The version guards
// against stale handles after an ID has been recycled.
type EntityID struct {
	ID      uint32 // The unique, recyclable ID of the entity.
	Version uint32 // The generation of the ID; 0 is never a live version.
}

// cell is the type-erased view of a Cell used by Entity bookkeeping.
type cell interface {
	cellState() BorrowState
	cellValue() any
}

// Entity is a dynamic set of components, at most one per component type,
// each stored in its own borrow cell.
type Entity struct {
	cells map[ComponentID]cell
	world *World
	mask  bitmask256
	id    EntityID
}

// NewEntity creates an empty entity that is not owned by any World.
func NewEntity() *Entity {
	return &Entity{cells: make(map[ComponentID]cell, 4)}
}

// ID returns the handle of the entity in its World. Standalone entities
// return the zero EntityID.
func (e *Entity) ID() EntityID { return e.id }

// Len returns the number of components attached to the entity.
func (e *Entity) Len() int { return len(e.cells) }

// Borrowed reports whether any component cell has a live guard.
func (e *Entity) Borrowed() bool {
	for _, c := range e.cells {
		if !c.cellState().IsFree() {
			return true
		}
	}
	return false
}

// Types returns the component types on the entity ordered by ComponentID.
func (e *Entity) Types() []reflect.Type {
	ids := make([]ComponentID, 0, len(e.cells))
	for id := range e.cells {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	types := make([]reflect.Type, len(ids))
	for i, id := range ids {
		types[i] = registry.typeOf(id)
	}
	return types
}

// fatal reports a broken invariant and panics.
func (e *Entity) fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if e.world != nil {
		e.world.logger.Error().Uint32("entity", e.id.ID).Msg(msg)
	}
	panic(msg)
}

// GetCell returns the cell holding the T component of e, or nil when the
// entity has none.
func GetCell[T any](e *Entity) *Cell[T] {
	c, ok := e.cells[componentID[T]()]
	if !ok {
		return nil
	}
	return c.(*Cell[T])
}

// Has reports whether e holds a component of type T.
func Has[T any](e *Entity) bool {
	return e.mask.has(componentID[T]())
}

// StateOf returns the borrow state of the T cell and whether it exists.
func StateOf[T any](e *Entity) (BorrowState, bool) {
	c := GetCell[T](e)
	if c == nil {
		return stateFree, false
	}
	return c.state, true
}

// Insert attaches v to e, replacing any existing T component. Replacing a
// component that is currently borrowed is a contract violation and panics.
func Insert[T any](e *Entity, v T) {
	id := componentID[T]()
	if c, ok := e.cells[id]; ok {
		if st := c.cellState(); !st.IsFree() {
			e.fatal("ecs: cannot insert %s: component is borrowed (%s)", reflect.TypeFor[T](), st)
		}
		c.(*Cell[T]).value = v
	} else {
		e.cells[id] = newCell(v)
		e.mask.set(id)
	}
	if e.world != nil {
		Publish(e.world.events, ComponentInserted{Entity: e.id, Type: reflect.TypeFor[T]()})
	}
}

// Remove detaches the T component from e and returns its value. It returns
// false when the component is absent and panics when it is borrowed.
func Remove[T any](e *Entity) (T, bool) {
	id := componentID[T]()
	c, ok := e.cells[id]
	if !ok {
		var zero T
		return zero, false
	}
	if st := c.cellState(); !st.IsFree() {
		e.fatal("ecs: cannot remove %s: component is borrowed (%s)", reflect.TypeFor[T](), st)
	}
	delete(e.cells, id)
	e.mask.unset(id)
	if e.world != nil {
		Publish(e.world.events, ComponentRemoved{Entity: e.id, Type: reflect.TypeFor[T]()})
	}
	return c.(*Cell[T]).value, true
}

// Get returns a copy of the T component taken under a short shared borrow.
// It returns false when the component is absent or exclusively borrowed.
func Get[T any](e *Entity) (T, bool) {
	var zero T
	c := GetCell[T](e)
	if c == nil {
		return zero, false
	}
	ref, ok := c.TryShared()
	if !ok {
		return zero, false
	}
	defer ref.Release()
	return ref.Get(), true
}
