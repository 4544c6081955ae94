package borrowecs

import "reflect"

// Resources holds world-global singletons, at most one per type. Each
// resource lives in a borrow cell and follows the same shared/exclusive rules
// as components.
type Resources struct {
	cells map[reflect.Type]cell
}

func resourceCell[T any](r *Resources) *Cell[T] {
	c, ok := r.cells[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return c.(*Cell[T])
}

// AddResource stores v. It panics if a resource of the same type exists.
func AddResource[T any](r *Resources, v T) {
	t := reflect.TypeFor[T]()
	if r.cells == nil {
		r.cells = make(map[reflect.Type]cell)
	}
	if _, ok := r.cells[t]; ok {
		panic("ecs: resource " + t.String() + " already exists")
	}
	r.cells[t] = newCell(v)
}

// SetResource stores v, replacing the current value if there is one.
// Replacing a borrowed resource panics.
func SetResource[T any](r *Resources, v T) {
	c := resourceCell[T](r)
	if c == nil {
		AddResource(r, v)
		return
	}
	if !c.state.IsFree() {
		panic("ecs: cannot replace resource " + reflect.TypeFor[T]().String() + ": resource is borrowed (" + c.state.String() + ")")
	}
	c.value = v
}

// HasResource reports whether a resource of type T exists.
func HasResource[T any](r *Resources) bool {
	return resourceCell[T](r) != nil
}

// ReadResource takes a shared borrow of the T resource. It fails when the
// resource is absent or exclusively borrowed.
func ReadResource[T any](r *Resources) (*Ref[T], bool) {
	c := resourceCell[T](r)
	if c == nil {
		return nil, false
	}
	return c.TryShared()
}

// WriteResource takes an exclusive borrow of the T resource. It fails when
// the resource is absent or borrowed.
func WriteResource[T any](r *Resources) (*RefMut[T], bool) {
	c := resourceCell[T](r)
	if c == nil {
		return nil, false
	}
	return c.TryExclusive()
}

// RemoveResource removes the T resource and returns its value. Removing a
// borrowed resource panics.
func RemoveResource[T any](r *Resources) (T, bool) {
	t := reflect.TypeFor[T]()
	c, ok := r.cells[t]
	if !ok {
		var zero T
		return zero, false
	}
	if st := c.cellState(); !st.IsFree() {
		panic("ecs: cannot remove resource " + t.String() + ": resource is borrowed (" + st.String() + ")")
	}
	delete(r.cells, t)
	return c.(*Cell[T]).value, true
}

// Len returns the number of stored resources.
func (r *Resources) Len() int { return len(r.cells) }

// Clear removes every resource. It panics if any resource is borrowed.
func (r *Resources) Clear() {
	for t, c := range r.cells {
		if st := c.cellState(); !st.IsFree() {
			panic("ecs: cannot clear resources: " + t.String() + " is borrowed (" + st.String() + ")")
		}
	}
	clear(r.cells)
}
