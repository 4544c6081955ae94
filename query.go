package borrowecs

import (
	"fmt"
	"reflect"
)

// AccessKind says how a query uses a component type.
type AccessKind uint8

const (
	// AccessRequired components must be present for the query to match.
	AccessRequired AccessKind = iota
	// AccessOptional components are borrowed when present.
	AccessOptional
	// AccessExcluded components must be absent for the query to match.
	AccessExcluded
)

// Access describes one component access of a query.
type Access struct {
	Type reflect.Type
	ID   ComponentID
	Mode Mode
	Kind AccessKind
}

func (a Access) String() string {
	var ref string
	switch a.Mode {
	case ModeShared:
		ref = "&" + a.Type.String()
	case ModeExclusive:
		ref = "&mut " + a.Type.String()
	default:
		ref = a.Type.String()
	}
	switch a.Kind {
	case AccessOptional:
		return "?" + ref
	case AccessExcluded:
		return "!" + ref
	}
	if a.Mode == ModeNone {
		return "has " + ref
	}
	return ref
}

// fetcher is the type-erased half of the query protocol. borrowDirect tries
// to take every borrow the query needs; fetchInto realizes the output into a
// reflect.Value and must only run while those borrows are live.
type fetcher interface {
	appendAccess(dst []Access) []Access
	borrowDirect(e *Entity) (Borrows, bool)
	fetchInto(e *Entity, dst reflect.Value)
}

// Query is implemented by every queryable shape: the primitive queries of
// this package, composites built by Derive and the JoinN combinators. The
// interface is sealed so that realizing an output is only ever sequenced
// after a successful borrow by this package.
type Query[Out any] interface {
	fetcher
	getDirect(e *Entity) Out
}

// Fetch attempts q on e. On success the caller owns the returned borrows and
// must Release them once it is done with the output.
func Fetch[Out any](e *Entity, q Query[Out]) (Out, Borrows, bool) {
	b, ok := q.borrowDirect(e)
	if !ok {
		var zero Out
		return zero, nil, false
	}
	return q.getDirect(e), b, true
}

// Visit attempts q on e and, on success, calls fn with the output. Borrows are
// released when fn returns, including when it panics.
func Visit[Out any](e *Entity, q Query[Out], fn func(Out)) bool {
	b, ok := q.borrowDirect(e)
	if !ok {
		return false
	}
	defer b.Release()
	fn(q.getDirect(e))
	return true
}

// Matches reports whether q can currently be acquired on e. No borrow is
// left behind.
func Matches[Out any](e *Entity, q Query[Out]) bool {
	b, ok := q.borrowDirect(e)
	if ok {
		b.Release()
	}
	return ok
}

// Accesses lists the component accesses of q in acquisition order.
func Accesses[Out any](q Query[Out]) []Access {
	return q.appendAccess(nil)
}

// Conflicts returns the component types that q borrows more than once with at
// least one exclusive borrow. Such a query can never match; it fails when the
// second borrow is attempted.
func Conflicts[Out any](q Query[Out]) []reflect.Type {
	type usage struct {
		count     int
		exclusive bool
	}
	seen := make(map[ComponentID]*usage)
	var order []ComponentID
	for _, a := range q.appendAccess(nil) {
		if a.Kind == AccessExcluded || a.Mode == ModeNone {
			continue
		}
		u, ok := seen[a.ID]
		if !ok {
			u = &usage{}
			seen[a.ID] = u
			order = append(order, a.ID)
		}
		u.count++
		u.exclusive = u.exclusive || a.Mode == ModeExclusive
	}
	var out []reflect.Type
	for _, id := range order {
		if u := seen[id]; u.count > 1 && u.exclusive {
			out = append(out, registry.typeOf(id))
		}
	}
	return out
}

// queryMasks builds the presence masks used to skip entities cheaply.
func queryMasks(f fetcher) (include, exclude bitmask256) {
	for _, a := range f.appendAccess(nil) {
		switch a.Kind {
		case AccessRequired:
			include.set(a.ID)
		case AccessExcluded:
			exclude.set(a.ID)
		}
	}
	return include, exclude
}

func accessOf[T any](mode Mode, kind AccessKind) Access {
	return Access{Type: reflect.TypeFor[T](), ID: componentID[T](), Mode: mode, Kind: kind}
}

// Read is a shared borrow of a T component. The zero value is the query; the
// value produced by a successful query is a read view of the component.
type Read[T any] struct {
	cell *Cell[T]
}

func (Read[T]) appendAccess(dst []Access) []Access {
	return append(dst, accessOf[T](ModeShared, AccessRequired))
}

func (Read[T]) borrowDirect(e *Entity) (Borrows, bool) {
	c := GetCell[T](e)
	if c == nil {
		return nil, false
	}
	ref, ok := c.TryShared()
	if !ok {
		return nil, false
	}
	return Borrows{ref}, true
}

func (Read[T]) getDirect(e *Entity) Read[T] {
	c := GetCell[T](e)
	if c == nil || c.state <= 0 {
		panic(fmt.Sprintf("ecs: %s realized without a live shared borrow", reflect.TypeFor[Read[T]]()))
	}
	return Read[T]{cell: c}
}

func (q Read[T]) fetchInto(e *Entity, dst reflect.Value) {
	dst.Set(reflect.ValueOf(q.getDirect(e)))
}

// Get returns a copy of the component.
func (r Read[T]) Get() T {
	if r.cell == nil || r.cell.state <= 0 {
		panic(fmt.Sprintf("ecs: %s used without a live borrow", reflect.TypeFor[Read[T]]()))
	}
	return r.cell.value
}

// Write is an exclusive borrow of a T component. The value produced by a
// successful query is a mutable view of the component.
type Write[T any] struct {
	cell *Cell[T]
}

func (Write[T]) appendAccess(dst []Access) []Access {
	return append(dst, accessOf[T](ModeExclusive, AccessRequired))
}

func (Write[T]) borrowDirect(e *Entity) (Borrows, bool) {
	c := GetCell[T](e)
	if c == nil {
		return nil, false
	}
	ref, ok := c.TryExclusive()
	if !ok {
		return nil, false
	}
	return Borrows{ref}, true
}

func (Write[T]) getDirect(e *Entity) Write[T] {
	c := GetCell[T](e)
	if c == nil || !c.state.IsExclusive() {
		panic(fmt.Sprintf("ecs: %s realized without a live exclusive borrow", reflect.TypeFor[Write[T]]()))
	}
	return Write[T]{cell: c}
}

func (q Write[T]) fetchInto(e *Entity, dst reflect.Value) {
	dst.Set(reflect.ValueOf(q.getDirect(e)))
}

func (w Write[T]) live() {
	if w.cell == nil || !w.cell.state.IsExclusive() {
		panic(fmt.Sprintf("ecs: %s used without a live borrow", reflect.TypeFor[Write[T]]()))
	}
}

// Get returns a pointer to the component. It must not be retained past the
// scope of the query.
func (w Write[T]) Get() *T {
	w.live()
	return &w.cell.value
}

// Set overwrites the component.
func (w Write[T]) Set(v T) {
	w.live()
	w.cell.value = v
}

// Optional is a shared borrow of a T component that also matches entities
// without one. A present but exclusively borrowed component still fails.
type Optional[T any] struct {
	cell *Cell[T]
}

func (Optional[T]) appendAccess(dst []Access) []Access {
	return append(dst, accessOf[T](ModeShared, AccessOptional))
}

func (Optional[T]) borrowDirect(e *Entity) (Borrows, bool) {
	c := GetCell[T](e)
	if c == nil {
		return nil, true
	}
	ref, ok := c.TryShared()
	if !ok {
		return nil, false
	}
	return Borrows{ref}, true
}

func (Optional[T]) getDirect(e *Entity) Optional[T] {
	c := GetCell[T](e)
	if c == nil {
		return Optional[T]{}
	}
	if c.state <= 0 {
		panic(fmt.Sprintf("ecs: %s realized without a live shared borrow", reflect.TypeFor[Optional[T]]()))
	}
	return Optional[T]{cell: c}
}

func (q Optional[T]) fetchInto(e *Entity, dst reflect.Value) {
	dst.Set(reflect.ValueOf(q.getDirect(e)))
}

// Get returns a copy of the component and whether the entity had one.
func (o Optional[T]) Get() (T, bool) {
	if o.cell == nil {
		var zero T
		return zero, false
	}
	if o.cell.state <= 0 {
		panic(fmt.Sprintf("ecs: %s used without a live borrow", reflect.TypeFor[Optional[T]]()))
	}
	return o.cell.value, true
}

// With matches entities that hold a T component without borrowing it.
type With[T any] struct{}

func (With[T]) appendAccess(dst []Access) []Access {
	return append(dst, accessOf[T](ModeNone, AccessRequired))
}

func (With[T]) borrowDirect(e *Entity) (Borrows, bool) {
	return nil, Has[T](e)
}

func (With[T]) getDirect(*Entity) With[T] { return With[T]{} }

func (With[T]) fetchInto(*Entity, reflect.Value) {}

// Without matches entities that do not hold a T component.
type Without[T any] struct{}

func (Without[T]) appendAccess(dst []Access) []Access {
	return append(dst, accessOf[T](ModeNone, AccessExcluded))
}

func (Without[T]) borrowDirect(e *Entity) (Borrows, bool) {
	return nil, !Has[T](e)
}

func (Without[T]) getDirect(*Entity) Without[T] { return Without[T]{} }

func (Without[T]) fetchInto(*Entity, reflect.Value) {}

// EntityID is itself a query: it always matches and yields the handle of the
// entity being queried.
func (EntityID) appendAccess(dst []Access) []Access { return dst }

func (EntityID) borrowDirect(*Entity) (Borrows, bool) { return nil, true }

func (EntityID) getDirect(e *Entity) EntityID { return e.id }

func (EntityID) fetchInto(e *Entity, dst reflect.Value) {
	dst.Set(reflect.ValueOf(e.id))
}
