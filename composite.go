package borrowecs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unsafe"
)

// ErrNotQuery is returned by Derive when a struct field is neither a query
// type nor a struct made of query fields.
var ErrNotQuery = errors.New("ecs: not a query type")

var (
	fetcherType     = reflect.TypeFor[fetcher]()
	compositeMarker = reflect.TypeFor[interface{ composite() }]()
	derived         sync.Map // reflect.Type -> *structFetcher
)

// structField is one field of a derived struct query.
type structField struct {
	f     fetcher
	name  string
	index int
}

// structFetcher is the conjunction of a struct's field queries, evaluated in
// field declaration order.
type structFetcher struct {
	typ    reflect.Type
	fields []structField
}

func deriveStruct(t reflect.Type) (*structFetcher, error) {
	return deriveStructSeen(t, nil)
}

func deriveStructSeen(t reflect.Type, seen map[reflect.Type]bool) (*structFetcher, error) {
	if cached, ok := derived.Load(t); ok {
		return cached.(*structFetcher), nil
	}
	if seen[t] {
		return nil, fmt.Errorf("%w: %s contains itself", ErrNotQuery, t)
	}
	if seen == nil {
		seen = make(map[reflect.Type]bool)
	}
	seen[t] = true
	defer delete(seen, t)

	s := &structFetcher{typ: t}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("ecs") == "-" {
			continue
		}
		f, err := deriveField(field.Type, seen)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t, field.Name, err)
		}
		s.fields = append(s.fields, structField{f: f, name: field.Name, index: i})
	}
	actual, _ := derived.LoadOrStore(t, s)
	return actual.(*structFetcher), nil
}

func deriveField(t reflect.Type, seen map[reflect.Type]bool) (fetcher, error) {
	if inner, ok := compositeTarget(t); ok {
		if inner.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: %s is not a struct", ErrNotQuery, inner)
		}
		s, err := deriveStructSeen(inner, seen)
		if err != nil {
			return nil, err
		}
		return newCompositeField(t, s), nil
	}
	if t.Implements(fetcherType) {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return nil, fmt.Errorf("%w: %s has no usable zero value", ErrNotQuery, t)
		}
		return reflect.Zero(t).Interface().(fetcher), nil
	}
	if t.Kind() == reflect.Struct {
		return deriveStructSeen(t, seen)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotQuery, t)
}

// compositeTarget returns S when t is Composite[S] or *Composite[S].
func compositeTarget(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || !t.Implements(compositeMarker) {
		return nil, false
	}
	f, ok := t.FieldByName("value")
	if !ok {
		return nil, false
	}
	return f.Type, true
}

// compositeField is a Composite[S] or *Composite[S] field nested in another
// struct query. It borrows like the fields of S and realizes a Composite whose
// Get returns the filled S.
type compositeField struct {
	inner *structFetcher
	typ   reflect.Type // Composite[S]
	ptr   bool
}

func newCompositeField(t reflect.Type, inner *structFetcher) *compositeField {
	c := &compositeField{inner: inner, typ: t}
	if t.Kind() == reflect.Pointer {
		c.typ = t.Elem()
		c.ptr = true
	}
	return c
}

func (c *compositeField) appendAccess(dst []Access) []Access { return c.inner.appendAccess(dst) }

func (c *compositeField) borrowDirect(e *Entity) (Borrows, bool) { return c.inner.borrowDirect(e) }

func (c *compositeField) fetchInto(e *Entity, dst reflect.Value) {
	p := reflect.New(c.typ)
	v := p.Elem()
	settable(v.FieldByName("s")).Set(reflect.ValueOf(c.inner))
	c.inner.fetchInto(e, settable(v.FieldByName("value")))
	if c.ptr {
		dst.Set(p)
		return
	}
	dst.Set(v)
}

// settable makes an addressable, possibly unexported, field assignable.
func settable(v reflect.Value) reflect.Value {
	if v.CanSet() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

func (s *structFetcher) appendAccess(dst []Access) []Access {
	for _, field := range s.fields {
		dst = field.f.appendAccess(dst)
	}
	return dst
}

// borrowDirect acquires the field borrows in declaration order. When a field
// fails, everything acquired so far, nested fields included, is released
// before reporting failure, so the entity is left as it was found.
func (s *structFetcher) borrowDirect(e *Entity) (Borrows, bool) {
	var acquired Borrows
	for _, field := range s.fields {
		b, ok := field.f.borrowDirect(e)
		if !ok {
			acquired.Release()
			return nil, false
		}
		acquired = append(acquired, b...)
	}
	return acquired, true
}

func (s *structFetcher) fetchInto(e *Entity, dst reflect.Value) {
	for _, field := range s.fields {
		field.f.fetchInto(e, settable(dst.Field(field.index)))
	}
}

func (s *structFetcher) describe(sb *strings.Builder) {
	sb.WriteString(s.typ.Name())
	sb.WriteByte('{')
	for i, field := range s.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(field.name)
		sb.WriteString(": ")
		switch nested := field.f.(type) {
		case *structFetcher:
			nested.describe(sb)
			continue
		case *compositeField:
			nested.inner.describe(sb)
			continue
		}
		accesses := field.f.appendAccess(nil)
		switch len(accesses) {
		case 0:
			sb.WriteString("entity")
		case 1:
			sb.WriteString(accesses[0].String())
		default:
			parts := make([]string, len(accesses))
			for j, a := range accesses {
				parts[j] = a.String()
			}
			sb.WriteString("(" + strings.Join(parts, ", ") + ")")
		}
	}
	sb.WriteByte('}')
}

// Composite is the query derived from a struct type S. Every field of S must
// be a query type (Read, Write, Optional, With, Without, EntityID), a
// Composite or *Composite, or a struct whose fields are, recursively. Fields
// tagged `ecs:"-"` are skipped and keep their zero value.
//
// A composite matches an entity only if every field matches. Borrows are
// taken in field declaration order and a failed attempt leaves no borrow
// behind.
//
// A Composite nested as a field of another composite is realized with the
// filled S, read with Get.
type Composite[S any] struct {
	s     *structFetcher
	value S
}

func (Composite[S]) composite() {}

// Get returns the S realized for a nested composite field.
func (c Composite[S]) Get() S { return c.value }

// Derive builds the composite query for S.
//
// Parameters:
//   - S: A struct type whose fields are queries. Nested structs and nested
//     composites are flattened in field order.
//
// Returns:
//   - The composite query, usable with Fetch, Visit, NewFilter and the Join
//     combinators.
//   - An error wrapping ErrNotQuery if a field cannot be used as a query.
func Derive[S any]() (*Composite[S], error) {
	t := reflect.TypeFor[S]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrNotQuery, t)
	}
	s, err := deriveStruct(t)
	if err != nil {
		return nil, err
	}
	return &Composite[S]{s: s}, nil
}

// MustDerive is like Derive but panics on error.
func MustDerive[S any]() *Composite[S] {
	c, err := Derive[S]()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Composite[S]) appendAccess(dst []Access) []Access { return c.s.appendAccess(dst) }

func (c *Composite[S]) borrowDirect(e *Entity) (Borrows, bool) { return c.s.borrowDirect(e) }

func (c *Composite[S]) fetchInto(e *Entity, dst reflect.Value) { c.s.fetchInto(e, dst) }

func (c *Composite[S]) getDirect(e *Entity) S {
	var out S
	c.s.fetchInto(e, reflect.ValueOf(&out).Elem())
	return out
}

// String renders the query shape, e.g. "Movable{Pos: &mut game.Position, Vel: &game.Velocity}".
func (c *Composite[S]) String() string {
	var sb strings.Builder
	c.s.describe(&sb)
	return sb.String()
}
