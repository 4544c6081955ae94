package borrowecs

import "reflect"

// borrowAll acquires the borrows of fs in order. On the first failure it
// releases everything acquired so far.
func borrowAll(e *Entity, fs ...fetcher) (Borrows, bool) {
	var acquired Borrows
	for _, f := range fs {
		b, ok := f.borrowDirect(e)
		if !ok {
			acquired.Release()
			return nil, false
		}
		acquired = append(acquired, b...)
	}
	return acquired, true
}

// Tuple2 is the output of Join2.
type Tuple2[A, B any] struct {
	V1 A
	V2 B
}

// Unpack returns the tuple elements.
func (t Tuple2[A, B]) Unpack() (A, B) { return t.V1, t.V2 }

type join2[A, B any] struct {
	q1 Query[A]
	q2 Query[B]
}

// Join2 combines two queries into one that matches only when both do.
// Borrows are taken in argument order.
func Join2[A, B any](q1 Query[A], q2 Query[B]) Query[Tuple2[A, B]] {
	return join2[A, B]{q1: q1, q2: q2}
}

func (j join2[A, B]) appendAccess(dst []Access) []Access {
	return j.q2.appendAccess(j.q1.appendAccess(dst))
}

func (j join2[A, B]) borrowDirect(e *Entity) (Borrows, bool) {
	return borrowAll(e, j.q1, j.q2)
}

func (j join2[A, B]) getDirect(e *Entity) Tuple2[A, B] {
	return Tuple2[A, B]{V1: j.q1.getDirect(e), V2: j.q2.getDirect(e)}
}

func (j join2[A, B]) fetchInto(e *Entity, dst reflect.Value) {
	dst.Set(reflect.ValueOf(j.getDirect(e)))
}

// Tuple3 is the output of Join3.
type Tuple3[A, B, C any] struct {
	V1 A
	V2 B
	V3 C
}

// Unpack returns the tuple elements.
func (t Tuple3[A, B, C]) Unpack() (A, B, C) { return t.V1, t.V2, t.V3 }

type join3[A, B, C any] struct {
	q1 Query[A]
	q2 Query[B]
	q3 Query[C]
}

// Join3 combines three queries into one that matches only when all do.
func Join3[A, B, C any](q1 Query[A], q2 Query[B], q3 Query[C]) Query[Tuple3[A, B, C]] {
	return join3[A, B, C]{q1: q1, q2: q2, q3: q3}
}

func (j join3[A, B, C]) appendAccess(dst []Access) []Access {
	return j.q3.appendAccess(j.q2.appendAccess(j.q1.appendAccess(dst)))
}

func (j join3[A, B, C]) borrowDirect(e *Entity) (Borrows, bool) {
	return borrowAll(e, j.q1, j.q2, j.q3)
}

func (j join3[A, B, C]) getDirect(e *Entity) Tuple3[A, B, C] {
	return Tuple3[A, B, C]{V1: j.q1.getDirect(e), V2: j.q2.getDirect(e), V3: j.q3.getDirect(e)}
}

func (j join3[A, B, C]) fetchInto(e *Entity, dst reflect.Value) {
	dst.Set(reflect.ValueOf(j.getDirect(e)))
}

// Tuple4 is the output of Join4.
type Tuple4[A, B, C, D any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
}

// Unpack returns the tuple elements.
func (t Tuple4[A, B, C, D]) Unpack() (A, B, C, D) { return t.V1, t.V2, t.V3, t.V4 }

type join4[A, B, C, D any] struct {
	q1 Query[A]
	q2 Query[B]
	q3 Query[C]
	q4 Query[D]
}

// Join4 combines four queries into one that matches only when all do.
func Join4[A, B, C, D any](q1 Query[A], q2 Query[B], q3 Query[C], q4 Query[D]) Query[Tuple4[A, B, C, D]] {
	return join4[A, B, C, D]{q1: q1, q2: q2, q3: q3, q4: q4}
}

func (j join4[A, B, C, D]) appendAccess(dst []Access) []Access {
	return j.q4.appendAccess(j.q3.appendAccess(j.q2.appendAccess(j.q1.appendAccess(dst))))
}

func (j join4[A, B, C, D]) borrowDirect(e *Entity) (Borrows, bool) {
	return borrowAll(e, j.q1, j.q2, j.q3, j.q4)
}

func (j join4[A, B, C, D]) getDirect(e *Entity) Tuple4[A, B, C, D] {
	return Tuple4[A, B, C, D]{V1: j.q1.getDirect(e), V2: j.q2.getDirect(e), V3: j.q3.getDirect(e), V4: j.q4.getDirect(e)}
}

func (j join4[A, B, C, D]) fetchInto(e *Entity, dst reflect.Value) {
	dst.Set(reflect.ValueOf(j.getDirect(e)))
}
