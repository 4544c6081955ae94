package borrowecs

import "iter"

// Filter is a cursor over the entities of a World that match a query. While
// the cursor rests on an entity it holds that entity's borrows; they are
// released when the cursor advances, is reset or is closed.
//
// Entities are visited in ascending ID order. Entities that lack a required
// component, or whose components are borrowed in a conflicting way, are
// skipped.
type Filter[Out any] struct {
	world   *World
	query   Query[Out]
	borrows Borrows
	cur     *Entity
	out     Out
	include bitmask256
	exclude bitmask256
	next    int // next entity ID to inspect
}

// NewFilter creates a cursor over the entities of w matching q. The include
// and exclude masks of q are computed once so that Next can skip entities
// without touching their cells.
//
// Parameters:
//   - w: The World to query.
//   - q: The query to evaluate on each entity.
//
// Returns:
//   - A pointer to the newly created Filter, positioned before the first
//     entity.
//
// Example:
//
//	f := borrowecs.NewFilter(w, borrowecs.MustDerive[Movable]())
//	defer f.Close()
//	for f.Next() {
//	    m := f.Get()
//	    m.Pos.Get().X += m.Vel.Get().DX
//	}
func NewFilter[Out any](w *World, q Query[Out]) *Filter[Out] {
	include, exclude := queryMasks(q)
	return &Filter[Out]{world: w, query: q, include: include, exclude: exclude}
}

// Next releases the borrows of the current entity and advances to the next
// matching one. It returns false when the iteration is complete.
func (f *Filter[Out]) Next() bool {
	f.release()
	for f.next < len(f.world.entities.metas) {
		e := f.world.entities.metas[f.next].entity
		f.next++
		if e == nil || !e.mask.contains(f.include) || e.mask.intersects(f.exclude) {
			continue
		}
		b, ok := f.query.borrowDirect(e)
		if !ok {
			continue
		}
		f.borrows = b
		f.cur = e
		f.out = f.query.getDirect(e)
		return true
	}
	return false
}

// Get returns the query output for the current entity. It is only valid until
// the next call to Next, Reset or Close.
func (f *Filter[Out]) Get() Out {
	if f.cur == nil {
		panic("ecs: Filter.Get called without a current entity")
	}
	return f.out
}

// Entity returns the handle of the current entity.
func (f *Filter[Out]) Entity() EntityID {
	if f.cur == nil {
		return EntityID{}
	}
	return f.cur.id
}

// Reset releases the current borrows and rewinds to the first entity.
func (f *Filter[Out]) Reset() {
	f.release()
	f.next = 0
}

// Close releases the current borrows. The filter may be reused after Reset.
func (f *Filter[Out]) Close() {
	f.release()
	f.next = len(f.world.entities.metas)
}

func (f *Filter[Out]) release() {
	if f.cur == nil {
		return
	}
	f.borrows.Release()
	f.borrows = nil
	f.cur = nil
	var zero Out
	f.out = zero
}

// Entities returns the handles of all entities that currently match. No
// borrow is held when it returns.
func (f *Filter[Out]) Entities() []EntityID {
	var out []EntityID
	for _, meta := range f.world.entities.metas {
		e := meta.entity
		if e == nil || !e.mask.contains(f.include) || e.mask.intersects(f.exclude) {
			continue
		}
		if e == f.cur || Matches(e, f.query) {
			out = append(out, e.id)
		}
	}
	return out
}

// Each calls fn for every entity of w matching q and returns how many
// matched. Borrows are released after each call, also when fn panics.
func Each[Out any](w *World, q Query[Out], fn func(EntityID, Out)) int {
	f := NewFilter(w, q)
	defer f.Close()
	n := 0
	for f.Next() {
		fn(f.Entity(), f.Get())
		n++
	}
	return n
}

// All returns an iterator over the entities of w matching q. The borrows of
// each entity are held for the duration of the loop body.
func All[Out any](w *World, q Query[Out]) iter.Seq2[EntityID, Out] {
	return func(yield func(EntityID, Out) bool) {
		f := NewFilter(w, q)
		defer f.Close()
		for f.Next() {
			if !yield(f.Entity(), f.Get()) {
				return
			}
		}
	}
}

// Count returns the number of entities of w that q currently matches.
func Count[Out any](w *World, q Query[Out]) int {
	return len(NewFilter(w, q).Entities())
}
