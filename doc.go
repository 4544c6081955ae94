// Package borrowecs is a per-entity Entity-Component store whose queries are
// checked for aliasing at runtime.
//
// Every component attached to an Entity lives in its own borrow cell that is
// either free, shared by n readers, or held by one writer. A query asks for a
// set of components in a given mode and either gets all of them or none:
//
//	type Movable struct {
//	    Pos borrowecs.Write[Position]
//	    Vel borrowecs.Read[Velocity]
//	}
//
//	q := borrowecs.MustDerive[Movable]()
//	borrowecs.Each(w, q, func(id borrowecs.EntityID, m Movable) {
//	    m.Pos.Get().X += m.Vel.Get().DX
//	})
//
// A query that cannot get a borrow (the component is absent or conflictingly
// borrowed) simply does not match; it leaves the entity exactly as it was.
// Structural changes to a borrowed component are contract violations and
// panic.
//
// Features:
//   - Borrow cells with shared/exclusive guards and idempotent release.
//   - Primitive queries Read, Write, Optional, With, Without and EntityID.
//   - Struct-shaped queries derived from field lists (Derive) and fixed
//     arity combinators (Join2, Join3, Join4).
//   - World with versioned entity handles, cursors (Filter), Each and All.
//   - Resources, an EventBus and a Commands queue for off-thread producers.
//
// A World is single-threaded. Background producers hand values back through
// Commands and the main loop applies them with Flush.
package borrowecs
