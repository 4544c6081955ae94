package borrowecs

// Builder spawns entities that start with a T component.
type Builder[T any] struct {
	world *World
}

// NewBuilder creates a Builder for w. The component types are registered up
// front so that their IDs are stable before the first entity is spawned.
//
// Parameters:
//   - w: The World in which to create entities.
//
// Returns:
//   - A pointer to the configured Builder.
func NewBuilder[T any](w *World) *Builder[T] {
	componentID[T]()
	return &Builder[T]{world: w}
}

// NewEntity spawns an entity holding v.
func (b *Builder[T]) NewEntity(v T) EntityID {
	e := b.world.spawn()
	Insert(e, v)
	return e.id
}

// NewEntities spawns count entities, each holding a copy of v.
func (b *Builder[T]) NewEntities(count int, v T) []EntityID {
	if count <= 0 {
		return nil
	}
	ids := make([]EntityID, count)
	for i := range ids {
		ids[i] = b.NewEntity(v)
	}
	return ids
}

// Get returns a copy of the T component of id.
func (b *Builder[T]) Get(id EntityID) (T, bool) {
	e, ok := b.world.Entity(id)
	if !ok {
		var zero T
		return zero, false
	}
	return Get[T](e)
}

// Set inserts or replaces the T component of id. It returns false for a dead
// entity.
func (b *Builder[T]) Set(id EntityID, v T) bool {
	e, ok := b.world.Entity(id)
	if !ok {
		return false
	}
	Insert(e, v)
	return true
}

// Builder2 spawns entities that start with T1 and T2 components.
type Builder2[T1, T2 any] struct {
	world *World
}

// NewBuilder2 creates a Builder2 for w. The component types are registered up
// front so that their IDs are stable before the first entity is spawned.
//
// Parameters:
//   - w: The World in which to create entities.
//
// Returns:
//   - A pointer to the configured Builder2.
func NewBuilder2[T1, T2 any](w *World) *Builder2[T1, T2] {
	componentID[T1]()
	componentID[T2]()
	return &Builder2[T1, T2]{world: w}
}

// NewEntity spawns an entity holding v1 and v2.
func (b *Builder2[T1, T2]) NewEntity(v1 T1, v2 T2) EntityID {
	e := b.world.spawn()
	Insert(e, v1)
	Insert(e, v2)
	return e.id
}

// NewEntities spawns count entities holding copies of v1 and v2.
func (b *Builder2[T1, T2]) NewEntities(count int, v1 T1, v2 T2) []EntityID {
	if count <= 0 {
		return nil
	}
	ids := make([]EntityID, count)
	for i := range ids {
		ids[i] = b.NewEntity(v1, v2)
	}
	return ids
}

// Builder3 spawns entities that start with T1, T2 and T3 components.
type Builder3[T1, T2, T3 any] struct {
	world *World
}

// NewBuilder3 creates a Builder3 for w. The component types are registered up
// front so that their IDs are stable before the first entity is spawned.
//
// Parameters:
//   - w: The World in which to create entities.
//
// Returns:
//   - A pointer to the configured Builder3.
func NewBuilder3[T1, T2, T3 any](w *World) *Builder3[T1, T2, T3] {
	componentID[T1]()
	componentID[T2]()
	componentID[T3]()
	return &Builder3[T1, T2, T3]{world: w}
}

// NewEntity spawns an entity holding v1, v2 and v3.
func (b *Builder3[T1, T2, T3]) NewEntity(v1 T1, v2 T2, v3 T3) EntityID {
	e := b.world.spawn()
	Insert(e, v1)
	Insert(e, v2)
	Insert(e, v3)
	return e.id
}

// NewEntities spawns count entities holding copies of v1, v2 and v3.
func (b *Builder3[T1, T2, T3]) NewEntities(count int, v1 T1, v2 T2, v3 T3) []EntityID {
	if count <= 0 {
		return nil
	}
	ids := make([]EntityID, count)
	for i := range ids {
		ids[i] = b.NewEntity(v1, v2, v3)
	}
	return ids
}
