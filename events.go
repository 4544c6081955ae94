package borrowecs

import "reflect"

// EntitySpawned is published after World.Spawn.
type EntitySpawned struct {
	Entity EntityID
}

// EntityRemoved is published after an entity is destroyed.
type EntityRemoved struct {
	Entity EntityID
}

// ComponentInserted is published after a component is added or replaced on an
// entity owned by a World.
type ComponentInserted struct {
	Entity EntityID
	Type   reflect.Type
}

// ComponentRemoved is published after a component is removed from an entity
// owned by a World.
type ComponentRemoved struct {
	Entity EntityID
	Type   reflect.Type
}
