package borrowecs

import (
	"fmt"
	"reflect"
	"sync"
)

// MaxComponentTypes is the number of distinct component types a process can
// register. It matches the width of the presence bitmask.
const MaxComponentTypes = 256

// ComponentID is the stable identity token of a registered component type.
type ComponentID uint8

// componentRegistry maps component types to IDs. It is shared by every World
// and standalone Entity in the process so that query descriptors built once
// can be evaluated against any entity.
type componentRegistry struct {
	mu       sync.RWMutex
	typeToID map[reflect.Type]ComponentID
	idToType [MaxComponentTypes]reflect.Type
	next     int
}

var registry = &componentRegistry{
	typeToID: make(map[reflect.Type]ComponentID, 32),
}

// idFor registers t on first use and returns its ID.
func (r *componentRegistry) idFor(t reflect.Type) ComponentID {
	r.mu.RLock()
	id, ok := r.typeToID[t]
	r.mu.RUnlock()
	if ok {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.typeToID[t]; ok {
		return id
	}
	if r.next >= MaxComponentTypes {
		panic(fmt.Sprintf("ecs: cannot register component %s: maximum number of component types (%d) reached", t, MaxComponentTypes))
	}
	id = ComponentID(r.next)
	r.typeToID[t] = id
	r.idToType[id] = t
	r.next++
	return id
}

func (r *componentRegistry) typeOf(id ComponentID) reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idToType[id]
}

// componentID returns the ID of T, registering it if needed.
func componentID[T any]() ComponentID {
	return registry.idFor(reflect.TypeFor[T]())
}

// ComponentIDOf returns the ComponentID for T. Types are registered lazily, so
// calling this is never required, but it lets callers pin IDs up front.
func ComponentIDOf[T any]() ComponentID {
	return componentID[T]()
}

// ComponentType returns the reflect.Type registered under id, or nil.
func ComponentType(id ComponentID) reflect.Type {
	return registry.typeOf(id)
}
