package borrowecs

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// entityMeta holds the storage slot of one entity ID.
type entityMeta struct {
	entity  *Entity // nil while the ID is free
	version uint32  // current version, 0 if the entity is dead
}

// entityRegistry hands out entity IDs and recycles them.
type entityRegistry struct {
	freeIDs       []uint32     // stack of recycled entity IDs
	metas         []entityMeta // indexed by entity ID
	capacity      int          // current maximum number of entities
	nextEntityVer uint32       // version for the next created entity
	alive         int
}

// World owns a set of entities and the services around them: resources,
// events and the command queue used to hand work back to the main line.
//
// A World is not safe for concurrent use. Only Commands may be touched from
// other goroutines.
type World struct {
	resources *Resources
	events    *EventBus
	commands  *Commands
	pending   []EntityID // removals deferred while borrowed
	logger    zerolog.Logger
	entities  entityRegistry
	config    Config
	id        uuid.UUID
}

// NewWorld creates a World with the default configuration and room for
// initialCapacity entities before growing. It panics only if the default
// configuration is rejected, which cannot happen for a non-negative capacity.
//
// Parameters:
//   - initialCapacity: The number of entity slots to pre-allocate. Negative
//     values are treated as zero.
//
// Returns:
//   - A pointer to the newly created World.
func NewWorld(initialCapacity int) *World {
	cfg := DefaultConfig()
	cfg.InitialCapacity = max(initialCapacity, 0)
	w, err := NewWorldWithConfig(cfg)
	if err != nil {
		panic(err)
	}
	return w
}

// NewWorldWithConfig creates a World from a validated configuration.
//
// Parameters:
//   - cfg: The configuration, typically from DefaultConfig, ConfigFromEnv or
//     LoadConfigFile.
//   - opts: Options such as WithLogger or WithLogOutput.
//
// Returns:
//   - The newly created World.
//   - An error wrapping ErrInvalidConfig if cfg does not validate.
func NewWorldWithConfig(cfg Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o worldOptions
	for _, opt := range opts {
		opt(&o)
	}
	id := uuid.New()
	capacity := cfg.InitialCapacity
	w := &World{
		resources: &Resources{},
		events:    &EventBus{},
		commands:  &Commands{},
		logger:    newLogger(cfg, o, id),
		config:    cfg,
		id:        id,
		entities: entityRegistry{
			capacity:      capacity,
			freeIDs:       make([]uint32, capacity),
			metas:         make([]entityMeta, capacity),
			nextEntityVer: 1,
		},
	}
	for i := range w.entities.freeIDs {
		w.entities.freeIDs[i] = uint32(capacity - 1 - i)
	}
	w.logger.Debug().Int("capacity", capacity).Str("removal_policy", string(cfg.RemovalPolicy)).Msg("world created")
	return w, nil
}

// ID returns the identifier used to tag this World's log lines.
func (w *World) ID() uuid.UUID { return w.id }

// Config returns the configuration the World was built with.
func (w *World) Config() Config { return w.config }

// Logger returns the World's logger.
func (w *World) Logger() *zerolog.Logger { return &w.logger }

// Resources returns the World's resource store.
func (w *World) Resources() *Resources { return w.resources }

// Events returns the World's event bus.
func (w *World) Events() *EventBus { return w.events }

// Commands returns the queue that other goroutines use to schedule changes.
// Queued commands run on the next Flush.
func (w *World) Commands() *Commands { return w.commands }

// Len returns the number of live entities.
func (w *World) Len() int { return w.entities.alive }

// expand grows the ID space by at least additional slots.
func (w *World) expand(additional int) {
	oldCap := w.entities.capacity
	newCap := max(oldCap*2, 1)
	if newCap < oldCap+additional {
		newCap = oldCap + additional
	}
	delta := newCap - oldCap
	w.entities.metas = append(w.entities.metas, make([]entityMeta, delta)...)
	newFree := make([]uint32, delta)
	for i := range delta {
		newFree[i] = uint32(newCap - 1 - i)
	}
	w.entities.freeIDs = append(w.entities.freeIDs, newFree...)
	w.entities.capacity = newCap
	w.logger.Debug().Int("from", oldCap).Int("to", newCap).Msg("entity capacity expanded")
}

// Spawn creates an empty entity and returns its handle.
func (w *World) Spawn() EntityID {
	e := w.spawn()
	return e.id
}

func (w *World) spawn() *Entity {
	if len(w.entities.freeIDs) == 0 {
		w.expand(1)
	}
	last := len(w.entities.freeIDs) - 1
	id := w.entities.freeIDs[last]
	w.entities.freeIDs = w.entities.freeIDs[:last]
	meta := &w.entities.metas[id]
	meta.version = w.entities.nextEntityVer
	w.entities.nextEntityVer++
	if w.entities.nextEntityVer == 0 { // 0 marks a dead slot
		w.entities.nextEntityVer = 1
	}
	e := NewEntity()
	e.world = w
	e.id = EntityID{ID: id, Version: meta.version}
	meta.entity = e
	w.entities.alive++
	Publish(w.events, EntitySpawned{Entity: e.id})
	return e
}

// IsValid reports whether id refers to a live entity of this World.
func (w *World) IsValid(id EntityID) bool {
	if int(id.ID) >= len(w.entities.metas) {
		return false
	}
	meta := w.entities.metas[id.ID]
	return meta.version != 0 && meta.version == id.Version
}

// Entity returns the entity behind id.
func (w *World) Entity(id EntityID) (*Entity, bool) {
	if !w.IsValid(id) {
		return nil, false
	}
	return w.entities.metas[id.ID].entity, true
}

// RemoveEntity destroys the entity and drops its components. It reports
// whether the entity was removed now. An entity with live borrows is either a
// contract violation (RemovalPanic) or queued until a later Flush
// (RemovalDefer).
func (w *World) RemoveEntity(id EntityID) bool {
	e, ok := w.Entity(id)
	if !ok {
		return false
	}
	if e.Borrowed() {
		if w.config.RemovalPolicy == RemovalDefer {
			w.deferRemoval(id)
			return false
		}
		e.fatal("ecs: cannot remove entity %d: components are borrowed", id.ID)
	}
	w.destroy(e)
	return true
}

func (w *World) deferRemoval(id EntityID) {
	if slices.Contains(w.pending, id) {
		return
	}
	w.pending = append(w.pending, id)
	w.logger.Debug().Uint32("entity", id.ID).Msg("removal deferred: entity is borrowed")
}

func (w *World) destroy(e *Entity) {
	id := e.id
	meta := &w.entities.metas[id.ID]
	meta.entity = nil
	meta.version = 0
	w.entities.freeIDs = append(w.entities.freeIDs, id.ID)
	w.entities.alive--
	clear(e.cells)
	e.mask = bitmask256{}
	e.world = nil
	e.id = EntityID{}
	Publish(w.events, EntityRemoved{Entity: id})
	w.logger.Debug().Uint32("entity", id.ID).Uint32("version", id.Version).Msg("entity removed")
}

// ClearEntities removes every entity, applying the removal policy to those
// that are still borrowed.
func (w *World) ClearEntities() {
	for i := range w.entities.metas {
		e := w.entities.metas[i].entity
		if e != nil {
			w.RemoveEntity(e.id)
		}
	}
}

// Pending returns the number of deferred removals still waiting.
func (w *World) Pending() int { return len(w.pending) }

// Flush runs queued commands in the order they were pushed, then retries
// deferred removals whose entities are no longer borrowed. It returns the
// number of commands run and entities removed.
func (w *World) Flush() int {
	applied := 0
	for _, cmd := range w.commands.drain() {
		cmd(w)
		applied++
	}
	// Handlers of EntityRemoved may defer new removals while this runs.
	pending := w.pending
	w.pending = nil
	for _, id := range pending {
		e, ok := w.Entity(id)
		if !ok {
			continue
		}
		if e.Borrowed() {
			if !slices.Contains(w.pending, id) {
				w.pending = append(w.pending, id)
			}
			continue
		}
		w.destroy(e)
		applied++
	}
	if applied > 0 {
		w.logger.Debug().Int("applied", applied).Int("pending", len(w.pending)).Msg("flush")
	}
	return applied
}

// String identifies the World in diagnostics.
func (w *World) String() string {
	return fmt.Sprintf("World(%s, %d entities)", w.id, w.entities.alive)
}
