package borrowecs

import "sync"

// Command is a deferred change applied to a World by Flush.
type Command func(w *World)

// Commands is a queue of deferred changes. It is the only part of a World
// that may be used from several goroutines: workers push values produced off
// the main line, and Flush applies them on it.
type Commands struct {
	mu    sync.Mutex
	queue []Command
}

// Push appends commands to the queue.
func (c *Commands) Push(cmds ...Command) {
	c.mu.Lock()
	c.queue = append(c.queue, cmds...)
	c.mu.Unlock()
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Commands) drain() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

// InsertCommand inserts v on the entity id. It is dropped if the entity is
// gone by the time it runs.
func InsertCommand[T any](id EntityID, v T) Command {
	return func(w *World) {
		e, ok := w.Entity(id)
		if !ok {
			w.logger.Debug().Uint32("entity", id.ID).Msg("insert command dropped: entity is gone")
			return
		}
		Insert(e, v)
	}
}

// RemoveCommand removes the T component from the entity id.
func RemoveCommand[T any](id EntityID) Command {
	return func(w *World) {
		if e, ok := w.Entity(id); ok {
			Remove[T](e)
		}
	}
}

// DespawnCommand removes the entity id.
func DespawnCommand(id EntityID) Command {
	return func(w *World) {
		w.RemoveEntity(id)
	}
}

// SpawnCommand spawns an entity and passes it to init for its components.
func SpawnCommand(init func(e *Entity)) Command {
	return func(w *World) {
		e := w.spawn()
		if init != nil {
			init(e)
		}
	}
}

// SetResourceCommand adds the resource v, or replaces the current value.
func SetResourceCommand[T any](v T) Command {
	return func(w *World) {
		SetResource(w.resources, v)
	}
}
