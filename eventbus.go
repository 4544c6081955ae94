package borrowecs

import "reflect"

// SubscriptionID identifies a handler registered with Subscribe.
type SubscriptionID uint64

type subscription struct {
	handler any
	id      SubscriptionID
}

// EventBus is a synchronous, typed publish/subscribe hub. Handlers run on the
// publishing goroutine in subscription order.
type EventBus struct {
	handlers map[reflect.Type][]subscription
	owner    map[SubscriptionID]reflect.Type
	nextID   SubscriptionID
}

// Subscribe registers handler for events of type T.
func Subscribe[T any](bus *EventBus, handler func(T)) SubscriptionID {
	if bus.handlers == nil {
		bus.handlers = make(map[reflect.Type][]subscription)
		bus.owner = make(map[SubscriptionID]reflect.Type)
	}
	t := reflect.TypeFor[T]()
	bus.nextID++
	id := bus.nextID
	bus.handlers[t] = append(bus.handlers[t], subscription{handler: handler, id: id})
	bus.owner[id] = t
	return id
}

// Unsubscribe removes a handler. It reports whether the handler was found.
// Removing a handler while an event is being delivered does not affect that
// delivery.
func Unsubscribe(bus *EventBus, id SubscriptionID) bool {
	t, ok := bus.owner[id]
	if !ok {
		return false
	}
	delete(bus.owner, id)
	old := bus.handlers[t]
	subs := make([]subscription, 0, len(old))
	for _, s := range old {
		if s.id != id {
			subs = append(subs, s)
		}
	}
	if len(subs) == 0 {
		delete(bus.handlers, t)
	} else {
		bus.handlers[t] = subs
	}
	return true
}

// Publish delivers event to every handler subscribed to T.
func Publish[T any](bus *EventBus, event T) {
	subs := bus.handlers[reflect.TypeFor[T]()]
	for _, s := range subs {
		s.handler.(func(T))(event)
	}
}

// Subscribers returns the number of handlers registered for T.
func Subscribers[T any](bus *EventBus) int {
	return len(bus.handlers[reflect.TypeFor[T]()])
}
