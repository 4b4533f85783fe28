package event

import (
	"sync"
)

// Handler receives a published event.
type Handler func(e Event)

// Subscription identifies one registered handler.
type Subscription struct {
	typ Type
	id  uint64
}

// Type returns the event type the subscription listens to.
func (s Subscription) Type() Type { return s.typ }

// Bus dispatches events synchronously to the handlers subscribed to their type,
// in subscription order.
type Bus interface {
	// Subscribe registers h for events of type t.
	//
	// Parameters:
	//   - t: the event type
	//   - h: the handler to call
	//
	// Returns:
	//   - Subscription: the handle used to unsubscribe
	Subscribe(t Type, h Handler) Subscription

	// Unsubscribe removes a handler. Unknown subscriptions are ignored.
	//
	// Parameters:
	//   - s: the subscription returned by Subscribe
	Unsubscribe(s Subscription)

	// Publish calls every handler of e's type on the calling goroutine. Handlers
	// added or removed while publishing take effect on the next Publish.
	//
	// Parameters:
	//   - e: the event to dispatch
	Publish(e Event)

	// HasSubscribers reports whether any handler listens to t.
	//
	// Parameters:
	//   - t: the event type
	//
	// Returns:
	//   - bool: true if at least one handler is subscribed
	HasSubscribers(t Type) bool
}

type subscriber struct {
	id      uint64
	handler Handler
}

// bus is the implementation of the Bus interface.
type bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers [typeCount][]subscriber
}

var _ Bus = &bus{}

// NewBus creates an empty event bus.
//
// Returns:
//   - Bus: the new bus
func NewBus() Bus {
	return &bus{}
}

func (b *bus) Subscribe(t Type, h Handler) Subscription {
	if h == nil {
		panic("event: nil handler")
	}
	if t >= typeCount {
		panic("event: unknown event type")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	// copy on write so a running Publish keeps its snapshot
	list := make([]subscriber, len(b.handlers[t]), len(b.handlers[t])+1)
	copy(list, b.handlers[t])
	b.handlers[t] = append(list, subscriber{id: b.nextID, handler: h})
	return Subscription{typ: t, id: b.nextID}
}

func (b *bus) Unsubscribe(s Subscription) {
	if s.typ >= typeCount {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.handlers[s.typ]
	for i, sub := range current {
		if sub.id == s.id {
			list := make([]subscriber, 0, len(current)-1)
			list = append(list, current[:i]...)
			b.handlers[s.typ] = append(list, current[i+1:]...)
			return
		}
	}
}

func (b *bus) Publish(e Event) {
	t := e.Type()
	if t >= typeCount {
		return
	}
	b.mu.RLock()
	list := b.handlers[t]
	b.mu.RUnlock()
	for _, sub := range list {
		sub.handler(e)
	}
}

func (b *bus) HasSubscribers(t Type) bool {
	if t >= typeCount {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[t]) > 0
}
