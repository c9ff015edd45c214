// Package event provides a synchronous pub-sub bus that decouples the
// plan store, agent pool, and synchronizer from their read-only consumers
// (display panels, WebSocket fan-out) without direct dependencies.
package event

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handler is a function that handles a published event.
type Handler func(Event)

// Bus is a synchronous pub-sub event bus. Handlers run on the publishing
// goroutine, in registration order; a panicking handler is recovered and
// logged so it cannot block delivery to the others.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	nextID   atomic.Uint64
}

type registration struct {
	id      string
	handler Handler
}

// wildcard subscribes a handler to every event type.
const wildcard = "*"

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]registration)}
}

// Subscribe registers a handler for one event type and returns an ID for
// Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})
	return id
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcard, handler)
}

// Unsubscribe removes a registration by ID, reporting whether it existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, regs := range b.handlers {
		for i, reg := range regs {
			if reg.id == id {
				b.handlers[eventType] = append(regs[:i], regs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Publish delivers an event to subscribers of its type, then to wildcard
// subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	regs := make([]registration, 0,
		len(b.handlers[e.EventType()])+len(b.handlers[wildcard]))
	regs = append(regs, b.handlers[e.EventType()]...)
	regs = append(regs, b.handlers[wildcard]...)
	b.mu.RUnlock()

	for _, reg := range regs {
		b.dispatch(reg.handler, e)
	}
}

func (b *Bus) dispatch(handler Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: event handler panicked for %s: %v\n%s",
				e.EventType(), r, debug.Stack())
		}
	}()
	handler(e)
}
