package websocket

import (
	"log/slog"
	"sync"
)

// Listener wraps a handler so it has a stable identity for Unsubscribe.
type Listener struct {
	fn func(Event)
}

func NewListener(fn func(Event)) *Listener {
	return &Listener{fn: fn}
}

type EventBus interface {
	Subscribe(eventType EventType, l *Listener)
	Unsubscribe(eventType EventType, l *Listener)
}

// Bus is an in-process fan-out of realtime events. It is safe for concurrent
// use, and handlers may subscribe or unsubscribe while being called.
type Bus struct {
	mu        sync.RWMutex
	listeners map[EventType][]*Listener
}

func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventType][]*Listener),
	}
}

func (b *Bus) Subscribe(eventType EventType, l *Listener) {
	if l == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.listeners[eventType] {
		if existing == l {
			return
		}
	}
	b.listeners[eventType] = append(b.listeners[eventType], l)
}

func (b *Bus) Unsubscribe(eventType EventType, l *Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[eventType]
	for i, existing := range current {
		if existing != l {
			continue
		}

		next := make([]*Listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(b.listeners, eventType)
		} else {
			b.listeners[eventType] = next
		}
		return
	}
}

func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	snapshot := b.listeners[event.Type]
	b.mu.RUnlock()

	for _, l := range snapshot {
		b.dispatch(l, event)
	}
}

func (b *Bus) ListenerCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[eventType])
}

func (b *Bus) dispatch(l *Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Realtime listener panicked", "event", event.Type, "panic", r)
		}
	}()
	l.fn(event)
}
