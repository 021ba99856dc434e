package accountstate

import (
	"sync"

	"github.com/google/uuid"
)

// Broker is an in-process AuthEvents implementation. The auth layer publishes
// session transitions; subscribers get called synchronously in unspecified
// order.
type Broker struct {
	mu        sync.RWMutex
	listeners map[string]func(*Session)
}

func NewBroker() *Broker {
	return &Broker{listeners: make(map[string]func(*Session))}
}

func (b *Broker) Subscribe(fn func(*Session)) string {
	id := uuid.NewString()
	b.mu.Lock()
	b.listeners[id] = fn
	b.mu.Unlock()
	return id
}

func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	delete(b.listeners, id)
	b.mu.Unlock()
}

// Publish delivers a session transition to all subscribers. A nil session
// means signed out.
func (b *Broker) Publish(s *Session) {
	b.mu.RLock()
	fns := make([]func(*Session), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}
