// Package events is the in-process notification bus between the storefront
// services and the browser tab that owns a session.
package events

import (
	"sort"
	"sync"

	"github.com/burgnice/storefront/pkg/enums"
)

type Kind string

const (
	KindCartUpdated      Kind = "cart-updated"
	KindOrderTypeChanged Kind = "order-type-changed"
	KindOpenAuthModal    Kind = "open-auth-modal"
)

// Event is implemented by every payload published on the bus.
type Event interface {
	Kind() Kind
}

// CartUpdated carries the cart summary after a write.
type CartUpdated struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

func (CartUpdated) Kind() Kind { return KindCartUpdated }

type OrderTypeChanged struct {
	OrderType enums.OrderType `json:"orderType"`
}

func (OrderTypeChanged) Kind() Kind { return KindOrderTypeChanged }

// OpenAuthModal asks the UI to prompt for login.
type OpenAuthModal struct {
	Reason string `json:"reason,omitempty"`
}

func (OpenAuthModal) Kind() Kind { return KindOpenAuthModal }

// Envelope is the wire shape streamed to subscribers.
type Envelope struct {
	Type    Kind  `json:"type"`
	Payload Event `json:"payload"`
}

func Wrap(e Event) Envelope {
	return Envelope{Type: e.Kind(), Payload: e}
}

type Handler func(Event)

// Publisher is the narrow interface services depend on.
type Publisher interface {
	Publish(sessionID string, e Event)
}

// Bus delivers events to the handlers subscribed to a session. Delivery is
// synchronous and in publish order; Publish returns after every handler ran.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]Handler)}
}

// Subscribe registers h for the session. The returned func removes it and is
// safe to call more than once.
func (b *Bus) Subscribe(sessionID string, h Handler) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[uint64]Handler)
	}
	b.subs[sessionID][id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[sessionID], id)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
		})
	}
}

// Publish runs every handler subscribed to the session. Handlers must not
// block; slow consumers should buffer on their side.
func (b *Bus) Publish(sessionID string, e Event) {
	if b == nil || e == nil || sessionID == "" {
		return
	}
	b.mu.RLock()
	handlers := make([]subscription, 0, len(b.subs[sessionID]))
	for id, h := range b.subs[sessionID] {
		handlers = append(handlers, subscription{id: id, h: h})
	}
	b.mu.RUnlock()

	sort.Slice(handlers, func(i, j int) bool { return handlers[i].id < handlers[j].id })
	for _, s := range handlers {
		s.h(e)
	}
}

// Subscribers returns the number of handlers attached to a session.
func (b *Bus) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}

type subscription struct {
	id uint64
	h  Handler
}
