package event

import (
	"sync"

	"github.com/shoppos/backend/internal/domain/shared"
)

// subscription is one handler registration. Async handlers run off the
// publisher's goroutine.
type subscription struct {
	handler shared.EventHandler
	async   bool
}

// HandlerRegistry manages event handler registrations
type HandlerRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]subscription
	wildcard []subscription
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byType: make(map[string][]subscription)}
}

// Register adds a handler for the given event types. With no event types
// the handler receives every event.
func (r *HandlerRegistry) Register(handler shared.EventHandler, async bool, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := subscription{handler: handler, async: async}
	if len(eventTypes) == 0 {
		r.wildcard = append(r.wildcard, sub)
		return
	}
	for _, eventType := range eventTypes {
		r.byType[eventType] = append(r.byType[eventType], sub)
	}
}

// Unregister removes a handler from every event type
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = without(r.wildcard, handler)
	for eventType, subs := range r.byType {
		if rest := without(subs, handler); len(rest) > 0 {
			r.byType[eventType] = rest
		} else {
			delete(r.byType, eventType)
		}
	}
}

// lookup returns the subscriptions for an event type, type-specific first
func (r *HandlerRegistry) lookup(eventType string) []subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.byType[eventType]
	out := make([]subscription, 0, len(subs)+len(r.wildcard))
	out = append(out, subs...)
	return append(out, r.wildcard...)
}

// Count returns the number of distinct registered handlers
func (r *HandlerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.EventHandler]struct{})
	for _, s := range r.wildcard {
		seen[s.handler] = struct{}{}
	}
	for _, subs := range r.byType {
		for _, s := range subs {
			seen[s.handler] = struct{}{}
		}
	}
	return len(seen)
}

func without(subs []subscription, target shared.EventHandler) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.handler != target {
			out = append(out, s)
		}
	}
	return out
}
