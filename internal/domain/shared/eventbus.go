package shared

import "context"

// EventHandler reacts to domain events raised by the till ledger, such as a
// completed end of day or a posted sale.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes filters delivery; nil means every event.
	EventTypes() []string
}

// EventPublisher is what application services depend on. Events are
// published after the transaction that raised them commits.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers handlers, optionally narrowed to eventTypes
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
}

// EventBus is the process-wide bus started and stopped by cmd/server
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
