// Package event provides the in-process domain event bus. Events are
// published after the transaction that raised them has committed.
package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shoppos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus implements shared.EventBus with in-memory pub/sub.
// Synchronous handlers run on the publisher's goroutine; async handlers run
// in their own goroutine with a context detached from the caller's.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish dispatches events to every matching handler. Handler failures are
// logged and never returned: the events describe committed state.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		for _, sub := range b.registry.lookup(event.EventType()) {
			if !sub.async {
				b.dispatch(ctx, sub.handler, event)
				continue
			}
			if !b.running.Load() {
				b.logger.Warn("event bus stopped, async handler skipped",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
				)
				continue
			}
			b.wg.Add(1)
			go func(h shared.EventHandler, e shared.DomainEvent) {
				defer b.wg.Done()
				b.dispatch(context.WithoutCancel(ctx), h, e)
			}(sub.handler, event)
		}
	}
	return nil
}

// Subscribe registers a synchronous handler. Without explicit event types
// the handler's own EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	b.subscribe(handler, false, eventTypes)
}

// SubscribeAsync registers a handler that runs in the background, for slow
// side effects such as rendering and uploading exports
func (b *InMemoryEventBus) SubscribeAsync(handler shared.EventHandler, eventTypes ...string) {
	b.subscribe(handler, true, eventTypes)
}

func (b *InMemoryEventBus) subscribe(handler shared.EventHandler, async bool, eventTypes []string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, async, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
		zap.Bool("async", async),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start accepts async dispatches
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started", zap.Int("handlers", b.registry.Count()))
	return nil
}

// Stop stops accepting async dispatches and waits for in-flight ones, or
// for ctx
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out with handlers in flight")
		return ctx.Err()
	}
}

// dispatch runs one handler, converting a panic into a logged error
func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) {
	log := b.logger.With(
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("shop_id", event.ShopID().String()),
	)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panicked: %v", r)
			}
		}()
		return handler.Handle(ctx, event)
	}()
	if err != nil {
		log.Error("event handler failed", zap.Error(err))
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
