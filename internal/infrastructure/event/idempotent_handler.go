package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shoppos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// KeyFunc derives the idempotency key of an event
type KeyFunc func(event shared.DomainEvent) string

// KeyByEventID keys on the event ID, so a redelivered event runs once
func KeyByEventID(event shared.DomainEvent) string {
	return "event:" + event.EventID().String()
}

// KeyByAggregate keys on the aggregate, so the handler runs once per
// aggregate however many events it raises. A completed reconciliation
// session is one aggregate per shop and business day.
func KeyByAggregate(prefix string) KeyFunc {
	return func(event shared.DomainEvent) string {
		return prefix + ":" + event.AggregateID().String()
	}
}

// IdempotencyStats is a snapshot of an IdempotentHandler's counters
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler wraps an EventHandler so each key is handled once while
// the store remembers it. Both the server and eodctl can complete a day, and
// with a shared Redis store only one of them exports it.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	key     KeyFunc
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithKeyFunc sets how keys are derived; the default is KeyByEventID
func WithKeyFunc(fn KeyFunc) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.key = fn
	}
}

// WithTTL sets how long a handled key is remembered
func WithTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.ttl = ttl
	}
}

// NewIdempotentHandler creates a new idempotent handler wrapper
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		key:     KeyByEventID,
		ttl:     shared.DefaultIdempotencyTTL,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the key was already marked
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := h.key(event)
	log := h.logger.With(
		zap.String("idempotency_key", key),
		zap.String("event_type", event.EventType()),
	)

	isNew, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		// A store outage must not drop the side effect
		log.Warn("idempotency check failed, handling anyway", zap.Error(err))
	case !isNew:
		h.duplicate.Add(1)
		log.Debug("duplicate event skipped")
		return nil
	}

	// The key stays marked on failure; it expires with the TTL.
	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
