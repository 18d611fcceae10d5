package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already processed, such as sale
// references posted by a till that retries on timeout.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// DefaultIdempotencyTTL bounds how long a processed key is remembered. A
// business day never outlives it.
const DefaultIdempotencyTTL = 48 * time.Hour
