package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces sale reference keys in a shared Redis
const DefaultKeyPrefix = "pos:sale-ref:"

// RedisIdempotencyStore remembers sale references in Redis so every API
// instance sees the same set
type RedisIdempotencyStore struct {
	client    redis.Cmdable
	closer    func() error
	keyPrefix string
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewRedisIdempotencyStore wraps a connected client. Close closes the client.
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, closer: client.Close, keyPrefix: keyPrefix}
}

// MarkProcessed sets the key with SETNX so concurrent callers agree on
// which one recorded it first
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark %s processed: %w", key, err)
	}
	return ok, nil
}

// IsProcessed reports whether the key exists
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check %s processed: %w", key, err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewIdempotencyStore returns a Redis store over client, or an in-memory
// store when client is nil. Losing Redis only weakens the fast path; the
// sales table's unique reference key still rejects duplicates.
func NewIdempotencyStore(client *redis.Client, log *zap.Logger) shared.IdempotencyStore {
	if client == nil {
		log.Info("redis not connected, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(5 * time.Minute)
	}
	log.Info("using redis idempotency store", zap.String("addr", client.Options().Addr))
	return NewRedisIdempotencyStore(client, "")
}
