// Package cache signals downstream consumers that cached catalog data is
// stale after structural changes.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/platformio/platformio-api/internal/config"
)

// invalidationChannel carries a notification per structural change so
// consumers can react immediately instead of polling.
const invalidationChannel = "pio:catalog:invalidations"

// keyPattern matches every cached catalog entry.
const keyPattern = "pio:catalog:*"

// Invalidator notifies external consumers that cached catalog data is stale.
type Invalidator interface {
	Invalidate(ctx context.Context, reason string) error
}

// RedisInvalidator drops cached catalog keys and publishes the reason on the
// invalidation channel.
type RedisInvalidator struct {
	client *redis.Client
}

func NewRedisInvalidator(cfg *config.CacheConfig) *RedisInvalidator {
	return &RedisInvalidator{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			DB:       cfg.DB,
			Password: cfg.Password,
		}),
	}
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, reason string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if err := r.client.Publish(ctx, invalidationChannel, reason).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	slog.Debug("Invalidated catalog cache", "reason", reason)
	return nil
}

func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}

// NoopInvalidator is used when no cache layer is configured.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(context.Context, string) error {
	return nil
}
