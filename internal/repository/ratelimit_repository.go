package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository keeps fixed-window counters in Redis so every API
// instance shares the same limits.
type RateLimitRepository struct {
	client *redis.Client
}

// NewRateLimitRepository constructs the Redis counter store.
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

// Incr atomically increments key and sets its expiry in one round trip.
func (r *RateLimitRepository) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return incr.Val(), nil
}
