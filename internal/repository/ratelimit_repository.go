package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository implements fixed-window counters on Redis so limits hold across instances.
type RateLimitRepository struct {
	client *redis.Client
}

// NewRateLimitRepository constructs the repository. A nil client allows everything.
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

// Allow increments the counter for key and reports whether it is still within limit.
// The window starts at the first hit. INCR and EXPIRE NX run in one MULTI block, so a
// counter never outlives its window and a key left without a TTL gets one on the next hit.
func (r *RateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil || limit <= 0 {
		return true, nil
	}

	var incr *redis.IntCmd
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	}); err != nil {
		return false, fmt.Errorf("redis rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(limit), nil
}
