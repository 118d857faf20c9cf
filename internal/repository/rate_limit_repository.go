package repository

import (
	"ChatSyncAPI/internal/adapter"
	"ChatSyncAPI/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository keeps fixed-window hit counters in Redis.
type RateLimitRepository struct {
	redisAdapter *adapter.RedisAdapter
}

func NewRateLimitRepository(redisAdapter *adapter.RedisAdapter) *RateLimitRepository {
	return &RateLimitRepository{
		redisAdapter: redisAdapter,
	}
}

// Hit counts one request against key. The window opens on the first hit and
// later hits never extend it.
func (r *RateLimitRepository) Hit(ctx context.Context, key string, limit int, window time.Duration) (model.RateLimitDecision, error) {
	var count *redis.IntCmd
	var ttl *redis.DurationCmd

	_, err := r.redisAdapter.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return model.RateLimitDecision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return decide(count.Val(), limit, ttl.Val(), window), nil
}

func decide(count int64, limit int, ttl, window time.Duration) model.RateLimitDecision {
	if ttl <= 0 {
		ttl = window
	}

	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}

	return model.RateLimitDecision{
		Allowed:    count <= int64(limit),
		Remaining:  int(remaining),
		RetryAfter: ttl,
	}
}
