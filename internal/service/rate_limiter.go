package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/page-manager/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RateDecision is the outcome of a rate limit check
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter is a sliding window log limiter backed by a Redis sorted set
type RateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

// Allow records a request for key when fewer than limit requests were seen
// during the last window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error) {
	now := r.now()
	redisKey := "ratelimit:" + key
	windowStart := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	var (
		count  *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := r.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", windowStart)
		count = pipe.ZCard(ctx, redisKey)
		oldest = pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
		return nil
	})
	if err != nil {
		return RateDecision{}, fmt.Errorf("failed to read rate limit window: %w", err)
	}

	seen := int(count.Val())
	if seen >= limit {
		retryAfter := window
		if o := oldest.Val(); len(o) > 0 {
			retryAfter = time.UnixMilli(int64(o[0].Score)).Add(window).Sub(now)
		}
		return RateDecision{Allowed: false, RetryAfter: max(retryAfter, 0)}, nil
	}

	_, err = r.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, redisKey, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: uuid.NewString(),
		})
		pipe.Expire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return RateDecision{}, fmt.Errorf("failed to record request: %w", err)
	}

	return RateDecision{Allowed: true, Remaining: limit - seen - 1}, nil
}
