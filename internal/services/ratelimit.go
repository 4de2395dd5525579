package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowStore keeps atomic per-window counters outside the process.
type WindowStore interface {
	// Incr increments key and returns the new count. The key expires at expireAt.
	Incr(ctx context.Context, key string, expireAt time.Time) (int64, error)
}

type redisWindowStore struct {
	client *redis.Client
}

func NewRedisWindowStore(client *redis.Client) WindowStore {
	return &redisWindowStore{client: client}
}

func (s *redisWindowStore) Incr(ctx context.Context, key string, expireAt time.Time) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, expireAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// FixedWindowLimiter counts actions per key in fixed, non-sliding windows.
type FixedWindowLimiter struct {
	name   string
	limit  int
	window time.Duration
	store  WindowStore
	now    func() time.Time
}

func NewFixedWindowLimiter(name string, limit int, window time.Duration, store WindowStore) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		name:   name,
		limit:  limit,
		window: window,
		store:  store,
		now:    time.Now,
	}
}

// NewGeneralLimiter allows 5 actions per 5 minutes.
func NewGeneralLimiter(store WindowStore) *FixedWindowLimiter {
	return NewFixedWindowLimiter("general", 5, 5*time.Minute, store)
}

// NewAgentLimiter allows 1 action per 60 seconds.
func NewAgentLimiter(store WindowStore) *FixedWindowLimiter {
	return NewFixedWindowLimiter("agent", 1, 60*time.Second, store)
}

func (l *FixedWindowLimiter) Name() string {
	return l.name
}

func (l *FixedWindowLimiter) Check(ctx context.Context, key string) (RateLimitResult, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	resetAt := windowStart.Add(l.window)

	storeKey := fmt.Sprintf("ratelimit:%s:%s:%d", l.name, key, windowStart.Unix())
	count, err := l.store.Incr(ctx, storeKey, resetAt)
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("rate limit %s: %w", l.name, err)
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   int(count) <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
