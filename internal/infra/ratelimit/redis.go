package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisLimiter keeps one fixed-window counter per client key so every
// voteauditd replica behind the same Redis throttles verify requests
// together.
type redisLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis namespaces counters under "<prefix>:ratelimit:".
func NewRedis(client *redis.Client, prefix string, now func() time.Time) (Limiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if now == nil {
		now = time.Now
	}
	return &redisLimiter{client: client, prefix: prefix + ":ratelimit:", now: now}, nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window < time.Millisecond {
		window = time.Second
	}
	counter := r.prefix + key

	// The window opens with the key: SET NX PX creates it with its expiry,
	// INCR keeps that expiry. MULTI makes the three steps one unit.
	var hits *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, counter, 0, window)
		hits = pipe.Incr(ctx, counter)
		ttl = pipe.PTTL(ctx, counter)
		return nil
	}); err != nil {
		return Decision{}, fmt.Errorf("ratelimit %s: %w", key, err)
	}
	if hits.Val() < 1 {
		return Decision{}, fmt.Errorf("ratelimit %s: counter reads %d after increment", key, hits.Val())
	}

	left := ttl.Val()
	if left < 0 {
		// counter without expiry, e.g. touched by hand; restart its window
		if err := r.client.PExpire(ctx, counter, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("ratelimit %s: restore expiry: %w", key, err)
		}
		left = window
	}
	return decide(limit, hits.Val(), r.now().Add(left)), nil
}

// decide turns the window's hit count into a decision. Remaining never
// drops below zero once the window is exhausted.
func decide(limit int, hits int64, resetAt time.Time) Decision {
	remaining := int64(limit) - hits
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   hits <= int64(limit),
		Limit:     limit,
		Remaining: int(remaining),
		ResetAt:   resetAt,
	}
}
