package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewMemory(MemoryConfig{Now: func() time.Time { return now }})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, "verify:10.0.0.1", 2, time.Minute)
		if err != nil || !decision.Allowed {
			t.Fatalf("request %d should pass: %+v err=%v", i, decision, err)
		}
	}
	decision, _ := limiter.Allow(ctx, "verify:10.0.0.1", 2, time.Minute)
	if decision.Allowed || decision.Remaining != 0 {
		t.Fatalf("third request should be limited: %+v", decision)
	}
	if other, _ := limiter.Allow(ctx, "verify:10.0.0.2", 2, time.Minute); !other.Allowed {
		t.Fatal("other keys have their own window")
	}

	now = now.Add(time.Minute + time.Second)
	if decision, _ := limiter.Allow(ctx, "verify:10.0.0.1", 2, time.Minute); !decision.Allowed || decision.Remaining != 1 {
		t.Fatalf("window should reset: %+v", decision)
	}
}

func TestMemoryLimiterCapacity(t *testing.T) {
	limiter := NewMemory(MemoryConfig{MaxKeys: 1})
	ctx := context.Background()
	if _, err := limiter.Allow(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("first key: %v", err)
	}
	if _, err := limiter.Allow(ctx, "b", 1, time.Minute); err == nil {
		t.Fatal("expected capacity error")
	}
}
