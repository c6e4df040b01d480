package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRedisLimiterSharesWindow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR_TEST")
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD_TEST")})
	defer client.Close()

	prefix := "voteaudit-test-" + uuid.NewString()
	first, err := NewRedis(client, prefix, nil)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	second, _ := NewRedis(client, prefix, nil)
	ctx := context.Background()
	key := "endpoint:verify:client:10.0.0.1"
	defer client.Del(ctx, prefix+":ratelimit:"+key)

	if d, err := first.Allow(ctx, key, 2, time.Minute); err != nil || !d.Allowed || d.Remaining != 1 {
		t.Fatalf("first request: %+v err=%v", d, err)
	}
	if d, _ := second.Allow(ctx, key, 2, time.Minute); !d.Allowed || d.Remaining != 0 {
		t.Fatalf("second replica should see the same counter: %+v", d)
	}
	d, _ := first.Allow(ctx, key, 2, time.Minute)
	if d.Allowed || d.ResetAt.IsZero() {
		t.Fatalf("third request should be limited: %+v", d)
	}
}

func TestRedisLimiterRestoresMissingExpiry(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR_TEST")
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD_TEST")})
	defer client.Close()

	prefix := "voteaudit-test-" + uuid.NewString()
	limiter, _ := NewRedis(client, prefix, nil)
	ctx := context.Background()
	key := "endpoint:verify:client:10.0.0.2"
	counter := prefix + ":ratelimit:" + key
	defer client.Del(ctx, counter)

	if err := client.Set(ctx, counter, 5, 0).Err(); err != nil {
		t.Fatalf("seed counter: %v", err)
	}
	d, err := limiter.Allow(ctx, key, 2, time.Minute)
	if err != nil || d.Allowed {
		t.Fatalf("seeded counter should limit: %+v err=%v", d, err)
	}
	if ttl := client.PTTL(ctx, counter).Val(); ttl <= 0 {
		t.Fatalf("expected the window expiry to be restored, got %v", ttl)
	}
}

func TestDecideClampsRemaining(t *testing.T) {
	reset := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	if d := decide(3, 1, reset); !d.Allowed || d.Remaining != 2 || !d.ResetAt.Equal(reset) {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d := decide(3, 3, reset); !d.Allowed || d.Remaining != 0 {
		t.Fatalf("last hit in window should pass: %+v", d)
	}
	if d := decide(3, 7, reset); d.Allowed || d.Remaining != 0 || d.Limit != 3 {
		t.Fatalf("exhausted window should deny: %+v", d)
	}
}

func TestNewRedisRequiresClient(t *testing.T) {
	if _, err := NewRedis(nil, "voteaudit", nil); err == nil {
		t.Fatal("expected error without client")
	}
}
