package state

import (
	"context"
	"os"
	"reflect"
	"testing"

	"voteaudit/internal/domain"
)

func sampleEntries() []domain.ScheduleEntry {
	return []domain.ScheduleEntry{
		{ID: 1, Signature: "c2ln", Raws: `{"votes":[]}`},
		{ID: 4, Signature: "b3RoZXI=", Raws: `[{"token":"a","votes":{"1":"Y"}}]`},
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	entries, err := store.LoadEntries(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty state, got %v err=%v", entries, err)
	}
	want := sampleEntries()
	if err := store.SaveEntries(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	want[0].Raws = "mutated"
	got, _ := store.LoadEntries(ctx)
	if got[0].Raws != `{"votes":[]}` {
		t.Fatal("store must copy saved entries")
	}
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR_TEST")
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST not set")
	}
	store, err := NewRedis(addr, os.Getenv("REDIS_PASSWORD_TEST"), 0, "voteaudit-test-"+t.Name())
	if err != nil {
		t.Fatalf("new redis: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	defer store.client.Del(ctx, store.Key())

	if err := store.SaveEntries(ctx, nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	got, err := store.LoadEntries(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty entries, got %v err=%v", got, err)
	}
	want := sampleEntries()
	if err := store.SaveEntries(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = store.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestNewRedisRequiresAddr(t *testing.T) {
	if _, err := NewRedis("", "", 0, ""); err == nil {
		t.Fatal("expected error for empty addr")
	}
}
