package orgkey

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"voteaudit/internal/domain"
)

func generate(t *testing.T) ed25519.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub
}

func TestHandleWaitUnblocksOnSet(t *testing.T) {
	h := New()
	key := generate(t)
	done := make(chan ed25519.PublicKey)
	go func() {
		got, err := h.Wait(context.Background())
		if err != nil {
			t.Errorf("wait: %v", err)
		}
		done <- got
	}()

	if _, ok := h.Get(); ok {
		t.Fatal("key should not be set yet")
	}
	if err := h.SetBase64(base64.StdEncoding.EncodeToString(key)); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case got := <-done:
		if !got.Equal(key) {
			t.Fatal("wait returned a different key")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not unblock")
	}
}

func TestHandleSetOnce(t *testing.T) {
	h := New()
	key := generate(t)
	if err := h.Set(key); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := h.Set(key); err != nil {
		t.Fatalf("setting the same key again should be a no-op: %v", err)
	}
	if err := h.Set(generate(t)); !errors.Is(err, domain.ErrKeyAlreadySet) {
		t.Fatalf("expected key already set, got %v", err)
	}
	if err := New().Set(key[:4]); !errors.Is(err, domain.ErrInvalidPublicKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
}

func TestHandleWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := New().Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
