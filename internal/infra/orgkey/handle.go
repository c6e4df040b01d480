// Package orgkey holds the organization's Ed25519 public key. The key
// arrives once, some time after startup, and never changes afterwards.
package orgkey

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sync"

	"voteaudit/internal/domain"
	cryptoinfra "voteaudit/internal/infra/crypto"
)

type Handle struct {
	mu    sync.Mutex
	key   ed25519.PublicKey
	ready chan struct{}
}

func New() *Handle {
	return &Handle{ready: make(chan struct{})}
}

// Set installs the key. Setting the same key again is a no-op, a different
// key is rejected.
func (h *Handle) Set(key ed25519.PublicKey) error {
	if len(key) != ed25519.PublicKeySize {
		return domain.ErrInvalidPublicKey
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.key != nil {
		if bytes.Equal(h.key, key) {
			return nil
		}
		return domain.ErrKeyAlreadySet
	}
	h.key = append(ed25519.PublicKey(nil), key...)
	close(h.ready)
	return nil
}

func (h *Handle) SetBase64(value string) error {
	key, err := cryptoinfra.DecodeOrgPublicKeyBase64(value)
	if err != nil {
		return err
	}
	return h.Set(key)
}

// Get returns the key without blocking.
func (h *Handle) Get() (ed25519.PublicKey, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.key, h.key != nil
}

// Wait blocks until the key is set or ctx is done.
func (h *Handle) Wait(ctx context.Context) (ed25519.PublicKey, error) {
	select {
	case <-h.ready:
		key, _ := h.Get()
		return key, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
