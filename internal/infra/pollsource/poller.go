package pollsource

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"voteaudit/internal/domain"
	cryptoinfra "voteaudit/internal/infra/crypto"

	"github.com/sirupsen/logrus"
)

// KeySink receives the organization key once the backend announces it.
type KeySink interface {
	Get() (ed25519.PublicKey, bool)
	SetBase64(value string) error
}

// Publisher hands snapshots to the verification loop.
type Publisher interface {
	Publish(polls []domain.Poll)
}

type SnapshotObserver interface {
	ObserveSnapshot(source string)
}

// Poller fetches the backend on a fixed interval and publishes a snapshot
// whenever its content changed since the last one.
type Poller struct {
	Client   *Client
	Keys     KeySink
	Feed     Publisher
	Interval time.Duration
	Logger   logrus.FieldLogger
	Metrics  SnapshotObserver

	lastHash string
}

func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			p.log().WithError(err).Warn("backend poll failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce reports whether a new snapshot was published.
func (p *Poller) PollOnce(ctx context.Context) (bool, error) {
	if _, ok := p.Keys.Get(); !ok {
		if err := p.loadKey(ctx); err != nil {
			p.log().WithError(err).Warn("organization key not available yet")
		}
	}
	polls, err := p.Client.FetchPolls(ctx)
	if err != nil {
		return false, err
	}
	hash, err := snapshotHash(polls)
	if err != nil {
		return false, err
	}
	if hash == p.lastHash {
		return false, nil
	}
	p.lastHash = hash
	p.Feed.Publish(polls)
	if p.Metrics != nil {
		p.Metrics.ObserveSnapshot("http")
	}
	p.log().WithField("polls", len(polls)).Debug("published poll snapshot")
	return true, nil
}

func (p *Poller) loadKey(ctx context.Context) error {
	org, err := p.Client.FetchOrganization(ctx)
	if err != nil {
		return err
	}
	if org.VoteDecryptPublicMainKey == "" {
		return errors.New("organization has no vote_decrypt_public_main_key")
	}
	return p.Keys.SetBase64(org.VoteDecryptPublicMainKey)
}

func snapshotHash(polls []domain.Poll) (string, error) {
	if polls == nil {
		polls = []domain.Poll{}
	}
	canonical, err := cryptoinfra.CanonicalizeAny(polls)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func (p *Poller) log() logrus.FieldLogger {
	return loggerOrStandard(p.Logger)
}

func loggerOrStandard(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
