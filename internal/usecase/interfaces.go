package usecase

import (
	"context"
	"crypto/ed25519"
	"time"

	"voteaudit/internal/domain"
)

type KeyProvider interface {
	Get() (ed25519.PublicKey, bool)
	Wait(ctx context.Context) (ed25519.PublicKey, error)
}

type SignatureVerifier interface {
	VerifyVotesSignature(poll domain.Poll, orgKey []byte) (bool, []string)
	VerifyCryptKey(poll domain.Poll, orgKey []byte) ([]byte, error)
}

type BallotSealer interface {
	EncryptBase64(pollKey, plaintext []byte) (string, error)
}

// StateStore keeps the schedule entries of the last completed pass.
type StateStore interface {
	LoadEntries(ctx context.Context) ([]domain.ScheduleEntry, error)
	SaveEntries(ctx context.Context, entries []domain.ScheduleEntry) error
}

type HistoryRepository interface {
	Append(ctx context.Context, record domain.VerificationRecord) (domain.VerificationRecord, error)
	ListByPoll(ctx context.Context, pollID int) ([]domain.VerificationRecord, error)
	ListAll(ctx context.Context) ([]domain.VerificationRecord, error)
}

type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error)
}

type PassMetrics interface {
	ObservePass(duration time.Duration, report PassReport)
}

type Clock func() time.Time
