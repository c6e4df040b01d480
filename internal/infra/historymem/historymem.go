// Package historymem keeps the verification history in process memory for
// no-db mode. The chain is built exactly like the PostgreSQL one.
package historymem

import (
	"context"
	"errors"
	"sync"
	"time"

	"voteaudit/internal/domain"
	"voteaudit/internal/usecase"

	"github.com/google/uuid"
)

type Repository struct {
	mu      sync.RWMutex
	records []domain.VerificationRecord
}

func New() *Repository {
	return &Repository{}
}

func (r *Repository) Append(ctx context.Context, record domain.VerificationRecord) (domain.VerificationRecord, error) {
	if record.PayloadHash == "" {
		return domain.VerificationRecord{}, errors.New("payload_hash is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.CreatedAt = record.CreatedAt.UTC().Truncate(time.Microsecond)
	record.Reasons = append([]string(nil), record.Reasons...)

	r.mu.Lock()
	defer r.mu.Unlock()
	record.Seq = int64(len(r.records) + 1)
	record.PrevRecordHash = usecase.ZeroRecordHash()
	if n := len(r.records); n > 0 {
		record.PrevRecordHash = r.records[n-1].RecordHash
	}
	hash, err := usecase.ComputeRecordHash(record)
	if err != nil {
		return domain.VerificationRecord{}, err
	}
	record.RecordHash = hash
	r.records = append(r.records, record)
	return record, nil
}

func (r *Repository) ListByPoll(ctx context.Context, pollID int) ([]domain.VerificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.VerificationRecord, 0)
	for _, record := range r.records {
		if record.PollID == pollID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.VerificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.VerificationRecord(nil), r.records...), nil
}

var _ usecase.HistoryRepository = (*Repository)(nil)
