package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"voteaudit/internal/domain"
	cryptoinfra "voteaudit/internal/infra/crypto"
)

// HistoryRecorder appends verdict changes to the hash-chained history.
type HistoryRecorder struct {
	Repo  HistoryRepository
	Clock Clock
}

func NewHistoryRecorder(repo HistoryRepository, clock Clock) *HistoryRecorder {
	return &HistoryRecorder{Repo: repo, Clock: clock}
}

// Record appends the verdict unless the poll's latest record already has the
// same outcome and fingerprint, in which case that record is returned. A pass
// whose state save failed repeats its verdicts on the next run.
func (r *HistoryRecorder) Record(ctx context.Context, verification domain.PollVerification) (domain.VerificationRecord, error) {
	if r == nil || r.Repo == nil {
		return domain.VerificationRecord{}, domain.ErrHistoryUnavailable
	}
	existing, err := r.Repo.ListByPoll(ctx, verification.PollID)
	if err != nil {
		return domain.VerificationRecord{}, err
	}
	if n := len(existing); n > 0 {
		last := existing[n-1]
		if last.Outcome == verification.Outcome() && last.Fingerprint == verification.Fingerprint {
			return last, nil
		}
	}
	record := domain.VerificationRecord{
		PollID:      verification.PollID,
		Outcome:     verification.Outcome(),
		Reasons:     verification.Reasons,
		Fingerprint: verification.Fingerprint,
		CreatedAt:   r.now().UTC().Truncate(time.Microsecond),
	}
	payloadHash, err := RecordPayloadHash(record)
	if err != nil {
		return domain.VerificationRecord{}, err
	}
	record.PayloadHash = payloadHash
	return r.Repo.Append(ctx, record)
}

func (r *HistoryRecorder) ListByPoll(ctx context.Context, pollID int) ([]domain.VerificationRecord, error) {
	if r == nil || r.Repo == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	return r.Repo.ListByPoll(ctx, pollID)
}

// Verify replays the whole chain.
func (r *HistoryRecorder) Verify(ctx context.Context) (int, error) {
	if r == nil || r.Repo == nil {
		return 0, domain.ErrHistoryUnavailable
	}
	records, err := r.Repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), VerifyHistoryChain(records)
}

func (r *HistoryRecorder) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

// VerifyHistoryChain checks sequence numbers, payload hashes and links of
// records ordered by seq.
func VerifyHistoryChain(records []domain.VerificationRecord) error {
	prevHash := ZeroRecordHash()
	for i, record := range records {
		seq := int64(i + 1)
		if record.Seq != seq {
			return fmt.Errorf("%w: expected seq %d got %d", domain.ErrHistoryBroken, seq, record.Seq)
		}
		if record.PrevRecordHash != prevHash {
			return fmt.Errorf("%w: prev hash mismatch at seq %d", domain.ErrHistoryBroken, seq)
		}
		payloadHash, err := RecordPayloadHash(record)
		if err != nil {
			return fmt.Errorf("%w: payload at seq %d: %v", domain.ErrHistoryBroken, seq, err)
		}
		if payloadHash != record.PayloadHash {
			return fmt.Errorf("%w: payload hash mismatch at seq %d", domain.ErrHistoryBroken, seq)
		}
		recordHash, err := ComputeRecordHash(record)
		if err != nil {
			return fmt.Errorf("%w: record at seq %d: %v", domain.ErrHistoryBroken, seq, err)
		}
		if recordHash != record.RecordHash {
			return fmt.Errorf("%w: record hash mismatch at seq %d", domain.ErrHistoryBroken, seq)
		}
		prevHash = record.RecordHash
	}
	return nil
}

// RecordPayloadHash covers what the record says about the poll.
func RecordPayloadHash(record domain.VerificationRecord) (string, error) {
	reasons := make([]any, 0, len(record.Reasons))
	for _, reason := range record.Reasons {
		reasons = append(reasons, reason)
	}
	payload := map[string]any{
		"poll_id":     record.PollID,
		"outcome":     string(record.Outcome),
		"reasons":     reasons,
		"fingerprint": record.Fingerprint,
	}
	canonical, err := cryptoinfra.CanonicalizeAny(payload)
	if err != nil {
		return "", err
	}
	return sha256Hex(canonical), nil
}

// ComputeRecordHash links a record to its predecessor.
func ComputeRecordHash(record domain.VerificationRecord) (string, error) {
	if record.PayloadHash == "" || record.PrevRecordHash == "" {
		return "", errors.New("record missing payload_hash or prev_record_hash")
	}
	if record.CreatedAt.IsZero() {
		return "", errors.New("record missing created_at")
	}
	payload := map[string]any{
		"v":                domain.HistoryChainVersion,
		"seq":              record.Seq,
		"poll_id":          record.PollID,
		"payload_hash":     record.PayloadHash,
		"prev_record_hash": record.PrevRecordHash,
		"created_at":       record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	canonical, err := cryptoinfra.CanonicalizeAny(payload)
	if err != nil {
		return "", err
	}
	return sha256Hex(canonical), nil
}

func ZeroRecordHash() string {
	return strings.Repeat("0", sha256.Size*2)
}

// Fingerprint identifies the crypto fields a verdict was computed from.
func Fingerprint(entry domain.ScheduleEntry) string {
	h := sha256.New()
	h.Write([]byte(entry.Signature))
	h.Write([]byte{0})
	h.Write([]byte(entry.Raws))
	return hex.EncodeToString(h.Sum(nil))
}

func sha256Hex(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}
