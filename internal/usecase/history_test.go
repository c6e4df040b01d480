package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"voteaudit/internal/domain"
)

// chainRepoStub appends records the way the real repositories do.
type chainRepoStub struct {
	records []domain.VerificationRecord
}

func (r *chainRepoStub) Append(ctx context.Context, record domain.VerificationRecord) (domain.VerificationRecord, error) {
	record.Seq = int64(len(r.records) + 1)
	record.PrevRecordHash = ZeroRecordHash()
	if len(r.records) > 0 {
		record.PrevRecordHash = r.records[len(r.records)-1].RecordHash
	}
	hash, err := ComputeRecordHash(record)
	if err != nil {
		return domain.VerificationRecord{}, err
	}
	record.RecordHash = hash
	r.records = append(r.records, record)
	return record, nil
}

func (r *chainRepoStub) ListByPoll(ctx context.Context, pollID int) ([]domain.VerificationRecord, error) {
	var out []domain.VerificationRecord
	for _, record := range r.records {
		if record.PollID == pollID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *chainRepoStub) ListAll(ctx context.Context) ([]domain.VerificationRecord, error) {
	return append([]domain.VerificationRecord(nil), r.records...), nil
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
}

func TestHistoryRecorderBuildsVerifiableChain(t *testing.T) {
	repo := &chainRepoStub{}
	recorder := NewHistoryRecorder(repo, fixedClock)
	ctx := context.Background()
	verified := true
	failed := false
	for _, v := range []domain.PollVerification{
		{PollID: 1, Verified: &verified, Fingerprint: "f1"},
		{PollID: 2, Verified: &failed, Reasons: []string{"bad"}, Fingerprint: "f2"},
		{PollID: 1},
	} {
		if _, err := recorder.Record(ctx, v); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	count, err := recorder.Verify(ctx)
	if err != nil || count != 3 {
		t.Fatalf("verify: count=%d err=%v", count, err)
	}
	records, _ := recorder.ListByPoll(ctx, 1)
	if len(records) != 2 || records[1].Outcome != domain.OutcomeUnverified {
		t.Fatalf("unexpected poll history %+v", records)
	}
}

func TestVerifyHistoryChainDetectsTampering(t *testing.T) {
	repo := &chainRepoStub{}
	recorder := NewHistoryRecorder(repo, fixedClock)
	failed := false
	for i := 1; i <= 3; i++ {
		if _, err := recorder.Record(context.Background(), domain.PollVerification{PollID: i, Verified: &failed, Reasons: []string{"r"}}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	tampered := append([]domain.VerificationRecord(nil), repo.records...)
	tampered[1].Reasons = []string{"rewritten"}
	if err := VerifyHistoryChain(tampered); !errors.Is(err, domain.ErrHistoryBroken) {
		t.Fatalf("expected broken chain for edited reasons, got %v", err)
	}

	dropped := []domain.VerificationRecord{repo.records[0], repo.records[2]}
	if err := VerifyHistoryChain(dropped); !errors.Is(err, domain.ErrHistoryBroken) {
		t.Fatalf("expected broken chain for dropped record, got %v", err)
	}

	relinked := append([]domain.VerificationRecord(nil), repo.records...)
	relinked[2].PrevRecordHash = ZeroRecordHash()
	if err := VerifyHistoryChain(relinked); !errors.Is(err, domain.ErrHistoryBroken) {
		t.Fatalf("expected broken chain for relinked record, got %v", err)
	}
}

func TestHistoryRecorderWithoutRepo(t *testing.T) {
	var recorder *HistoryRecorder
	if _, err := recorder.Record(context.Background(), domain.PollVerification{PollID: 1}); !errors.Is(err, domain.ErrHistoryUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestHistoryRecorderSkipsRepeatedVerdict(t *testing.T) {
	repo := &chainRepoStub{}
	recorder := NewHistoryRecorder(repo, fixedClock)
	ctx := context.Background()
	verified := true
	v := domain.PollVerification{PollID: 4, Verified: &verified, Fingerprint: "f4"}

	first, err := recorder.Record(ctx, v)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	again, err := recorder.Record(ctx, v)
	if err != nil {
		t.Fatalf("record again: %v", err)
	}
	if len(repo.records) != 1 || again.Seq != first.Seq {
		t.Fatalf("expected the repeated verdict to reuse seq %d, got %d records", first.Seq, len(repo.records))
	}

	if _, err := recorder.Record(ctx, domain.PollVerification{PollID: 4, Verified: &verified, Fingerprint: "f5"}); err != nil {
		t.Fatalf("record new fingerprint: %v", err)
	}
	if _, err := recorder.Record(ctx, domain.PollVerification{PollID: 4, Fingerprint: "f5"}); err != nil {
		t.Fatalf("record unverify: %v", err)
	}
	if len(repo.records) != 3 {
		t.Fatalf("expected changed verdicts to append, got %d records", len(repo.records))
	}
}
