package historymem

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"voteaudit/internal/domain"
	"voteaudit/internal/usecase"
)

func TestRepositoryChainsConcurrentAppends(t *testing.T) {
	repo := New()
	recorder := usecase.NewHistoryRecorder(repo, func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC)
	})
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			verified := id%2 == 0
			if _, err := recorder.Record(context.Background(), domain.PollVerification{PollID: id % 3, Verified: &verified, Fingerprint: strconv.Itoa(id)}); err != nil {
				t.Errorf("record: %v", err)
			}
		}(i)
	}
	wg.Wait()

	count, err := recorder.Verify(context.Background())
	if err != nil || count != 20 {
		t.Fatalf("verify: count=%d err=%v", count, err)
	}
	byPoll, _ := repo.ListByPoll(context.Background(), 0)
	for _, record := range byPoll {
		if record.PollID != 0 {
			t.Fatalf("unexpected record %+v", record)
		}
	}
	if len(byPoll) == 0 {
		t.Fatal("expected records for poll 0")
	}
}

func TestRepositoryRequiresPayloadHash(t *testing.T) {
	if _, err := New().Append(context.Background(), domain.VerificationRecord{PollID: 1}); err == nil {
		t.Fatal("expected missing payload hash error")
	}
}
