//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"voteaudit/internal/domain"
	"voteaudit/internal/usecase"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestHistoryRepositoryAppendBuildsChain(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewHistoryRepository(gdb)
	clock := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	recorder := usecase.NewHistoryRecorder(repo, func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	ctx := context.Background()

	verified := true
	failed := false
	first, err := recorder.Record(ctx, domain.PollVerification{PollID: 1, Verified: &verified, Fingerprint: "f1"})
	if err != nil {
		t.Fatalf("record first: %v", err)
	}
	if first.Seq != 1 || first.PrevRecordHash != usecase.ZeroRecordHash() || first.ID == "" {
		t.Fatalf("unexpected first record %+v", first)
	}
	second, err := recorder.Record(ctx, domain.PollVerification{PollID: 2, Verified: &failed, Reasons: []string{"bad"}, Fingerprint: "f2"})
	if err != nil {
		t.Fatalf("record second: %v", err)
	}
	if second.Seq != 2 || second.PrevRecordHash != first.RecordHash {
		t.Fatalf("second record not linked: %+v", second)
	}

	count, err := recorder.Verify(ctx)
	if err != nil || count != 2 {
		t.Fatalf("verify chain: count=%d err=%v", count, err)
	}
	byPoll, err := repo.ListByPoll(ctx, 2)
	if err != nil || len(byPoll) != 1 || byPoll[0].Reasons[0] != "bad" {
		t.Fatalf("unexpected poll history %+v err=%v", byPoll, err)
	}

	if err := gdb.Exec("UPDATE verification_records SET outcome = 'verified' WHERE seq = 2").Error; err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if _, err := recorder.Verify(ctx); err == nil {
		t.Fatal("expected tampered chain to fail verification")
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN_TEST"))
	if dsn == "" {
		t.Skip("POSTGRES_DSN_TEST not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := &Store{DB: gdb}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := gdb.Exec("TRUNCATE verification_records, verification_history_seq").Error; err != nil {
		t.Fatalf("reset tables: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return gdb
}
