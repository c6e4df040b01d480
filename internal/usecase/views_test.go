package usecase

import (
	"testing"

	"voteaudit/internal/domain"
)

func TestPollViewsReplaceKeepsVerdicts(t *testing.T) {
	views := NewPollViews()
	views.Replace([]domain.Poll{cryptoPoll(1, "s", "r"), cryptoPoll(2, "s", "r")})
	verified := true
	if !views.SetVerification(1, domain.PollVerification{Verified: &verified}) {
		t.Fatal("expected poll 1 to be tracked")
	}
	if views.SetVerification(9, domain.PollVerification{Verified: &verified}) {
		t.Fatal("unknown poll must not accept a verdict")
	}

	views.Replace([]domain.Poll{cryptoPoll(1, "s", "r2"), cryptoPoll(3, "s", "r")})
	view, ok := views.Get(1)
	if !ok || view.Poll.VotesRaw != "r2" || view.Verification.Outcome() != domain.OutcomeVerified {
		t.Fatalf("unexpected view %+v", view)
	}
	if _, ok := views.Get(2); ok {
		t.Fatal("poll 2 should have been dropped")
	}
	list := views.List()
	if len(list) != 2 || list[0].Poll.ID != 1 || list[1].Poll.ID != 3 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPollViewsClearVerification(t *testing.T) {
	views := NewPollViews()
	views.Replace([]domain.Poll{cryptoPoll(4, "s", "r")})
	failed := false
	views.SetVerification(4, domain.PollVerification{Verified: &failed, Reasons: []string{"x"}})
	prev, ok := views.ClearVerification(4)
	if !ok || prev.Outcome() != domain.OutcomeFailed {
		t.Fatalf("unexpected previous verdict %+v", prev)
	}
	view, _ := views.Get(4)
	if view.Verification.Verified != nil || view.Verification.PollID != 4 {
		t.Fatalf("verdict not withdrawn: %+v", view.Verification)
	}
	if _, ok := views.ClearVerification(5); ok {
		t.Fatal("unknown poll should report false")
	}
}

func TestSnapshotFeedKeepsNewest(t *testing.T) {
	feed := NewSnapshotFeed()
	feed.Publish([]domain.Poll{{ID: 1}})
	feed.Publish([]domain.Poll{{ID: 2}})
	feed.Publish([]domain.Poll{{ID: 3}})
	select {
	case polls := <-feed.C():
		if len(polls) != 1 || polls[0].ID != 3 {
			t.Fatalf("expected newest snapshot, got %+v", polls)
		}
	default:
		t.Fatal("expected a pending snapshot")
	}
	select {
	case polls := <-feed.C():
		t.Fatalf("expected empty feed, got %+v", polls)
	default:
	}
}
