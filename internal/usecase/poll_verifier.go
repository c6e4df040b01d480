package usecase

import (
	"context"
	"crypto/ed25519"
	"errors"
	"time"

	"voteaudit/internal/domain"

	"github.com/sirupsen/logrus"
)

// PassReport lists poll ids by what a pass did with them.
type PassReport struct {
	Verified   []int `json:"verified"`
	Failed     []int `json:"failed"`
	Unverified []int `json:"unverified"`
	Unresolved []int `json:"unresolved"`
	Unchanged  int   `json:"unchanged"`
}

// PollVerifier runs incremental verification passes over poll snapshots.
// Keys, Crypto, State and Views are required; the rest is optional.
type PollVerifier struct {
	Keys    KeyProvider
	Crypto  SignatureVerifier
	State   StateStore
	Views   *PollViews
	History *HistoryRecorder
	Policy  PolicyEngine
	Metrics PassMetrics
	Logger  logrus.FieldLogger
	Clock   Clock

	PassTimeout time.Duration
}

// Run consumes snapshots until ctx is done or the channel closes. It waits
// for the organization key first; snapshots arriving meanwhile or during a
// pass are coalesced to the newest.
func (v *PollVerifier) Run(ctx context.Context, snapshots <-chan []domain.Poll) error {
	if _, err := v.Keys.Wait(ctx); err != nil {
		return err
	}
	v.logger().Info("organization key loaded; starting verification")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case polls, ok := <-snapshots:
			if !ok {
				return nil
			}
			polls = drainLatest(snapshots, polls)
			v.Views.Replace(polls)
			if _, err := v.Pass(ctx, polls); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				v.logger().WithError(err).Error("verification pass failed")
			}
		}
	}
}

func drainLatest(ch <-chan []domain.Poll, polls []domain.Poll) []domain.Poll {
	for {
		select {
		case next, ok := <-ch:
			if !ok {
				return polls
			}
			polls = next
		default:
			return polls
		}
	}
}

// Pass verifies new or changed polls and withdraws verdicts of polls that
// left the eligible set. Poll data is read from Views; ids Views does not
// know are skipped and retried on the next pass.
func (v *PollVerifier) Pass(ctx context.Context, polls []domain.Poll) (PassReport, error) {
	if v.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.PassTimeout)
		defer cancel()
	}
	started := v.now()

	key, err := v.Keys.Wait(ctx)
	if err != nil {
		return PassReport{}, err
	}
	current := BuildEntries(polls)
	previous, err := v.State.LoadEntries(ctx)
	if err != nil {
		return PassReport{}, err
	}
	previous = append([]domain.ScheduleEntry(nil), previous...)
	SortEntries(previous)
	diff := DiffEntries(previous, current)
	toVerify, unchanged := v.withoutVerdicts(diff)

	report := PassReport{Unchanged: unchanged}
	for _, entry := range diff.ToUnverify {
		v.Views.ClearVerification(entry.ID)
		report.Unverified = append(report.Unverified, entry.ID)
		v.record(ctx, domain.PollVerification{PollID: entry.ID, Fingerprint: Fingerprint(entry)})
	}

	skipped := make(map[int]bool)
	for _, entry := range toVerify {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		view, ok := v.Views.Get(entry.ID)
		if !ok {
			report.Unresolved = append(report.Unresolved, entry.ID)
			skipped[entry.ID] = true
			continue
		}
		verification := v.VerifyPoll(ctx, view.Poll, key)
		v.Views.SetVerification(entry.ID, verification)
		if *verification.Verified {
			report.Verified = append(report.Verified, entry.ID)
		} else {
			report.Failed = append(report.Failed, entry.ID)
		}
		v.record(ctx, verification)
	}
	if len(report.Unresolved) > 0 {
		v.logger().WithField("poll_ids", report.Unresolved).Warn("polls not found in view store; skipped")
	}

	processed := make([]domain.ScheduleEntry, 0, len(current))
	for _, entry := range current {
		if !skipped[entry.ID] {
			processed = append(processed, entry)
		}
	}
	if err := v.State.SaveEntries(ctx, processed); err != nil {
		return report, err
	}
	if v.Metrics != nil {
		v.Metrics.ObservePass(v.now().Sub(started), report)
	}
	return report, nil
}

// withoutVerdicts adds unchanged entries whose view carries no verdict to
// the entries to verify. That happens when the state store outlived the
// view store, e.g. after a restart with Redis state.
func (v *PollVerifier) withoutVerdicts(diff ScheduleDiff) ([]domain.ScheduleEntry, int) {
	toVerify := append([]domain.ScheduleEntry(nil), diff.ToVerify...)
	unchanged := 0
	for _, entry := range diff.Unchanged {
		if view, ok := v.Views.Get(entry.ID); ok && view.Verification.Verified == nil {
			toVerify = append(toVerify, entry)
			continue
		}
		unchanged++
	}
	SortEntries(toVerify)
	return toVerify, unchanged
}

// VerifyPoll checks the votes signature and reconciles raw votes against the
// backend tallies. It does not touch Views or the history.
func (v *PollVerifier) VerifyPoll(ctx context.Context, poll domain.Poll, orgKey ed25519.PublicKey) domain.PollVerification {
	entry := domain.ScheduleEntry{ID: poll.ID, Signature: poll.VotesSignature, Raws: poll.VotesRaw}
	var reasons []string
	invalid := 0
	if !poll.HasRawVotes() {
		reasons = append(reasons, "raw votes or votes signature missing")
	} else {
		_, sigReasons := v.Crypto.VerifyVotesSignature(poll, orgKey)
		reasons = append(reasons, sigReasons...)
		result := Reconcile(poll)
		reasons = append(reasons, result.Reasons...)
		invalid = result.Invalid
	}

	verified := len(reasons) == 0
	verification := domain.PollVerification{
		PollID:       poll.ID,
		Verified:     &verified,
		Reasons:      reasons,
		InvalidCount: invalid,
		Fingerprint:  Fingerprint(entry),
		VerifiedAt:   v.now().UTC(),
	}

	log := v.logger().WithField("poll_id", poll.ID)
	if verified {
		log.WithField("invalid", invalid).Info("poll verified")
	} else {
		log.WithField("reasons", reasons).Warn("poll verification failed")
	}

	if v.Policy != nil {
		eval, err := v.Policy.Evaluate(ctx, domain.PolicyInput{
			PollID:       poll.ID,
			Verified:     verified,
			Reasons:      nonNilStrings(reasons),
			InvalidCount: invalid,
			VotesInvalid: poll.VotesInvalid,
		})
		if err != nil {
			log.WithError(err).Warn("policy evaluation failed")
		} else {
			verification.Policy = &eval
			if !eval.Result.Allow {
				log.WithField("deny", eval.Result.Deny).Warn("poll rejected by policy")
			}
		}
	}
	return verification
}

func (v *PollVerifier) record(ctx context.Context, verification domain.PollVerification) {
	if v.History == nil {
		return
	}
	if _, err := v.History.Record(ctx, verification); err != nil && !errors.Is(err, domain.ErrHistoryUnavailable) {
		v.logger().WithError(err).WithField("poll_id", verification.PollID).Error("append verification history")
	}
}

func (v *PollVerifier) now() time.Time {
	if v.Clock != nil {
		return v.Clock()
	}
	return time.Now()
}

func (v *PollVerifier) logger() logrus.FieldLogger {
	if v.Logger == nil {
		return logrus.StandardLogger()
	}
	return v.Logger
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
