package domain

import "time"

type VerificationOutcome string

const (
	OutcomeVerified   VerificationOutcome = "verified"
	OutcomeFailed     VerificationOutcome = "failed"
	OutcomeUnverified VerificationOutcome = "unverified"
)

// ScheduleEntry identifies the crypto state of a poll that a verification
// pass last looked at.
type ScheduleEntry struct {
	ID        int    `json:"id"`
	Signature string `json:"signature"`
	Raws      string `json:"raws"`
}

// SameContent reports whether two entries carry identical crypto fields.
func (e ScheduleEntry) SameContent(other ScheduleEntry) bool {
	return e.Signature == other.Signature && e.Raws == other.Raws
}

// PollVerification is the verdict attached to a poll view. Verified is nil
// while the poll has not been verified or its verdict was withdrawn.
type PollVerification struct {
	PollID       int               `json:"poll_id"`
	Verified     *bool             `json:"verified"`
	Reasons      []string          `json:"reasons,omitempty"`
	InvalidCount int               `json:"invalid_count"`
	Fingerprint  string            `json:"fingerprint,omitempty"`
	VerifiedAt   time.Time         `json:"verified_at,omitempty"`
	Policy       *PolicyEvaluation `json:"policy,omitempty"`
}

func (v PollVerification) Outcome() VerificationOutcome {
	switch {
	case v.Verified == nil:
		return OutcomeUnverified
	case *v.Verified:
		return OutcomeVerified
	default:
		return OutcomeFailed
	}
}

// VerificationRecord is one link of the append-only verification history.
type VerificationRecord struct {
	ID             string              `json:"id"`
	Seq            int64               `json:"seq"`
	PollID         int                 `json:"poll_id"`
	Outcome        VerificationOutcome `json:"outcome"`
	Reasons        []string            `json:"reasons,omitempty"`
	Fingerprint    string              `json:"fingerprint,omitempty"`
	PayloadHash    string              `json:"payload_hash"`
	PrevRecordHash string              `json:"prev_record_hash"`
	RecordHash     string              `json:"record_hash"`
	CreatedAt      time.Time           `json:"created_at"`
}

const HistoryChainVersion = "voteaudit.history.v1"
