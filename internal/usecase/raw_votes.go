package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"voteaudit/internal/domain"
)

type rawVotesDoc struct {
	ID    json.RawMessage   `json:"id"`
	Votes []json.RawMessage `json:"votes"`
}

// ParseRawVotes decodes a votes_raw blob: either {"id": ..., "votes": [...]}
// or a bare array. Entries may be objects or strings holding an object.
func ParseRawVotes(raw string) (domain.RawVotes, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.RawVotes{}, fmt.Errorf("%w: empty", domain.ErrRawVotesMalformed)
	}

	var out domain.RawVotes
	var entries []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return domain.RawVotes{}, fmt.Errorf("%w: %v", domain.ErrRawVotesMalformed, err)
		}
	} else {
		var doc rawVotesDoc
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return domain.RawVotes{}, fmt.Errorf("%w: %v", domain.ErrRawVotesMalformed, err)
		}
		if doc.Votes == nil {
			return domain.RawVotes{}, fmt.Errorf("%w: missing votes", domain.ErrRawVotesMalformed)
		}
		entries = doc.Votes
		out.PollID = rawPollID(doc.ID)
	}

	out.Receipts = make([]domain.VoteReceipt, 0, len(entries))
	for i, entry := range entries {
		receipt, err := parseRawEntry(entry)
		if err != nil {
			return domain.RawVotes{}, fmt.Errorf("%w: entry %d: %v", domain.ErrRawVotesMalformed, i, err)
		}
		out.Receipts = append(out.Receipts, receipt)
	}
	return out, nil
}

func parseRawEntry(entry json.RawMessage) (domain.VoteReceipt, error) {
	entry = bytes.TrimSpace(entry)
	if len(entry) > 0 && entry[0] == '"' {
		var inner string
		if err := json.Unmarshal(entry, &inner); err != nil {
			return domain.VoteReceipt{}, err
		}
		entry = []byte(inner)
	}
	var receipt domain.VoteReceipt
	if err := json.Unmarshal(entry, &receipt); err != nil {
		return domain.VoteReceipt{}, err
	}
	if receipt.IsError() {
		receipt.Votes = nil
		return receipt, nil
	}
	if receipt.Token == "" {
		return domain.VoteReceipt{}, fmt.Errorf("missing token")
	}
	return receipt, nil
}

func rawPollID(id json.RawMessage) string {
	id = bytes.TrimSpace(id)
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(id, &s); err == nil {
		return s
	}
	return string(id)
}
