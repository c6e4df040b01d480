package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VoteReceipt is one anonymized vote as decrypted by the vote service.
// A non-empty Error marks an invalid placeholder that carries no votes.
type VoteReceipt struct {
	Token string               `json:"token,omitempty"`
	Votes map[string]VoteValue `json:"votes,omitempty"`
	Error string               `json:"error,omitempty"`
}

func (r VoteReceipt) IsError() bool {
	return r.Error != ""
}

// VoteValue is either a choice such as "Y", "N", "A" or a numeric weight.
type VoteValue struct {
	Choice string
	Number json.Number
}

func ChoiceVote(choice string) VoteValue {
	return VoteValue{Choice: choice}
}

func NumberVote(n string) VoteValue {
	return VoteValue{Number: json.Number(n)}
}

func (v VoteValue) IsNumber() bool {
	return v.Number != ""
}

func (v VoteValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber() {
		return []byte(v.Number.String()), nil
	}
	return json.Marshal(v.Choice)
}

func (v *VoteValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty vote value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = VoteValue{Choice: s}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("vote value must be a string or number: %w", err)
	}
	if _, err := n.Float64(); err != nil {
		return fmt.Errorf("vote value must be a string or number: %w", err)
	}
	*v = VoteValue{Number: n}
	return nil
}

// RawVotes is the parsed form of a poll's votes_raw field.
type RawVotes struct {
	PollID   string
	Receipts []VoteReceipt
}
