package usecase

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"voteaudit/internal/domain"
	cryptoinfra "voteaudit/internal/infra/crypto"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ReconcileResult lists every discrepancy between a poll's raw receipts and
// the backend tallies. No reasons means the two sides agree.
type ReconcileResult struct {
	Reasons []string
	Invalid int
}

// normalizedVotes maps option id to choice to weight. Abstentions entered
// as a numeric 0 are dropped, so they compare equal to "no vote".
type normalizedVotes map[string]map[string]float64

type tokenVotes struct {
	token string
	votes normalizedVotes
	err   error
}

// Reconcile checks that the raw receipts of a poll are exactly the votes the
// backend aggregated into its per-option records.
func Reconcile(poll domain.Poll) ReconcileResult {
	parsed, err := ParseRawVotes(poll.VotesRaw)
	if err != nil {
		return ReconcileResult{Reasons: []string{fmt.Sprintf("could not parse raw votes: %v", err)}}
	}
	return ReconcileParsed(poll, parsed)
}

func ReconcileParsed(poll domain.Poll, parsed domain.RawVotes) ReconcileResult {
	var result ReconcileResult
	if parsed.PollID != "" && !samePollID(parsed.PollID, poll.ID) {
		result.Reasons = append(result.Reasons, fmt.Sprintf("raw votes belong to poll %s", parsed.PollID))
	}

	order := newTokenOrder()
	raws := append([]domain.VoteReceipt(nil), parsed.Receipts...)
	sort.SliceStable(raws, func(i, j int) bool { return order.compare(raws[i].Token, raws[j].Token) < 0 })

	backend, backendReasons := backendTokenVotes(poll)
	result.Reasons = append(result.Reasons, backendReasons...)
	sort.SliceStable(backend, func(i, j int) bool { return order.compare(backend[i].token, backend[j].token) < 0 })

	b := 0
	for _, raw := range raws {
		for b < len(backend) && order.compare(backend[b].token, raw.Token) < 0 {
			result.Reasons = append(result.Reasons, missingRawReason(backend[b].token))
			b++
		}
		if b < len(backend) && backend[b].token == raw.Token {
			if raw.IsError() || !sameVotes(raw, backend[b]) {
				result.Reasons = append(result.Reasons, fmt.Sprintf("vote of token %s saved differently in backend and raw votes", raw.Token))
			}
			b++
			continue
		}
		if raw.IsError() {
			result.Invalid++
			continue
		}
		result.Reasons = append(result.Reasons, fmt.Sprintf("couldn't find vote of token %s in backend", raw.Token))
	}
	for ; b < len(backend); b++ {
		result.Reasons = append(result.Reasons, missingRawReason(backend[b].token))
	}

	reported, err := parseDecimal(poll.VotesInvalid)
	if err != nil {
		result.Reasons = append(result.Reasons, fmt.Sprintf("votesinvalid %q is not a number", poll.VotesInvalid))
	} else if float64(result.Invalid) != reported {
		result.Reasons = append(result.Reasons, fmt.Sprintf("incorrect number of invalid votes: counted %d, backend reports %s", result.Invalid, poll.VotesInvalid))
	}
	return result
}

func missingRawReason(token string) string {
	return fmt.Sprintf("vote of token %s found in backend but not in raw votes", token)
}

func backendTokenVotes(poll domain.Poll) ([]tokenVotes, []string) {
	var reasons []string
	index := make(map[string]int)
	var out []tokenVotes
	for _, option := range poll.Options {
		optionKey := strconv.Itoa(option.ID)
		for _, vote := range option.Votes {
			weight, err := parseWeight(vote.Weight)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("backend vote of token %s on option %d has malformed weight %q", vote.UserToken, option.ID, vote.Weight))
				continue
			}
			i, ok := index[vote.UserToken]
			if !ok {
				i = len(out)
				index[vote.UserToken] = i
				out = append(out, tokenVotes{token: vote.UserToken, votes: normalizedVotes{}})
			}
			if weight == 0 {
				continue
			}
			choices := out[i].votes[optionKey]
			if choices == nil {
				choices = map[string]float64{}
				out[i].votes[optionKey] = choices
			}
			choices[vote.Value] += weight
		}
	}
	return out, reasons
}

func normalizeReceipt(receipt domain.VoteReceipt) (normalizedVotes, error) {
	out := normalizedVotes{}
	for option, value := range receipt.Votes {
		if !value.IsNumber() {
			out[option] = map[string]float64{value.Choice: 1}
			continue
		}
		weight, err := value.Number.Float64()
		if err != nil {
			return nil, err
		}
		if weight == 0 {
			continue
		}
		out[option] = map[string]float64{"Y": weight}
	}
	return out, nil
}

func sameVotes(raw domain.VoteReceipt, backend tokenVotes) bool {
	normalized, err := normalizeReceipt(raw)
	if err != nil {
		return false
	}
	a, err := cryptoinfra.CanonicalizeAny(normalized)
	if err != nil {
		return false
	}
	b, err := cryptoinfra.CanonicalizeAny(choicesOnly(raw, backend.votes))
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// choicesOnly drops the voter weight from backend options the receipt
// records as a choice string. Such a receipt carries the choice, never the
// weight the backend applied to it.
func choicesOnly(raw domain.VoteReceipt, votes normalizedVotes) normalizedVotes {
	out := make(normalizedVotes, len(votes))
	for option, choices := range votes {
		value, ok := raw.Votes[option]
		if !ok || value.IsNumber() {
			out[option] = choices
			continue
		}
		flat := make(map[string]float64, len(choices))
		for choice := range choices {
			flat[choice] = 1
		}
		out[option] = flat
	}
	return out
}

func parseWeight(value string) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return 1, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

func parseDecimal(value string) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

func samePollID(rawID string, id int) bool {
	want := strconv.Itoa(id)
	return rawID == want || strings.HasSuffix(rawID, "/"+want)
}

// tokenOrder sorts tokens with the root-locale collator and falls back to
// byte order, so two tokens only compare equal when they are identical.
type tokenOrder struct {
	collator *collate.Collator
}

func newTokenOrder() tokenOrder {
	return tokenOrder{collator: collate.New(language.Und)}
}

func (o tokenOrder) compare(a, b string) int {
	if c := o.collator.CompareString(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
