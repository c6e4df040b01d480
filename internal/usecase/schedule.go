package usecase

import (
	"sort"

	"voteaudit/internal/domain"
)

// ScheduleDiff splits the polls of a pass by what needs to happen to them.
type ScheduleDiff struct {
	ToVerify   []domain.ScheduleEntry
	ToUnverify []domain.ScheduleEntry
	Unchanged  []domain.ScheduleEntry
}

// BuildEntries picks the polls that can be verified (cryptographic, raw votes
// and signature present) and returns them sorted by id. A poll id seen twice
// keeps its last occurrence.
func BuildEntries(polls []domain.Poll) []domain.ScheduleEntry {
	byID := make(map[int]domain.ScheduleEntry, len(polls))
	for _, poll := range polls {
		if !poll.IsCryptographic() || !poll.HasRawVotes() {
			continue
		}
		byID[poll.ID] = domain.ScheduleEntry{ID: poll.ID, Signature: poll.VotesSignature, Raws: poll.VotesRaw}
	}
	entries := make([]domain.ScheduleEntry, 0, len(byID))
	for _, entry := range byID {
		entries = append(entries, entry)
	}
	SortEntries(entries)
	return entries
}

func SortEntries(entries []domain.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}

// DiffEntries merges two id-sorted lists. Ids must be unique within each
// list; BuildEntries guarantees that for current.
func DiffEntries(previous, current []domain.ScheduleEntry) ScheduleDiff {
	var diff ScheduleDiff
	p := 0
	for _, entry := range current {
		for p < len(previous) && previous[p].ID < entry.ID {
			diff.ToUnverify = append(diff.ToUnverify, previous[p])
			p++
		}
		if p < len(previous) && previous[p].ID == entry.ID {
			if previous[p].SameContent(entry) {
				diff.Unchanged = append(diff.Unchanged, entry)
			} else {
				diff.ToVerify = append(diff.ToVerify, entry)
			}
			p++
			continue
		}
		diff.ToVerify = append(diff.ToVerify, entry)
	}
	diff.ToUnverify = append(diff.ToUnverify, previous[p:]...)
	return diff
}
