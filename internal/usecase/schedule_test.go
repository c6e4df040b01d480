package usecase

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"voteaudit/internal/domain"
)

func cryptoPoll(id int, sig, raws string) domain.Poll {
	return domain.Poll{ID: id, Type: domain.PollTypeCryptographic, VotesSignature: sig, VotesRaw: raws}
}

func entryIDs(entries []domain.ScheduleEntry) []int {
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	return ids
}

func TestBuildEntriesFiltersAndSorts(t *testing.T) {
	polls := []domain.Poll{
		cryptoPoll(7, "s7", "r7"),
		{ID: 3, Type: domain.PollTypeNamed, VotesSignature: "s3", VotesRaw: "r3"},
		cryptoPoll(2, "s2", "r2"),
		cryptoPoll(5, "", "r5"),
		cryptoPoll(4, "s4", ""),
		cryptoPoll(2, "s2b", "r2b"),
	}
	entries := BuildEntries(polls)
	if got := entryIDs(entries); !reflect.DeepEqual(got, []int{2, 7}) {
		t.Fatalf("unexpected ids: %v", got)
	}
	if entries[0].Signature != "s2b" || entries[0].Raws != "r2b" {
		t.Fatalf("expected last occurrence of duplicate id, got %+v", entries[0])
	}
}

func TestDiffEntries(t *testing.T) {
	previous := []domain.ScheduleEntry{
		{ID: 1, Signature: "a", Raws: "a"},
		{ID: 2, Signature: "b", Raws: "b"},
		{ID: 4, Signature: "d", Raws: "d"},
		{ID: 9, Signature: "z", Raws: "z"},
	}
	current := []domain.ScheduleEntry{
		{ID: 2, Signature: "b", Raws: "b"},
		{ID: 3, Signature: "c", Raws: "c"},
		{ID: 4, Signature: "d", Raws: "d2"},
	}
	diff := DiffEntries(previous, current)
	if got := entryIDs(diff.ToVerify); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Fatalf("to verify: %v", got)
	}
	if got := entryIDs(diff.ToUnverify); !reflect.DeepEqual(got, []int{1, 9}) {
		t.Fatalf("to unverify: %v", got)
	}
	if got := entryIDs(diff.Unchanged); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("unchanged: %v", got)
	}
	if diff.ToVerify[1].Raws != "d2" {
		t.Fatalf("changed entry should carry the current content")
	}
}

func TestDiffEntriesEmptySides(t *testing.T) {
	entries := []domain.ScheduleEntry{{ID: 1, Signature: "a", Raws: "a"}}
	if diff := DiffEntries(nil, entries); len(diff.ToVerify) != 1 || len(diff.ToUnverify) != 0 {
		t.Fatalf("first pass should verify everything: %+v", diff)
	}
	if diff := DiffEntries(entries, nil); len(diff.ToUnverify) != 1 || len(diff.ToVerify) != 0 {
		t.Fatalf("empty snapshot should unverify everything: %+v", diff)
	}
	if diff := DiffEntries(entries, entries); len(diff.Unchanged) != 1 || len(diff.ToVerify)+len(diff.ToUnverify) != 0 {
		t.Fatalf("identical lists should be unchanged: %+v", diff)
	}
}

func naiveDiff(previous, current []domain.ScheduleEntry) ScheduleDiff {
	var diff ScheduleDiff
	for _, cur := range current {
		found := false
		for _, prev := range previous {
			if prev.ID != cur.ID {
				continue
			}
			found = true
			if prev.SameContent(cur) {
				diff.Unchanged = append(diff.Unchanged, cur)
			} else {
				diff.ToVerify = append(diff.ToVerify, cur)
			}
		}
		if !found {
			diff.ToVerify = append(diff.ToVerify, cur)
		}
	}
	for _, prev := range previous {
		found := false
		for _, cur := range current {
			if cur.ID == prev.ID {
				found = true
			}
		}
		if !found {
			diff.ToUnverify = append(diff.ToUnverify, prev)
		}
	}
	for _, list := range [][]domain.ScheduleEntry{diff.ToVerify, diff.ToUnverify, diff.Unchanged} {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return diff
}

func randomEntries(rng *rand.Rand) []domain.ScheduleEntry {
	var polls []domain.Poll
	for id := 0; id < 40; id++ {
		if rng.Intn(2) == 0 {
			continue
		}
		polls = append(polls, cryptoPoll(id, fmt.Sprintf("s%d", rng.Intn(2)), fmt.Sprintf("r%d", rng.Intn(2))))
	}
	rng.Shuffle(len(polls), func(i, j int) { polls[i], polls[j] = polls[j], polls[i] })
	return BuildEntries(polls)
}

func TestDiffEntriesMatchesNaiveComparison(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		previous := randomEntries(rng)
		current := randomEntries(rng)
		got := DiffEntries(previous, current)
		want := naiveDiff(previous, current)
		if !sameIDs(got.ToVerify, want.ToVerify) || !sameIDs(got.ToUnverify, want.ToUnverify) || !sameIDs(got.Unchanged, want.Unchanged) {
			t.Fatalf("iteration %d: diff mismatch\n got %+v\nwant %+v", i, got, want)
		}
		total := len(got.ToVerify) + len(got.Unchanged)
		if total != len(current) {
			t.Fatalf("iteration %d: every current entry must land in exactly one bucket", i)
		}
	}
}

func sameIDs(a, b []domain.ScheduleEntry) bool {
	return reflect.DeepEqual(entryIDs(a), entryIDs(b))
}
