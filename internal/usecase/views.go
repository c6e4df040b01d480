package usecase

import (
	"sort"
	"sync"

	"voteaudit/internal/domain"
)

// PollView is a poll as last delivered by the backend plus its verdict.
type PollView struct {
	Poll         domain.Poll             `json:"poll"`
	Verification domain.PollVerification `json:"verification"`
}

// PollViews is the in-memory view store. Writes come from the single pass
// loop; readers are HTTP handlers.
type PollViews struct {
	mu    sync.RWMutex
	polls map[int]*PollView
}

func NewPollViews() *PollViews {
	return &PollViews{polls: make(map[int]*PollView)}
}

// Replace installs a new snapshot. Verdicts of polls still present survive.
func (v *PollViews) Replace(polls []domain.Poll) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := make(map[int]*PollView, len(polls))
	for _, poll := range polls {
		view := &PollView{Poll: poll, Verification: domain.PollVerification{PollID: poll.ID}}
		if prev, ok := v.polls[poll.ID]; ok {
			view.Verification = prev.Verification
		}
		next[poll.ID] = view
	}
	v.polls = next
}

func (v *PollViews) Get(id int) (PollView, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	view, ok := v.polls[id]
	if !ok {
		return PollView{}, false
	}
	return *view, true
}

func (v *PollViews) List() []PollView {
	v.mu.RLock()
	out := make([]PollView, 0, len(v.polls))
	for _, view := range v.polls {
		out = append(out, *view)
	}
	v.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Poll.ID < out[j].Poll.ID })
	return out
}

// SetVerification reports false when the poll is not tracked.
func (v *PollViews) SetVerification(id int, verification domain.PollVerification) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	view, ok := v.polls[id]
	if !ok {
		return false
	}
	verification.PollID = id
	view.Verification = verification
	return true
}

// ClearVerification withdraws the verdict and returns the previous one.
func (v *PollViews) ClearVerification(id int) (domain.PollVerification, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	view, ok := v.polls[id]
	if !ok {
		return domain.PollVerification{}, false
	}
	prev := view.Verification
	view.Verification = domain.PollVerification{PollID: id}
	return prev, true
}
