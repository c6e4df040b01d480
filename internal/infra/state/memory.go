// Package state persists the schedule entries of the last verification pass.
package state

import (
	"context"
	"sync"

	"voteaudit/internal/domain"
	"voteaudit/internal/usecase"
)

type Memory struct {
	mu      sync.Mutex
	entries []domain.ScheduleEntry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadEntries(ctx context.Context) ([]domain.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ScheduleEntry(nil), m.entries...), nil
}

func (m *Memory) SaveEntries(ctx context.Context, entries []domain.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]domain.ScheduleEntry(nil), entries...)
	return nil
}

var _ usecase.StateStore = (*Memory)(nil)
