package usecase

import "voteaudit/internal/domain"

// SnapshotFeed is a one-slot mailbox: publishing while a snapshot is still
// pending replaces it, so the consumer only ever sees the newest one.
type SnapshotFeed struct {
	ch chan []domain.Poll
}

func NewSnapshotFeed() *SnapshotFeed {
	return &SnapshotFeed{ch: make(chan []domain.Poll, 1)}
}

func (f *SnapshotFeed) Publish(polls []domain.Poll) {
	for {
		select {
		case f.ch <- polls:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

func (f *SnapshotFeed) C() <-chan []domain.Poll {
	return f.ch
}
