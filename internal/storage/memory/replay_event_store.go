package memory

import (
	"context"
	"sort"
	"sync"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// ReplayEventStore is an in-memory implementation of storage.ReplayEventStore.
type ReplayEventStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ReplayEvent // keyed by match_id
}

// NewReplayEventStore creates a new in-memory replay event store.
func NewReplayEventStore() *ReplayEventStore {
	return &ReplayEventStore{
		data: make(map[string][]*domain.ReplayEvent),
	}
}

// InsertBulk appends replay events for a match.
func (s *ReplayEventStore) InsertBulk(_ context.Context, events []*domain.ReplayEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		if e == nil || e.EventID == "" || e.MatchID == "" {
			return storage.ErrInvalidInput
		}
	}

	for _, e := range events {
		eventCopy := *e
		s.data[e.MatchID] = append(s.data[e.MatchID], &eventCopy)
	}
	return nil
}

// GetByMatchID retrieves all replay events for a match, ordered by tick ASC.
func (s *ReplayEventStore) GetByMatchID(_ context.Context, matchID string) ([]*domain.ReplayEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[matchID]
	result := make([]*domain.ReplayEvent, 0, len(stored))
	for _, e := range stored {
		eventCopy := *e
		result = append(result, &eventCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Tick != result[j].Tick {
			return result[i].Tick < result[j].Tick
		}
		return result[i].EventID < result[j].EventID
	})

	return result, nil
}

// DeleteByMatchID removes all replay events for a match.
func (s *ReplayEventStore) DeleteByMatchID(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, matchID)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.ReplayEventStore = (*ReplayEventStore)(nil)
