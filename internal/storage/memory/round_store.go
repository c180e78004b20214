package memory

import (
	"context"
	"sort"
	"sync"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// RoundStore is an in-memory implementation of storage.RoundStore.
type RoundStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Round // keyed by round_id
}

// NewRoundStore creates a new in-memory round store.
func NewRoundStore() *RoundStore {
	return &RoundStore{
		data: make(map[string]*domain.Round),
	}
}

// InsertBulk adds multiple rounds atomically.
func (s *RoundStore) InsertBulk(_ context.Context, rounds []*domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rounds {
		if r == nil || r.RoundID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.RoundID]; exists {
			return storage.ErrDuplicateKey
		}
	}

	for _, r := range rounds {
		roundCopy := *r
		s.data[r.RoundID] = &roundCopy
	}
	return nil
}

// GetByMatchID retrieves all rounds for a match, ordered by number ASC.
func (s *RoundStore) GetByMatchID(_ context.Context, matchID string) ([]*domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Round
	for _, r := range s.data {
		if r.MatchID == matchID {
			roundCopy := *r
			result = append(result, &roundCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Number < result[j].Number
	})

	return result, nil
}

// DeleteByMatchID removes all rounds for a match.
func (s *RoundStore) DeleteByMatchID(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.data {
		if r.MatchID == matchID {
			delete(s.data, id)
		}
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.RoundStore = (*RoundStore)(nil)
