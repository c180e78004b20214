package memory

import (
	"context"
	"sort"
	"sync"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// MatchStore is an in-memory implementation of storage.MatchStore.
type MatchStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Match // keyed by match_id
}

// NewMatchStore creates a new in-memory match store.
func NewMatchStore() *MatchStore {
	return &MatchStore{
		data: make(map[string]*domain.Match),
	}
}

// Insert adds a new match. Returns ErrDuplicateKey if match_id exists.
func (s *MatchStore) Insert(_ context.Context, m *domain.Match) error {
	if m == nil || m.MatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.MatchID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	matchCopy := *m
	s.data[m.MatchID] = &matchCopy
	return nil
}

// GetByID retrieves a match by its ID. Returns ErrNotFound if not exists.
func (s *MatchStore) GetByID(_ context.Context, matchID string) (*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[matchID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	matchCopy := *m
	return &matchCopy, nil
}

// List retrieves all matches ordered by played_at DESC.
func (s *MatchStore) List(_ context.Context) ([]*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Match, 0, len(s.data))
	for _, m := range s.data {
		matchCopy := *m
		result = append(result, &matchCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PlayedAt > result[j].PlayedAt
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.MatchStore = (*MatchStore)(nil)
