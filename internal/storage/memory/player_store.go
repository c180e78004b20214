package memory

import (
	"context"
	"sort"
	"sync"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

type rosterKey struct {
	matchID  string
	playerID string
}

// PlayerStore is an in-memory implementation of storage.PlayerStore.
type PlayerStore struct {
	mu   sync.RWMutex
	data map[rosterKey]*domain.Player
}

// NewPlayerStore creates a new in-memory roster store.
func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		data: make(map[rosterKey]*domain.Player),
	}
}

// InsertBulk adds multiple roster entries atomically.
func (s *PlayerStore) InsertBulk(_ context.Context, players []*domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range players {
		if p == nil || p.MatchID == "" || p.PlayerID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[rosterKey{p.MatchID, p.PlayerID}]; exists {
			return storage.ErrDuplicateKey
		}
	}

	for _, p := range players {
		playerCopy := *p
		s.data[rosterKey{p.MatchID, p.PlayerID}] = &playerCopy
	}
	return nil
}

// GetByMatchID retrieves the roster for a match, ordered by team then id.
func (s *PlayerStore) GetByMatchID(_ context.Context, matchID string) ([]*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Player
	for _, p := range s.data {
		if p.MatchID == matchID {
			playerCopy := *p
			result = append(result, &playerCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TeamNumber != result[j].TeamNumber {
			return result[i].TeamNumber < result[j].TeamNumber
		}
		return result[i].PlayerID < result[j].PlayerID
	})

	return result, nil
}

// DeleteByMatchID removes the roster for a match.
func (s *PlayerStore) DeleteByMatchID(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.data {
		if key.matchID == matchID {
			delete(s.data, key)
		}
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.PlayerStore = (*PlayerStore)(nil)
