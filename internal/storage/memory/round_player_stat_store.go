package memory

import (
	"context"
	"sort"
	"sync"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// RoundPlayerStatStore is an in-memory implementation of
// storage.RoundPlayerStatStore.
type RoundPlayerStatStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RoundPlayerStat // keyed by stat_id
}

// NewRoundPlayerStatStore creates a new in-memory stat store.
func NewRoundPlayerStatStore() *RoundPlayerStatStore {
	return &RoundPlayerStatStore{
		data: make(map[string]*domain.RoundPlayerStat),
	}
}

func copyStat(st *domain.RoundPlayerStat) *domain.RoundPlayerStat {
	statCopy := *st
	if st.ClutchVs != nil {
		v := *st.ClutchVs
		statCopy.ClutchVs = &v
	}
	if st.ClutchWon != nil {
		v := *st.ClutchWon
		statCopy.ClutchWon = &v
	}
	return &statCopy
}

// InsertBulk adds multiple stat rows atomically.
func (s *RoundPlayerStatStore) InsertBulk(_ context.Context, stats []*domain.RoundPlayerStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range stats {
		if st == nil || st.StatID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[st.StatID]; exists {
			return storage.ErrDuplicateKey
		}
	}

	for _, st := range stats {
		s.data[st.StatID] = copyStat(st)
	}
	return nil
}

// GetByMatchID retrieves all stat rows for a match, ordered by
// (round_id, player_id) ASC.
func (s *RoundPlayerStatStore) GetByMatchID(_ context.Context, matchID string) ([]*domain.RoundPlayerStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RoundPlayerStat
	for _, st := range s.data {
		if st.MatchID == matchID {
			result = append(result, copyStat(st))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RoundID != result[j].RoundID {
			return result[i].RoundID < result[j].RoundID
		}
		return result[i].PlayerID < result[j].PlayerID
	})

	return result, nil
}

// DeleteByMatchID removes all stat rows for a match.
func (s *RoundPlayerStatStore) DeleteByMatchID(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, st := range s.data {
		if st.MatchID == matchID {
			delete(s.data, id)
		}
	}
	return nil
}

// SetClutches writes clutch outcomes onto stat rows. Returns ErrNotFound
// if any referenced row does not exist.
func (s *RoundPlayerStatStore) SetClutches(_ context.Context, matchID string, updates []storage.ClutchUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		st, exists := s.data[u.StatID]
		if !exists || st.MatchID != matchID {
			return storage.ErrNotFound
		}
	}

	for _, u := range updates {
		st := s.data[u.StatID]
		vs := u.ClutchVs
		won := u.ClutchWon
		st.ClutchVs = &vs
		st.ClutchWon = &won
	}
	return nil
}

// ResetClutches clears all clutch fields for a match back to null.
func (s *RoundPlayerStatStore) ResetClutches(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.data {
		if st.MatchID == matchID {
			st.ClutchVs = nil
			st.ClutchWon = nil
		}
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.RoundPlayerStatStore = (*RoundPlayerStatStore)(nil)
