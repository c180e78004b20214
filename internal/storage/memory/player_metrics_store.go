package memory

import (
	"context"
	"sort"
	"sync"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

type metricsKey struct {
	matchID  string
	playerID string
}

// PlayerMetricsStore is an in-memory implementation of
// storage.PlayerMetricsStore.
type PlayerMetricsStore struct {
	mu   sync.RWMutex
	data map[metricsKey]*domain.PlayerMatchMetrics
}

// NewPlayerMetricsStore creates a new in-memory metrics cache.
func NewPlayerMetricsStore() *PlayerMetricsStore {
	return &PlayerMetricsStore{
		data: make(map[metricsKey]*domain.PlayerMatchMetrics),
	}
}

// InsertBulk stores computed metrics for a match.
func (s *PlayerMetricsStore) InsertBulk(_ context.Context, metrics []*domain.PlayerMatchMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range metrics {
		if m == nil || m.MatchID == "" || m.PlayerID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[metricsKey{m.MatchID, m.PlayerID}]; exists {
			return storage.ErrDuplicateKey
		}
	}

	for _, m := range metrics {
		metricsCopy := *m
		if m.Economy.ByBuyType != nil {
			metricsCopy.Economy.ByBuyType = make(map[string]domain.EconomyBucket, len(m.Economy.ByBuyType))
			for k, v := range m.Economy.ByBuyType {
				metricsCopy.Economy.ByBuyType[k] = v
			}
		}
		s.data[metricsKey{m.MatchID, m.PlayerID}] = &metricsCopy
	}
	return nil
}

// GetByMatchID retrieves cached metrics for a match, ordered by player_id.
func (s *PlayerMetricsStore) GetByMatchID(_ context.Context, matchID string) ([]*domain.PlayerMatchMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PlayerMatchMetrics, 0)
	for _, m := range s.data {
		if m.MatchID == matchID {
			metricsCopy := *m
			result = append(result, &metricsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PlayerID < result[j].PlayerID
	})

	return result, nil
}

// DeleteByMatchID invalidates cached metrics for a match.
func (s *PlayerMetricsStore) DeleteByMatchID(_ context.Context, matchID string) error {
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
var _ storage.PlayerMetricsStore = (*PlayerMetricsStore)(nil)
