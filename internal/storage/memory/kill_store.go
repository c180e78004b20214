package memory

import (
	"context"
	"sort"
	"sync"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// KillStore is an in-memory implementation of storage.KillStore.
type KillStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Kill // keyed by kill_id
}

// NewKillStore creates a new in-memory kill store.
func NewKillStore() *KillStore {
	return &KillStore{
		data: make(map[string]*domain.Kill),
	}
}

func copyKill(k *domain.Kill) *domain.Kill {
	killCopy := *k
	if k.AttackerID != nil {
		v := *k.AttackerID
		killCopy.AttackerID = &v
	}
	if k.AssisterID != nil {
		v := *k.AssisterID
		killCopy.AssisterID = &v
	}
	if k.TradedWithinTicks != nil {
		v := *k.TradedWithinTicks
		killCopy.TradedWithinTicks = &v
	}
	return &killCopy
}

// InsertBulk adds multiple kills atomically.
func (s *KillStore) InsertBulk(_ context.Context, kills []*domain.Kill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range kills {
		if k == nil || k.KillID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[k.KillID]; exists {
			return storage.ErrDuplicateKey
		}
	}

	for _, k := range kills {
		s.data[k.KillID] = copyKill(k)
	}
	return nil
}

// GetByMatchID retrieves all kills for a match, ordered by (tick, kill_id) ASC.
func (s *KillStore) GetByMatchID(_ context.Context, matchID string) ([]*domain.Kill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Kill
	for _, k := range s.data {
		if k.MatchID == matchID {
			result = append(result, copyKill(k))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Tick != result[j].Tick {
			return result[i].Tick < result[j].Tick
		}
		return result[i].KillID < result[j].KillID
	})

	return result, nil
}

// DeleteByMatchID removes all kills for a match.
func (s *KillStore) DeleteByMatchID(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, k := range s.data {
		if k.MatchID == matchID {
			delete(s.data, id)
		}
	}
	return nil
}

// MarkTrades writes trade flags for the given kills. Returns ErrNotFound
// if any referenced kill does not exist.
func (s *KillStore) MarkTrades(_ context.Context, matchID string, trades []*domain.TradeInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range trades {
		k, exists := s.data[t.KillID]
		if !exists || k.MatchID != matchID {
			return storage.ErrNotFound
		}
		avenged, exists := s.data[t.AvengedKillID]
		if !exists || avenged.MatchID != matchID {
			return storage.ErrNotFound
		}
	}

	for _, t := range trades {
		k := s.data[t.KillID]
		k.IsTradeKill = true
		ticks := t.TradedWithinTicks
		k.TradedWithinTicks = &ticks
		s.data[t.AvengedKillID].IsTradeDeath = true
	}
	return nil
}

// ResetTrades clears all trade flags for a match back to false/null.
func (s *KillStore) ResetTrades(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.data {
		if k.MatchID == matchID {
			k.IsTradeKill = false
			k.IsTradeDeath = false
			k.TradedWithinTicks = nil
		}
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.KillStore = (*KillStore)(nil)
