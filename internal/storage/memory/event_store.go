package memory

import (
	"context"
	"sync"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
// Events are append-only per match, mirroring the ClickHouse archive.
type EventStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Event // keyed by match_id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string][]*domain.Event),
	}
}

func copyEvent(e *domain.Event) *domain.Event {
	eventCopy := *e
	if e.Payload != nil {
		eventCopy.Payload = make(domain.Payload, len(e.Payload))
		for k, v := range e.Payload {
			eventCopy.Payload[k] = v
		}
	}
	return &eventCopy
}

// InsertBulk appends events for a match.
func (s *EventStore) InsertBulk(_ context.Context, events []*domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		if e == nil || e.MatchID == "" || e.Name == "" {
			return storage.ErrInvalidInput
		}
	}

	for _, e := range events {
		s.data[e.MatchID] = append(s.data[e.MatchID], copyEvent(e))
	}
	return nil
}

// GetByMatchID retrieves all events for a match, ordered by (tick, seq) ASC.
func (s *EventStore) GetByMatchID(_ context.Context, matchID string) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[matchID]
	result := make([]*domain.Event, 0, len(stored))
	for _, e := range stored {
		result = append(result, copyEvent(e))
	}

	domain.SortEvents(result)
	return result, nil
}

// DeleteByMatchID removes all archived events for a match.
func (s *EventStore) DeleteByMatchID(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, matchID)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.EventStore = (*EventStore)(nil)
