package clickhouse

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse. Raw match
// events are append-only and payloads are stored as JSON strings.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// InsertBulk appends events for a match.
func (s *EventStore) InsertBulk(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO match_events (match_id, seq, name, tick, payload)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for seq %d: %w", e.Seq, err)
		}
		err = batch.Append(e.MatchID, uint64(e.Seq), e.Name, uint64(e.Tick), string(payload))
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByMatchID retrieves all events for a match, ordered by (tick, seq) ASC.
func (s *EventStore) GetByMatchID(ctx context.Context, matchID string) ([]*domain.Event, error) {
	query := `
		SELECT match_id, seq, name, tick, payload
		FROM match_events
		WHERE match_id = ?
		ORDER BY tick ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("query events by match id: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DeleteByMatchID removes all archived events for a match.
func (s *EventStore) DeleteByMatchID(ctx context.Context, matchID string) error {
	err := s.conn.Exec(ctx, `DELETE FROM match_events WHERE match_id = ?`, matchID)
	if err != nil {
		return fmt.Errorf("delete events by match id: %w", err)
	}
	return nil
}

func scanEvents(rows chRows) ([]*domain.Event, error) {
	var events []*domain.Event

	for rows.Next() {
		var e domain.Event
		var seq, tick uint64
		var payload string

		if err := rows.Scan(&e.MatchID, &seq, &e.Name, &tick, &payload); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		e.Seq = int64(seq)
		e.Tick = int64(tick)
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload for seq %d: %w", e.Seq, err)
			}
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}
