package clickhouse

import (
	"context"
	"fmt"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// ReplayEventStore implements storage.ReplayEventStore using ClickHouse.
type ReplayEventStore struct {
	conn *Conn
}

// NewReplayEventStore creates a new ReplayEventStore.
func NewReplayEventStore(conn *Conn) *ReplayEventStore {
	return &ReplayEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ReplayEventStore = (*ReplayEventStore)(nil)

// InsertBulk appends replay events for a match.
func (s *ReplayEventStore) InsertBulk(ctx context.Context, events []*domain.ReplayEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO replay_events (
			event_id, match_id, round_id, tick, kind, actor_id, target_id, x, y, z
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.EventID, e.MatchID, e.RoundID, uint64(e.Tick),
			e.Kind, e.ActorID, e.TargetID,
			e.X, e.Y, e.Z,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByMatchID retrieves all replay events for a match, ordered by tick ASC.
func (s *ReplayEventStore) GetByMatchID(ctx context.Context, matchID string) ([]*domain.ReplayEvent, error) {
	query := `
		SELECT event_id, match_id, round_id, tick, kind, actor_id, target_id, x, y, z
		FROM replay_events
		WHERE match_id = ?
		ORDER BY tick ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("query replay events by match id: %w", err)
	}
	defer rows.Close()

	return scanReplayEvents(rows)
}

// DeleteByMatchID removes all replay events for a match.
func (s *ReplayEventStore) DeleteByMatchID(ctx context.Context, matchID string) error {
	err := s.conn.Exec(ctx, `DELETE FROM replay_events WHERE match_id = ?`, matchID)
	if err != nil {
		return fmt.Errorf("delete replay events by match id: %w", err)
	}
	return nil
}

func scanReplayEvents(rows chRows) ([]*domain.ReplayEvent, error) {
	var events []*domain.ReplayEvent

	for rows.Next() {
		var e domain.ReplayEvent
		var tick uint64

		err := rows.Scan(
			&e.EventID, &e.MatchID, &e.RoundID, &tick,
			&e.Kind, &e.ActorID, &e.TargetID,
			&e.X, &e.Y, &e.Z,
		)
		if err != nil {
			return nil, fmt.Errorf("scan replay event row: %w", err)
		}

		e.Tick = int64(tick)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replay event rows: %w", err)
	}
	return events, nil
}
