package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// RoundStore implements storage.RoundStore using PostgreSQL.
type RoundStore struct {
	pool *Pool
}

// NewRoundStore creates a new RoundStore.
func NewRoundStore(pool *Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RoundStore = (*RoundStore)(nil)

// InsertBulk adds multiple rounds atomically. Fails entire batch on any duplicate.
func (s *RoundStore) InsertBulk(ctx context.Context, rounds []*domain.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO rounds (
			round_id, match_id, number, start_tick, end_tick, winner_team, win_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, r := range rounds {
		_, err := tx.Exec(ctx, query,
			r.RoundID, r.MatchID, r.Number,
			r.StartTick, r.EndTick, r.WinnerTeam, r.WinReason,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert round in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMatchID retrieves all rounds for a match, ordered by number ASC.
func (s *RoundStore) GetByMatchID(ctx context.Context, matchID string) ([]*domain.Round, error) {
	query := `
		SELECT round_id, match_id, number, start_tick, end_tick, winner_team, win_reason, created_at
		FROM rounds
		WHERE match_id = $1
		ORDER BY number ASC
	`

	rows, err := s.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("get rounds by match id: %w", err)
	}
	defer rows.Close()

	return scanRounds(rows)
}

// DeleteByMatchID removes all rounds for a match.
func (s *RoundStore) DeleteByMatchID(ctx context.Context, matchID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rounds WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("delete rounds by match id: %w", err)
	}
	return nil
}

func scanRounds(rows pgx.Rows) ([]*domain.Round, error) {
	var rounds []*domain.Round

	for rows.Next() {
		var r domain.Round
		err := rows.Scan(
			&r.RoundID, &r.MatchID, &r.Number,
			&r.StartTick, &r.EndTick, &r.WinnerTeam, &r.WinReason, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan round row: %w", err)
		}
		rounds = append(rounds, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round rows: %w", err)
	}
	return rounds, nil
}
