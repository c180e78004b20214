package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// PlayerStore implements storage.PlayerStore using PostgreSQL.
type PlayerStore struct {
	pool *Pool
}

// NewPlayerStore creates a new PlayerStore.
func NewPlayerStore(pool *Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlayerStore = (*PlayerStore)(nil)

// InsertBulk adds multiple roster entries atomically.
func (s *PlayerStore) InsertBulk(ctx context.Context, players []*domain.Player) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO players (match_id, player_id, display_name, team_number)
		VALUES ($1, $2, $3, $4)
	`

	for _, p := range players {
		_, err := tx.Exec(ctx, query, p.MatchID, p.PlayerID, p.DisplayName, p.TeamNumber)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert player in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMatchID retrieves the roster for a match, ordered by team then id.
func (s *PlayerStore) GetByMatchID(ctx context.Context, matchID string) ([]*domain.Player, error) {
	query := `
		SELECT match_id, player_id, display_name, team_number, created_at
		FROM players
		WHERE match_id = $1
		ORDER BY team_number ASC, player_id ASC
	`

	rows, err := s.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("get players by match id: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// DeleteByMatchID removes the roster for a match.
func (s *PlayerStore) DeleteByMatchID(ctx context.Context, matchID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM players WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("delete players by match id: %w", err)
	}
	return nil
}

func scanPlayers(rows pgx.Rows) ([]*domain.Player, error) {
	var players []*domain.Player

	for rows.Next() {
		var p domain.Player
		err := rows.Scan(&p.MatchID, &p.PlayerID, &p.DisplayName, &p.TeamNumber, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		players = append(players, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player rows: %w", err)
	}
	return players, nil
}
