package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// MatchStore implements storage.MatchStore using PostgreSQL.
type MatchStore struct {
	pool *Pool
}

// NewMatchStore creates a new MatchStore.
func NewMatchStore(pool *Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MatchStore = (*MatchStore)(nil)

// Insert adds a new match. Returns ErrDuplicateKey if match_id exists.
func (s *MatchStore) Insert(ctx context.Context, m *domain.Match) error {
	query := `
		INSERT INTO matches (match_id, map_name, tick_rate, played_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, m.MatchID, m.MapName, m.TickRate, m.PlayedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// GetByID retrieves a match by its ID. Returns ErrNotFound if not exists.
func (s *MatchStore) GetByID(ctx context.Context, matchID string) (*domain.Match, error) {
	query := `
		SELECT match_id, map_name, tick_rate, played_at, created_at
		FROM matches
		WHERE match_id = $1
	`

	var m domain.Match
	err := s.pool.QueryRow(ctx, query, matchID).Scan(
		&m.MatchID, &m.MapName, &m.TickRate, &m.PlayedAt, &m.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get match by id: %w", err)
	}
	return &m, nil
}

// List retrieves all matches ordered by played_at DESC.
func (s *MatchStore) List(ctx context.Context) ([]*domain.Match, error) {
	query := `
		SELECT match_id, map_name, tick_rate, played_at, created_at
		FROM matches
		ORDER BY played_at DESC, match_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

func scanMatches(rows pgx.Rows) ([]*domain.Match, error) {
	var matches []*domain.Match

	for rows.Next() {
		var m domain.Match
		err := rows.Scan(&m.MatchID, &m.MapName, &m.TickRate, &m.PlayedAt, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return matches, nil
}
