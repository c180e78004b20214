package postgres

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// PlayerMetricsStore implements storage.PlayerMetricsStore using PostgreSQL.
// The nested metric structs are stored as one JSONB document per row so the
// schema does not chase every formula change.
type PlayerMetricsStore struct {
	pool *Pool
}

// NewPlayerMetricsStore creates a new PlayerMetricsStore.
func NewPlayerMetricsStore(pool *Pool) *PlayerMetricsStore {
	return &PlayerMetricsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlayerMetricsStore = (*PlayerMetricsStore)(nil)

// InsertBulk stores computed metrics for a match.
func (s *PlayerMetricsStore) InsertBulk(ctx context.Context, metrics []*domain.PlayerMatchMetrics) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO player_metrics (match_id, player_id, metrics, computed_at)
		VALUES ($1, $2, $3, $4)
	`

	for _, m := range metrics {
		doc, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal metrics for %s: %w", m.PlayerID, err)
		}
		_, err = tx.Exec(ctx, query, m.MatchID, m.PlayerID, doc, m.ComputedAt)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert metrics in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMatchID retrieves cached metrics for a match, ordered by player_id.
func (s *PlayerMetricsStore) GetByMatchID(ctx context.Context, matchID string) ([]*domain.PlayerMatchMetrics, error) {
	query := `
		SELECT metrics
		FROM player_metrics
		WHERE match_id = $1
		ORDER BY player_id ASC
	`

	rows, err := s.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("get metrics by match id: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// DeleteByMatchID invalidates cached metrics for a match.
func (s *PlayerMetricsStore) DeleteByMatchID(ctx context.Context, matchID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM player_metrics WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("delete metrics by match id: %w", err)
	}
	return nil
}

func scanMetrics(rows pgx.Rows) ([]*domain.PlayerMatchMetrics, error) {
	result := make([]*domain.PlayerMatchMetrics, 0)

	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan metrics row: %w", err)
		}
		var m domain.PlayerMatchMetrics
		if err := json.Unmarshal(doc, &m); err != nil {
			return nil, fmt.Errorf("unmarshal metrics document: %w", err)
		}
		result = append(result, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics rows: %w", err)
	}
	return result, nil
}
