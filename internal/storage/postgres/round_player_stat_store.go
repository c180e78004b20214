package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// RoundPlayerStatStore implements storage.RoundPlayerStatStore using PostgreSQL.
type RoundPlayerStatStore struct {
	pool *Pool
}

// NewRoundPlayerStatStore creates a new RoundPlayerStatStore.
func NewRoundPlayerStatStore(pool *Pool) *RoundPlayerStatStore {
	return &RoundPlayerStatStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RoundPlayerStatStore = (*RoundPlayerStatStore)(nil)

const statColumns = `
	stat_id, match_id, round_id, player_id, team_number,
	kills, deaths, assists, damage, utility_damage, headshot_kills,
	survived, is_first_kill, is_first_death,
	equipment_value, money_spent,
	smokes_thrown, flashes_thrown, he_grenades_thrown, fires_thrown, decoys_thrown,
	enemies_blinded, teammates_blinded,
	clutch_vs, clutch_won
`

// InsertBulk adds multiple stat rows atomically.
func (s *RoundPlayerStatStore) InsertBulk(ctx context.Context, stats []*domain.RoundPlayerStat) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO round_player_stats (` + statColumns + `)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13, $14,
			$15, $16,
			$17, $18, $19, $20, $21,
			$22, $23,
			$24, $25
		)
	`

	for _, st := range stats {
		_, err := tx.Exec(ctx, query,
			st.StatID, st.MatchID, st.RoundID, st.PlayerID, st.TeamNumber,
			st.Kills, st.Deaths, st.Assists, st.Damage, st.UtilityDamage, st.HeadshotKills,
			st.Survived, st.IsFirstKill, st.IsFirstDeath,
			st.EquipmentValue, st.MoneySpent,
			st.SmokesThrown, st.FlashesThrown, st.HEGrenadesThrown, st.FiresThrown, st.DecoysThrown,
			st.EnemiesBlinded, st.TeammatesBlinded,
			st.ClutchVs, st.ClutchWon,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert stat in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMatchID retrieves all stat rows for a match, ordered by
// (round_id, player_id) ASC.
func (s *RoundPlayerStatStore) GetByMatchID(ctx context.Context, matchID string) ([]*domain.RoundPlayerStat, error) {
	query := `
		SELECT ` + statColumns + `, created_at
		FROM round_player_stats
		WHERE match_id = $1
		ORDER BY round_id ASC, player_id ASC
	`

	rows, err := s.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("get stats by match id: %w", err)
	}
	defer rows.Close()

	return scanStats(rows)
}

// DeleteByMatchID removes all stat rows for a match.
func (s *RoundPlayerStatStore) DeleteByMatchID(ctx context.Context, matchID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM round_player_stats WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("delete stats by match id: %w", err)
	}
	return nil
}

// SetClutches writes clutch outcomes onto stat rows.
func (s *RoundPlayerStatStore) SetClutches(ctx context.Context, matchID string, updates []storage.ClutchUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE round_player_stats SET clutch_vs = $3, clutch_won = $4
		WHERE match_id = $1 AND stat_id = $2
	`

	for _, u := range updates {
		tag, err := tx.Exec(ctx, query, matchID, u.StatID, u.ClutchVs, u.ClutchWon)
		if err != nil {
			return fmt.Errorf("set clutch: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ResetClutches clears all clutch fields for a match back to null.
func (s *RoundPlayerStatStore) ResetClutches(ctx context.Context, matchID string) error {
	query := `
		UPDATE round_player_stats SET clutch_vs = NULL, clutch_won = NULL
		WHERE match_id = $1
	`
	if _, err := s.pool.Exec(ctx, query, matchID); err != nil {
		return fmt.Errorf("reset clutches: %w", err)
	}
	return nil
}

func scanStats(rows pgx.Rows) ([]*domain.RoundPlayerStat, error) {
	var stats []*domain.RoundPlayerStat

	for rows.Next() {
		var st domain.RoundPlayerStat
		err := rows.Scan(
			&st.StatID, &st.MatchID, &st.RoundID, &st.PlayerID, &st.TeamNumber,
			&st.Kills, &st.Deaths, &st.Assists, &st.Damage, &st.UtilityDamage, &st.HeadshotKills,
			&st.Survived, &st.IsFirstKill, &st.IsFirstDeath,
			&st.EquipmentValue, &st.MoneySpent,
			&st.SmokesThrown, &st.FlashesThrown, &st.HEGrenadesThrown, &st.FiresThrown, &st.DecoysThrown,
			&st.EnemiesBlinded, &st.TeammatesBlinded,
			&st.ClutchVs, &st.ClutchWon,
			&st.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stat row: %w", err)
		}
		stats = append(stats, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stat rows: %w", err)
	}
	return stats, nil
}
