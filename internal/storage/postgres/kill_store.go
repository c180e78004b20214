package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// KillStore implements storage.KillStore using PostgreSQL.
type KillStore struct {
	pool *Pool
}

// NewKillStore creates a new KillStore.
func NewKillStore(pool *Pool) *KillStore {
	return &KillStore{pool: pool}
}

// Compile-time interface check.
var _ storage.KillStore = (*KillStore)(nil)

const killColumns = `
	kill_id, match_id, round_id, tick,
	attacker_id, attacker_team, victim_id, victim_team, assister_id,
	weapon, headshot, through_smoke, blind_attacker, no_scope, penetrated,
	attacker_x, attacker_y, attacker_z, victim_x, victim_y, victim_z,
	is_suicide, is_teamkill, is_first_kill_of_round,
	is_trade_kill, is_trade_death, traded_within_ticks
`

// InsertBulk adds multiple kills atomically. Fails entire batch on any duplicate.
func (s *KillStore) InsertBulk(ctx context.Context, kills []*domain.Kill) error {
	if len(kills) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO kills (` + killColumns + `)
		VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21,
			$22, $23, $24,
			$25, $26, $27
		)
	`

	for _, k := range kills {
		_, err := tx.Exec(ctx, query,
			k.KillID, k.MatchID, k.RoundID, k.Tick,
			k.AttackerID, k.AttackerTeam, k.VictimID, k.VictimTeam, k.AssisterID,
			k.Weapon, k.Headshot, k.ThroughSmoke, k.BlindAttacker, k.NoScope, k.Penetrated,
			k.AttackerX, k.AttackerY, k.AttackerZ, k.VictimX, k.VictimY, k.VictimZ,
			k.IsSuicide, k.IsTeamkill, k.IsFirstKillOfRound,
			k.IsTradeKill, k.IsTradeDeath, k.TradedWithinTicks,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert kill in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMatchID retrieves all kills for a match, ordered by (tick, kill_id) ASC.
func (s *KillStore) GetByMatchID(ctx context.Context, matchID string) ([]*domain.Kill, error) {
	query := `
		SELECT ` + killColumns + `, created_at
		FROM kills
		WHERE match_id = $1
		ORDER BY tick ASC, kill_id ASC
	`

	rows, err := s.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("get kills by match id: %w", err)
	}
	defer rows.Close()

	return scanKills(rows)
}

// DeleteByMatchID removes all kills for a match.
func (s *KillStore) DeleteByMatchID(ctx context.Context, matchID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kills WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("delete kills by match id: %w", err)
	}
	return nil
}

// MarkTrades writes trade flags for the given kills. Both sides of each
// trade are updated in one transaction.
func (s *KillStore) MarkTrades(ctx context.Context, matchID string, trades []*domain.TradeInfo) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	markKill := `
		UPDATE kills SET is_trade_kill = TRUE, traded_within_ticks = $3
		WHERE match_id = $1 AND kill_id = $2
	`
	markDeath := `
		UPDATE kills SET is_trade_death = TRUE
		WHERE match_id = $1 AND kill_id = $2
	`

	for _, t := range trades {
		tag, err := tx.Exec(ctx, markKill, matchID, t.KillID, t.TradedWithinTicks)
		if err != nil {
			return fmt.Errorf("mark trade kill: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}

		tag, err = tx.Exec(ctx, markDeath, matchID, t.AvengedKillID)
		if err != nil {
			return fmt.Errorf("mark trade death: %w", err)
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

// ResetTrades clears all trade flags for a match back to false/null.
func (s *KillStore) ResetTrades(ctx context.Context, matchID string) error {
	query := `
		UPDATE kills
		SET is_trade_kill = FALSE, is_trade_death = FALSE, traded_within_ticks = NULL
		WHERE match_id = $1
	`
	if _, err := s.pool.Exec(ctx, query, matchID); err != nil {
		return fmt.Errorf("reset trades: %w", err)
	}
	return nil
}

func scanKills(rows pgx.Rows) ([]*domain.Kill, error) {
	var kills []*domain.Kill

	for rows.Next() {
		var k domain.Kill
		err := rows.Scan(
			&k.KillID, &k.MatchID, &k.RoundID, &k.Tick,
			&k.AttackerID, &k.AttackerTeam, &k.VictimID, &k.VictimTeam, &k.AssisterID,
			&k.Weapon, &k.Headshot, &k.ThroughSmoke, &k.BlindAttacker, &k.NoScope, &k.Penetrated,
			&k.AttackerX, &k.AttackerY, &k.AttackerZ, &k.VictimX, &k.VictimY, &k.VictimZ,
			&k.IsSuicide, &k.IsTeamkill, &k.IsFirstKillOfRound,
			&k.IsTradeKill, &k.IsTradeDeath, &k.TradedWithinTicks,
			&k.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan kill row: %w", err)
		}
		kills = append(kills, &k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kill rows: %w", err)
	}
	return kills, nil
}
