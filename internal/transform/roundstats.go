package transform

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/idhash"
	"cs-match-lab/internal/storage"
)

// RoundStatsComputer replays death, damage, grenade, blind and economy
// events in tick order to build one accumulator row per (round, player).
// Every roster player gets a row for every round, all-zero rows included.
type RoundStatsComputer struct {
	stats storage.RoundPlayerStatStore
}

// NewRoundStatsComputer creates a new round stats computer.
func NewRoundStatsComputer(stats storage.RoundPlayerStatStore) *RoundStatsComputer {
	return &RoundStatsComputer{stats: stats}
}

func (t *RoundStatsComputer) Name() string  { return NameRoundStats }
func (t *RoundStatsComputer) Priority() int { return 20 }

// ShouldRun declines without rounds or a roster to accumulate against.
func (t *RoundStatsComputer) ShouldRun(tc *Context) bool {
	return tc.Rounds.Len() > 0 && len(tc.Roster) > 0
}

// Transform regenerates the match's stat rows from scratch.
func (t *RoundStatsComputer) Transform(ctx context.Context, tc *Context) (int, map[string]int64, error) {
	if err := t.stats.DeleteByMatchID(ctx, tc.Match.MatchID); err != nil {
		return 0, nil, fmt.Errorf("clear previous stats: %w", err)
	}

	metrics := map[string]int64{
		"skipped_no_round":  0,
		"skipped_no_player": 0,
	}

	// One accumulator per (round, roster-player), survival defaults true.
	acc := make(map[string]map[string]*domain.RoundPlayerStat, tc.Rounds.Len())
	for _, round := range tc.Rounds.Rounds() {
		acc[round.RoundID] = make(map[string]*domain.RoundPlayerStat, len(tc.Roster))
		for _, p := range tc.Roster {
			acc[round.RoundID][p.PlayerID] = &domain.RoundPlayerStat{
				StatID:     idhash.StatID(tc.Match.MatchID, round.RoundID, p.PlayerID),
				MatchID:    tc.Match.MatchID,
				RoundID:    round.RoundID,
				PlayerID:   p.PlayerID,
				TeamNumber: p.TeamNumber,
				Survived:   true,
			}
		}
	}

	teams := tc.RosterTeams()
	firstKillSeen := make(map[string]bool)
	firstDeathSeen := make(map[string]bool)

	for _, e := range tc.Events {
		round := tc.Rounds.RoundAt(e.Tick)
		if round == nil {
			if isStatEvent(e.Name) {
				metrics["skipped_no_round"]++
			}
			continue
		}
		rows := acc[round.RoundID]

		switch e.Name {
		case domain.EventPlayerDeath:
			t.applyDeath(e, round.RoundID, rows, teams, firstKillSeen, firstDeathSeen, metrics)
		case domain.EventPlayerHurt:
			t.applyDamage(e, rows, metrics)
		case domain.EventGrenadeThrow:
			t.applyGrenade(e, rows, metrics)
		case domain.EventPlayerBlind:
			t.applyBlind(e, rows, teams, metrics)
		case domain.EventRoundEconomy:
			t.applyEconomy(e, rows, metrics)
		}
	}

	// Deterministic write order: round number, then player id.
	var out []*domain.RoundPlayerStat
	for _, round := range tc.Rounds.Rounds() {
		rows := acc[round.RoundID]
		ids := make([]string, 0, len(rows))
		for id := range rows {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, rows[id])
		}
	}

	for _, batch := range chunked(out, tc.Options.BatchSize) {
		if err := t.stats.InsertBulk(ctx, batch); err != nil {
			return 0, metrics, fmt.Errorf("insert stats: %w", err)
		}
	}

	return len(out), metrics, nil
}

// Rollback removes all stat rows written for the match.
func (t *RoundStatsComputer) Rollback(ctx context.Context, matchID string) error {
	return t.stats.DeleteByMatchID(ctx, matchID)
}

func (t *RoundStatsComputer) applyDeath(
	e *domain.Event,
	roundID string,
	rows map[string]*domain.RoundPlayerStat,
	teams map[string]int,
	firstKillSeen, firstDeathSeen map[string]bool,
	metrics map[string]int64,
) {
	victim := e.Payload.Str("victim_steamid")
	victimRow := rows[victim]
	if victimRow == nil {
		metrics["skipped_no_player"]++
		return
	}

	victimRow.Deaths++
	victimRow.Survived = false
	if !firstDeathSeen[roundID] {
		victimRow.IsFirstDeath = true
		firstDeathSeen[roundID] = true
	}

	attacker := e.Payload.Str("attacker_steamid")
	isSuicide := attacker == "" || attacker == victim
	isTeamkill := attacker != "" && !isSuicide && teams[attacker] == teams[victim]

	if attackerRow := rows[attacker]; attackerRow != nil && !isSuicide && !isTeamkill {
		attackerRow.Kills++
		if e.Payload.Bool("headshot") {
			attackerRow.HeadshotKills++
		}
		if !firstKillSeen[roundID] {
			attackerRow.IsFirstKill = true
			firstKillSeen[roundID] = true
		}
	}

	if assisterRow := rows[e.Payload.Str("assister_steamid")]; assisterRow != nil {
		assisterRow.Assists++
	}
}

func (t *RoundStatsComputer) applyDamage(e *domain.Event, rows map[string]*domain.RoundPlayerStat, metrics map[string]int64) {
	damage := int(e.Payload.Int("damage_health"))
	if damage <= 0 {
		return
	}
	attackerRow := rows[e.Payload.Str("attacker_steamid")]
	if attackerRow == nil {
		metrics["skipped_no_player"]++
		return
	}

	// Friendly-fire damage counts too, matching the upstream convention.
	attackerRow.Damage += damage
	if isUtilityWeapon(e.Payload.Str("weapon")) {
		attackerRow.UtilityDamage += damage
	}
}

func (t *RoundStatsComputer) applyGrenade(e *domain.Event, rows map[string]*domain.RoundPlayerStat, metrics map[string]int64) {
	throwerRow := rows[e.Payload.Str("thrower_steamid")]
	if throwerRow == nil {
		metrics["skipped_no_player"]++
		return
	}

	switch strings.TrimPrefix(e.Payload.Str("weapon"), "weapon_") {
	case "smokegrenade":
		throwerRow.SmokesThrown++
	case "flashbang":
		throwerRow.FlashesThrown++
	case "hegrenade":
		throwerRow.HEGrenadesThrown++
	case "molotov", "incgrenade":
		throwerRow.FiresThrown++
	case "decoy":
		throwerRow.DecoysThrown++
	}
}

func (t *RoundStatsComputer) applyBlind(e *domain.Event, rows map[string]*domain.RoundPlayerStat, teams map[string]int, metrics map[string]int64) {
	attacker := e.Payload.Str("attacker_steamid")
	attackerRow := rows[attacker]
	if attackerRow == nil {
		metrics["skipped_no_player"]++
		return
	}

	victim := e.Payload.Str("victim_steamid")
	if e.Payload.Bool("is_teammate_flash") || (victim != "" && teams[victim] == teams[attacker]) {
		attackerRow.TeammatesBlinded++
	} else {
		attackerRow.EnemiesBlinded++
	}
}

func (t *RoundStatsComputer) applyEconomy(e *domain.Event, rows map[string]*domain.RoundPlayerStat, metrics map[string]int64) {
	row := rows[e.Payload.Str("steamid")]
	if row == nil {
		metrics["skipped_no_player"]++
		return
	}
	row.EquipmentValue = int(e.Payload.Int("round_start_equip_value"))
	row.MoneySpent = int(e.Payload.Int("cash_spent_this_round"))
}

// isStatEvent reports whether the event feeds the stat accumulators; only
// these count toward the skip metrics.
func isStatEvent(name string) bool {
	switch name {
	case domain.EventPlayerDeath, domain.EventPlayerHurt, domain.EventGrenadeThrow,
		domain.EventPlayerBlind, domain.EventRoundEconomy:
		return true
	}
	return false
}

// isUtilityWeapon reports whether damage from the weapon counts as utility
// damage. Fire damage after a molotov lands is attributed to "inferno".
func isUtilityWeapon(weapon string) bool {
	switch strings.TrimPrefix(weapon, "weapon_") {
	case "hegrenade", "molotov", "incgrenade", "inferno", "flashbang", "decoy":
		return true
	}
	return false
}

var _ Transformer = (*RoundStatsComputer)(nil)
var _ Rollbacker = (*RoundStatsComputer)(nil)
