package transform

import (
	"context"
	"fmt"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/idhash"
	"cs-match-lab/internal/storage"
)

// ClutchDetector finds 1-vs-many situations per round and resolves their
// outcome against the round winner. Results are written onto the stat rows,
// so both the kill extractor and the round stats computer must have run.
type ClutchDetector struct {
	kills storage.KillStore
	stats storage.RoundPlayerStatStore
}

// NewClutchDetector creates a new clutch detector.
func NewClutchDetector(kills storage.KillStore, stats storage.RoundPlayerStatStore) *ClutchDetector {
	return &ClutchDetector{kills: kills, stats: stats}
}

func (t *ClutchDetector) Name() string  { return NameClutchDetector }
func (t *ClutchDetector) Priority() int { return 40 }

// ShouldRun declines without a roster or death events.
func (t *ClutchDetector) ShouldRun(tc *Context) bool {
	return len(tc.Roster) > 0 && len(domain.FilterEvents(tc.Events, domain.EventPlayerDeath)) > 0
}

// Transform nulls all clutch fields for the match and recomputes them from
// the normalized kill rows.
func (t *ClutchDetector) Transform(ctx context.Context, tc *Context) (int, map[string]int64, error) {
	if err := t.stats.ResetClutches(ctx, tc.Match.MatchID); err != nil {
		return 0, nil, fmt.Errorf("reset clutch fields: %w", err)
	}

	kills, err := t.kills.GetByMatchID(ctx, tc.Match.MatchID)
	if err != nil {
		return 0, nil, fmt.Errorf("load kills: %w", err)
	}

	situations := DetectClutches(kills, tc.Rounds.Rounds(), tc.Roster, tc.Options.ClutchMinEnemies)

	updates := make([]storage.ClutchUpdate, 0, len(situations))
	for _, s := range situations {
		updates = append(updates, storage.ClutchUpdate{
			StatID:    idhash.StatID(s.MatchID, s.RoundID, s.PlayerID),
			ClutchVs:  s.EnemiesFaced,
			ClutchWon: s.Won,
		})
	}
	if err := t.stats.SetClutches(ctx, tc.Match.MatchID, updates); err != nil {
		return 0, nil, fmt.Errorf("set clutches: %w", err)
	}

	won := int64(0)
	for _, s := range situations {
		if s.Won {
			won++
		}
	}
	metrics := map[string]int64{
		"clutch_situations": int64(len(situations)),
		"clutch_wins":       won,
	}
	return len(updates), metrics, nil
}

// Rollback nulls all clutch fields for the match.
func (t *ClutchDetector) Rollback(ctx context.Context, matchID string) error {
	return t.stats.ResetClutches(ctx, matchID)
}

// DetectClutches replays deaths per round against the roster and records at
// most one clutch situation per (round, team): the first transition that
// leaves a team with exactly one player alive facing at least minEnemies
// opponents. Later shifts of the same situation (a 1v3 becoming a 1v1) do
// not re-trigger.
func DetectClutches(kills []*domain.Kill, rounds []*domain.Round, roster []*domain.Player, minEnemies int) []*domain.ClutchSituation {
	byRound := make(map[string][]*domain.Kill)
	for _, k := range kills {
		byRound[k.RoundID] = append(byRound[k.RoundID], k)
	}

	var situations []*domain.ClutchSituation
	for _, round := range rounds {
		roundKills := byRound[round.RoundID]
		if len(roundKills) == 0 {
			continue
		}

		// Alive sets per team, rebuilt from the roster each round.
		alive := map[int]map[string]bool{
			domain.TeamT:  make(map[string]bool),
			domain.TeamCT: make(map[string]bool),
		}
		playerTeam := make(map[string]int, len(roster))
		for _, p := range roster {
			playerTeam[p.PlayerID] = p.TeamNumber
			if set, ok := alive[p.TeamNumber]; ok {
				set[p.PlayerID] = true
			}
		}
		recorded := map[int]bool{}

		for _, k := range roundKills {
			team, ok := playerTeam[k.VictimID]
			if !ok {
				continue
			}
			set := alive[team]
			if set == nil || !set[k.VictimID] {
				continue
			}
			delete(set, k.VictimID)

			// Only the shrinking team can newly reach exactly one alive.
			if len(set) != 1 || recorded[team] {
				continue
			}
			enemyTeam := otherTeam(team)
			enemies := len(alive[enemyTeam])
			if enemies < minEnemies {
				continue
			}

			var survivor string
			for id := range set {
				survivor = id
			}
			situations = append(situations, &domain.ClutchSituation{
				MatchID:      k.MatchID,
				RoundID:      round.RoundID,
				PlayerID:     survivor,
				TeamNumber:   team,
				EnemiesFaced: enemies,
				Won:          round.WinnerTeam == team,
				TriggerTick:  k.Tick,
			})
			recorded[team] = true
		}
	}
	return situations
}

func otherTeam(team int) int {
	if team == domain.TeamT {
		return domain.TeamCT
	}
	return domain.TeamT
}

var _ Transformer = (*ClutchDetector)(nil)
var _ Rollbacker = (*ClutchDetector)(nil)
