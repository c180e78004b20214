package transform

import (
	"context"
	"fmt"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/idhash"
	"cs-match-lab/internal/storage"
)

// KillExtractor converts raw player_death events into normalized Kill rows.
// Trade fields are left false/null for the trade detector to fill.
type KillExtractor struct {
	kills storage.KillStore
}

// NewKillExtractor creates a new kill extractor.
func NewKillExtractor(kills storage.KillStore) *KillExtractor {
	return &KillExtractor{kills: kills}
}

func (t *KillExtractor) Name() string  { return NameKillExtractor }
func (t *KillExtractor) Priority() int { return 10 }

// ShouldRun declines when the match has no death events at all.
func (t *KillExtractor) ShouldRun(tc *Context) bool {
	return len(domain.FilterEvents(tc.Events, domain.EventPlayerDeath)) > 0
}

// Transform regenerates the match's kill rows from scratch. Events that
// cannot be mapped to a round or lack a victim are counted and skipped.
func (t *KillExtractor) Transform(ctx context.Context, tc *Context) (int, map[string]int64, error) {
	if err := t.kills.DeleteByMatchID(ctx, tc.Match.MatchID); err != nil {
		return 0, nil, fmt.Errorf("clear previous kills: %w", err)
	}

	metrics := map[string]int64{
		"skipped_no_round":  0,
		"skipped_no_victim": 0,
	}

	deaths := domain.FilterEvents(tc.Events, domain.EventPlayerDeath)
	firstKillSeen := make(map[string]bool)

	var out []*domain.Kill
	for _, e := range deaths {
		victim := e.Payload.Str("victim_steamid")
		if victim == "" {
			metrics["skipped_no_victim"]++
			continue
		}
		round := tc.Rounds.RoundAt(e.Tick)
		if round == nil {
			metrics["skipped_no_round"]++
			continue
		}

		attacker := e.Payload.Str("attacker_steamid")
		isSuicide := attacker == "" || attacker == victim
		attackerTeam := int(e.Payload.Int("attacker_team"))
		victimTeam := int(e.Payload.Int("victim_team"))

		kill := &domain.Kill{
			KillID:       idhash.KillID(tc.Match.MatchID, round.RoundID, e.Tick, victim, attacker),
			MatchID:      tc.Match.MatchID,
			RoundID:      round.RoundID,
			Tick:         e.Tick,
			AttackerTeam: attackerTeam,
			VictimID:     victim,
			VictimTeam:   victimTeam,

			Weapon:        e.Payload.Str("weapon"),
			Headshot:      e.Payload.Bool("headshot"),
			ThroughSmoke:  e.Payload.Bool("thrusmoke"),
			BlindAttacker: e.Payload.Bool("attackerblind"),
			NoScope:       e.Payload.Bool("noscope"),
			Penetrated:    int(e.Payload.Int("penetrated")),

			AttackerX: e.Payload.Float("attacker_X"),
			AttackerY: e.Payload.Float("attacker_Y"),
			AttackerZ: e.Payload.Float("attacker_Z"),
			VictimX:   e.Payload.Float("victim_X"),
			VictimY:   e.Payload.Float("victim_Y"),
			VictimZ:   e.Payload.Float("victim_Z"),

			IsSuicide:  isSuicide,
			IsTeamkill: attacker != "" && !isSuicide && attackerTeam == victimTeam,
		}
		if attacker != "" {
			kill.AttackerID = &attacker
		}
		if assister := e.Payload.Str("assister_steamid"); assister != "" {
			kill.AssisterID = &assister
		}

		// First mapped kill of the round, suicides and teamkills included.
		if !firstKillSeen[round.RoundID] {
			kill.IsFirstKillOfRound = true
			firstKillSeen[round.RoundID] = true
		}

		out = append(out, kill)
	}

	for _, batch := range chunked(out, tc.Options.BatchSize) {
		if err := t.kills.InsertBulk(ctx, batch); err != nil {
			return 0, metrics, fmt.Errorf("insert kills: %w", err)
		}
	}

	return len(out), metrics, nil
}

// Rollback removes all kills written for the match.
func (t *KillExtractor) Rollback(ctx context.Context, matchID string) error {
	return t.kills.DeleteByMatchID(ctx, matchID)
}

var _ Transformer = (*KillExtractor)(nil)
var _ Rollbacker = (*KillExtractor)(nil)
