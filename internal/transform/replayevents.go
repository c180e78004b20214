package transform

import (
	"context"
	"fmt"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/idhash"
	"cs-match-lab/internal/storage"
)

// ReplayEventGenerator maps kills and bomb events into lightweight records
// for the 2D replay timeline.
type ReplayEventGenerator struct {
	replay storage.ReplayEventStore
}

// NewReplayEventGenerator creates a new replay event generator.
func NewReplayEventGenerator(replay storage.ReplayEventStore) *ReplayEventGenerator {
	return &ReplayEventGenerator{replay: replay}
}

func (t *ReplayEventGenerator) Name() string  { return NameReplayGenerator }
func (t *ReplayEventGenerator) Priority() int { return 50 }

// ShouldRun declines when no mappable events are present.
func (t *ReplayEventGenerator) ShouldRun(tc *Context) bool {
	return len(domain.FilterEvents(tc.Events,
		domain.EventPlayerDeath,
		domain.EventBombPlanted,
		domain.EventBombDefused,
		domain.EventBombExploded,
	)) > 0
}

// Transform regenerates the match's replay events from scratch.
func (t *ReplayEventGenerator) Transform(ctx context.Context, tc *Context) (int, map[string]int64, error) {
	if err := t.replay.DeleteByMatchID(ctx, tc.Match.MatchID); err != nil {
		return 0, nil, fmt.Errorf("clear previous replay events: %w", err)
	}

	metrics := map[string]int64{"skipped_no_round": 0}

	var out []*domain.ReplayEvent
	for _, e := range tc.Events {
		var kind, actor, target string
		var x, y, z float64

		switch e.Name {
		case domain.EventPlayerDeath:
			kind = domain.ReplayKindKill
			actor = e.Payload.Str("attacker_steamid")
			target = e.Payload.Str("victim_steamid")
			x, y, z = e.Payload.Float("victim_X"), e.Payload.Float("victim_Y"), e.Payload.Float("victim_Z")
		case domain.EventBombPlanted:
			kind = domain.ReplayKindBombPlant
			actor = e.Payload.Str("planter_steamid")
			x, y, z = e.Payload.Float("X"), e.Payload.Float("Y"), e.Payload.Float("Z")
		case domain.EventBombDefused:
			kind = domain.ReplayKindBombDefuse
			actor = e.Payload.Str("defuser_steamid")
			x, y, z = e.Payload.Float("X"), e.Payload.Float("Y"), e.Payload.Float("Z")
		case domain.EventBombExploded:
			kind = domain.ReplayKindBombExplode
			actor = e.Payload.Str("planter_steamid")
			x, y, z = e.Payload.Float("X"), e.Payload.Float("Y"), e.Payload.Float("Z")
		default:
			continue
		}

		round := tc.Rounds.RoundAt(e.Tick)
		if round == nil {
			metrics["skipped_no_round"]++
			continue
		}

		out = append(out, &domain.ReplayEvent{
			EventID:  idhash.ReplayEventID(tc.Match.MatchID, kind, e.Tick, actor, target),
			MatchID:  tc.Match.MatchID,
			RoundID:  round.RoundID,
			Tick:     e.Tick,
			Kind:     kind,
			ActorID:  actor,
			TargetID: target,
			X:        x,
			Y:        y,
			Z:        z,
		})
	}

	for _, batch := range chunked(out, tc.Options.BatchSize) {
		if err := t.replay.InsertBulk(ctx, batch); err != nil {
			return 0, metrics, fmt.Errorf("insert replay events: %w", err)
		}
	}

	return len(out), metrics, nil
}

// Rollback removes all replay events written for the match.
func (t *ReplayEventGenerator) Rollback(ctx context.Context, matchID string) error {
	return t.replay.DeleteByMatchID(ctx, matchID)
}

var _ Transformer = (*ReplayEventGenerator)(nil)
var _ Rollbacker = (*ReplayEventGenerator)(nil)
