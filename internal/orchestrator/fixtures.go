package orchestrator

import (
	"context"
	"fmt"
	"time"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/idhash"
)

// FixtureMatchID identifies the synthetic match seeded by LoadFixtures.
const FixtureMatchID = "fixture-inferno-001"

// LoadFixtures seeds the stores with a small synthetic match: two rounds,
// four players, enough raw events to drive every transformer. Used by the
// fixture pipeline binary and end to end tests.
func LoadFixtures(ctx context.Context, s Stores) error {
	match := &domain.Match{
		MatchID:  FixtureMatchID,
		MapName:  "de_inferno",
		TickRate: domain.DefaultTickRate,
		PlayedAt: time.Date(2025, 5, 20, 19, 30, 0, 0, time.UTC).UnixMilli(),
	}
	if err := s.Matches.Insert(ctx, match); err != nil {
		return fmt.Errorf("seed match: %w", err)
	}

	rounds := []*domain.Round{
		{RoundID: idhash.RoundID(FixtureMatchID, 1), MatchID: FixtureMatchID, Number: 1,
			StartTick: 0, EndTick: 7000, WinnerTeam: domain.TeamT, WinReason: domain.WinReasonTWin},
		{RoundID: idhash.RoundID(FixtureMatchID, 2), MatchID: FixtureMatchID, Number: 2,
			StartTick: 7001, EndTick: 15000, WinnerTeam: domain.TeamCT, WinReason: domain.WinReasonBombDefused},
	}
	if err := s.Rounds.InsertBulk(ctx, rounds); err != nil {
		return fmt.Errorf("seed rounds: %w", err)
	}

	roster := []*domain.Player{
		{MatchID: FixtureMatchID, PlayerID: "76561198000000001", DisplayName: "ember", TeamNumber: domain.TeamT},
		{MatchID: FixtureMatchID, PlayerID: "76561198000000002", DisplayName: "slate", TeamNumber: domain.TeamT},
		{MatchID: FixtureMatchID, PlayerID: "76561198000000003", DisplayName: "frost", TeamNumber: domain.TeamCT},
		{MatchID: FixtureMatchID, PlayerID: "76561198000000004", DisplayName: "quill", TeamNumber: domain.TeamCT},
	}
	if err := s.Players.InsertBulk(ctx, roster); err != nil {
		return fmt.Errorf("seed roster: %w", err)
	}

	if err := s.Events.InsertBulk(ctx, fixtureEvents()); err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	return nil
}

// fixtureEvents builds the raw event stream. Round 1 is a T win with a
// trade and a 1v2 clutch by ember; round 2 is a CT retake ending in a
// defuse.
func fixtureEvents() []*domain.Event {
	var (
		emberT  = "76561198000000001"
		slateT  = "76561198000000002"
		frostCT = "76561198000000003"
		quillCT = "76561198000000004"
	)

	events := []*domain.Event{
		// Round 1 economy snapshots (pistol round values).
		economy(100, emberT, 850, 650),
		economy(100, slateT, 1000, 800),
		economy(100, frostCT, 850, 650),
		economy(100, quillCT, 650, 500),

		// Round 1: frost opens on slate, ember trades frost, then wins
		// the 1v2 against quill.
		hurt(980, frostCT, slateT, "usp_silencer", 72),
		death(1000, frostCT, slateT, "usp_silencer", true),
		death(1120, emberT, frostCT, "glock", false),
		grenade(1800, emberT, "weapon_flashbang"),
		blind(1830, emberT, quillCT, 1.4),
		hurt(2040, emberT, quillCT, "glock", 54),
		death(2100, emberT, quillCT, "glock", true),
		bomb(2500, domain.EventBombPlanted, "planter_steamid", emberT),

		// Round 2 economy snapshots (full buys vs a force).
		economy(7100, emberT, 5200, 4100),
		economy(7100, slateT, 5700, 4700),
		economy(7100, frostCT, 2400, 1900),
		economy(7100, quillCT, 2900, 2300),

		// Round 2: utility damage, a CT pick and a defuse.
		grenade(7900, slateT, "weapon_hegrenade"),
		hurt(7960, slateT, frostCT, "hegrenade", 38),
		bomb(8800, domain.EventBombPlanted, "planter_steamid", slateT),
		death(9400, quillCT, slateT, "ak47", false),
		death(9900, quillCT, emberT, "ak47", true),
		bomb(10400, domain.EventBombDefused, "defuser_steamid", quillCT),
	}

	for i, e := range events {
		e.MatchID = FixtureMatchID
		e.Seq = int64(i)
	}
	domain.SortEvents(events)
	return events
}

func death(tick int64, attacker, victim, weapon string, headshot bool) *domain.Event {
	return &domain.Event{Name: domain.EventPlayerDeath, Tick: tick, Payload: domain.Payload{
		"attacker_steamid": attacker,
		"victim_steamid":   victim,
		"weapon":           weapon,
		"headshot":         headshot,
	}}
}

func hurt(tick int64, attacker, victim, weapon string, damage int) *domain.Event {
	return &domain.Event{Name: domain.EventPlayerHurt, Tick: tick, Payload: domain.Payload{
		"attacker_steamid": attacker,
		"victim_steamid":   victim,
		"weapon":           weapon,
		"damage_health":    float64(damage),
	}}
}

func grenade(tick int64, thrower, weapon string) *domain.Event {
	return &domain.Event{Name: domain.EventGrenadeThrow, Tick: tick, Payload: domain.Payload{
		"thrower_steamid": thrower,
		"weapon":          weapon,
	}}
}

func blind(tick int64, attacker, victim string, duration float64) *domain.Event {
	return &domain.Event{Name: domain.EventPlayerBlind, Tick: tick, Payload: domain.Payload{
		"attacker_steamid": attacker,
		"victim_steamid":   victim,
		"blind_duration":   duration,
	}}
}

func economy(tick int64, player string, equip, spent int) *domain.Event {
	return &domain.Event{Name: domain.EventRoundEconomy, Tick: tick, Payload: domain.Payload{
		"steamid":                 player,
		"round_start_equip_value": float64(equip),
		"cash_spent_this_round":   float64(spent),
	}}
}

func bomb(tick int64, name, actorKey, actor string) *domain.Event {
	return &domain.Event{Name: name, Tick: tick, Payload: domain.Payload{actorKey: actor}}
}
