package transform

import (
	"testing"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/lookup"
)

const testMatchID = "match-1"

// twoVTwoRoster is the minimal roster used across transformer tests:
// p1, p2 on T; p6, p7 on CT.
func twoVTwoRoster() []*domain.Player {
	return []*domain.Player{
		{MatchID: testMatchID, PlayerID: "p1", DisplayName: "alpha", TeamNumber: domain.TeamT},
		{MatchID: testMatchID, PlayerID: "p2", DisplayName: "bravo", TeamNumber: domain.TeamT},
		{MatchID: testMatchID, PlayerID: "p6", DisplayName: "xray", TeamNumber: domain.TeamCT},
		{MatchID: testMatchID, PlayerID: "p7", DisplayName: "yankee", TeamNumber: domain.TeamCT},
	}
}

func testRounds(t *testing.T, rounds ...*domain.Round) *lookup.RoundIndex {
	t.Helper()
	idx, err := lookup.NewRoundIndex(rounds)
	if err != nil {
		t.Fatalf("build round index: %v", err)
	}
	return idx
}

func testContext(t *testing.T, events []*domain.Event, rounds *lookup.RoundIndex, roster []*domain.Player) *Context {
	t.Helper()
	match := &domain.Match{MatchID: testMatchID, MapName: "de_mirage", TickRate: 64}
	return NewContext(match, events, rounds, roster, DefaultOptions())
}

// deathEvent builds a player_death payload with the fields the
// transformers read.
func deathEvent(seq, tick int64, attacker, victim string, attackerTeam, victimTeam int, extra domain.Payload) *domain.Event {
	payload := domain.Payload{
		"victim_steamid": victim,
		"victim_team":    float64(victimTeam),
	}
	if attacker != "" {
		payload["attacker_steamid"] = attacker
		payload["attacker_team"] = float64(attackerTeam)
	}
	for k, v := range extra {
		payload[k] = v
	}
	return &domain.Event{
		MatchID: testMatchID,
		Seq:     seq,
		Name:    domain.EventPlayerDeath,
		Tick:    tick,
		Payload: payload,
	}
}

func hurtEvent(seq, tick int64, attacker, victim, weapon string, damage int) *domain.Event {
	return &domain.Event{
		MatchID: testMatchID,
		Seq:     seq,
		Name:    domain.EventPlayerHurt,
		Tick:    tick,
		Payload: domain.Payload{
			"attacker_steamid": attacker,
			"victim_steamid":   victim,
			"weapon":           weapon,
			"damage_health":    float64(damage),
		},
	}
}
