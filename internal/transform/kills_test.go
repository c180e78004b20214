package transform

import (
	"context"
	"testing"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage/memory"
)

func TestKillExtractor_Flags(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKillStore()

	rounds := testRounds(t,
		&domain.Round{RoundID: "r1", MatchID: testMatchID, Number: 1, StartTick: 0, EndTick: 10000},
	)
	events := []*domain.Event{
		deathEvent(1, 100, "p1", "p6", domain.TeamT, domain.TeamCT, domain.Payload{
			"weapon":   "ak47",
			"headshot": true,
		}),
		// teamkill
		deathEvent(2, 200, "p1", "p2", domain.TeamT, domain.TeamT, nil),
		// suicide: no attacker
		deathEvent(3, 300, "", "p7", 0, domain.TeamCT, nil),
	}

	tr := NewKillExtractor(store)
	tc := testContext(t, events, rounds, twoVTwoRoster())
	if !tr.ShouldRun(tc) {
		t.Fatal("ShouldRun should accept death events")
	}

	written, _, err := tr.Transform(ctx, tc)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if written != 3 {
		t.Fatalf("expected 3 kills written, got %d", written)
	}

	kills, _ := store.GetByMatchID(ctx, testMatchID)

	first := kills[0]
	if !first.IsFirstKillOfRound {
		t.Error("earliest kill must carry the first-kill flag")
	}
	if first.Attacker() != "p1" || first.VictimID != "p6" {
		t.Errorf("unexpected attribution: %s -> %s", first.Attacker(), first.VictimID)
	}
	if !first.Headshot || first.Weapon != "ak47" {
		t.Error("weapon details not carried over")
	}

	teamkill := kills[1]
	if !teamkill.IsTeamkill || teamkill.IsSuicide {
		t.Error("same-team kill must be a teamkill, not a suicide")
	}
	if teamkill.IsFirstKillOfRound {
		t.Error("only one first-kill flag per round")
	}

	suicide := kills[2]
	if !suicide.IsSuicide {
		t.Error("attacker-less death must be a suicide")
	}
	if suicide.AttackerID != nil {
		t.Error("suicide must have no attacker id")
	}
}

func TestKillExtractor_SkipsAreCountedNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKillStore()

	rounds := testRounds(t,
		&domain.Round{RoundID: "r1", MatchID: testMatchID, Number: 1, StartTick: 1000, EndTick: 5000},
	)
	events := []*domain.Event{
		// outside any round
		deathEvent(1, 100, "p1", "p6", domain.TeamT, domain.TeamCT, nil),
		// no victim id
		{MatchID: testMatchID, Seq: 2, Name: domain.EventPlayerDeath, Tick: 2000, Payload: domain.Payload{"attacker_steamid": "p1"}},
		// valid
		deathEvent(3, 3000, "p1", "p6", domain.TeamT, domain.TeamCT, nil),
	}

	tr := NewKillExtractor(store)
	written, metrics, err := tr.Transform(ctx, testContext(t, events, rounds, twoVTwoRoster()))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 kill written, got %d", written)
	}
	if metrics["skipped_no_round"] != 1 {
		t.Errorf("skipped_no_round = %d, want 1", metrics["skipped_no_round"])
	}
	if metrics["skipped_no_victim"] != 1 {
		t.Errorf("skipped_no_victim = %d, want 1", metrics["skipped_no_victim"])
	}
}

func TestKillExtractor_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKillStore()

	rounds := testRounds(t,
		&domain.Round{RoundID: "r1", MatchID: testMatchID, Number: 1, StartTick: 0, EndTick: 10000},
	)
	events := []*domain.Event{
		deathEvent(1, 100, "p1", "p6", domain.TeamT, domain.TeamCT, nil),
		deathEvent(2, 900, "p6", "p1", domain.TeamCT, domain.TeamT, nil),
	}

	tr := NewKillExtractor(store)
	tc := testContext(t, events, rounds, twoVTwoRoster())

	if _, _, err := tr.Transform(ctx, tc); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	firstRun, _ := store.GetByMatchID(ctx, testMatchID)

	if _, _, err := tr.Transform(ctx, tc); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	secondRun, _ := store.GetByMatchID(ctx, testMatchID)

	if len(firstRun) != len(secondRun) {
		t.Fatalf("row count changed across reruns: %d vs %d", len(firstRun), len(secondRun))
	}
	for i := range firstRun {
		if firstRun[i].KillID != secondRun[i].KillID {
			t.Errorf("kill %d id changed across reruns: %s vs %s", i, firstRun[i].KillID, secondRun[i].KillID)
		}
		if firstRun[i].IsFirstKillOfRound != secondRun[i].IsFirstKillOfRound {
			t.Errorf("kill %d first-kill flag changed across reruns", i)
		}
	}
}

func TestKillExtractor_ShouldRunDeclinesWithoutDeaths(t *testing.T) {
	store := memory.NewKillStore()
	rounds := testRounds(t,
		&domain.Round{RoundID: "r1", MatchID: testMatchID, Number: 1, StartTick: 0, EndTick: 10000},
	)
	events := []*domain.Event{
		{MatchID: testMatchID, Seq: 1, Name: domain.EventRoundStart, Tick: 0},
	}

	tr := NewKillExtractor(store)
	if tr.ShouldRun(testContext(t, events, rounds, twoVTwoRoster())) {
		t.Error("ShouldRun must decline without death events")
	}
}
