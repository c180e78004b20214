package transform

import (
	"context"
	"testing"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage/memory"
)

func clutchRoster() []*domain.Player {
	return []*domain.Player{
		{MatchID: testMatchID, PlayerID: "a1", TeamNumber: domain.TeamT},
		{MatchID: testMatchID, PlayerID: "a2", TeamNumber: domain.TeamT},
		{MatchID: testMatchID, PlayerID: "b1", TeamNumber: domain.TeamCT},
		{MatchID: testMatchID, PlayerID: "b2", TeamNumber: domain.TeamCT},
		{MatchID: testMatchID, PlayerID: "b3", TeamNumber: domain.TeamCT},
	}
}

func TestDetectClutches_TriggersOnceAtFirstTransition(t *testing.T) {
	round := &domain.Round{
		RoundID: "r1", MatchID: testMatchID, Number: 1,
		StartTick: 0, EndTick: 10000, WinnerTeam: domain.TeamT,
	}
	// a2 dies leaving a1 in a 1v3, then a1 runs the table.
	kills := []*domain.Kill{
		mkKill("k1", "r1", 100, "b1", "a2", domain.TeamCT, domain.TeamT),
		mkKill("k2", "r1", 300, "a1", "b1", domain.TeamT, domain.TeamCT),
		mkKill("k3", "r1", 500, "a1", "b2", domain.TeamT, domain.TeamCT),
		mkKill("k4", "r1", 700, "a1", "b3", domain.TeamT, domain.TeamCT),
	}

	situations := DetectClutches(kills, []*domain.Round{round}, clutchRoster(), DefaultClutchMinEnemies)

	var a1Clutch *domain.ClutchSituation
	for _, s := range situations {
		if s.PlayerID == "a1" {
			if a1Clutch != nil {
				t.Fatal("a1's situation recorded more than once")
			}
			a1Clutch = s
		}
	}
	if a1Clutch == nil {
		t.Fatal("a1's clutch not detected")
	}
	if a1Clutch.EnemiesFaced != 3 || !a1Clutch.Won || a1Clutch.TriggerTick != 100 {
		t.Errorf("expected 1v3 won at tick 100, got %+v", a1Clutch)
	}

	// b3 was also left alone (after k3, facing a1), on the losing side.
	var b3Clutch *domain.ClutchSituation
	for _, s := range situations {
		if s.PlayerID == "b3" {
			b3Clutch = s
		}
	}
	if b3Clutch == nil {
		t.Fatal("b3's situation not detected")
	}
	if b3Clutch.EnemiesFaced != 1 || b3Clutch.Won {
		t.Errorf("expected 1v1 lost for b3, got %+v", b3Clutch)
	}
}

func TestDetectClutches_MinEnemiesFilter(t *testing.T) {
	round := &domain.Round{
		RoundID: "r1", MatchID: testMatchID, Number: 1,
		StartTick: 0, EndTick: 10000, WinnerTeam: domain.TeamT,
	}
	kills := []*domain.Kill{
		mkKill("k1", "r1", 100, "b1", "a2", domain.TeamCT, domain.TeamT),
		mkKill("k2", "r1", 300, "a1", "b1", domain.TeamT, domain.TeamCT),
		mkKill("k3", "r1", 500, "a1", "b2", domain.TeamT, domain.TeamCT),
	}

	situations := DetectClutches(kills, []*domain.Round{round}, clutchRoster(), 2)
	if len(situations) != 1 {
		t.Fatalf("expected only the 1v3 with minEnemies=2, got %d", len(situations))
	}
	if situations[0].PlayerID != "a1" || situations[0].EnemiesFaced != 3 {
		t.Errorf("unexpected situation: %+v", situations[0])
	}
}

func TestDetectClutches_TwoVTwoRound(t *testing.T) {
	// p1 kills p6 at tick 100 leaving p7 in a 1v2; p7 kills p1 at tick 140
	// leaving p2 in a 1v1. CT takes the round.
	round := &domain.Round{
		RoundID: "r1", MatchID: testMatchID, Number: 1,
		StartTick: 0, EndTick: 10000, WinnerTeam: domain.TeamCT,
	}
	kills := []*domain.Kill{
		mkKill("k1", "r1", 100, "p1", "p6", domain.TeamT, domain.TeamCT),
		mkKill("k2", "r1", 140, "p7", "p1", domain.TeamCT, domain.TeamT),
	}

	situations := DetectClutches(kills, []*domain.Round{round}, twoVTwoRoster(), DefaultClutchMinEnemies)
	if len(situations) != 2 {
		t.Fatalf("expected 2 situations, got %d", len(situations))
	}

	byPlayer := make(map[string]*domain.ClutchSituation)
	for _, s := range situations {
		byPlayer[s.PlayerID] = s
	}

	p7 := byPlayer["p7"]
	if p7 == nil || p7.EnemiesFaced != 2 || !p7.Won || p7.TriggerTick != 100 {
		t.Errorf("expected 1v2 won at tick 100 for p7, got %+v", p7)
	}
	// By tick 140 only one enemy is left standing, so p2's situation is a
	// 1v1, not a 1v2.
	p2 := byPlayer["p2"]
	if p2 == nil || p2.EnemiesFaced != 1 || p2.Won || p2.TriggerTick != 140 {
		t.Errorf("expected 1v1 lost at tick 140 for p2, got %+v", p2)
	}
}

func TestClutchDetector_WritesAndResetsStatRows(t *testing.T) {
	ctx := context.Background()
	killStore := memory.NewKillStore()
	statStore := memory.NewRoundPlayerStatStore()

	rounds := testRounds(t,
		&domain.Round{
			RoundID: "r1", MatchID: testMatchID, Number: 1,
			StartTick: 0, EndTick: 10000, WinnerTeam: domain.TeamCT,
		},
	)
	events := []*domain.Event{
		deathEvent(1, 100, "p1", "p6", domain.TeamT, domain.TeamCT, nil),
		deathEvent(2, 140, "p7", "p1", domain.TeamCT, domain.TeamT, nil),
	}
	roster := twoVTwoRoster()
	tc := testContext(t, events, rounds, roster)

	// Stat rows must exist before clutch fields can be merged onto them.
	stats := NewRoundStatsComputer(statStore)
	if _, _, err := stats.Transform(ctx, tc); err != nil {
		t.Fatalf("stats transform failed: %v", err)
	}
	extractor := NewKillExtractor(killStore)
	if _, _, err := extractor.Transform(ctx, tc); err != nil {
		t.Fatalf("kill extract failed: %v", err)
	}

	detector := NewClutchDetector(killStore, statStore)
	written, metrics, err := detector.Transform(ctx, tc)
	if err != nil {
		t.Fatalf("clutch transform failed: %v", err)
	}
	if written != 2 {
		t.Fatalf("expected 2 clutch rows, got %d", written)
	}
	if metrics["clutch_situations"] != 2 || metrics["clutch_wins"] != 1 {
		t.Errorf("unexpected metrics: %v", metrics)
	}

	rows, _ := statStore.GetByMatchID(ctx, testMatchID)
	p7 := statByPlayer(rows, "r1", "p7")
	if p7.ClutchVs == nil || *p7.ClutchVs != 2 || p7.ClutchWon == nil || !*p7.ClutchWon {
		t.Errorf("p7 clutch fields wrong: vs=%v won=%v", p7.ClutchVs, p7.ClutchWon)
	}
	p1 := statByPlayer(rows, "r1", "p1")
	if p1.ClutchVs != nil {
		t.Error("p1 must not carry clutch fields")
	}

	// A rerun with a stricter threshold clears the old fields.
	tc.Options.ClutchMinEnemies = 2
	if _, _, err := detector.Transform(ctx, tc); err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	rows, _ = statStore.GetByMatchID(ctx, testMatchID)
	p2 := statByPlayer(rows, "r1", "p2")
	if p2.ClutchVs != nil {
		t.Error("1v1 must be dropped at minEnemies=2")
	}
	p7 = statByPlayer(rows, "r1", "p7")
	if p7.ClutchVs == nil || *p7.ClutchVs != 2 {
		t.Error("1v2 must survive at minEnemies=2")
	}
}
