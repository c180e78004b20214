package transform

import (
	"context"
	"testing"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage/memory"
)

func mkKill(id, roundID string, tick int64, attacker, victim string, attackerTeam, victimTeam int) *domain.Kill {
	k := &domain.Kill{
		KillID:       id,
		MatchID:      testMatchID,
		RoundID:      roundID,
		Tick:         tick,
		VictimID:     victim,
		VictimTeam:   victimTeam,
		AttackerTeam: attackerTeam,
		Weapon:       "ak47",
	}
	if attacker != "" {
		k.AttackerID = &attacker
	} else {
		k.IsSuicide = true
		k.AttackerTeam = domain.TeamUnassigned
	}
	return k
}

func TestDetectTrades_WindowBoundary(t *testing.T) {
	// p6 kills p1; p2 avenges 200 ticks later. Inside the 320 tick window.
	kills := []*domain.Kill{
		mkKill("k1", "r1", 1000, "p6", "p1", domain.TeamCT, domain.TeamT),
		mkKill("k2", "r1", 1200, "p2", "p6", domain.TeamT, domain.TeamCT),
	}
	trades := DetectTrades(kills, DefaultTradeWindowTicks)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.KillID != "k2" || tr.AvengedKillID != "k1" || tr.TradedWithinTicks != 200 {
		t.Errorf("unexpected trade: %+v", tr)
	}

	// Same shape but 1000 ticks apart: outside the window.
	kills[1].Tick = 2000
	if trades := DetectTrades(kills, DefaultTradeWindowTicks); len(trades) != 0 {
		t.Fatalf("expected no trade beyond the window, got %d", len(trades))
	}

	// Delta exactly equal to the window still counts.
	kills[1].Tick = 1000 + DefaultTradeWindowTicks
	if trades := DetectTrades(kills, DefaultTradeWindowTicks); len(trades) != 1 {
		t.Fatal("delta == window must still trade")
	}
}

func TestDetectTrades_NearestMatchWins(t *testing.T) {
	// p6 downs p1 then p2 in quick succession; p7's kill on p6 must avenge
	// the nearer death (p2), not the earlier one.
	kills := []*domain.Kill{
		mkKill("k1", "r1", 1000, "p6", "p1", domain.TeamCT, domain.TeamT),
		mkKill("k2", "r1", 1100, "p6", "p2", domain.TeamCT, domain.TeamT),
		mkKill("k3", "r1", 1200, "p7", "p6", domain.TeamT, domain.TeamCT),
	}
	trades := DetectTrades(kills, DefaultTradeWindowTicks)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].AvengedKillID != "k2" {
		t.Errorf("expected nearest death k2 avenged, got %s", trades[0].AvengedKillID)
	}
}

func TestDetectTrades_RequiresVictimWasAttacker(t *testing.T) {
	// p2 kills p7, who never killed anyone. Not a trade even though a
	// teammate died recently to someone else.
	kills := []*domain.Kill{
		mkKill("k1", "r1", 1000, "p6", "p1", domain.TeamCT, domain.TeamT),
		mkKill("k2", "r1", 1100, "p2", "p7", domain.TeamT, domain.TeamCT),
	}
	if trades := DetectTrades(kills, DefaultTradeWindowTicks); len(trades) != 0 {
		t.Fatalf("expected no trade, got %d", len(trades))
	}
}

func TestDetectTrades_SkipsSuicidesAndRoundBoundaries(t *testing.T) {
	kills := []*domain.Kill{
		mkKill("k1", "r1", 1000, "p6", "p1", domain.TeamCT, domain.TeamT),
		// Suicide, never a trade candidate.
		mkKill("k2", "r1", 1100, "", "p7", 0, domain.TeamCT),
		// Next round, within tick distance but a different round.
		mkKill("k3", "r2", 1150, "p2", "p6", domain.TeamT, domain.TeamCT),
	}
	if trades := DetectTrades(kills, DefaultTradeWindowTicks); len(trades) != 0 {
		t.Fatalf("trades must not cross round boundaries, got %d", len(trades))
	}
}

func TestTradeDetector_FlagsBothSides(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKillStore()

	kills := []*domain.Kill{
		mkKill("k1", "r1", 1000, "p6", "p1", domain.TeamCT, domain.TeamT),
		mkKill("k2", "r1", 1200, "p2", "p6", domain.TeamT, domain.TeamCT),
	}
	if err := store.InsertBulk(ctx, kills); err != nil {
		t.Fatalf("seed kills: %v", err)
	}

	rounds := testRounds(t,
		&domain.Round{RoundID: "r1", MatchID: testMatchID, Number: 1, StartTick: 0, EndTick: 10000},
	)
	events := []*domain.Event{
		deathEvent(1, 1000, "p6", "p1", domain.TeamCT, domain.TeamT, nil),
		deathEvent(2, 1200, "p2", "p6", domain.TeamT, domain.TeamCT, nil),
	}

	tr := NewTradeDetector(store)
	written, metrics, err := tr.Transform(ctx, testContext(t, events, rounds, twoVTwoRoster()))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if written != 1 || metrics["trade_kills"] != 1 {
		t.Fatalf("expected 1 trade written, got written=%d metrics=%v", written, metrics)
	}

	stored, _ := store.GetByMatchID(ctx, testMatchID)
	for _, k := range stored {
		switch k.KillID {
		case "k1":
			if !k.IsTradeDeath || k.IsTradeKill {
				t.Errorf("k1 flags wrong: %+v", k)
			}
		case "k2":
			if !k.IsTradeKill || k.IsTradeDeath {
				t.Errorf("k2 flags wrong: %+v", k)
			}
			if k.TradedWithinTicks == nil || *k.TradedWithinTicks != 200 {
				t.Errorf("k2 traded_within_ticks wrong: %v", k.TradedWithinTicks)
			}
		}
	}

	// Rerun with a tighter window: stale flags must be cleared first.
	tc := testContext(t, events, rounds, twoVTwoRoster())
	tc.Options.TradeWindowTicks = 100
	if _, _, err := tr.Transform(ctx, tc); err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	stored, _ = store.GetByMatchID(ctx, testMatchID)
	for _, k := range stored {
		if k.IsTradeKill || k.IsTradeDeath || k.TradedWithinTicks != nil {
			t.Errorf("flags not reset on rerun: %+v", k)
		}
	}
}
