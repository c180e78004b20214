package memory

import (
	"context"
	"errors"
	"testing"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

func strPtr(s string) *string { return &s }

func TestKillStore_InsertBulkAndGet(t *testing.T) {
	store := NewKillStore()
	ctx := context.Background()

	kills := []*domain.Kill{
		{KillID: "k2", MatchID: "m1", RoundID: "r1", Tick: 2000, AttackerID: strPtr("p1"), VictimID: "p2", Weapon: "ak47"},
		{KillID: "k1", MatchID: "m1", RoundID: "r1", Tick: 1000, AttackerID: strPtr("p2"), VictimID: "p3", Weapon: "m4a1", Headshot: true},
		{KillID: "k3", MatchID: "m2", RoundID: "r9", Tick: 500, AttackerID: strPtr("p9"), VictimID: "p8", Weapon: "awp"},
	}
	if err := store.InsertBulk(ctx, kills); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByMatchID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByMatchID failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 kills, got %d", len(result))
	}
	// tick ASC
	if result[0].KillID != "k1" || result[1].KillID != "k2" {
		t.Errorf("Wrong order: %s, %s", result[0].KillID, result[1].KillID)
	}
}

func TestKillStore_InsertBulkAtomicOnDuplicate(t *testing.T) {
	store := NewKillStore()
	ctx := context.Background()

	seed := []*domain.Kill{{KillID: "k1", MatchID: "m1", VictimID: "p2"}}
	if err := store.InsertBulk(ctx, seed); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	batch := []*domain.Kill{
		{KillID: "k2", MatchID: "m1", VictimID: "p3"},
		{KillID: "k1", MatchID: "m1", VictimID: "p4"}, // duplicate
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// k2 must not have been inserted alongside the failure.
	result, _ := store.GetByMatchID(ctx, "m1")
	if len(result) != 1 {
		t.Errorf("Expected batch rollback, found %d kills", len(result))
	}
}

func TestKillStore_MarkAndResetTrades(t *testing.T) {
	store := NewKillStore()
	ctx := context.Background()

	kills := []*domain.Kill{
		{KillID: "k1", MatchID: "m1", Tick: 1000, AttackerID: strPtr("p1"), VictimID: "p2"},
		{KillID: "k2", MatchID: "m1", Tick: 1200, AttackerID: strPtr("p3"), VictimID: "p1"},
	}
	if err := store.InsertBulk(ctx, kills); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	trades := []*domain.TradeInfo{
		{KillID: "k2", AvengedKillID: "k1", TradedWithinTicks: 200},
	}
	if err := store.MarkTrades(ctx, "m1", trades); err != nil {
		t.Fatalf("MarkTrades failed: %v", err)
	}

	result, _ := store.GetByMatchID(ctx, "m1")
	if !result[1].IsTradeKill {
		t.Error("k2 should be a trade kill")
	}
	if result[1].TradedWithinTicks == nil || *result[1].TradedWithinTicks != 200 {
		t.Error("k2 should carry TradedWithinTicks=200")
	}
	if !result[0].IsTradeDeath {
		t.Error("k1 should be a trade death")
	}
	if result[0].IsTradeKill {
		t.Error("k1 must not be a trade kill")
	}

	if err := store.ResetTrades(ctx, "m1"); err != nil {
		t.Fatalf("ResetTrades failed: %v", err)
	}
	result, _ = store.GetByMatchID(ctx, "m1")
	for _, k := range result {
		if k.IsTradeKill || k.IsTradeDeath || k.TradedWithinTicks != nil {
			t.Errorf("kill %s still carries trade flags after reset", k.KillID)
		}
	}
}

func TestKillStore_MarkTradesUnknownKill(t *testing.T) {
	store := NewKillStore()
	ctx := context.Background()

	trades := []*domain.TradeInfo{{KillID: "ghost", AvengedKillID: "ghost2", TradedWithinTicks: 100}}
	if err := store.MarkTrades(ctx, "m1", trades); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestKillStore_DeleteByMatchID(t *testing.T) {
	store := NewKillStore()
	ctx := context.Background()

	kills := []*domain.Kill{
		{KillID: "k1", MatchID: "m1", VictimID: "p1"},
		{KillID: "k2", MatchID: "m2", VictimID: "p2"},
	}
	if err := store.InsertBulk(ctx, kills); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	if err := store.DeleteByMatchID(ctx, "m1"); err != nil {
		t.Fatalf("DeleteByMatchID failed: %v", err)
	}

	m1, _ := store.GetByMatchID(ctx, "m1")
	if len(m1) != 0 {
		t.Errorf("Expected 0 kills for m1, got %d", len(m1))
	}
	m2, _ := store.GetByMatchID(ctx, "m2")
	if len(m2) != 1 {
		t.Errorf("Expected m2 kills untouched, got %d", len(m2))
	}
}
