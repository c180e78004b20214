package memory

import (
	"context"
	"errors"
	"testing"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

func TestRoundPlayerStatStore_InsertAndGetOrdered(t *testing.T) {
	store := NewRoundPlayerStatStore()
	ctx := context.Background()

	stats := []*domain.RoundPlayerStat{
		{StatID: "s3", MatchID: "m1", RoundID: "r2", PlayerID: "p1", Kills: 2},
		{StatID: "s1", MatchID: "m1", RoundID: "r1", PlayerID: "p1", Kills: 1},
		{StatID: "s2", MatchID: "m1", RoundID: "r1", PlayerID: "p2", Deaths: 1},
	}
	if err := store.InsertBulk(ctx, stats); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByMatchID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByMatchID failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(result))
	}
	if result[0].StatID != "s1" || result[1].StatID != "s2" || result[2].StatID != "s3" {
		t.Errorf("Wrong order: %s, %s, %s", result[0].StatID, result[1].StatID, result[2].StatID)
	}
}

func TestRoundPlayerStatStore_SetAndResetClutches(t *testing.T) {
	store := NewRoundPlayerStatStore()
	ctx := context.Background()

	stats := []*domain.RoundPlayerStat{
		{StatID: "s1", MatchID: "m1", RoundID: "r1", PlayerID: "p1"},
		{StatID: "s2", MatchID: "m1", RoundID: "r1", PlayerID: "p2"},
	}
	if err := store.InsertBulk(ctx, stats); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	updates := []storage.ClutchUpdate{
		{StatID: "s1", ClutchVs: 2, ClutchWon: true},
	}
	if err := store.SetClutches(ctx, "m1", updates); err != nil {
		t.Fatalf("SetClutches failed: %v", err)
	}

	result, _ := store.GetByMatchID(ctx, "m1")
	if result[0].ClutchVs == nil || *result[0].ClutchVs != 2 {
		t.Error("s1 should carry ClutchVs=2")
	}
	if result[0].ClutchWon == nil || !*result[0].ClutchWon {
		t.Error("s1 should carry ClutchWon=true")
	}
	if result[1].ClutchVs != nil {
		t.Error("s2 must remain without clutch")
	}

	if err := store.ResetClutches(ctx, "m1"); err != nil {
		t.Fatalf("ResetClutches failed: %v", err)
	}
	result, _ = store.GetByMatchID(ctx, "m1")
	if result[0].ClutchVs != nil || result[0].ClutchWon != nil {
		t.Error("clutch fields not cleared after reset")
	}
}

func TestRoundPlayerStatStore_SetClutchesUnknownStat(t *testing.T) {
	store := NewRoundPlayerStatStore()
	ctx := context.Background()

	err := store.SetClutches(ctx, "m1", []storage.ClutchUpdate{{StatID: "ghost", ClutchVs: 1, ClutchWon: false}})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRoundPlayerStatStore_DeleteByMatchID(t *testing.T) {
	store := NewRoundPlayerStatStore()
	ctx := context.Background()

	stats := []*domain.RoundPlayerStat{
		{StatID: "s1", MatchID: "m1", RoundID: "r1", PlayerID: "p1"},
		{StatID: "s2", MatchID: "m2", RoundID: "r1", PlayerID: "p1"},
	}
	if err := store.InsertBulk(ctx, stats); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	if err := store.DeleteByMatchID(ctx, "m1"); err != nil {
		t.Fatalf("DeleteByMatchID failed: %v", err)
	}
	m1, _ := store.GetByMatchID(ctx, "m1")
	if len(m1) != 0 {
		t.Errorf("Expected m1 rows deleted, got %d", len(m1))
	}
	m2, _ := store.GetByMatchID(ctx, "m2")
	if len(m2) != 1 {
		t.Errorf("Expected m2 rows untouched, got %d", len(m2))
	}
}
