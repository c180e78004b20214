package memory

import (
	"context"
	"testing"

	"cs-match-lab/internal/domain"
)

func TestEventStore_InsertAndGetOrdered(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.Event{
		{MatchID: "m1", Seq: 2, Name: domain.EventPlayerDeath, Tick: 2000},
		{MatchID: "m1", Seq: 1, Name: domain.EventRoundStart, Tick: 1000},
		{MatchID: "m1", Seq: 3, Name: domain.EventPlayerHurt, Tick: 2000},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByMatchID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByMatchID failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(result))
	}
	// (tick, seq) ASC; seq breaks the tie at tick 2000
	if result[0].Name != domain.EventRoundStart {
		t.Errorf("First event should be round_start, got %s", result[0].Name)
	}
	if result[1].Seq != 2 || result[2].Seq != 3 {
		t.Errorf("Tie at tick 2000 not broken by seq: %d, %d", result[1].Seq, result[2].Seq)
	}
}

func TestEventStore_PayloadCopyIsolation(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	e := &domain.Event{
		MatchID: "m1",
		Seq:     1,
		Name:    domain.EventPlayerDeath,
		Tick:    100,
		Payload: domain.Payload{"weapon": "ak47"},
	}
	if err := store.InsertBulk(ctx, []*domain.Event{e}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Mutate the original and a fetched copy; the store must see neither.
	e.Payload["weapon"] = "deagle"
	got, _ := store.GetByMatchID(ctx, "m1")
	got[0].Payload["weapon"] = "awp"

	again, _ := store.GetByMatchID(ctx, "m1")
	if again[0].Payload.Str("weapon") != "ak47" {
		t.Errorf("stored payload mutated: %s", again[0].Payload.Str("weapon"))
	}
}

func TestEventStore_DeleteByMatchID(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.Event{
		{MatchID: "m1", Seq: 1, Name: domain.EventRoundStart, Tick: 10},
		{MatchID: "m2", Seq: 1, Name: domain.EventRoundStart, Tick: 10},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	if err := store.DeleteByMatchID(ctx, "m1"); err != nil {
		t.Fatalf("DeleteByMatchID failed: %v", err)
	}
	m1, _ := store.GetByMatchID(ctx, "m1")
	if len(m1) != 0 {
		t.Errorf("Expected m1 events deleted, got %d", len(m1))
	}
	m2, _ := store.GetByMatchID(ctx, "m2")
	if len(m2) != 1 {
		t.Errorf("Expected m2 events untouched, got %d", len(m2))
	}
}
