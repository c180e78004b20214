package transform

import (
	"context"
	"testing"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage/memory"
)

func TestReplayEventGenerator_MapsKillsAndBombEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewReplayEventStore()

	rounds := testRounds(t,
		&domain.Round{RoundID: "r1", MatchID: testMatchID, Number: 1, StartTick: 0, EndTick: 10000},
	)
	events := []*domain.Event{
		deathEvent(1, 100, "p1", "p6", domain.TeamT, domain.TeamCT, domain.Payload{
			"victim_X": 120.5, "victim_Y": -44.0, "victim_Z": 8.0,
		}),
		{MatchID: testMatchID, Seq: 2, Name: domain.EventBombPlanted, Tick: 300, Payload: domain.Payload{
			"planter_steamid": "p1", "X": 900.0, "Y": 70.0, "Z": 1.5,
		}},
		{MatchID: testMatchID, Seq: 3, Name: domain.EventBombDefused, Tick: 700, Payload: domain.Payload{
			"defuser_steamid": "p7",
		}},
		// Not a replay event, must be ignored silently.
		hurtEvent(4, 90, "p1", "p6", "ak47", 27),
	}

	tr := NewReplayEventGenerator(store)
	written, _, err := tr.Transform(ctx, testContext(t, events, rounds, twoVTwoRoster()))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if written != 3 {
		t.Fatalf("expected 3 replay events, got %d", written)
	}

	stored, _ := store.GetByMatchID(ctx, testMatchID)
	byKind := make(map[string]*domain.ReplayEvent)
	for _, re := range stored {
		byKind[re.Kind] = re
	}

	kill := byKind[domain.ReplayKindKill]
	if kill == nil || kill.ActorID != "p1" || kill.TargetID != "p6" {
		t.Errorf("kill mapping wrong: %+v", kill)
	}
	if kill.X != 120.5 || kill.Y != -44.0 || kill.Z != 8.0 {
		t.Errorf("kill position wrong: %+v", kill)
	}

	plant := byKind[domain.ReplayKindBombPlant]
	if plant == nil || plant.ActorID != "p1" || plant.X != 900.0 {
		t.Errorf("bomb plant mapping wrong: %+v", plant)
	}

	defuse := byKind[domain.ReplayKindBombDefuse]
	if defuse == nil || defuse.ActorID != "p7" || defuse.TargetID != "" {
		t.Errorf("bomb defuse mapping wrong: %+v", defuse)
	}

	for _, re := range stored {
		if re.RoundID != "r1" {
			t.Errorf("round attribution wrong: %+v", re)
		}
	}
}

func TestReplayEventGenerator_SkipsEventsOutsideRounds(t *testing.T) {
	ctx := context.Background()
	store := memory.NewReplayEventStore()

	rounds := testRounds(t,
		&domain.Round{RoundID: "r1", MatchID: testMatchID, Number: 1, StartTick: 1000, EndTick: 10000},
	)
	events := []*domain.Event{
		// Warmup kill before the first round starts.
		deathEvent(1, 500, "p1", "p6", domain.TeamT, domain.TeamCT, nil),
		deathEvent(2, 2000, "p2", "p7", domain.TeamT, domain.TeamCT, nil),
	}

	tr := NewReplayEventGenerator(store)
	written, metrics, err := tr.Transform(ctx, testContext(t, events, rounds, twoVTwoRoster()))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 replay event, got %d", written)
	}
	if metrics["skipped_no_round"] != 1 {
		t.Errorf("skip metric = %d, want 1", metrics["skipped_no_round"])
	}
}

func TestReplayEventGenerator_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewReplayEventStore()

	rounds := testRounds(t,
		&domain.Round{RoundID: "r1", MatchID: testMatchID, Number: 1, StartTick: 0, EndTick: 10000},
	)
	events := []*domain.Event{
		deathEvent(1, 100, "p1", "p6", domain.TeamT, domain.TeamCT, nil),
	}

	tr := NewReplayEventGenerator(store)
	tc := testContext(t, events, rounds, twoVTwoRoster())
	if _, _, err := tr.Transform(ctx, tc); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, _, err := tr.Transform(ctx, tc); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	stored, _ := store.GetByMatchID(ctx, testMatchID)
	if len(stored) != 1 {
		t.Fatalf("rerun accumulated replay events: %d", len(stored))
	}
}
