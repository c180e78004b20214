package orchestrator

import (
	"context"
	"testing"

	"cs-match-lab/internal/transform"
)

func TestLoadFixtures_DrivesFullPipeline(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	if err := LoadFixtures(ctx, stores.Stores); err != nil {
		t.Fatalf("LoadFixtures failed: %v", err)
	}

	runner := NewRunner(stores.Stores)
	agg, err := runner.Run(ctx, FixtureMatchID, transform.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !agg.Success {
		t.Fatalf("pipeline failed: %+v", agg.Results)
	}
	if len(agg.Results) != 5 {
		t.Fatalf("expected 5 transformer results, got %d", len(agg.Results))
	}
	for _, res := range agg.Results {
		if res.RecordsWritten == 0 && res.Name != "trade_detector" {
			t.Errorf("%s wrote no records", res.Name)
		}
	}

	kills, err := stores.kills.GetByMatchID(ctx, FixtureMatchID)
	if err != nil {
		t.Fatalf("read kills: %v", err)
	}
	if len(kills) != 5 {
		t.Fatalf("expected 5 kills, got %d", len(kills))
	}

	stats, err := stores.stats.GetByMatchID(ctx, FixtureMatchID)
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	if len(stats) != 8 {
		t.Fatalf("expected 8 stat rows (2 rounds x 4 players), got %d", len(stats))
	}
}
