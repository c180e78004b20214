package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

func TestPlayerMetricsStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	matchID := createTestMatch(t, ctx, pool, "match-1")

	store := NewPlayerMetricsStore(pool)

	metrics := []*domain.PlayerMatchMetrics{
		{
			MatchID:      matchID,
			PlayerID:     "p1",
			DisplayName:  "player one",
			TeamNumber:   domain.TeamT,
			RoundsPlayed: 24,
			Combat:       domain.CombatMetrics{Kills: 22, Deaths: 15, DamagePerRound: 88.4},
			Rating:       domain.RatingMetrics{KASTPercent: 75, ImpactScore: 1.21, Rating: 1.18},
			Clutches: domain.ClutchMetrics{
				Attempts: 3, Wins: 1, WinRatePercent: 33.33,
				ByOpponents: [5]domain.ClutchBucket{{Attempts: 2, Wins: 1}, {Attempts: 1}},
			},
			Economy: domain.EconomyMetrics{
				AvgEquipmentValue: 3850.5,
				ByBuyType: map[string]domain.EconomyBucket{
					domain.BuyTypeFullBuy: {Rounds: 14, Wins: 9},
					domain.BuyTypeEco:     {Rounds: 3, Wins: 0},
				},
			},
			ComputedAt: 1700000000000,
		},
	}
	require.NoError(t, store.InsertBulk(ctx, metrics))

	got, err := store.GetByMatchID(ctx, matchID)
	require.NoError(t, err)
	require.Len(t, got, 1)

	m := got[0]
	assert.Equal(t, "p1", m.PlayerID)
	assert.Equal(t, 22, m.Combat.Kills)
	assert.InDelta(t, 88.4, m.Combat.DamagePerRound, 0.0001)
	assert.InDelta(t, 1.18, m.Rating.Rating, 0.0001)
	assert.Equal(t, 1, m.Clutches.ByOpponents[0].Wins)
	assert.Equal(t, 14, m.Economy.ByBuyType[domain.BuyTypeFullBuy].Rounds)
	assert.Equal(t, int64(1700000000000), m.ComputedAt)
}

func TestPlayerMetricsStore_DuplicateAndInvalidate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	matchID := createTestMatch(t, ctx, pool, "match-1")

	store := NewPlayerMetricsStore(pool)

	m := &domain.PlayerMatchMetrics{MatchID: matchID, PlayerID: "p1"}
	require.NoError(t, store.InsertBulk(ctx, []*domain.PlayerMatchMetrics{m}))

	err := store.InsertBulk(ctx, []*domain.PlayerMatchMetrics{m})
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "expected ErrDuplicateKey, got %v", err)

	require.NoError(t, store.DeleteByMatchID(ctx, matchID))
	got, err := store.GetByMatchID(ctx, matchID)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Reinsert after invalidation succeeds.
	require.NoError(t, store.InsertBulk(ctx, []*domain.PlayerMatchMetrics{m}))
}
