package transform

import (
	"context"
	"fmt"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// TradeDetector flags kills that avenge a teammate's very recent death.
// It post-processes the normalized kill rows, never the raw events, so the
// kill extractor must have run first.
type TradeDetector struct {
	kills storage.KillStore
}

// NewTradeDetector creates a new trade detector.
func NewTradeDetector(kills storage.KillStore) *TradeDetector {
	return &TradeDetector{kills: kills}
}

func (t *TradeDetector) Name() string  { return NameTradeDetector }
func (t *TradeDetector) Priority() int { return 30 }

// ShouldRun declines when the match has no death events, which means no
// kill rows exist to flag.
func (t *TradeDetector) ShouldRun(tc *Context) bool {
	return len(domain.FilterEvents(tc.Events, domain.EventPlayerDeath)) > 0
}

// Transform resets all trade flags for the match and recomputes them.
//
// For each kill K with an attacker, scan strictly earlier kills K' of the
// same round, nearest first, within the tick window. K trades K' when K's
// victim is K''s attacker and K''s victim was on K's attacker's team. The
// nearest match wins and scanning stops, so each kill avenges at most one
// death.
func (t *TradeDetector) Transform(ctx context.Context, tc *Context) (int, map[string]int64, error) {
	if err := t.kills.ResetTrades(ctx, tc.Match.MatchID); err != nil {
		return 0, nil, fmt.Errorf("reset trade flags: %w", err)
	}

	kills, err := t.kills.GetByMatchID(ctx, tc.Match.MatchID)
	if err != nil {
		return 0, nil, fmt.Errorf("load kills: %w", err)
	}

	window := tc.Options.TradeWindowTicks
	trades := DetectTrades(kills, window)

	if err := t.kills.MarkTrades(ctx, tc.Match.MatchID, trades); err != nil {
		return 0, nil, fmt.Errorf("mark trades: %w", err)
	}

	metrics := map[string]int64{"trade_kills": int64(len(trades))}
	return len(trades), metrics, nil
}

// Rollback clears all trade flags for the match.
func (t *TradeDetector) Rollback(ctx context.Context, matchID string) error {
	return t.kills.ResetTrades(ctx, matchID)
}

// DetectTrades computes trade attributions over tick-sorted kills. Exposed
// for direct testing; the transformer wraps it with reset and persistence.
func DetectTrades(kills []*domain.Kill, windowTicks int64) []*domain.TradeInfo {
	byRound := make(map[string][]*domain.Kill)
	var roundOrder []string
	for _, k := range kills {
		if _, seen := byRound[k.RoundID]; !seen {
			roundOrder = append(roundOrder, k.RoundID)
		}
		byRound[k.RoundID] = append(byRound[k.RoundID], k)
	}

	var trades []*domain.TradeInfo
	for _, roundID := range roundOrder {
		roundKills := byRound[roundID]
		for i, k := range roundKills {
			if k.Attacker() == "" || k.IsSuicide {
				continue
			}
			// Nearest earlier kill first; the window bound is monotone so
			// the scan stops early.
			for j := i - 1; j >= 0; j-- {
				prev := roundKills[j]
				delta := k.Tick - prev.Tick
				if delta > windowTicks {
					break
				}
				if prev.Attacker() == k.VictimID && prev.VictimTeam == k.AttackerTeam {
					trades = append(trades, &domain.TradeInfo{
						KillID:            k.KillID,
						AvengedKillID:     prev.KillID,
						TradedWithinTicks: delta,
					})
					break
				}
			}
		}
	}
	return trades
}

var _ Transformer = (*TradeDetector)(nil)
var _ Rollbacker = (*TradeDetector)(nil)
