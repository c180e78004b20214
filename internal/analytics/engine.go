package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// ErrNoStats is returned when a match has no stat rows to analyze, which
// means the pipeline has not run yet. Callers translate it into a
// "not yet analyzed" state rather than an error page.
var ErrNoStats = errors.New("no stat rows available for analysis")

// Engine loads normalized records, computes metrics and caches the result.
type Engine struct {
	matches storage.MatchStore
	rounds  storage.RoundStore
	players storage.PlayerStore
	kills   storage.KillStore
	stats   storage.RoundPlayerStatStore
	cache   storage.PlayerMetricsStore

	clock   func() time.Time
	onCache func(hit bool)
}

// EngineOptions wires the stores the engine reads from and writes to.
type EngineOptions struct {
	MatchStore         storage.MatchStore
	RoundStore         storage.RoundStore
	PlayerStore        storage.PlayerStore
	KillStore          storage.KillStore
	StatStore          storage.RoundPlayerStatStore
	PlayerMetricsStore storage.PlayerMetricsStore
}

// NewEngine creates a metrics engine.
func NewEngine(opts EngineOptions) *Engine {
	return &Engine{
		matches: opts.MatchStore,
		rounds:  opts.RoundStore,
		players: opts.PlayerStore,
		kills:   opts.KillStore,
		stats:   opts.StatStore,
		cache:   opts.PlayerMetricsStore,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for deterministic ComputedAt stamps.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// WithCacheObserver registers a callback invoked on every cached read with
// whether it was a hit. Used to feed cache counters.
func (e *Engine) WithCacheObserver(fn func(hit bool)) *Engine {
	e.onCache = fn
	return e
}

// loadInput fetches the normalized records for one match.
func (e *Engine) loadInput(ctx context.Context, matchID string) (Input, error) {
	var in Input
	var err error

	if in.Match, err = e.matches.GetByID(ctx, matchID); err != nil {
		return in, fmt.Errorf("load match %s: %w", matchID, err)
	}
	if in.Rounds, err = e.rounds.GetByMatchID(ctx, matchID); err != nil {
		return in, fmt.Errorf("load rounds for %s: %w", matchID, err)
	}
	if in.Roster, err = e.players.GetByMatchID(ctx, matchID); err != nil {
		return in, fmt.Errorf("load roster for %s: %w", matchID, err)
	}
	if in.Kills, err = e.kills.GetByMatchID(ctx, matchID); err != nil {
		return in, fmt.Errorf("load kills for %s: %w", matchID, err)
	}
	if in.Stats, err = e.stats.GetByMatchID(ctx, matchID); err != nil {
		return in, fmt.Errorf("load stats for %s: %w", matchID, err)
	}
	if len(in.Stats) == 0 {
		return in, fmt.Errorf("match %s: %w", matchID, ErrNoStats)
	}
	return in, nil
}

// ComputeAndStore recomputes player metrics for a match and replaces the
// cached copy.
func (e *Engine) ComputeAndStore(ctx context.Context, matchID string) ([]*domain.PlayerMatchMetrics, error) {
	in, err := e.loadInput(ctx, matchID)
	if err != nil {
		return nil, err
	}

	metrics := ComputePlayerMetrics(in)
	computedAt := e.clock().UnixMilli()
	for _, m := range metrics {
		m.ComputedAt = computedAt
	}

	if err := e.cache.DeleteByMatchID(ctx, matchID); err != nil {
		return nil, fmt.Errorf("invalidate metrics cache for %s: %w", matchID, err)
	}
	if err := e.cache.InsertBulk(ctx, metrics); err != nil {
		return nil, fmt.Errorf("cache metrics for %s: %w", matchID, err)
	}
	return metrics, nil
}

// PlayerMetrics returns the cached metrics for a match, computing and
// caching them on a miss.
func (e *Engine) PlayerMetrics(ctx context.Context, matchID string) ([]*domain.PlayerMatchMetrics, error) {
	cached, err := e.cache.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("read metrics cache for %s: %w", matchID, err)
	}
	if e.onCache != nil {
		e.onCache(len(cached) > 0)
	}
	if len(cached) > 0 {
		return cached, nil
	}
	return e.ComputeAndStore(ctx, matchID)
}

// Invalidate drops the cached metrics for a match. Called after the
// pipeline regenerates the underlying rows.
func (e *Engine) Invalidate(ctx context.Context, matchID string) error {
	return e.cache.DeleteByMatchID(ctx, matchID)
}

// MatchOverview computes the match-level rollup from the per-player
// metrics, reusing the cache where possible.
func (e *Engine) MatchOverview(ctx context.Context, matchID string) (*domain.MatchOverview, error) {
	in, err := e.loadInput(ctx, matchID)
	if err != nil {
		return nil, err
	}
	players, err := e.PlayerMetrics(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return ComputeMatchOverview(in, players), nil
}
