// Package transform holds the batch transformers that turn a match's raw
// event stream into normalized relational records. Transformers run
// sequentially in priority order and each one is idempotent: it clears its
// own prior output for the match before writing.
package transform

import (
	"context"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/lookup"
)

// Transformer names, also used for the only/skip option filters.
const (
	NameKillExtractor   = "kill_extractor"
	NameRoundStats      = "round_stats"
	NameTradeDetector   = "trade_detector"
	NameClutchDetector  = "clutch_detector"
	NameReplayGenerator = "replay_events"
)

// Default tuning values. The trade window is 5 seconds at 64-tick.
const (
	DefaultTradeWindowTicks = 320
	DefaultClutchMinEnemies = 1
	DefaultBatchSize        = 500
)

// Options tune a pipeline run. Zero values fall back to the defaults.
type Options struct {
	TradeWindowTicks int64
	ClutchMinEnemies int
	BatchSize        int

	// Only restricts the run to the named transformers; Skip excludes the
	// named ones. Only wins when both are set.
	Only []string
	Skip []string
}

// DefaultOptions returns the standard pipeline tuning.
func DefaultOptions() Options {
	return Options{
		TradeWindowTicks: DefaultTradeWindowTicks,
		ClutchMinEnemies: DefaultClutchMinEnemies,
		BatchSize:        DefaultBatchSize,
	}
}

// normalized fills unset numeric options with defaults.
func (o Options) normalized() Options {
	if o.TradeWindowTicks <= 0 {
		o.TradeWindowTicks = DefaultTradeWindowTicks
	}
	if o.ClutchMinEnemies <= 0 {
		o.ClutchMinEnemies = DefaultClutchMinEnemies
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// Context is the shared, read-only input every transformer sees for one
// pipeline run. Events are sorted by (tick, seq) before the run starts.
type Context struct {
	Match   *domain.Match
	Events  []*domain.Event
	Rounds  *lookup.RoundIndex
	Roster  []*domain.Player
	Options Options
}

// NewContext builds a run context, sorting events and normalizing options.
func NewContext(match *domain.Match, events []*domain.Event, rounds *lookup.RoundIndex, roster []*domain.Player, opts Options) *Context {
	domain.SortEvents(events)
	return &Context{
		Match:   match,
		Events:  events,
		Rounds:  rounds,
		Roster:  roster,
		Options: opts.normalized(),
	}
}

// RosterTeams maps player id to team number for the match roster.
func (c *Context) RosterTeams() map[string]int {
	teams := make(map[string]int, len(c.Roster))
	for _, p := range c.Roster {
		teams[p.PlayerID] = p.TeamNumber
	}
	return teams
}

// Result describes one transformer invocation.
type Result struct {
	Name           string           `json:"name"`
	Success        bool             `json:"success"`
	RecordsWritten int              `json:"recordsWritten"`
	DurationMs     int64            `json:"durationMs"`
	Metrics        map[string]int64 `json:"metrics,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// Transformer is one stage of the pipeline. Transform returns the number of
// records written plus per-run counters; the orchestrator assembles the
// Result and applies the first-failure-aborts policy.
type Transformer interface {
	Name() string

	// Priority orders execution, lower first. Priorities encode the hard
	// dependency chain: kills before trades before clutches.
	Priority() int

	// ShouldRun reports whether the required input is present. A decline
	// is recorded as skipped, not as a failure.
	ShouldRun(tc *Context) bool

	Transform(ctx context.Context, tc *Context) (int, map[string]int64, error)
}

// Rollbacker is implemented by transformers that can reset their output
// after a failed run.
type Rollbacker interface {
	Rollback(ctx context.Context, matchID string) error
}

// chunked splits items into batches of at most size elements.
func chunked[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
