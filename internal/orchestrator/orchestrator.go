// Package orchestrator runs the transformation pipeline for one match:
// transformers execute sequentially in priority order against a shared
// context, and the first failure aborts the rest.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"cs-match-lab/internal/lookup"
	"cs-match-lab/internal/storage"
	"cs-match-lab/internal/transform"
)

// ErrUnknownTransformer is returned when an only/skip/rerun filter names a
// transformer that is not registered.
var ErrUnknownTransformer = errors.New("unknown transformer")

// Skip reasons recorded in the aggregate.
const (
	SkipReasonPrecondition = "missing precondition"
	SkipReasonFiltered     = "excluded by filter"
	SkipReasonAborted      = "pipeline aborted"
)

// Skipped records one transformer that did not run.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Summary aggregates a pipeline run.
type Summary struct {
	Success             bool  `json:"success"`
	TotalDurationMs     int64 `json:"totalDurationMs"`
	SucceededCount      int   `json:"succeededCount"`
	FailedCount         int   `json:"failedCount"`
	TotalRecordsWritten int   `json:"totalRecordsWritten"`
}

// Aggregate is the full outcome of one pipeline run. Transformer errors
// never escape the pipeline; they surface here as failed results.
type Aggregate struct {
	MatchID string `json:"matchId"`
	Success bool   `json:"success"`

	Results []transform.Result `json:"results"`
	Skipped []Skipped          `json:"skipped,omitempty"`
	Summary Summary            `json:"summary"`
}

// Observer receives per-transformer outcomes, for metrics export.
type Observer interface {
	TransformerRan(name string, success bool, recordsWritten int, duration time.Duration)
}

// Pipeline holds the transformer registry, sorted ascending by priority.
type Pipeline struct {
	transformers []transform.Transformer
	observer     Observer
	log          *log.Logger
}

// NewPipeline builds a pipeline over the given transformers. Registration
// order does not matter; execution order is by priority. Quiet by default.
func NewPipeline(transformers ...transform.Transformer) *Pipeline {
	sorted := make([]transform.Transformer, len(transformers))
	copy(sorted, transformers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	logger := log.New()
	logger.SetOutput(io.Discard)
	return &Pipeline{transformers: sorted, log: logger}
}

// WithLogger enables structured run logging.
func (p *Pipeline) WithLogger(logger *log.Logger) *Pipeline {
	p.log = logger
	return p
}

// WithObserver wires a metrics sink for transformer outcomes.
func (p *Pipeline) WithObserver(obs Observer) *Pipeline {
	p.observer = obs
	return p
}

// Transformers returns the registry in execution order.
func (p *Pipeline) Transformers() []transform.Transformer {
	out := make([]transform.Transformer, len(p.transformers))
	copy(out, p.transformers)
	return out
}

// Execute runs the pipeline over a prepared context. Transformers excluded
// by the only/skip options or declined by their own precondition are
// recorded as skipped; the first failing transformer is rolled back (when
// it supports rollback) and aborts the remainder.
func (p *Pipeline) Execute(ctx context.Context, tc *transform.Context) (*Aggregate, error) {
	allowed, err := p.filter(tc.Options)
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{MatchID: tc.Match.MatchID, Success: true}
	started := time.Now()
	aborted := false

	for _, t := range p.transformers {
		if aborted {
			agg.Skipped = append(agg.Skipped, Skipped{Name: t.Name(), Reason: SkipReasonAborted})
			continue
		}
		if !allowed[t.Name()] {
			agg.Skipped = append(agg.Skipped, Skipped{Name: t.Name(), Reason: SkipReasonFiltered})
			continue
		}
		if !t.ShouldRun(tc) {
			p.log.WithFields(log.Fields{
				"match_id":    tc.Match.MatchID,
				"transformer": t.Name(),
			}).Debug("transformer declined, input absent")
			agg.Skipped = append(agg.Skipped, Skipped{Name: t.Name(), Reason: SkipReasonPrecondition})
			continue
		}

		result := p.runOne(ctx, t, tc)
		agg.Results = append(agg.Results, result)
		if p.observer != nil {
			p.observer.TransformerRan(result.Name, result.Success, result.RecordsWritten,
				time.Duration(result.DurationMs)*time.Millisecond)
		}

		if !result.Success {
			p.log.WithFields(log.Fields{
				"match_id":    tc.Match.MatchID,
				"transformer": t.Name(),
				"error":       result.Error,
			}).Error("transformer failed, aborting pipeline")
			agg.Success = false
			aborted = true
			continue
		}

		p.log.WithFields(log.Fields{
			"match_id":    tc.Match.MatchID,
			"transformer": t.Name(),
			"records":     result.RecordsWritten,
			"duration_ms": result.DurationMs,
		}).Info("transformer completed")
	}

	agg.Summary = summarize(agg, time.Since(started))
	return agg, nil
}

// runOne invokes a single transformer, converting panics and errors into a
// failed result and rolling back its output.
func (p *Pipeline) runOne(ctx context.Context, t transform.Transformer, tc *transform.Context) (result transform.Result) {
	result = transform.Result{Name: t.Name()}
	started := time.Now()

	defer func() {
		result.DurationMs = time.Since(started).Milliseconds()
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", r)
			p.rollback(ctx, t, tc.Match.MatchID)
		}
	}()

	written, metrics, err := t.Transform(ctx, tc)
	result.RecordsWritten = written
	result.Metrics = metrics
	if err != nil {
		result.Error = err.Error()
		p.rollback(ctx, t, tc.Match.MatchID)
		return result
	}

	result.Success = true
	return result
}

func (p *Pipeline) rollback(ctx context.Context, t transform.Transformer, matchID string) {
	rb, ok := t.(transform.Rollbacker)
	if !ok {
		return
	}
	if err := rb.Rollback(ctx, matchID); err != nil {
		p.log.WithFields(log.Fields{
			"match_id":    matchID,
			"transformer": t.Name(),
		}).WithError(err).Warn("rollback failed")
	}
}

// filter resolves the only/skip options into the set of allowed names.
// Only wins when both are set.
func (p *Pipeline) filter(opts transform.Options) (map[string]bool, error) {
	registered := make(map[string]bool, len(p.transformers))
	for _, t := range p.transformers {
		registered[t.Name()] = true
	}

	allowed := make(map[string]bool, len(registered))
	if len(opts.Only) > 0 {
		for _, name := range opts.Only {
			if !registered[name] {
				return nil, fmt.Errorf("%w: %q", ErrUnknownTransformer, name)
			}
			allowed[name] = true
		}
		return allowed, nil
	}

	for name := range registered {
		allowed[name] = true
	}
	for _, name := range opts.Skip {
		if !registered[name] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTransformer, name)
		}
		delete(allowed, name)
	}
	return allowed, nil
}

func summarize(agg *Aggregate, total time.Duration) Summary {
	s := Summary{
		Success:         agg.Success,
		TotalDurationMs: total.Milliseconds(),
	}
	for _, r := range agg.Results {
		if r.Success {
			s.SucceededCount++
		} else {
			s.FailedCount++
		}
		s.TotalRecordsWritten += r.RecordsWritten
	}
	return s
}

// Stores bundles everything the runner needs to load a match's input and
// to build the default transformer set.
type Stores struct {
	Matches storage.MatchStore
	Rounds  storage.RoundStore
	Players storage.PlayerStore
	Events  storage.EventStore
	Kills   storage.KillStore
	Stats   storage.RoundPlayerStatStore
	Replay  storage.ReplayEventStore
}

// DefaultTransformers builds the standard pipeline stages over the stores.
func DefaultTransformers(s Stores) []transform.Transformer {
	return []transform.Transformer{
		transform.NewKillExtractor(s.Kills),
		transform.NewRoundStatsComputer(s.Stats),
		transform.NewTradeDetector(s.Kills),
		transform.NewClutchDetector(s.Kills, s.Stats),
		transform.NewReplayEventGenerator(s.Replay),
	}
}

// Runner loads a match's persisted input and executes the pipeline over it.
type Runner struct {
	pipeline *Pipeline
	stores   Stores
}

// NewRunner creates a runner with the default transformer set.
func NewRunner(stores Stores) *Runner {
	return &Runner{
		pipeline: NewPipeline(DefaultTransformers(stores)...),
		stores:   stores,
	}
}

// WithPipeline replaces the default pipeline, e.g. to attach a logger or
// an observer.
func (r *Runner) WithPipeline(p *Pipeline) *Runner {
	r.pipeline = p
	return r
}

// Run fetches the match, its archived events, rounds and roster, and
// executes the full pipeline.
func (r *Runner) Run(ctx context.Context, matchID string, opts transform.Options) (*Aggregate, error) {
	tc, err := r.buildContext(ctx, matchID, opts)
	if err != nil {
		return nil, err
	}
	return r.pipeline.Execute(ctx, tc)
}

// Rerun restricts execution to the named transformers, re-fetching the
// persisted input. Only the named transformers' output is reset, since
// each transformer clears its own prior rows.
func (r *Runner) Rerun(ctx context.Context, matchID string, names []string, opts transform.Options) (*Aggregate, error) {
	opts.Only = names
	opts.Skip = nil
	return r.Run(ctx, matchID, opts)
}

func (r *Runner) buildContext(ctx context.Context, matchID string, opts transform.Options) (*transform.Context, error) {
	match, err := r.stores.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match %s: %w", matchID, err)
	}
	events, err := r.stores.Events.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", matchID, err)
	}
	rounds, err := r.stores.Rounds.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load rounds for %s: %w", matchID, err)
	}
	index, err := lookup.NewRoundIndex(rounds)
	if err != nil {
		return nil, fmt.Errorf("index rounds for %s: %w", matchID, err)
	}
	roster, err := r.stores.Players.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load roster for %s: %w", matchID, err)
	}
	return transform.NewContext(match, events, index, roster, opts), nil
}
