package storage

import (
	"context"

	"cs-match-lab/internal/domain"
)

// MatchStore provides access to matches storage.
type MatchStore interface {
	// Insert adds a new match. Returns ErrDuplicateKey if match_id exists.
	Insert(ctx context.Context, m *domain.Match) error

	// GetByID retrieves a match by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, matchID string) (*domain.Match, error)

	// List retrieves all matches ordered by played_at DESC.
	List(ctx context.Context) ([]*domain.Match, error)
}

// RoundStore provides access to rounds storage.
type RoundStore interface {
	// InsertBulk adds multiple rounds atomically.
	InsertBulk(ctx context.Context, rounds []*domain.Round) error

	// GetByMatchID retrieves all rounds for a match, ordered by number ASC.
	GetByMatchID(ctx context.Context, matchID string) ([]*domain.Round, error)

	// DeleteByMatchID removes all rounds for a match.
	DeleteByMatchID(ctx context.Context, matchID string) error
}

// PlayerStore provides access to the per-match roster storage.
type PlayerStore interface {
	// InsertBulk adds multiple roster entries atomically.
	InsertBulk(ctx context.Context, players []*domain.Player) error

	// GetByMatchID retrieves the roster for a match, ordered by team then id.
	GetByMatchID(ctx context.Context, matchID string) ([]*domain.Player, error)

	// DeleteByMatchID removes the roster for a match.
	DeleteByMatchID(ctx context.Context, matchID string) error
}

// EventStore provides access to the raw match event archive.
type EventStore interface {
	// InsertBulk appends events for a match.
	InsertBulk(ctx context.Context, events []*domain.Event) error

	// GetByMatchID retrieves all events for a match, ordered by (tick, seq) ASC.
	GetByMatchID(ctx context.Context, matchID string) ([]*domain.Event, error)

	// DeleteByMatchID removes all archived events for a match.
	DeleteByMatchID(ctx context.Context, matchID string) error
}

// KillStore provides access to normalized kill storage.
type KillStore interface {
	// InsertBulk adds multiple kills atomically.
	InsertBulk(ctx context.Context, kills []*domain.Kill) error

	// GetByMatchID retrieves all kills for a match, ordered by (tick, kill_id) ASC.
	GetByMatchID(ctx context.Context, matchID string) ([]*domain.Kill, error)

	// DeleteByMatchID removes all kills for a match.
	DeleteByMatchID(ctx context.Context, matchID string) error

	// MarkTrades writes trade flags for the given kills.
	MarkTrades(ctx context.Context, matchID string, trades []*domain.TradeInfo) error

	// ResetTrades clears all trade flags for a match back to false/null.
	ResetTrades(ctx context.Context, matchID string) error
}

// ClutchUpdate attaches a clutch outcome to one stat row.
type ClutchUpdate struct {
	StatID    string
	ClutchVs  int
	ClutchWon bool
}

// RoundPlayerStatStore provides access to per-(round, player) stat storage.
type RoundPlayerStatStore interface {
	// InsertBulk adds multiple stat rows atomically.
	InsertBulk(ctx context.Context, stats []*domain.RoundPlayerStat) error

	// GetByMatchID retrieves all stat rows for a match, ordered by
	// (round_id, player_id) ASC.
	GetByMatchID(ctx context.Context, matchID string) ([]*domain.RoundPlayerStat, error)

	// DeleteByMatchID removes all stat rows for a match.
	DeleteByMatchID(ctx context.Context, matchID string) error

	// SetClutches writes clutch outcomes onto stat rows.
	SetClutches(ctx context.Context, matchID string, updates []ClutchUpdate) error

	// ResetClutches clears all clutch fields for a match back to null.
	ResetClutches(ctx context.Context, matchID string) error
}

// ReplayEventStore provides access to visualization event storage.
type ReplayEventStore interface {
	// InsertBulk appends replay events for a match.
	InsertBulk(ctx context.Context, events []*domain.ReplayEvent) error

	// GetByMatchID retrieves all replay events for a match, ordered by tick ASC.
	GetByMatchID(ctx context.Context, matchID string) ([]*domain.ReplayEvent, error)

	// DeleteByMatchID removes all replay events for a match.
	DeleteByMatchID(ctx context.Context, matchID string) error
}

// PlayerMetricsStore caches computed PlayerMatchMetrics.
type PlayerMetricsStore interface {
	// InsertBulk stores computed metrics for a match.
	InsertBulk(ctx context.Context, metrics []*domain.PlayerMatchMetrics) error

	// GetByMatchID retrieves cached metrics for a match, ordered by player_id.
	// Returns an empty slice when nothing is cached.
	GetByMatchID(ctx context.Context, matchID string) ([]*domain.PlayerMatchMetrics, error)

	// DeleteByMatchID invalidates cached metrics for a match.
	DeleteByMatchID(ctx context.Context, matchID string) error
}
