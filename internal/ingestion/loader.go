package ingestion

import (
	"context"
	"fmt"
	"io"

	"cs-match-lab/internal/storage"
)

// DefaultLoadBatchSize bounds one event archive write.
const DefaultLoadBatchSize = 500

// Loader persists a parsed match: the match row and roster in postgres,
// the raw event archive in clickhouse.
type Loader struct {
	client    *Client
	matches   storage.MatchStore
	rounds    storage.RoundStore
	players   storage.PlayerStore
	events    storage.EventStore
	batchSize int
}

// NewLoader creates a loader over the given client and stores.
func NewLoader(client *Client, matches storage.MatchStore, rounds storage.RoundStore, players storage.PlayerStore, events storage.EventStore) *Loader {
	return &Loader{
		client:    client,
		matches:   matches,
		rounds:    rounds,
		players:   players,
		events:    events,
		batchSize: DefaultLoadBatchSize,
	}
}

// WithBatchSize overrides the event write batch size.
func (l *Loader) WithBatchSize(size int) *Loader {
	if size > 0 {
		l.batchSize = size
	}
	return l
}

// IngestDemo parses a demo through the parser service and stores the
// result under the given match id. A duplicate match id surfaces as
// storage.ErrDuplicateKey from the match insert, before anything else is
// written.
func (l *Loader) IngestDemo(ctx context.Context, matchID, filename string, demo io.Reader) (*ParsedMatch, error) {
	parsed, err := l.client.ParseDemo(ctx, matchID, filename, demo)
	if err != nil {
		return nil, err
	}
	if err := l.Store(ctx, parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// Store persists an already-parsed match.
func (l *Loader) Store(ctx context.Context, parsed *ParsedMatch) error {
	matchID := parsed.Match.MatchID

	if err := l.matches.Insert(ctx, parsed.Match); err != nil {
		return fmt.Errorf("insert match %s: %w", matchID, err)
	}
	if len(parsed.Rounds) > 0 {
		if err := l.rounds.InsertBulk(ctx, parsed.Rounds); err != nil {
			return fmt.Errorf("insert rounds for %s: %w", matchID, err)
		}
	}
	if len(parsed.Roster) > 0 {
		if err := l.players.InsertBulk(ctx, parsed.Roster); err != nil {
			return fmt.Errorf("insert roster for %s: %w", matchID, err)
		}
	}
	for start := 0; start < len(parsed.Events); start += l.batchSize {
		end := start + l.batchSize
		if end > len(parsed.Events) {
			end = len(parsed.Events)
		}
		if err := l.events.InsertBulk(ctx, parsed.Events[start:end]); err != nil {
			return fmt.Errorf("archive events for %s: %w", matchID, err)
		}
	}
	return nil
}
