package domain

// Match represents one recorded competitive match.
// Corresponds to matches table in PostgreSQL.
type Match struct {
	MatchID   string  // PRIMARY KEY, assigned at ingestion
	MapName   string  // e.g. "de_mirage"
	TickRate  float64 // ticks per second of the recording (64 for CS2 demos)
	PlayedAt  int64   // Unix timestamp in milliseconds
	CreatedAt int64   // record creation timestamp (ms)
}

// DefaultTickRate is assumed when the recording does not declare one.
const DefaultTickRate = 64.0
