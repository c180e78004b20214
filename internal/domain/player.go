package domain

// Player is one roster entry for a match. The roster is fixed for the
// duration of the match: two teams numbered TeamT and TeamCT.
type Player struct {
	MatchID     string // FK to matches
	PlayerID    string // steam id, PRIMARY KEY together with MatchID
	DisplayName string
	TeamNumber  int // TeamT | TeamCT
	CreatedAt   int64
}
