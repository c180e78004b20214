package domain

// Team numbers follow the recording convention: 2 = T side, 3 = CT side.
// 0 and 1 are reserved for unassigned and spectator slots.
const (
	TeamUnassigned = 0
	TeamSpectator  = 1
	TeamT          = 2
	TeamCT         = 3
)

// Round represents one round of a match. Boundaries are tick-inclusive
// [StartTick, EndTick], non-overlapping and strictly increasing by Number.
// Rounds are produced upstream and immutable here.
type Round struct {
	RoundID    string // PRIMARY KEY, deterministic hash
	MatchID    string // FK to matches
	Number     int    // 1-based round number
	StartTick  int64
	EndTick    int64
	WinnerTeam int    // TeamT | TeamCT, 0 if unknown
	WinReason  string // see WinReason* constants
	CreatedAt  int64  // record creation timestamp (ms)
}

// Round end reasons as emitted by the demo parser.
const (
	WinReasonTargetBombed = "target_bombed"
	WinReasonBombDefused  = "bomb_defused"
	WinReasonTWin         = "terrorists_win"
	WinReasonCTWin        = "counter_terrorists_win"
	WinReasonTargetSaved  = "target_saved"
	WinReasonDraw         = "round_draw"
)

// Contains reports whether a tick falls inside the round boundaries.
func (r *Round) Contains(tick int64) bool {
	return tick >= r.StartTick && tick <= r.EndTick
}
