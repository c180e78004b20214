package domain

// Replay event kinds for the visualization timeline.
const (
	ReplayKindKill        = "kill"
	ReplayKindBombPlant   = "bomb_plant"
	ReplayKindBombDefuse  = "bomb_defuse"
	ReplayKindBombExplode = "bomb_explode"
)

// ReplayEvent is a lightweight visualization record derived from discrete
// match events. Stored append-only in ClickHouse, keyed by match.
type ReplayEvent struct {
	EventID string // deterministic hash
	MatchID string
	RoundID string
	Tick    int64
	Kind    string
	ActorID string // planter/defuser/attacker, "" for bomb_explode
	TargetID string // victim for kills, "" otherwise
	X, Y, Z float64
}
