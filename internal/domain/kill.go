package domain

// Kill is one normalized death event. Attacker fields are nil/zero for
// world deaths and suicides; victim fields are always present.
// Corresponds to kills table in PostgreSQL.
type Kill struct {
	KillID  string // PRIMARY KEY, deterministic hash
	MatchID string // FK to matches
	RoundID string // FK to rounds
	Tick    int64

	AttackerID   *string // nil for world kills
	AttackerTeam int     // TeamUnassigned when no attacker
	VictimID     string
	VictimTeam   int
	AssisterID   *string

	Weapon        string
	Headshot      bool
	ThroughSmoke  bool
	BlindAttacker bool
	NoScope       bool
	Penetrated    int // wallbang count

	// Position snapshot at the moment of the kill.
	AttackerX, AttackerY, AttackerZ float64
	VictimX, VictimY, VictimZ      float64

	IsSuicide          bool
	IsTeamkill         bool
	IsFirstKillOfRound bool

	// Trade fields, written by the trade detector. IsTradeKill marks the
	// avenging kill; IsTradeDeath marks the kill whose victim was avenged.
	IsTradeKill       bool
	IsTradeDeath      bool
	TradedWithinTicks *int64

	CreatedAt int64
}

// Attacker returns the attacker id or "" when the kill has none.
func (k *Kill) Attacker() string {
	if k.AttackerID == nil {
		return ""
	}
	return *k.AttackerID
}

// Assister returns the assister id or "" when the kill has none.
func (k *Kill) Assister() string {
	if k.AssisterID == nil {
		return ""
	}
	return *k.AssisterID
}
