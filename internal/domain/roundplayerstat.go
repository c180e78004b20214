package domain

// RoundPlayerStat is the per-(round, player) accumulator row. Exactly one
// row exists for every round x roster-player pair, including all-zero rows.
// Corresponds to round_player_stats table in PostgreSQL.
type RoundPlayerStat struct {
	StatID   string // PRIMARY KEY, deterministic hash
	MatchID  string
	RoundID  string
	PlayerID string

	TeamNumber int

	Kills         int
	Deaths        int
	Assists       int
	Damage        int // health damage dealt
	UtilityDamage int // subset of Damage dealt by grenades/fire
	HeadshotKills int

	Survived     bool
	IsFirstKill  bool // this player made the round's first kill
	IsFirstDeath bool // this player was the round's first victim

	// Economy snapshot at round start.
	EquipmentValue int
	MoneySpent     int

	// Utility usage.
	SmokesThrown     int
	FlashesThrown    int
	HEGrenadesThrown int
	FiresThrown      int // molotov + incendiary
	DecoysThrown     int
	EnemiesBlinded   int
	TeammatesBlinded int

	// Clutch outcome, written by the clutch detector. Nil when the player
	// was not in a clutch situation this round.
	ClutchVs  *int // 1..5 enemies faced
	ClutchWon *bool

	CreatedAt int64
}

// ClutchSituation is the transient output of the clutch detector before it
// is merged onto the surviving player's RoundPlayerStat row. At most one
// exists per (round, team).
type ClutchSituation struct {
	MatchID      string
	RoundID      string
	PlayerID     string
	TeamNumber   int
	EnemiesFaced int // 1..5
	Won          bool
	TriggerTick  int64
}

// TradeInfo is the transient output of the trade detector for one kill.
type TradeInfo struct {
	KillID            string
	AvengedKillID     string // the earlier kill whose victim was avenged
	TradedWithinTicks int64
}
