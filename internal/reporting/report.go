package reporting

import "time"

// Report is the renderable match report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	MatchID     string
	MapName     string
	PlayedAt    int64 // Unix ms
	TickRate    float64
	RoundCount  int
	FinalScoreT  int
	FinalScoreCT int

	// Team Summaries (T first, then CT)
	Teams []TeamRow

	// Scoreboard (sorted by rating DESC)
	Scoreboard []ScoreboardRow

	// Rounds (sorted by number ASC)
	Rounds []RoundRow

	// Key Rounds (economic upsets)
	KeyRounds []KeyRoundRow
}

// TeamRow summarizes one team.
type TeamRow struct {
	TeamNumber     int
	RoundsWon      int
	AvgRating      float64
	AvgADR         float64
	AvgKASTPercent float64
	TopPerformer   string // display name
}

// ScoreboardRow represents one player line in the scoreboard table.
type ScoreboardRow struct {
	PlayerID        string
	DisplayName     string
	TeamNumber      int
	Kills           int
	Deaths          int
	Assists         int
	KillDeathRatio  float64
	ADR             float64
	KASTPercent     float64
	HeadshotPercent float64
	Rating          float64
	ImpactScore     float64
	TradeKills      int
	OpeningWins     int
	OpeningLosses   int
	ClutchAttempts  int
	ClutchWins      int
	UtilityDamage   int
}

// RoundRow represents one round line in the rounds table.
type RoundRow struct {
	Number     int
	WinnerTeam int
	WinReason  string
	ScoreT     int
	ScoreCT    int
	DurationSeconds float64
}

// KeyRoundRow marks an economic upset round.
type KeyRoundRow struct {
	Number        int
	WinnerTeam    int
	WinnerBuyType string
	LoserBuyType  string
}
