package domain

// Economy classifications for a (round, team) based on round-start
// equipment value.
const (
	BuyTypePistol  = "pistol"
	BuyTypeEco     = "eco"
	BuyTypeForce   = "force"
	BuyTypeFullBuy = "full"
)

// CombatMetrics holds basic combat output. Percentages are 0-100,
// ratios are >= 0.
type CombatMetrics struct {
	Kills              int     `json:"kills"`
	Deaths             int     `json:"deaths"`
	Assists            int     `json:"assists"`
	HeadshotKills      int     `json:"headshotKills"`
	HeadshotPercent    float64 `json:"headshotPercent"`
	DamagePerRound     float64 `json:"damagePerRound"`
	KillDeathRatio     float64 `json:"killDeathRatio"`
	KillsPerRound      float64 `json:"killsPerRound"`
	DeathsPerRound     float64 `json:"deathsPerRound"`
	AssistsPerRound    float64 `json:"assistsPerRound"`
	TotalDamage        int     `json:"totalDamage"`
	MultiKillRounds    int     `json:"multiKillRounds"` // rounds with 2+ kills
	TwoKillRounds      int     `json:"twoKillRounds"`
	ThreeKillRounds    int     `json:"threeKillRounds"`
	FourKillRounds     int     `json:"fourKillRounds"`
	FiveKillRounds     int     `json:"fiveKillRounds"`
}

// RatingMetrics holds the composite performance rating and its inputs.
// Rating is centered near 1.0 for average performance, open-ended above.
type RatingMetrics struct {
	KASTPercent  float64 `json:"kastPercent"` // 0-100
	KASTRounds   int     `json:"kastRounds"`
	ImpactScore  float64 `json:"impactScore"` // ~1.0 average
	Rating       float64 `json:"rating"`
}

// TradeMetrics holds trade participation derived from kill trade flags.
type TradeMetrics struct {
	TradeKills       int     `json:"tradeKills"`   // kills avenging a teammate
	TradedDeaths     int     `json:"tradedDeaths"` // own deaths avenged by a teammate
	AvgTradeSeconds  float64 `json:"avgTradeSeconds"`
}

// ClutchBucket holds attempts and wins for one 1vN situation size.
type ClutchBucket struct {
	Attempts int `json:"attempts"`
	Wins     int `json:"wins"`
}

// ClutchMetrics breaks clutch outcomes down by opponent count.
type ClutchMetrics struct {
	Attempts       int             `json:"attempts"`
	Wins           int             `json:"wins"`
	WinRatePercent float64         `json:"winRatePercent"` // 0-100
	ByOpponents    [5]ClutchBucket `json:"byOpponents"`    // index 0 = 1v1 ... 4 = 1v5
}

// OpeningMetrics holds first-kill-of-round participation.
type OpeningMetrics struct {
	Wins           int     `json:"wins"`   // opening kills as attacker
	Losses         int     `json:"losses"` // opening deaths as victim
	WinRatePercent float64 `json:"winRatePercent"`
}

// EconomyBucket holds rounds played and won under one buy classification.
type EconomyBucket struct {
	Rounds int `json:"rounds"`
	Wins   int `json:"wins"`
}

// EconomyMetrics classifies the player's team buy per round and conditions
// the round win rate on it.
type EconomyMetrics struct {
	AvgEquipmentValue float64                  `json:"avgEquipmentValue"`
	TotalMoneySpent   int                      `json:"totalMoneySpent"`
	ByBuyType         map[string]EconomyBucket `json:"byBuyType"`
}

// UtilityMetrics holds grenade usage normalized to per-round rates.
type UtilityMetrics struct {
	SmokesThrown      int     `json:"smokesThrown"`
	FlashesThrown     int     `json:"flashesThrown"`
	HEGrenadesThrown  int     `json:"heGrenadesThrown"`
	FiresThrown       int     `json:"firesThrown"`
	DecoysThrown      int     `json:"decoysThrown"`
	EnemiesBlinded    int     `json:"enemiesBlinded"`
	TeammatesBlinded  int     `json:"teammatesBlinded"`
	UtilityDamage     int     `json:"utilityDamage"`
	GrenadesPerRound  float64 `json:"grenadesPerRound"`
	UtilityDamagePerRound float64 `json:"utilityDamagePerRound"`
}

// SummaryScores are 0-100 normalized headline numbers for dashboards.
type SummaryScores struct {
	Overall  float64 `json:"overall"`
	Firepower float64 `json:"firepower"`
	Entry    float64 `json:"entry"`
	Clutch   float64 `json:"clutch"`
	Utility  float64 `json:"utility"`
}

// PlayerMatchMetrics is the analytics engine output for one player in one
// match. Derived from normalized records, cached, and invalidated whenever
// the underlying rows are regenerated.
type PlayerMatchMetrics struct {
	MatchID      string `json:"matchId"`
	PlayerID     string `json:"playerId"`
	DisplayName  string `json:"displayName"`
	TeamNumber   int    `json:"teamNumber"`
	RoundsPlayed int    `json:"roundsPlayed"`

	Combat   CombatMetrics  `json:"combat"`
	Rating   RatingMetrics  `json:"rating"`
	Trades   TradeMetrics   `json:"trades"`
	Clutches ClutchMetrics  `json:"clutches"`
	Openings OpeningMetrics `json:"openings"`
	Economy  EconomyMetrics `json:"economy"`
	Utility  UtilityMetrics `json:"utility"`
	Summary  SummaryScores  `json:"summary"`

	ComputedAt int64 `json:"computedAt"`
}

// TeamMatchSummary aggregates per-player metrics for one team.
type TeamMatchSummary struct {
	TeamNumber    int     `json:"teamNumber"`
	RoundsWon     int     `json:"roundsWon"`
	AvgRating     float64 `json:"avgRating"`
	AvgADR        float64 `json:"avgAdr"`
	AvgKASTPercent float64 `json:"avgKastPercent"`
	TopPerformer  string  `json:"topPerformer"` // player id with highest rating
}

// ScorePoint is one step of the score progression series.
type ScorePoint struct {
	RoundNumber int `json:"roundNumber"`
	ScoreT      int `json:"scoreT"`
	ScoreCT     int `json:"scoreCT"`
}

// KeyRound marks a round whose outcome was an economic upset: a pistol,
// eco or force buy beating a full buy.
type KeyRound struct {
	RoundNumber   int    `json:"roundNumber"`
	WinnerTeam    int    `json:"winnerTeam"`
	WinnerBuyType string `json:"winnerBuyType"`
	LoserBuyType  string `json:"loserBuyType"`
}

// MatchOverview is the match-level analytics rollup.
type MatchOverview struct {
	MatchID   string             `json:"matchId"`
	Teams     []TeamMatchSummary `json:"teams"`
	Score     []ScorePoint       `json:"score"`
	KeyRounds []KeyRound         `json:"keyRounds"`
}
