package reporting

import (
	"context"
	"sort"
	"time"

	"cs-match-lab/internal/analytics"
	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/storage"
)

// Generator produces match reports from stored records and computed metrics.
type Generator struct {
	matchStore storage.MatchStore
	roundStore storage.RoundStore
	engine     *analytics.Engine
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(matchStore storage.MatchStore, roundStore storage.RoundStore, engine *analytics.Engine) *Generator {
	return &Generator{
		matchStore: matchStore,
		roundStore: roundStore,
		engine:     engine,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one match.
func (g *Generator) Generate(ctx context.Context, matchID string) (*Report, error) {
	match, err := g.matchStore.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	rounds, err := g.roundStore.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	metrics, err := g.engine.PlayerMetrics(ctx, matchID)
	if err != nil {
		return nil, err
	}

	overview, err := g.engine.MatchOverview(ctx, matchID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(metrics))
	for _, m := range metrics {
		names[m.PlayerID] = m.DisplayName
	}

	report := &Report{
		GeneratedAt: g.now(),
		MatchID:     match.MatchID,
		MapName:     match.MapName,
		PlayedAt:    match.PlayedAt,
		TickRate:    match.TickRate,
		RoundCount:  len(rounds),
		Teams:       buildTeamRows(overview, names),
		Scoreboard:  buildScoreboard(metrics),
		Rounds:      buildRoundRows(rounds, match.TickRate),
		KeyRounds:   buildKeyRounds(overview),
	}
	if n := len(report.Rounds); n > 0 {
		report.FinalScoreT = report.Rounds[n-1].ScoreT
		report.FinalScoreCT = report.Rounds[n-1].ScoreCT
	}
	return report, nil
}

func buildTeamRows(overview *domain.MatchOverview, names map[string]string) []TeamRow {
	rows := make([]TeamRow, 0, len(overview.Teams))
	for _, t := range overview.Teams {
		top := t.TopPerformer
		if name, ok := names[t.TopPerformer]; ok {
			top = name
		}
		rows = append(rows, TeamRow{
			TeamNumber:     t.TeamNumber,
			RoundsWon:      t.RoundsWon,
			AvgRating:      t.AvgRating,
			AvgADR:         t.AvgADR,
			AvgKASTPercent: t.AvgKASTPercent,
			TopPerformer:   top,
		})
	}
	return rows
}

// buildScoreboard flattens player metrics into scoreboard rows sorted by
// rating DESC, ties broken by player id for stable output.
func buildScoreboard(metrics []*domain.PlayerMatchMetrics) []ScoreboardRow {
	rows := make([]ScoreboardRow, len(metrics))
	for i, m := range metrics {
		rows[i] = ScoreboardRow{
			PlayerID:        m.PlayerID,
			DisplayName:     m.DisplayName,
			TeamNumber:      m.TeamNumber,
			Kills:           m.Combat.Kills,
			Deaths:          m.Combat.Deaths,
			Assists:         m.Combat.Assists,
			KillDeathRatio:  m.Combat.KillDeathRatio,
			ADR:             m.Combat.DamagePerRound,
			KASTPercent:     m.Rating.KASTPercent,
			HeadshotPercent: m.Combat.HeadshotPercent,
			Rating:          m.Rating.Rating,
			ImpactScore:     m.Rating.ImpactScore,
			TradeKills:      m.Trades.TradeKills,
			OpeningWins:     m.Openings.Wins,
			OpeningLosses:   m.Openings.Losses,
			ClutchAttempts:  m.Clutches.Attempts,
			ClutchWins:      m.Clutches.Wins,
			UtilityDamage:   m.Utility.UtilityDamage,
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	return rows
}

func buildRoundRows(rounds []*domain.Round, tickRate float64) []RoundRow {
	sorted := make([]*domain.Round, len(rounds))
	copy(sorted, rounds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	rows := make([]RoundRow, len(sorted))
	scoreT, scoreCT := 0, 0
	for i, r := range sorted {
		switch r.WinnerTeam {
		case domain.TeamT:
			scoreT++
		case domain.TeamCT:
			scoreCT++
		}
		var duration float64
		if tickRate > 0 {
			duration = float64(r.EndTick-r.StartTick) / tickRate
		}
		rows[i] = RoundRow{
			Number:          r.Number,
			WinnerTeam:      r.WinnerTeam,
			WinReason:       r.WinReason,
			ScoreT:          scoreT,
			ScoreCT:         scoreCT,
			DurationSeconds: duration,
		}
	}
	return rows
}

func buildKeyRounds(overview *domain.MatchOverview) []KeyRoundRow {
	rows := make([]KeyRoundRow, len(overview.KeyRounds))
	for i, k := range overview.KeyRounds {
		rows[i] = KeyRoundRow{
			Number:        k.RoundNumber,
			WinnerTeam:    k.WinnerTeam,
			WinnerBuyType: k.WinnerBuyType,
			LoserBuyType:  k.LoserBuyType,
		}
	}
	return rows
}
