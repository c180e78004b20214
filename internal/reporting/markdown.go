package reporting

import (
	"fmt"
	"strings"
	"time"

	"cs-match-lab/internal/domain"
)

// RenderMarkdown renders a match report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Match Report: %s\n\n", r.MapName))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Match: %s | Played: %s | Tick rate: %.0f\n\n",
		r.MatchID, time.UnixMilli(r.PlayedAt).UTC().Format(time.RFC3339), r.TickRate))
	sb.WriteString(fmt.Sprintf("Final score: %d - %d (T - CT) over %d rounds\n\n",
		r.FinalScoreT, r.FinalScoreCT, r.RoundCount))

	// Team Summaries
	sb.WriteString("## Teams\n\n")
	if len(r.Teams) > 0 {
		sb.WriteString("| Team | Rounds Won | Avg Rating | Avg ADR | Avg KAST% | Top Performer |\n")
		sb.WriteString("|------|-----------|-----------|---------|-----------|---------------|\n")
		for _, t := range r.Teams {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.1f | %.1f | %s |\n",
				teamLabel(t.TeamNumber), t.RoundsWon, t.AvgRating, t.AvgADR, t.AvgKASTPercent, t.TopPerformer))
		}
	} else {
		sb.WriteString("No team data available.\n")
	}
	sb.WriteString("\n")

	// Scoreboard
	sb.WriteString("## Scoreboard\n\n")
	if len(r.Scoreboard) > 0 {
		sb.WriteString("| Player | Team | K | D | A | K/D | ADR | KAST% | HS% | Rating | Impact | Trades | Opening | Clutches | UtilDmg |\n")
		sb.WriteString("|--------|------|---|---|---|-----|-----|-------|-----|--------|--------|--------|---------|----------|--------|\n")
		for _, p := range r.Scoreboard {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %.2f | %.1f | %.1f | %.1f | %.2f | %.2f | %d | %d-%d | %d/%d | %d |\n",
				p.DisplayName, teamLabel(p.TeamNumber),
				p.Kills, p.Deaths, p.Assists, p.KillDeathRatio,
				p.ADR, p.KASTPercent, p.HeadshotPercent,
				p.Rating, p.ImpactScore,
				p.TradeKills, p.OpeningWins, p.OpeningLosses,
				p.ClutchWins, p.ClutchAttempts, p.UtilityDamage))
		}
	} else {
		sb.WriteString("No player metrics available.\n")
	}
	sb.WriteString("\n")

	// Rounds
	sb.WriteString("## Rounds\n\n")
	if len(r.Rounds) > 0 {
		sb.WriteString("| # | Winner | Reason | Score | Duration |\n")
		sb.WriteString("|---|--------|--------|-------|----------|\n")
		for _, rd := range r.Rounds {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d-%d | %.0fs |\n",
				rd.Number, teamLabel(rd.WinnerTeam), rd.WinReason,
				rd.ScoreT, rd.ScoreCT, rd.DurationSeconds))
		}
	} else {
		sb.WriteString("No rounds available.\n")
	}
	sb.WriteString("\n")

	// Key Rounds
	sb.WriteString("## Key Rounds\n\n")
	if len(r.KeyRounds) > 0 {
		sb.WriteString("| # | Winner | Winner Buy | Loser Buy |\n")
		sb.WriteString("|---|--------|-----------|----------|\n")
		for _, k := range r.KeyRounds {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
				k.Number, teamLabel(k.WinnerTeam), k.WinnerBuyType, k.LoserBuyType))
		}
	} else {
		sb.WriteString("No economic upsets in this match.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func teamLabel(team int) string {
	switch team {
	case domain.TeamT:
		return "T"
	case domain.TeamCT:
		return "CT"
	default:
		return "-"
	}
}
