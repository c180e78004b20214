package reporting

import (
	"fmt"
	"strings"
)

// RenderScoreboardCSV renders the scoreboard table as CSV string.
func RenderScoreboardCSV(rows []ScoreboardRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("player_id,display_name,team,kills,deaths,assists,kd,adr,kast_percent,")
	sb.WriteString("hs_percent,rating,impact,trade_kills,opening_wins,opening_losses,")
	sb.WriteString("clutch_attempts,clutch_wins,utility_damage\n")

	// Rows
	for _, p := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%d,%.4f,%.4f,%.4f,%.4f,%.4f,%.4f,%d,%d,%d,%d,%d,%d\n",
			p.PlayerID,
			p.DisplayName,
			teamLabel(p.TeamNumber),
			p.Kills,
			p.Deaths,
			p.Assists,
			p.KillDeathRatio,
			p.ADR,
			p.KASTPercent,
			p.HeadshotPercent,
			p.Rating,
			p.ImpactScore,
			p.TradeKills,
			p.OpeningWins,
			p.OpeningLosses,
			p.ClutchAttempts,
			p.ClutchWins,
			p.UtilityDamage,
		))
	}

	return sb.String()
}

// RenderRoundsCSV renders the rounds table as CSV string.
func RenderRoundsCSV(rows []RoundRow) string {
	var sb strings.Builder

	sb.WriteString("number,winner,win_reason,score_t,score_ct,duration_seconds\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%d,%d,%.2f\n",
			r.Number,
			teamLabel(r.WinnerTeam),
			r.WinReason,
			r.ScoreT,
			r.ScoreCT,
			r.DurationSeconds,
		))
	}

	return sb.String()
}
