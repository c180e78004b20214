package analytics

import (
	"sort"

	"cs-match-lab/internal/domain"
)

// ComputeMatchOverview reduces per-player metrics and round outcomes into
// the match-level rollup: team summaries, score progression and key
// (economic upset) rounds.
func ComputeMatchOverview(in Input, players []*domain.PlayerMatchMetrics) *domain.MatchOverview {
	overview := &domain.MatchOverview{
		MatchID:   in.Match.MatchID,
		Teams:     computeTeamSummaries(in.Rounds, players),
		Score:     computeScoreProgression(in.Rounds),
		KeyRounds: computeKeyRounds(in.Rounds, in.Stats),
	}
	return overview
}

func computeTeamSummaries(rounds []*domain.Round, players []*domain.PlayerMatchMetrics) []domain.TeamMatchSummary {
	wins := make(map[int]int)
	for _, r := range rounds {
		wins[r.WinnerTeam]++
	}

	var out []domain.TeamMatchSummary
	for _, team := range []int{domain.TeamT, domain.TeamCT} {
		summary := domain.TeamMatchSummary{
			TeamNumber: team,
			RoundsWon:  wins[team],
		}

		var members []*domain.PlayerMatchMetrics
		for _, p := range players {
			if p.TeamNumber == team {
				members = append(members, p)
			}
		}
		if len(members) > 0 {
			var rating, adr, kast float64
			top := members[0]
			for _, p := range members {
				rating += p.Rating.Rating
				adr += p.Combat.DamagePerRound
				kast += p.Rating.KASTPercent
				if p.Rating.Rating > top.Rating.Rating {
					top = p
				}
			}
			summary.AvgRating = rating / float64(len(members))
			summary.AvgADR = adr / float64(len(members))
			summary.AvgKASTPercent = kast / float64(len(members))
			summary.TopPerformer = top.PlayerID
		}

		out = append(out, summary)
	}
	return out
}

func computeScoreProgression(rounds []*domain.Round) []domain.ScorePoint {
	sorted := make([]*domain.Round, len(rounds))
	copy(sorted, rounds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	var points []domain.ScorePoint
	scoreT, scoreCT := 0, 0
	for _, r := range sorted {
		switch r.WinnerTeam {
		case domain.TeamT:
			scoreT++
		case domain.TeamCT:
			scoreCT++
		}
		points = append(points, domain.ScorePoint{
			RoundNumber: r.Number,
			ScoreT:      scoreT,
			ScoreCT:     scoreCT,
		})
	}
	return points
}

// computeKeyRounds flags economic upsets: an eco or force buy beating a
// full buy. Pistol rounds never qualify since both sides are broke.
func computeKeyRounds(rounds []*domain.Round, stats []*domain.RoundPlayerStat) []domain.KeyRound {
	buys := classifyTeamBuys(rounds, stats)

	sorted := make([]*domain.Round, len(rounds))
	copy(sorted, rounds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	var out []domain.KeyRound
	for _, r := range sorted {
		winner := r.WinnerTeam
		if winner != domain.TeamT && winner != domain.TeamCT {
			continue
		}
		loser := domain.TeamT
		if winner == domain.TeamT {
			loser = domain.TeamCT
		}

		winnerBuy := buys[teamBuyKey{r.RoundID, winner}]
		loserBuy := buys[teamBuyKey{r.RoundID, loser}]
		if (winnerBuy == domain.BuyTypeEco || winnerBuy == domain.BuyTypeForce) &&
			loserBuy == domain.BuyTypeFullBuy {
			out = append(out, domain.KeyRound{
				RoundNumber:   r.Number,
				WinnerTeam:    winner,
				WinnerBuyType: winnerBuy,
				LoserBuyType:  loserBuy,
			})
		}
	}
	return out
}
