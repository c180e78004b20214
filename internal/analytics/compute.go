// Package analytics derives player and match metrics from the normalized
// records produced by the transformation pipeline. All calculators are
// pure; persistence and caching live in the Engine.
package analytics

import (
	"sort"

	"cs-match-lab/internal/domain"
)

// Rating model coefficients. The linear combination is centered near 1.0
// for an average performance.
const (
	ratingKASTWeight   = 0.0073
	ratingKPRWeight    = 0.3591
	ratingDPRWeight    = -0.5329
	ratingImpactWeight = 0.2372
	ratingADRWeight    = 0.0032
	ratingIntercept    = 0.1587

	impactMultiKillWeight = 2.13
	impactOpeningWeight   = 1.0
	impactClutchWeight    = 1.5
	impactAssistWeight    = 0.42
	impactIntercept       = 0.41
)

// Equipment value thresholds for buy classification, team total.
const (
	ecoThreshold      = 5000
	forceBuyThreshold = 20000
)

// Pistol rounds under MR12: the first round of each half.
const roundsPerHalf = 12

// Input bundles the normalized records for one match.
type Input struct {
	Match  *domain.Match
	Rounds []*domain.Round
	Roster []*domain.Player
	Kills  []*domain.Kill
	Stats  []*domain.RoundPlayerStat
}

// ComputePlayerMetrics derives per-player metrics for every roster player,
// ordered by player id. ComputedAt is left zero; the Engine stamps it.
func ComputePlayerMetrics(in Input) []*domain.PlayerMatchMetrics {
	roundsPlayed := len(in.Rounds)

	statsByPlayer := make(map[string][]*domain.RoundPlayerStat)
	for _, st := range in.Stats {
		statsByPlayer[st.PlayerID] = append(statsByPlayer[st.PlayerID], st)
	}

	roster := make([]*domain.Player, len(in.Roster))
	copy(roster, in.Roster)
	sort.Slice(roster, func(i, j int) bool { return roster[i].PlayerID < roster[j].PlayerID })

	teamBuys := classifyTeamBuys(in.Rounds, in.Stats)
	winners := make(map[string]int, len(in.Rounds))
	roundNumbers := make(map[string]int, len(in.Rounds))
	for _, r := range in.Rounds {
		winners[r.RoundID] = r.WinnerTeam
		roundNumbers[r.RoundID] = r.Number
	}

	out := make([]*domain.PlayerMatchMetrics, 0, len(roster))
	for _, p := range roster {
		stats := statsByPlayer[p.PlayerID]
		m := &domain.PlayerMatchMetrics{
			MatchID:      in.Match.MatchID,
			PlayerID:     p.PlayerID,
			DisplayName:  p.DisplayName,
			TeamNumber:   p.TeamNumber,
			RoundsPlayed: roundsPlayed,
		}

		m.Combat = computeCombat(stats, roundsPlayed)
		m.Trades = computeTrades(p.PlayerID, in.Kills, in.Match.TickRate)
		m.Clutches = computeClutches(stats)
		m.Openings = computeOpenings(stats)
		m.Economy = computeEconomy(p.TeamNumber, stats, teamBuys, winners)
		m.Utility = computeUtility(stats, roundsPlayed)
		m.Rating = computeRating(p.PlayerID, stats, in.Kills, m, roundsPlayed)
		m.Summary = computeSummaryScores(m)

		out = append(out, m)
	}
	return out
}

func computeCombat(stats []*domain.RoundPlayerStat, roundsPlayed int) domain.CombatMetrics {
	var c domain.CombatMetrics
	for _, st := range stats {
		c.Kills += st.Kills
		c.Deaths += st.Deaths
		c.Assists += st.Assists
		c.HeadshotKills += st.HeadshotKills
		c.TotalDamage += st.Damage

		switch {
		case st.Kills >= 5:
			c.FiveKillRounds++
		case st.Kills == 4:
			c.FourKillRounds++
		case st.Kills == 3:
			c.ThreeKillRounds++
		case st.Kills == 2:
			c.TwoKillRounds++
		}
	}
	c.MultiKillRounds = c.TwoKillRounds + c.ThreeKillRounds + c.FourKillRounds + c.FiveKillRounds

	c.HeadshotPercent = percent(c.HeadshotKills, c.Kills)
	c.DamagePerRound = ratio(float64(c.TotalDamage), roundsPlayed)
	c.KillsPerRound = ratio(float64(c.Kills), roundsPlayed)
	c.DeathsPerRound = ratio(float64(c.Deaths), roundsPlayed)
	c.AssistsPerRound = ratio(float64(c.Assists), roundsPlayed)
	if c.Deaths > 0 {
		c.KillDeathRatio = float64(c.Kills) / float64(c.Deaths)
	} else {
		c.KillDeathRatio = float64(c.Kills)
	}
	return c
}

// computeRating derives KAST, impact and the composite rating. A round
// counts toward KAST when the player got a kill or assist, survived, or
// died a traded death.
func computeRating(playerID string, stats []*domain.RoundPlayerStat, kills []*domain.Kill, m *domain.PlayerMatchMetrics, roundsPlayed int) domain.RatingMetrics {
	tradedDeathRounds := make(map[string]bool)
	for _, k := range kills {
		if k.VictimID == playerID && k.IsTradeDeath {
			tradedDeathRounds[k.RoundID] = true
		}
	}

	var r domain.RatingMetrics
	for _, st := range stats {
		if st.Kills > 0 || st.Assists > 0 || st.Survived || tradedDeathRounds[st.RoundID] {
			r.KASTRounds++
		}
	}
	r.KASTPercent = percent(r.KASTRounds, roundsPlayed)

	multiKillRPR := ratio(float64(m.Combat.MultiKillRounds), roundsPlayed)
	openingKPR := ratio(float64(m.Openings.Wins), roundsPlayed)
	clutchWinPR := ratio(float64(m.Clutches.Wins), roundsPlayed)
	r.ImpactScore = impactMultiKillWeight*multiKillRPR +
		impactOpeningWeight*openingKPR +
		impactClutchWeight*clutchWinPR +
		impactAssistWeight*m.Combat.AssistsPerRound +
		impactIntercept

	r.Rating = ratingKASTWeight*r.KASTPercent +
		ratingKPRWeight*m.Combat.KillsPerRound +
		ratingDPRWeight*m.Combat.DeathsPerRound +
		ratingImpactWeight*r.ImpactScore +
		ratingADRWeight*m.Combat.DamagePerRound +
		ratingIntercept
	return r
}

func computeTrades(playerID string, kills []*domain.Kill, tickRate float64) domain.TradeMetrics {
	var t domain.TradeMetrics
	var tradedTicks int64
	for _, k := range kills {
		if k.Attacker() == playerID && k.IsTradeKill {
			t.TradeKills++
			if k.TradedWithinTicks != nil {
				tradedTicks += *k.TradedWithinTicks
			}
		}
		if k.VictimID == playerID && k.IsTradeDeath {
			t.TradedDeaths++
		}
	}
	if t.TradeKills > 0 && tickRate > 0 {
		t.AvgTradeSeconds = float64(tradedTicks) / float64(t.TradeKills) / tickRate
	}
	return t
}

func computeClutches(stats []*domain.RoundPlayerStat) domain.ClutchMetrics {
	var c domain.ClutchMetrics
	for _, st := range stats {
		if st.ClutchVs == nil {
			continue
		}
		c.Attempts++
		won := st.ClutchWon != nil && *st.ClutchWon
		if won {
			c.Wins++
		}
		if idx := *st.ClutchVs - 1; idx >= 0 && idx < len(c.ByOpponents) {
			c.ByOpponents[idx].Attempts++
			if won {
				c.ByOpponents[idx].Wins++
			}
		}
	}
	c.WinRatePercent = percent(c.Wins, c.Attempts)
	return c
}

func computeOpenings(stats []*domain.RoundPlayerStat) domain.OpeningMetrics {
	var o domain.OpeningMetrics
	for _, st := range stats {
		if st.IsFirstKill {
			o.Wins++
		}
		if st.IsFirstDeath {
			o.Losses++
		}
	}
	o.WinRatePercent = percent(o.Wins, o.Wins+o.Losses)
	return o
}

// teamBuyKey identifies one team's buy in one round.
type teamBuyKey struct {
	roundID string
	team    int
}

// classifyTeamBuys classifies each (round, team) by the team's summed
// round-start equipment value. The first round of each half is a pistol
// round regardless of value.
func classifyTeamBuys(rounds []*domain.Round, stats []*domain.RoundPlayerStat) map[teamBuyKey]string {
	equip := make(map[teamBuyKey]int)
	for _, st := range stats {
		equip[teamBuyKey{st.RoundID, st.TeamNumber}] += st.EquipmentValue
	}

	out := make(map[teamBuyKey]string, len(equip))
	for _, r := range rounds {
		for _, team := range []int{domain.TeamT, domain.TeamCT} {
			key := teamBuyKey{r.RoundID, team}
			out[key] = classifyBuy(r.Number, equip[key])
		}
	}
	return out
}

func classifyBuy(roundNumber, teamEquip int) string {
	if roundNumber == 1 || roundNumber == roundsPerHalf+1 {
		return domain.BuyTypePistol
	}
	switch {
	case teamEquip < ecoThreshold:
		return domain.BuyTypeEco
	case teamEquip < forceBuyThreshold:
		return domain.BuyTypeForce
	default:
		return domain.BuyTypeFullBuy
	}
}

func computeEconomy(team int, stats []*domain.RoundPlayerStat, buys map[teamBuyKey]string, winners map[string]int) domain.EconomyMetrics {
	e := domain.EconomyMetrics{ByBuyType: make(map[string]domain.EconomyBucket)}
	var totalEquip int
	for _, st := range stats {
		totalEquip += st.EquipmentValue
		e.TotalMoneySpent += st.MoneySpent

		buy, ok := buys[teamBuyKey{st.RoundID, team}]
		if !ok {
			continue
		}
		bucket := e.ByBuyType[buy]
		bucket.Rounds++
		if winners[st.RoundID] == team {
			bucket.Wins++
		}
		e.ByBuyType[buy] = bucket
	}
	e.AvgEquipmentValue = ratio(float64(totalEquip), len(stats))
	return e
}

func computeUtility(stats []*domain.RoundPlayerStat, roundsPlayed int) domain.UtilityMetrics {
	var u domain.UtilityMetrics
	for _, st := range stats {
		u.SmokesThrown += st.SmokesThrown
		u.FlashesThrown += st.FlashesThrown
		u.HEGrenadesThrown += st.HEGrenadesThrown
		u.FiresThrown += st.FiresThrown
		u.DecoysThrown += st.DecoysThrown
		u.EnemiesBlinded += st.EnemiesBlinded
		u.TeammatesBlinded += st.TeammatesBlinded
		u.UtilityDamage += st.UtilityDamage
	}
	grenades := u.SmokesThrown + u.FlashesThrown + u.HEGrenadesThrown + u.FiresThrown + u.DecoysThrown
	u.GrenadesPerRound = ratio(float64(grenades), roundsPlayed)
	u.UtilityDamagePerRound = ratio(float64(u.UtilityDamage), roundsPlayed)
	return u
}

// computeSummaryScores squashes the headline metrics to 0-100 for
// dashboard gauges. A 2.0 rating, 150 ADR or 40 utility damage per round
// pins its gauge.
func computeSummaryScores(m *domain.PlayerMatchMetrics) domain.SummaryScores {
	return domain.SummaryScores{
		Overall:   clamp100(m.Rating.Rating * 50),
		Firepower: clamp100(m.Combat.DamagePerRound / 1.5),
		Entry:     m.Openings.WinRatePercent,
		Clutch:    m.Clutches.WinRatePercent,
		Utility:   clamp100(m.Utility.UtilityDamagePerRound * 2.5),
	}
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
