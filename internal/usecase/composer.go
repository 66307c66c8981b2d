package usecase

import (
	"sort"
	"time"

	"ApexPick/internal/domain/models"
	"ApexPick/internal/services/analytics"
	"ApexPick/pkg/mathx"
)

const (
	ReasonSameFixture  = "alternative bet type on the same fixture"
	ReasonOtherFixture = "best market on another fixture of the slate"

	RiskNoQualifyingMarket = "no market meets the confidence threshold"
)

// Candidate is a priced market together with the match it belongs to.
type Candidate struct {
	Market models.BettingMarket
	Match  string
}

// FixtureEvaluation is everything the composer needs about one fixture.
type FixtureEvaluation struct {
	Request   models.FixtureRequest
	Markets   []models.BettingMarket
	Home      *models.EnrichedProfile
	Away      *models.EnrichedProfile
	HomeStats models.AdvancedStats
	AwayStats models.AdvancedStats
	XGDiff    float64
	Quality   float64
}

// Match renders the fixture as "Home vs Away".
func (e *FixtureEvaluation) Match() string {
	return e.Request.HomeTeam + " vs " + e.Request.AwayTeam
}

// Candidates returns the markets of e paired with its match name.
func (e *FixtureEvaluation) Candidates() []Candidate {
	out := make([]Candidate, len(e.Markets))
	for i, m := range e.Markets {
		out[i] = Candidate{Market: m, Match: e.Match()}
	}
	return out
}

// Composer picks the primary market, the alternatives and a contingency pick.
type Composer struct {
	minConfidence float64
}

func NewComposer(minConfidence float64) *Composer {
	if minConfidence <= 0 {
		minConfidence = analytics.DefaultMinConfidence
	}
	return &Composer{minConfidence: minConfidence}
}

// better reports whether a ranks ahead of b: higher edge at two places,
// then higher confidence, then higher unrounded edge.
func better(a, b models.BettingMarket) bool {
	ea, eb := mathx.Round2(a.Edge), mathx.Round2(b.Edge)
	if ea != eb {
		return ea > eb
	}
	if a.ConfidenceScore != b.ConfidenceScore {
		return a.ConfidenceScore > b.ConfidenceScore
	}
	return a.Edge > b.Edge
}

// RankMarkets returns a copy of markets ordered best first. Equal markets keep
// their input order.
func RankMarkets(markets []models.BettingMarket) []models.BettingMarket {
	out := append([]models.BettingMarket(nil), markets...)
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}

// Compose assembles the prediction of ev. pool holds the markets of the other
// fixtures evaluated alongside it and may be empty.
func (c *Composer) Compose(ev *FixtureEvaluation, pool []Candidate, now time.Time) *models.ApexPrediction {
	req := ev.Request
	pred := &models.ApexPrediction{
		FixtureID:          req.FixtureID,
		Sport:              models.NormalizeSport(req.Sport),
		League:             req.League,
		HomeTeam:           req.HomeTeam,
		AwayTeam:           req.AwayTeam,
		Kickoff:            req.Kickoff,
		AlternativeMarkets: []models.BettingMarket{},
		DataQualityScore:   ev.Quality,
		HomeStats:          ev.HomeStats,
		AwayStats:          ev.AwayStats,
		XGDifferential:     ev.XGDiff,
		Timestamp:          now,
	}

	ranked := RankMarkets(ev.Markets)
	if len(ranked) == 0 {
		pred.PredictionStability = models.StabilityLow
		pred.StabilityWeight = analytics.StabilityWeight(models.StabilityLow)
		pred.RiskAssessment = models.RiskAssessment{
			KeyRisks:          []string{RiskNoQualifyingMarket},
			PotentialFailures: []string{},
		}
		return pred
	}

	primaryIdx, qualified := 0, false
	for i, m := range ranked {
		if m.ConfidenceScore >= c.minConfidence {
			primaryIdx, qualified = i, true
			break
		}
	}
	primary := ranked[primaryIdx]
	pred.PrimaryMarket = &primary
	for i, m := range ranked {
		if i != primaryIdx {
			pred.AlternativeMarkets = append(pred.AlternativeMarkets, m)
		}
	}

	pred.RiskAssessment = copyRisk(primary.RiskAssessment)
	if !qualified {
		pred.RiskAssessment.KeyRisks = append(pred.RiskAssessment.KeyRisks, RiskNoQualifyingMarket)
	}
	pred.PredictionStability = primary.Stability
	pred.StabilityWeight = analytics.StabilityWeight(primary.Stability)
	pred.ContingencyPick = c.contingency(primary, ev.Match(), pred.AlternativeMarkets, pool)
	return pred
}

// contingency is the best market in a different fixture or of a different
// bet type than primary.
func (c *Composer) contingency(primary models.BettingMarket, match string, alternatives []models.BettingMarket, pool []Candidate) *models.ContingencyPick {
	var best *Candidate
	reason := ""
	consider := func(cand Candidate, why string) {
		if best == nil || better(cand.Market, best.Market) {
			cc := cand
			best, reason = &cc, why
		}
	}

	for _, m := range alternatives {
		if m.BetType != primary.BetType {
			consider(Candidate{Market: m, Match: match}, ReasonSameFixture)
		}
	}
	for _, cand := range pool {
		if cand.Market.FixtureID != primary.FixtureID {
			consider(cand, ReasonOtherFixture)
		}
	}
	if best == nil {
		return nil
	}
	return &models.ContingencyPick{
		FixtureID: best.Market.FixtureID,
		Match:     best.Match,
		BetType:   best.Market.BetType,
		Selection: best.Market.Selection,
		Odds:      best.Market.Odds,
		Edge:      best.Market.Edge,
		Reason:    reason,
	}
}

func copyRisk(r models.RiskAssessment) models.RiskAssessment {
	return models.RiskAssessment{
		VaR:               r.VaR,
		CVaR:              r.CVaR,
		KeyRisks:          append([]string{}, r.KeyRisks...),
		PotentialFailures: append([]string{}, r.PotentialFailures...),
	}
}
