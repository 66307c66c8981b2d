package analytics

import (
	"math"

	"ApexPick/internal/domain/models"
	domsvc "ApexPick/internal/domain/service"
	"ApexPick/pkg/mathx"
)

const (
	DefaultVaRConfidence = 0.95
	DefaultMinConfidence = 60.0
)

// Risk flags.
const (
	RiskInsufficientData = "insufficient data sources"
	RiskThinMarket       = "thin market, odds may move"
	RiskNoEdge           = "no positive edge"
	RiskLowConfidence    = "low model confidence"

	FailureNoSources = "all data sources failed; stats derived from defaults"
	FailureShortOdds = "short odds limit upside"
	FailureUnstable  = "prediction unstable across calibration range"
)

const (
	lowQualityThreshold = 50.0
	shortOddsThreshold  = 1.5
)

// RiskAssessor computes unit-stake VaR/CVaR under a binary loss model and
// the qualitative flags of a market.
type RiskAssessor struct {
	alpha         float64
	minConfidence float64
}

func NewRiskAssessor(alpha, minConfidence float64) *RiskAssessor {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultVaRConfidence
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &RiskAssessor{alpha: alpha, minConfidence: minConfidence}
}

// Assess evaluates market against the profiles of the entities involved.
// With several profiles the mean quality is used and any empty profile
// counts as a failed data source.
func (r *RiskAssessor) Assess(market *models.BettingMarket, profiles ...*models.EnrichedProfile) models.RiskAssessment {
	if market == nil {
		return models.RiskAssessment{KeyRisks: []string{}, PotentialFailures: []string{}}
	}

	p := mathx.Clamp(market.CalculatedProbability.EnsembleAverage/100, 0, 1)
	varUnits, cvarUnits := r.tailLoss(1-p, market.Odds)

	out := models.RiskAssessment{
		VaR:               varUnits,
		CVaR:              cvarUnits,
		KeyRisks:          []string{},
		PotentialFailures: []string{},
	}

	quality, insufficient := profileQuality(profiles)
	if quality < lowQualityThreshold {
		out.KeyRisks = append(out.KeyRisks, RiskInsufficientData)
	}
	if market.Liquidity == models.LiquidityLow {
		out.KeyRisks = append(out.KeyRisks, RiskThinMarket)
	}
	if market.Edge <= 0 {
		out.KeyRisks = append(out.KeyRisks, RiskNoEdge)
	}
	if market.ConfidenceScore < r.minConfidence {
		out.KeyRisks = append(out.KeyRisks, RiskLowConfidence)
	}

	if insufficient {
		out.PotentialFailures = append(out.PotentialFailures, FailureNoSources)
	}
	if market.Odds < shortOddsThreshold {
		out.PotentialFailures = append(out.PotentialFailures, FailureShortOdds)
	}
	if market.Stability == models.StabilityLow {
		out.PotentialFailures = append(out.PotentialFailures, FailureUnstable)
	}
	return out
}

// tailLoss returns VaR and CVaR of one unit staked at the given loss probability.
// Losing costs 1 unit; winning gains odds-1.
func (r *RiskAssessor) tailLoss(q, odds float64) (float64, float64) {
	tail := 1 - r.alpha

	varUnits := 0.0
	if q > tail {
		varUnits = 1
	}

	var cvarUnits float64
	if q >= tail {
		cvarUnits = 1
	} else {
		// the tail holds every losing outcome plus the worst winning ones
		cvarUnits = math.Max(0, (q-(tail-q)*(odds-1))/tail)
	}
	cvarUnits = math.Max(cvarUnits, varUnits)

	return mathx.Round(varUnits, mathx.PercentPlaces), mathx.Round(cvarUnits, mathx.PercentPlaces)
}

func profileQuality(profiles []*models.EnrichedProfile) (float64, bool) {
	if len(profiles) == 0 {
		return 0, true
	}
	sum := 0.0
	insufficient := false
	for _, p := range profiles {
		if p.Insufficient() {
			insufficient = true
			continue
		}
		sum += p.DataQualityScore
	}
	return sum / float64(len(profiles)), insufficient
}

var _ domsvc.RiskAssessor = (*RiskAssessor)(nil)
