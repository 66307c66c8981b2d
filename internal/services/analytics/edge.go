package analytics

import (
	"fmt"
	"math"

	"ApexPick/internal/domain/models"
	domsvc "ApexPick/internal/domain/service"
	"ApexPick/pkg/mathx"
)

// ImpliedProbability converts decimal odds into a percentage, 2dp.
// Odds must be finite and greater than 1.
func ImpliedProbability(odds float64) (float64, error) {
	if math.IsNaN(odds) || math.IsInf(odds, 0) || odds <= 1 {
		return 0, models.NewValidationError("odds", fmt.Sprintf("must be greater than 1, got %v", odds))
	}
	return mathx.Round(100/odds, mathx.PercentPlaces), nil
}

// Edge is the calculated minus the implied probability in percentage points.
func Edge(calculated, implied float64) float64 {
	return mathx.Sub(calculated, implied)
}

// Stability buckets a probability by the relative width of its calibrated range.
func Stability(p models.Probability, confidence, quality float64) models.Stability {
	width := p.CalibratedRange.Upper - p.CalibratedRange.Lower
	rel := width / math.Max(p.EnsembleAverage, 1)

	switch {
	case rel > 0.5 || quality < 40 || confidence < 40:
		return models.StabilityLow
	case rel <= 0.2 && confidence >= 70:
		return models.StabilityHigh
	default:
		return models.StabilityMedium
	}
}

// StabilityWeight is the display weight of a stability bucket.
func StabilityWeight(s models.Stability) int {
	switch s {
	case models.StabilityHigh:
		return 90
	case models.StabilityMedium:
		return 60
	default:
		return 30
	}
}

// EdgeCalculator evaluates one offered selection against its calibrated probability.
type EdgeCalculator struct{}

func NewEdgeCalculator() *EdgeCalculator { return &EdgeCalculator{} }

// Evaluate fills the market figures that depend only on odds and probability.
// Stake and risk are added by their own stages.
func (c *EdgeCalculator) Evaluate(fixtureID string, in models.MarketInput, prob models.Probability, confidence, quality float64) (models.BettingMarket, error) {
	implied, err := ImpliedProbability(in.Odds)
	if err != nil {
		return models.BettingMarket{}, err
	}

	return models.BettingMarket{
		FixtureID:             fixtureID,
		BetType:               in.BetType,
		Selection:             in.Selection,
		Side:                  in.Side,
		Line:                  in.Line,
		Odds:                  in.Odds,
		Liquidity:             in.Liquidity,
		CalculatedProbability: prob,
		ImpliedProbability:    implied,
		Edge:                  Edge(prob.EnsembleAverage, implied),
		ConfidenceScore:       mathx.Clamp(confidence, 1, 100),
		Stability:             Stability(prob, confidence, quality),
	}, nil
}

var _ domsvc.MarketEvaluator = (*EdgeCalculator)(nil)
