package analytics

import (
	"math"

	"ApexPick/internal/domain/models"
	domsvc "ApexPick/internal/domain/service"
	"ApexPick/pkg/mathx"
)

// ProbabilityModel calibrates an ensemble of percentage signals.
type ProbabilityModel struct{}

func NewProbabilityModel() *ProbabilityModel { return &ProbabilityModel{} }

// Calibrate averages the members and widens the range by their spread and by
// missing data quality. It returns the probability and a confidence score in [1,100].
func (m *ProbabilityModel) Calibrate(members []float64, quality float64) (models.Probability, float64) {
	quality = mathx.Clamp(quality, 0, 100)
	if len(members) == 0 {
		return models.Probability{}, 1
	}

	mean, sd := meanStddev(members)
	avg := mathx.Round(mathx.Clamp(mean, 0, 100), mathx.PercentPlaces)
	halfWidth := sd + 2 + (100-quality)/20

	prob := models.Probability{
		EnsembleAverage: avg,
		CalibratedRange: models.CalibratedRange{
			Lower: mathx.Round(math.Max(0, avg-halfWidth), mathx.PercentPlaces),
			Upper: mathx.Round(math.Min(100, avg+halfWidth), mathx.PercentPlaces),
		},
		Members: append([]float64(nil), members...),
	}

	conf := 100 - 2*sd - 0.4*(100-quality)
	if len(members) < 2 {
		conf -= 10
	}
	return prob, mathx.Clamp(math.Round(conf), 1, 100)
}

// StatsSignal is the probability of side implied by the match expected goals.
// It reports false for selections the goal model cannot price.
func (m *ProbabilityModel) StatsSignal(side models.Side, line *float64, xgDiff, totalGoals float64) (float64, bool) {
	var p float64
	switch side {
	case models.SideHome:
		p = mathx.Clamp(50+15*xgDiff, 5, 95)
	case models.SideAway:
		p = mathx.Clamp(50-15*xgDiff, 5, 95)
	case models.SideDraw:
		p = mathx.Clamp(28-5*math.Abs(xgDiff), 5, 40)
	case models.SideOver, models.SideUnder:
		if line == nil {
			return 0, false
		}
		p = mathx.Clamp(50+20*(totalGoals-*line), 5, 95)
		if side == models.SideUnder {
			p = 100 - p
		}
	default:
		return 0, false
	}
	return mathx.Round(p, mathx.PercentPlaces), true
}

func meanStddev(xs []float64) (float64, float64) {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	n := float64(len(xs))
	mean := sum / n
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(variance / n)
}

var _ domsvc.ProbabilityModel = (*ProbabilityModel)(nil)
