package analytics

import (
	"fmt"
	"math"

	"ApexPick/internal/domain/models"
	"ApexPick/internal/domain/repository"
	domsvc "ApexPick/internal/domain/service"
	"ApexPick/pkg/logger"
	"ApexPick/pkg/mathx"
)

// Staking defaults.
const (
	DefaultStakeCap        = 5.0
	DefaultKellyMultiplier = 0.25
	NoBet                  = "No Bet"
)

type StakeConfig struct {
	StakeCap        float64 // percent of bankroll
	KellyMultiplier float64 // fraction of full Kelly
}

// StakeSizer converts edge, odds and confidence into a capped fractional-Kelly stake.
type StakeSizer struct {
	cap     float64
	mult    float64
	metrics repository.Metrics
	log     *logger.Logger
}

func NewStakeSizer(cfg StakeConfig, m repository.Metrics, log *logger.Logger) *StakeSizer {
	if cfg.StakeCap <= 0 {
		cfg.StakeCap = DefaultStakeCap
	}
	if cfg.KellyMultiplier <= 0 {
		cfg.KellyMultiplier = DefaultKellyMultiplier
	}
	if m == nil {
		m = repository.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StakeSizer{cap: cfg.StakeCap, mult: cfg.KellyMultiplier, metrics: m, log: log}
}

// Cap returns the configured stake ceiling.
func (s *StakeSizer) Cap() float64 { return s.cap }

// Recommend sizes a stake. edge is in percentage points over the implied
// probability of odds; confidence is in [1,100].
func (s *StakeSizer) Recommend(edge, odds, confidence float64) models.RecommendedStake {
	if math.IsNaN(odds) || odds <= 1 || math.IsNaN(edge) || math.IsNaN(confidence) {
		return models.RecommendedStake{KellyFraction: NoBet}
	}

	p := mathx.Clamp((100/odds+edge)/100, 0, 1)
	full := (odds*p - 1) / (odds - 1)
	if full <= 0 || math.IsNaN(full) {
		return models.RecommendedStake{KellyFraction: NoBet}
	}

	raw := full * s.mult * mathx.Clamp(confidence, 0, 100) / 100 * 100
	out := models.RecommendedStake{
		KellyFraction: KellyDescriptor(s.mult),
		FullKelly:     mathx.Round(full*100, mathx.PercentPlaces),
	}

	if raw > s.cap {
		out.Capped = true
		s.metrics.RecordStakeCapViolation()
		s.log.Warn("stake clamped to cap",
			logger.Error(models.ErrStakeCapViolation),
			logger.Float64("raw_pct", raw),
			logger.Float64("cap_pct", s.cap),
			logger.Float64("odds", odds),
			logger.Float64("edge", edge),
		)
	}
	out.PercentageOfBankroll = mathx.Round(mathx.Clamp(raw, 0, s.cap), mathx.PercentPlaces)
	return out
}

// KellyDescriptor names a Kelly multiplier, e.g. 0.25 -> "Quarter Kelly".
func KellyDescriptor(mult float64) string {
	switch {
	case mult <= 0:
		return NoBet
	case approxEq(mult, 1):
		return "Full Kelly"
	case approxEq(mult, 0.5):
		return "Half Kelly"
	case approxEq(mult, 0.25):
		return "Quarter Kelly"
	case approxEq(mult, 0.125):
		return "Eighth Kelly"
	case mult < 1:
		return fmt.Sprintf("1/%.0f Kelly", 1/mult)
	default:
		return fmt.Sprintf("%.2gx Kelly", mult)
	}
}

func approxEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

var _ domsvc.StakeSizer = (*StakeSizer)(nil)
