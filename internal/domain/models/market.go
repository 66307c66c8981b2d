package models

// Probability is a calibrated win probability in percent.
// CalibratedRange.Lower <= EnsembleAverage <= CalibratedRange.Upper.
type Probability struct {
	EnsembleAverage float64         `json:"ensemble_average"`
	CalibratedRange CalibratedRange `json:"calibrated_range"`
	Members         []float64       `json:"members,omitempty"`
}

// CalibratedRange bounds the ensemble average.
type CalibratedRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Stability classifies how robust a prediction is to its calibration width.
type Stability string

const (
	StabilityHigh   Stability = "High"
	StabilityMedium Stability = "Medium"
	StabilityLow    Stability = "Low"
)

// Liquidity of the offered market.
type Liquidity string

const (
	LiquidityHigh   Liquidity = "High"
	LiquidityMedium Liquidity = "Medium"
	LiquidityLow    Liquidity = "Low"
)

// Side of a selection, used to derive the stats signal.
type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideDraw  Side = "draw"
	SideOver  Side = "over"
	SideUnder Side = "under"
	SideOther Side = "other"
)

// RecommendedStake is a capped fractional-Kelly recommendation.
type RecommendedStake struct {
	KellyFraction        string  `json:"kelly_fraction"`
	PercentageOfBankroll float64 `json:"percentage_of_bankroll"`
	FullKelly            float64 `json:"full_kelly"`
	Capped               bool    `json:"capped,omitempty"`
}

// BettingMarket is one offered selection evaluated against the model.
type BettingMarket struct {
	FixtureID             string           `json:"fixture_id"`
	BetType               string           `json:"bet_type"`
	Selection             string           `json:"selection"`
	Side                  Side             `json:"side"`
	Line                  *float64         `json:"line,omitempty"`
	Odds                  float64          `json:"odds"`
	Liquidity             Liquidity        `json:"liquidity"`
	CalculatedProbability Probability      `json:"calculated_probability"`
	ImpliedProbability    float64          `json:"implied_probability"`
	Edge                  float64          `json:"edge"`
	ConfidenceScore       float64          `json:"confidence_score"`
	Stability             Stability        `json:"stability"`
	RecommendedStake      RecommendedStake `json:"recommended_stake"`
	RiskAssessment        RiskAssessment   `json:"risk_assessment"`
}
