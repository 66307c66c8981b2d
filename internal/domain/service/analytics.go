package service

import (
	"context"

	"ApexPick/internal/domain/models"
)

// ProfileAggregator builds the enriched profile of one entity. Only
// validation errors are returned.
type ProfileAggregator interface {
	GetProfile(ctx context.Context, spec models.EntitySpec) (*models.EnrichedProfile, error)
}

// ProfileRefresher rebuilds a profile from its sources, bypassing any cached
// copy, and stores the result.
type ProfileRefresher interface {
	RefreshProfile(ctx context.Context, spec models.EntitySpec) (*models.EnrichedProfile, error)
}

// StatsDeriver fills in advanced metrics a source did not supply.
type StatsDeriver interface {
	DeriveStats(td models.TeamStats) models.AdvancedStats
	MatchXGDifferential(home, away models.AdvancedStats) float64
	MatchExpectedGoals(home, away models.AdvancedStats) (float64, float64)
}

// ProbabilityModel turns signals into a calibrated probability and confidence.
type ProbabilityModel interface {
	Calibrate(members []float64, quality float64) (models.Probability, float64)
	StatsSignal(side models.Side, line *float64, xgDiff, totalGoals float64) (float64, bool)
}

// MarketEvaluator prices one offered selection against its calibrated probability.
type MarketEvaluator interface {
	Evaluate(fixtureID string, in models.MarketInput, prob models.Probability, confidence, quality float64) (models.BettingMarket, error)
}

type StakeSizer interface {
	Recommend(edge, odds, confidence float64) models.RecommendedStake
}

type RiskAssessor interface {
	Assess(market *models.BettingMarket, profiles ...*models.EnrichedProfile) models.RiskAssessment
}

// Predictor is the full pipeline as consumed by the API and the Kafka handler.
type Predictor interface {
	Predict(ctx context.Context, req models.FixtureRequest) (*models.ApexPrediction, error)
	PredictSlate(ctx context.Context, req models.SlateRequest) ([]*models.ApexPrediction, error)
}
