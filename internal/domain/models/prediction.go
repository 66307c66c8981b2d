package models

import "time"

// RiskAssessment carries unit-stake VaR/CVaR and qualitative flags. CVaR >= VaR.
type RiskAssessment struct {
	VaR               float64  `json:"var"`
	CVaR              float64  `json:"cvar"`
	KeyRisks          []string `json:"key_risks"`
	PotentialFailures []string `json:"potential_failures"`
}

// ContingencyPick is the fallback recommendation when the primary cannot be placed.
type ContingencyPick struct {
	FixtureID string  `json:"fixture_id"`
	Match     string  `json:"match"`
	BetType   string  `json:"bet_type"`
	Selection string  `json:"selection"`
	Odds      float64 `json:"odds"`
	Edge      float64 `json:"edge"`
	Reason    string  `json:"reason"`
}

// ApexPrediction is the single ranked recommendation for a fixture.
type ApexPrediction struct {
	ID                  string           `json:"id"`
	FixtureID           string           `json:"fixture_id"`
	Sport               string           `json:"sport"`
	League              string           `json:"league,omitempty"`
	HomeTeam            string           `json:"home_team"`
	AwayTeam            string           `json:"away_team"`
	Kickoff             *time.Time       `json:"kickoff,omitempty"`
	PrimaryMarket       *BettingMarket   `json:"primary_market,omitempty"`
	AlternativeMarkets  []BettingMarket  `json:"alternative_markets"`
	RiskAssessment      RiskAssessment   `json:"risk_assessment"`
	ContingencyPick     *ContingencyPick `json:"contingency_pick,omitempty"`
	PredictionStability Stability        `json:"prediction_stability"`
	StabilityWeight     int              `json:"stability_weight"`
	DataQualityScore    float64          `json:"data_quality_score"`
	HomeStats           AdvancedStats    `json:"home_stats"`
	AwayStats           AdvancedStats    `json:"away_stats"`
	XGDifferential      float64          `json:"xg_differential"`
	Timestamp           time.Time        `json:"timestamp"`
}

// Match renders "Home vs Away".
func (p *ApexPrediction) Match() string {
	return p.HomeTeam + " vs " + p.AwayTeam
}

// MessageKey partitions published predictions by fixture.
func (p *ApexPrediction) MessageKey() string {
	return p.FixtureID
}

// PredictionRecord is the opaque row handed to the persistence collaborator.
type PredictionRecord struct {
	ID              string    `json:"id"`
	Sport           string    `json:"sport"`
	Match           string    `json:"match"`
	BetType         string    `json:"bet_type"`
	BestOdds        float64   `json:"best_odds"`
	Edge            float64   `json:"edge"`
	ConfidenceScore float64   `json:"confidence_score"`
	Data            []byte    `json:"data"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}
