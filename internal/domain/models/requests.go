package models

import "time"

// Requests accepted at the API and Kafka boundaries.

type MarketInput struct {
	BetType            string    `json:"bet_type" validate:"required"`
	Selection          string    `json:"selection" validate:"required"`
	Side               Side      `json:"side" default:"other" validate:"oneof=home away draw over under other"`
	Line               *float64  `json:"line,omitempty"`
	Odds               float64   `json:"odds" validate:"gt=1"`
	Liquidity          Liquidity `json:"liquidity" default:"Medium" validate:"oneof=High Medium Low"`
	ModelProbabilities []float64 `json:"model_probabilities,omitempty" validate:"dive,gte=0,lte=100"`
}

type FixtureRequest struct {
	FixtureID string        `json:"fixture_id" validate:"required"`
	Sport     string        `json:"sport" validate:"required"`
	League    string        `json:"league,omitempty"`
	HomeTeam  string        `json:"home_team" validate:"required"`
	AwayTeam  string        `json:"away_team" validate:"required,nefield=HomeTeam"`
	Kickoff   *time.Time    `json:"kickoff,omitempty"`
	Markets   []MarketInput `json:"markets" validate:"required,min=1,dive"`
}

// Home and Away build the entity specs of both sides.
func (r FixtureRequest) Home() EntitySpec {
	return EntitySpec{Sport: r.Sport, EntityName: r.HomeTeam, League: r.League}
}

func (r FixtureRequest) Away() EntitySpec {
	return EntitySpec{Sport: r.Sport, EntityName: r.AwayTeam, League: r.League}
}

type SlateRequest struct {
	Fixtures []FixtureRequest `json:"fixtures" validate:"required,min=1,dive"`
}

type DeriveStatsRequest struct {
	Stats TeamStats `json:"stats"`
}
