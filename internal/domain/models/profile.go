package models

import "time"

// TeamStats holds raw per-game team statistics. Every field is optional.
type TeamStats struct {
	GoalsFor      *float64 `json:"goals_for,omitempty"`
	GoalsAgainst  *float64 `json:"goals_against,omitempty"`
	ShotsFor      *float64 `json:"shots_for,omitempty"`
	ShotsOnTarget *float64 `json:"shots_on_target,omitempty"`
	Possession    *float64 `json:"possession,omitempty"`
	Corners       *float64 `json:"corners,omitempty"`
	Fouls         *float64 `json:"fouls,omitempty"`
	YellowCards   *float64 `json:"yellow_cards,omitempty"`
	RedCards      *float64 `json:"red_cards,omitempty"`
	GamesPlayed   *int     `json:"games_played,omitempty"`
	Form          *string  `json:"form,omitempty"` // most recent first, e.g. "WWDLW"

	XG   *float64 `json:"xg,omitempty"`
	XGA  *float64 `json:"xga,omitempty"`
	XA   *float64 `json:"xa,omitempty"`
	XPTS *float64 `json:"xpts,omitempty"`
}

// NewsItem is a headline relevant to the entity.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Impact      string    `json:"impact,omitempty"` // "injury", "suspension", "transfer", ...
}

// Sentiment is aggregated public sentiment, Score in [-1,1].
type Sentiment struct {
	Score    *float64 `json:"score,omitempty"`
	Mentions *int     `json:"mentions,omitempty"`
	Positive *float64 `json:"positive_ratio,omitempty"`
}

// Standing is the league table row of the entity.
type Standing struct {
	Position *int    `json:"position,omitempty"`
	Points   *int    `json:"points,omitempty"`
	Played   *int    `json:"played,omitempty"`
	Won      *int    `json:"won,omitempty"`
	Drawn    *int    `json:"drawn,omitempty"`
	Lost     *int    `json:"lost,omitempty"`
	Form     *string `json:"form,omitempty"`
}

// EnrichedProfile is the merged view of all sources for one entity.
// Built fresh per aggregation and treated as immutable afterwards.
type EnrichedProfile struct {
	Entity           EntitySpec  `json:"entity"`
	DataSources      []RawRecord `json:"data_sources"`
	DataQualityScore float64     `json:"data_quality_score"`
	Stats            TeamStats   `json:"stats"`
	News             []NewsItem  `json:"news,omitempty"`
	Sentiment        Sentiment   `json:"sentiment"`
	Standings        Standing    `json:"standings"`
	FailedSources    []string    `json:"failed_sources,omitempty"`
	BuiltAt          time.Time   `json:"built_at"`
}

// Insufficient reports the InsufficientData condition: no source contributed.
func (p *EnrichedProfile) Insufficient() bool {
	return p == nil || len(p.DataSources) == 0
}

// TeamData returns the stats used for derivation. Form and games played fall
// back to the standings row when no stats source supplied them.
func (p *EnrichedProfile) TeamData() TeamStats {
	if p == nil {
		return TeamStats{}
	}
	td := p.Stats
	if td.Form == nil && p.Standings.Form != nil {
		form := *p.Standings.Form
		td.Form = &form
	}
	if td.GamesPlayed == nil && p.Standings.Played != nil {
		played := *p.Standings.Played
		td.GamesPlayed = &played
	}
	return td
}
