package models

// AdvancedStats are the derived (or passed-through) advanced metrics of a team.
// Present values are non-negative.
type AdvancedStats struct {
	XG            *float64 `json:"xg,omitempty"`
	XGA           *float64 `json:"xga,omitempty"`
	XA            *float64 `json:"xa,omitempty"`
	XPTS          *float64 `json:"xpts,omitempty"`
	Possession    *float64 `json:"possession,omitempty"`
	Shots         *float64 `json:"shots,omitempty"`
	ShotsOnTarget *float64 `json:"shots_on_target,omitempty"`
	Corners       *float64 `json:"corners,omitempty"`
	Fouls         *float64 `json:"fouls,omitempty"`
	YellowCards   *float64 `json:"yellow_cards,omitempty"`
	RedCards      *float64 `json:"red_cards,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Str returns a pointer to v.
func Str(v string) *string { return &v }

// FloatOr dereferences p or returns def.
func FloatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// IntOr dereferences p or returns def.
func IntOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
