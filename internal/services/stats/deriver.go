package stats

import (
	"math"
	"strings"

	"ApexPick/internal/domain/models"
	domsvc "ApexPick/internal/domain/service"
	"ApexPick/pkg/mathx"
)

// Estimation inputs used when a source did not supply them.
const (
	DefaultShotsFor      = 12.0
	DefaultShotsOnTarget = 4.0
	DefaultGoalsFor      = 1.2
	DefaultGoalsAgainst  = 1.2
	DefaultPossession    = 50.0
	DefaultGamesPlayed   = 10

	xgPerShotOnTarget  = 0.33
	shotQualityWeight  = 0.2
	minPerformanceAdj  = 0.7
	maxPerformanceAdj  = 1.3
	minRawXG           = 0.1
	minXGA             = 0.3
	minXA              = 0.1
	assistShare        = 0.8
	homeAdvantageGoals = 0.3
	formWindow         = 5
)

type xptsBucket struct {
	above float64
	ppg   float64
}

// Expected points per game by xG difference, first match wins.
var xptsTable = []xptsBucket{
	{1.5, 2.7},
	{0.8, 2.3},
	{0.3, 1.8},
	{-0.3, 1.3},
	{-0.8, 0.9},
}

const xptsFloor = 0.5

// Deriver estimates advanced metrics from raw team statistics.
// It has no state and is safe for concurrent use.
type Deriver struct{}

func NewDeriver() *Deriver { return &Deriver{} }

// DeriveStats passes through every metric the source supplied and estimates
// the rest. Negative inputs are treated as absent.
func (d *Deriver) DeriveStats(td models.TeamStats) models.AdvancedStats {
	shotsFor := orDefault(td.ShotsFor, DefaultShotsFor)
	shotsOnTarget := orDefault(td.ShotsOnTarget, DefaultShotsOnTarget)
	goalsFor := orDefault(td.GoalsFor, DefaultGoalsFor)
	goalsAgainst := orDefault(td.GoalsAgainst, DefaultGoalsAgainst)
	possession := orDefault(td.Possession, DefaultPossession)

	out := models.AdvancedStats{
		Possession:    models.Float(possession),
		Shots:         models.Float(shotsFor),
		ShotsOnTarget: models.Float(shotsOnTarget),
		Corners:       present(td.Corners),
		Fouls:         present(td.Fouls),
		YellowCards:   present(td.YellowCards),
		RedCards:      present(td.RedCards),
	}

	xg, ok := value(td.XG)
	if !ok {
		xg = EstimateXG(shotsFor, shotsOnTarget, goalsFor)
	}
	out.XG = models.Float(xg)

	xga, ok := value(td.XGA)
	if !ok {
		xga = EstimateXGA(goalsAgainst, FormAdjustment(strOr(td.Form)))
	}
	out.XGA = models.Float(xga)

	xa, ok := value(td.XA)
	if !ok {
		xa = EstimateXA(xg, possession)
	}
	out.XA = models.Float(xa)

	xpts, ok := value(td.XPTS)
	if !ok {
		games := DefaultGamesPlayed
		if td.GamesPlayed != nil && *td.GamesPlayed > 0 {
			games = *td.GamesPlayed
		}
		xpts = EstimateXPTS(xg, xga, games)
	}
	out.XPTS = models.Float(xpts)

	return out
}

// EstimateXG scales shots on target by shot quality and corrects towards
// actual goals within [0.7, 1.3].
func EstimateXG(shotsFor, shotsOnTarget, goalsFor float64) float64 {
	shotQuality := shotsOnTarget / math.Max(shotsFor, 1)
	raw := shotsOnTarget * xgPerShotOnTarget * (1 + shotQuality*shotQualityWeight)
	adj := mathx.Clamp(goalsFor/math.Max(raw, minRawXG), minPerformanceAdj, maxPerformanceAdj)
	return mathx.Round(raw*adj, mathx.ExpectedStatPlaces)
}

func EstimateXGA(goalsAgainst, formAdj float64) float64 {
	return mathx.Round(math.Max(minXGA, goalsAgainst*(2-formAdj)), mathx.ExpectedStatPlaces)
}

func EstimateXA(xg, possession float64) float64 {
	return mathx.Round(math.Max(minXA, xg*assistShare*possession/50), mathx.ExpectedStatPlaces)
}

// EstimateXPTS maps the per-game xG difference onto the points table.
func EstimateXPTS(xg, xga float64, gamesPlayed int) float64 {
	xgd := xg - xga
	ppg := xptsFloor
	for _, b := range xptsTable {
		if xgd > b.above {
			ppg = b.ppg
			break
		}
	}
	return mathx.Round(ppg*float64(gamesPlayed), mathx.ExpectedPtsPlaces)
}

// FormAdjustment scores the five most recent results (W=1, D=0.5, L=0),
// divides by five and scales into [0.8, 1.2]. Form is read most recent
// first; characters other than W, D and L are ignored. A form without any
// result is neutral (1.0).
func FormAdjustment(form string) float64 {
	var sum float64
	n := 0
	for _, r := range strings.ToUpper(form) {
		if n == formWindow {
			break
		}
		switch r {
		case 'W':
			sum += 1
		case 'D':
			sum += 0.5
		case 'L':
		default:
			continue
		}
		n++
	}
	if n == 0 {
		return 1
	}
	return 0.8 + 0.4*(sum/formWindow)
}

// MatchExpectedGoals returns the expected goals of both sides, home
// advantage included.
func (d *Deriver) MatchExpectedGoals(home, away models.AdvancedStats) (float64, float64) {
	homeXG := models.FloatOr(home.XG, DefaultGoalsFor)
	homeXGA := models.FloatOr(home.XGA, DefaultGoalsAgainst)
	awayXG := models.FloatOr(away.XG, DefaultGoalsFor)
	awayXGA := models.FloatOr(away.XGA, DefaultGoalsAgainst)

	homeExpected := (homeXG+awayXGA)/2 + homeAdvantageGoals
	awayExpected := (awayXG + homeXGA) / 2
	return homeExpected, awayExpected
}

// MatchXGDifferential is home expected goals minus away expected goals.
func (d *Deriver) MatchXGDifferential(home, away models.AdvancedStats) float64 {
	h, a := d.MatchExpectedGoals(home, away)
	return mathx.Round(h-a, mathx.ExpectedStatPlaces)
}

func value(p *float64) (float64, bool) {
	if p == nil || *p < 0 || math.IsNaN(*p) {
		return 0, false
	}
	return *p, true
}

func orDefault(p *float64, def float64) float64 {
	if v, ok := value(p); ok {
		return v
	}
	return def
}

func present(p *float64) *float64 {
	if v, ok := value(p); ok {
		return models.Float(v)
	}
	return nil
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

var _ domsvc.StatsDeriver = (*Deriver)(nil)
