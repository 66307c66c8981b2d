package usecase

import (
	"testing"
	"time"

	"ApexPick/internal/domain/models"
)

func market(fixture, betType, selection string, edge, confidence float64) models.BettingMarket {
	return models.BettingMarket{
		FixtureID:       fixture,
		BetType:         betType,
		Selection:       selection,
		Odds:            2.0,
		Edge:            edge,
		ConfidenceScore: confidence,
		Stability:       models.StabilityMedium,
		RiskAssessment:  models.RiskAssessment{KeyRisks: []string{}, PotentialFailures: []string{}},
	}
}

func evaluation(fixture string, markets ...models.BettingMarket) *FixtureEvaluation {
	return &FixtureEvaluation{
		Request: models.FixtureRequest{
			FixtureID: fixture,
			Sport:     "football",
			HomeTeam:  "Home " + fixture,
			AwayTeam:  "Away " + fixture,
		},
		Markets: markets,
		Quality: 75,
	}
}

func TestRankMarketsTieBreaks(t *testing.T) {
	ranked := RankMarkets([]models.BettingMarket{
		market("f1", "1X2", "a", 5.004, 70),
		market("f1", "1X2", "b", 5.001, 80),
		market("f1", "1X2", "c", 5.004, 70.0),
		market("f1", "OU", "d", 8, 50),
	})
	got := []string{ranked[0].Selection, ranked[1].Selection, ranked[2].Selection, ranked[3].Selection}
	want := []string{"d", "b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank = %v, want %v", got, want)
		}
	}
}

func TestComposeSkipsLowConfidencePrimary(t *testing.T) {
	c := NewComposer(60)
	ev := evaluation("f1",
		market("f1", "1X2", "home", 5.004, 70),
		market("f1", "1X2", "draw", 5.001, 80),
		market("f1", "OU", "over", 8, 50),
	)
	now := time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)

	pred := c.Compose(ev, nil, now)
	if pred.PrimaryMarket == nil || pred.PrimaryMarket.Selection != "draw" {
		t.Fatalf("primary = %+v, want draw", pred.PrimaryMarket)
	}
	if len(pred.AlternativeMarkets) != 2 || pred.AlternativeMarkets[0].Selection != "over" {
		t.Fatalf("alternatives = %+v", pred.AlternativeMarkets)
	}
	if pred.ContingencyPick == nil || pred.ContingencyPick.BetType != "OU" {
		t.Fatalf("contingency = %+v, want OU", pred.ContingencyPick)
	}
	if pred.ContingencyPick.Reason != ReasonSameFixture {
		t.Fatalf("reason = %q", pred.ContingencyPick.Reason)
	}
	if pred.StabilityWeight != 60 || pred.PredictionStability != models.StabilityMedium {
		t.Fatalf("stability = %s/%d", pred.PredictionStability, pred.StabilityWeight)
	}
	if !pred.Timestamp.Equal(now) || pred.Match() != "Home f1 vs Away f1" {
		t.Fatalf("identity = %+v", pred)
	}
}

func TestComposeFallsBackWhenNothingQualifies(t *testing.T) {
	c := NewComposer(60)
	ev := evaluation("f1",
		market("f1", "1X2", "home", 3, 40),
		market("f1", "1X2", "away", 1, 55),
	)
	pred := c.Compose(ev, nil, time.Now())
	if pred.PrimaryMarket == nil || pred.PrimaryMarket.Selection != "home" {
		t.Fatalf("primary = %+v, want best-ranked market", pred.PrimaryMarket)
	}
	found := false
	for _, r := range pred.RiskAssessment.KeyRisks {
		if r == RiskNoQualifyingMarket {
			found = true
		}
	}
	if !found {
		t.Fatalf("key risks = %v", pred.RiskAssessment.KeyRisks)
	}
	if len(ev.Markets[0].RiskAssessment.KeyRisks) != 0 {
		t.Fatalf("compose mutated the market risk assessment")
	}
	// same bet type only: no contingency
	if pred.ContingencyPick != nil {
		t.Fatalf("contingency = %+v, want none", pred.ContingencyPick)
	}
}

func TestComposeContingencyFromOtherFixture(t *testing.T) {
	c := NewComposer(60)
	ev := evaluation("f1",
		market("f1", "1X2", "home", 4, 80),
		market("f1", "OU", "over", 1, 80),
	)
	other := evaluation("f2", market("f2", "1X2", "away", 6, 65))

	pred := c.Compose(ev, other.Candidates(), time.Now())
	cp := pred.ContingencyPick
	if cp == nil || cp.FixtureID != "f2" {
		t.Fatalf("contingency = %+v, want f2", cp)
	}
	if cp.Match != "Home f2 vs Away f2" || cp.Reason != ReasonOtherFixture {
		t.Fatalf("contingency = %+v", cp)
	}
}

func TestComposeNoMarkets(t *testing.T) {
	pred := NewComposer(60).Compose(evaluation("f1"), nil, time.Now())
	if pred.PrimaryMarket != nil || pred.PredictionStability != models.StabilityLow {
		t.Fatalf("pred = %+v", pred)
	}
}
