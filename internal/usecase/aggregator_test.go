package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"ApexPick/internal/domain/models"
	domrepo "ApexPick/internal/domain/repository"
	"ApexPick/internal/services/stats"
	"ApexPick/pkg/cache"
)

var arsenal = models.EntitySpec{Sport: "football", EntityName: "Arsenal", League: "EPL"}

func TestGetProfileMergesInPriorityOrder(t *testing.T) {
	// The high-priority adapter finishes last but still wins shared fields.
	first := &fakeAdapter{
		name:    "first",
		quality: models.QualityHigh,
		delay:   50 * time.Millisecond,
		payload: models.SourcePayload{Stats: &models.TeamStats{GoalsFor: models.Float(1.0)}},
	}
	second := &fakeAdapter{
		name:    "second",
		quality: models.QualityMedium,
		payload: models.SourcePayload{
			Stats: &models.TeamStats{GoalsFor: models.Float(2.0), ShotsFor: models.Float(14)},
			News:  []models.NewsItem{{Title: "injury update"}},
		},
	}
	agg := NewAggregator(staticRouter{first, second}, nil, nil, nil)

	p, err := agg.GetProfile(context.Background(), arsenal)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got := *p.Stats.GoalsFor; got != 1.0 {
		t.Fatalf("goals_for = %v, want 1.0 from the first adapter", got)
	}
	if got := *p.Stats.ShotsFor; got != 14 {
		t.Fatalf("shots_for = %v, want 14", got)
	}
	if len(p.News) != 1 {
		t.Fatalf("news = %v", p.News)
	}
	if len(p.DataSources) != 2 || p.DataSources[0].Source != "first" || p.DataSources[1].Source != "second" {
		t.Fatalf("data sources out of priority order: %+v", p.DataSources)
	}
	if p.DataQualityScore != 75 {
		t.Fatalf("quality = %v, want 75", p.DataQualityScore)
	}
}

func TestGetProfileSkipsOutOfRangeValues(t *testing.T) {
	first := &fakeAdapter{
		name:    "first",
		quality: models.QualityHigh,
		payload: models.SourcePayload{
			Stats:     &models.TeamStats{GoalsFor: models.Float(-1), ShotsOnTarget: models.Float(-3), Possession: models.Float(math.NaN())},
			Sentiment: &models.Sentiment{Score: models.Float(-0.4), Positive: models.Float(-1)},
			Standing:  &models.Standing{Position: models.Int(-2)},
		},
	}
	second := &fakeAdapter{
		name:    "second",
		quality: models.QualityMedium,
		payload: models.SourcePayload{
			Stats:     &models.TeamStats{GoalsFor: models.Float(1.5), ShotsFor: models.Float(15), ShotsOnTarget: models.Float(5), Possession: models.Float(58)},
			Sentiment: &models.Sentiment{Score: models.Float(0.9), Positive: models.Float(0.6)},
			Standing:  &models.Standing{Position: models.Int(4)},
		},
	}
	agg := NewAggregator(staticRouter{first, second}, nil, nil, nil)

	p, err := agg.GetProfile(context.Background(), arsenal)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if *p.Stats.GoalsFor != 1.5 || *p.Stats.ShotsOnTarget != 5 || *p.Stats.Possession != 58 {
		t.Fatalf("stats = goals %v, on target %v, possession %v", *p.Stats.GoalsFor, *p.Stats.ShotsOnTarget, *p.Stats.Possession)
	}
	if *p.Sentiment.Score != -0.4 || *p.Sentiment.Positive != 0.6 {
		t.Fatalf("sentiment = %v / %v", *p.Sentiment.Score, *p.Sentiment.Positive)
	}
	if *p.Standings.Position != 4 {
		t.Fatalf("position = %v, want 4", *p.Standings.Position)
	}

	adv := stats.NewDeriver().DeriveStats(p.TeamData())
	if adv.XG == nil || math.Abs(*adv.XG-1.50) > 1e-9 {
		t.Fatalf("derived xG = %v, want 1.50", adv.XG)
	}
}

func TestGetProfileAllAdaptersFail(t *testing.T) {
	a := &fakeAdapter{name: "a", quality: models.QualityHigh, err: errors.New("boom")}
	b := &fakeAdapter{name: "b", quality: models.QualityMedium}
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()
	agg := NewAggregator(staticRouter{a, b}, mc, nil, nil)

	p, err := agg.GetProfile(context.Background(), arsenal)
	if err != nil {
		t.Fatalf("adapter failures must not propagate: %v", err)
	}
	if !p.Insufficient() {
		t.Fatalf("profile should be insufficient")
	}
	if p.DataQualityScore != 0 {
		t.Fatalf("quality = %v, want 0", p.DataQualityScore)
	}
	if len(p.FailedSources) != 2 {
		t.Fatalf("failed sources = %v", p.FailedSources)
	}
	if mc.Len() != 0 {
		t.Fatalf("empty profile must not be cached")
	}
}

func TestGetProfileCacheTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC)}
	mc := cache.NewMemoryCache(
		cache.WithMemoryTTL(5*time.Minute),
		cache.WithMemoryCleanup(0),
		cache.WithMemoryClock(clock.Now),
	)
	defer mc.Close()

	a := &fakeAdapter{name: "a", quality: models.QualityHigh, payload: statsPayload(1.5)}
	agg := NewAggregator(staticRouter{a}, mc, nil, nil, WithAggregatorClock(clock.Now))
	ctx := context.Background()

	if _, err := agg.GetProfile(ctx, arsenal); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	clock.Advance(5*time.Minute - time.Second)
	p, err := agg.GetProfile(ctx, arsenal)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if a.Calls() != 1 {
		t.Fatalf("calls = %d, want cached result", a.Calls())
	}
	if *p.Stats.GoalsFor != 1.5 {
		t.Fatalf("cached profile lost stats: %+v", p.Stats)
	}

	clock.Advance(2 * time.Second)
	if _, err := agg.GetProfile(ctx, arsenal); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if a.Calls() != 2 {
		t.Fatalf("calls = %d, want refetch after TTL", a.Calls())
	}
}

func TestRefreshProfileBypassesFreshCache(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC)}
	mc := cache.NewMemoryCache(
		cache.WithMemoryTTL(time.Hour),
		cache.WithMemoryCleanup(0),
		cache.WithMemoryClock(clock.Now),
	)
	defer mc.Close()

	a := &fakeAdapter{name: "a", quality: models.QualityHigh, payload: statsPayload(1.5)}
	agg := NewAggregator(staticRouter{a}, mc, nil, nil, WithAggregatorClock(clock.Now))
	ctx := context.Background()

	if _, err := agg.GetProfile(ctx, arsenal); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	a.payload = statsPayload(2.5)
	p, err := agg.RefreshProfile(ctx, arsenal)
	if err != nil {
		t.Fatalf("RefreshProfile: %v", err)
	}
	if a.Calls() != 2 || *p.Stats.GoalsFor != 2.5 {
		t.Fatalf("calls = %d, goals_for = %v", a.Calls(), *p.Stats.GoalsFor)
	}

	cached, err := agg.GetProfile(ctx, arsenal)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if a.Calls() != 2 || *cached.Stats.GoalsFor != 2.5 {
		t.Fatalf("cache not replaced: calls = %d, goals_for = %v", a.Calls(), *cached.Stats.GoalsFor)
	}

	if _, err := agg.RefreshProfile(ctx, models.EntitySpec{Sport: "football"}); !models.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestGetProfileTimesOutUncooperativeAdapter(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	slow := &fakeAdapter{name: "slow", quality: models.QualityHigh, timeout: 30 * time.Millisecond, block: block}
	fast := &fakeAdapter{name: "fast", quality: models.QualityMedium, payload: statsPayload(2)}
	agg := NewAggregator(staticRouter{slow, fast}, nil, nil, nil)

	start := time.Now()
	p, err := agg.GetProfile(context.Background(), arsenal)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("aggregation took %v", elapsed)
	}
	if len(p.FailedSources) != 1 || p.FailedSources[0] != "slow" {
		t.Fatalf("failed sources = %v", p.FailedSources)
	}
	if p.DataQualityScore != 25 {
		t.Fatalf("quality = %v, want 25", p.DataQualityScore)
	}
}

func TestGetProfileValidation(t *testing.T) {
	agg := NewAggregator(staticRouter{}, nil, nil, nil)
	for _, s := range []models.EntitySpec{
		{Sport: "", EntityName: "Arsenal"},
		{Sport: "football", EntityName: "   "},
	} {
		_, err := agg.GetProfile(context.Background(), s)
		if !models.IsValidation(err) {
			t.Fatalf("spec %+v: err = %v, want validation error", s, err)
		}
	}
}

func TestGetProfileNoAdapters(t *testing.T) {
	agg := NewAggregator(staticRouter{}, nil, nil, nil)
	p, err := agg.GetProfile(context.Background(), arsenal)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !p.Insufficient() || p.DataQualityScore != 0 {
		t.Fatalf("profile = %+v", p)
	}
}

func TestQualityScoreFloor(t *testing.T) {
	low := []models.RawRecord{{Quality: models.QualityLow}}
	if got := QualityScore(low, 3); got != 1 {
		t.Fatalf("low-only score = %v, want 1", got)
	}
	mixed := []models.RawRecord{{Quality: models.QualityHigh}, {Quality: models.QualityMedium}}
	if got := QualityScore(mixed, 3); got != 50 {
		t.Fatalf("mixed score = %v, want 50", got)
	}
	if got := QualityScore(nil, 0); got != 0 {
		t.Fatalf("empty score = %v", got)
	}
}

var _ domrepo.SourceAdapter = (*fakeAdapter)(nil)
