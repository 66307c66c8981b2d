package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"ApexPick/internal/domain/models"
	domrepo "ApexPick/internal/domain/repository"
	domsvc "ApexPick/internal/domain/service"
	"ApexPick/pkg/cache"
	"ApexPick/pkg/logger"
	"ApexPick/pkg/mathx"
)

const defaultAdapterTimeout = 10 * time.Second

var errEmptyPayload = errors.New("adapter returned no data")

// Aggregator fans out to every adapter routed for a sport and merges the
// results into one EnrichedProfile. Adapter failures never fail the call.
type Aggregator struct {
	router  domrepo.AdapterRouter
	cache   cache.Store
	metrics domrepo.Metrics
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithAdapterTimeout sets the timeout used for adapters that report none.
func WithAdapterTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithAggregatorClock overrides the clock stamped on records and profiles.
func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAggregator(router domrepo.AdapterRouter, store cache.Store, m domrepo.Metrics, log *logger.Logger, opts ...AggregatorOption) *Aggregator {
	if m == nil {
		m = domrepo.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &Aggregator{
		router:  router,
		cache:   store,
		metrics: m,
		log:     log,
		timeout: defaultAdapterTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type fetchResult struct {
	record *models.RawRecord
	err    error
}

// GetProfile returns the cached profile of spec if it is still fresh, and
// otherwise aggregates a new one from all applicable adapters.
func (a *Aggregator) GetProfile(ctx context.Context, spec models.EntitySpec) (*models.EnrichedProfile, error) {
	if err := prepareSpec(ctx, &spec); err != nil {
		return nil, err
	}

	key := cache.GenerateKey("profile", spec.Key())
	if a.cache != nil {
		cached, _, err := cache.GetJSON[models.EnrichedProfile](ctx, a.cache, key)
		switch {
		case err == nil:
			a.metrics.RecordCacheLookup(true)
			a.log.Debug("profile cache hit", logger.String("key", key))
			return &cached, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			a.log.Warn("profile cache read failed", logger.String("key", key), logger.Error(err))
		}
		a.metrics.RecordCacheLookup(false)
		a.log.Debug("profile cache miss", logger.String("key", key))
	}
	return a.build(ctx, spec, key), nil
}

// RefreshProfile aggregates spec from the adapters without reading the
// cache, and replaces the cached copy when the result has data.
func (a *Aggregator) RefreshProfile(ctx context.Context, spec models.EntitySpec) (*models.EnrichedProfile, error) {
	if err := prepareSpec(ctx, &spec); err != nil {
		return nil, err
	}
	return a.build(ctx, spec, cache.GenerateKey("profile", spec.Key())), nil
}

func prepareSpec(ctx context.Context, spec *models.EntitySpec) error {
	spec.Sport = models.NormalizeSport(spec.Sport)
	spec.EntityName = strings.TrimSpace(spec.EntityName)
	spec.League = strings.TrimSpace(spec.League)
	return models.Prepare(ctx, spec)
}

// build fetches and merges a fresh profile and caches it under key.
func (a *Aggregator) build(ctx context.Context, spec models.EntitySpec, key string) *models.EnrichedProfile {
	adapters := a.router.For(spec.Sport)
	results := a.fetchAll(ctx, adapters, spec)
	profile := merge(spec, adapters, results, a.now())

	for i, res := range results {
		if res.err != nil {
			a.log.Warn("source failed",
				logger.String("source", adapters[i].Name()),
				logger.String("sport", spec.Sport),
				logger.String("entity", spec.EntityName),
				logger.Error(res.err),
			)
		}
	}
	a.metrics.RecordProfileQuality(spec.Sport, profile.DataQualityScore)

	if profile.Insufficient() {
		a.log.Warn("no source contributed to profile",
			logger.String("entity", spec.Key()),
			logger.Int("attempted", len(adapters)),
			logger.Error(models.ErrInsufficientData),
		)
		return profile
	}
	if a.cache != nil {
		if err := cache.SetJSON(ctx, a.cache, key, profile); err != nil {
			a.log.Warn("profile cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return profile
}

// fetchAll runs every adapter in parallel. Result i belongs to adapters[i]
// regardless of completion order.
func (a *Aggregator) fetchAll(ctx context.Context, adapters []domrepo.SourceAdapter, spec models.EntitySpec) []fetchResult {
	results := make([]fetchResult, len(adapters))
	if len(adapters) == 0 {
		return results
	}

	type item struct {
		idx int
		res fetchResult
	}
	ch := make(chan item, len(adapters))
	var wg sync.WaitGroup

	for i, ad := range adapters {
		wg.Add(1)
		go func(i int, ad domrepo.SourceAdapter) {
			defer wg.Done()
			ch <- item{i, a.fetchOne(ctx, ad, spec)}
		}(i, ad)
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	for it := range ch {
		results[it.idx] = it.res
	}
	return results
}

// fetchOne bounds a single adapter call by its timeout even when the adapter
// ignores ctx.
func (a *Aggregator) fetchOne(ctx context.Context, ad domrepo.SourceAdapter, spec models.EntitySpec) fetchResult {
	timeout := ad.Timeout()
	if timeout <= 0 {
		timeout = a.timeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		payload models.SourcePayload
		err     error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		p, err := ad.Fetch(cctx, spec)
		done <- outcome{payload: p, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-cctx.Done():
		out = outcome{err: cctx.Err()}
	}
	elapsed := time.Since(start).Seconds()

	if out.err == nil && out.payload.Empty() {
		out.err = errEmptyPayload
	}
	if out.err != nil {
		result := "error"
		if errors.Is(out.err, context.DeadlineExceeded) {
			result = "timeout"
		}
		a.metrics.RecordAdapterCall(ad.Name(), result, elapsed)
		return fetchResult{err: &models.SourceError{Source: ad.Name(), Err: out.err}}
	}

	a.metrics.RecordAdapterCall(ad.Name(), "ok", elapsed)
	return fetchResult{record: &models.RawRecord{
		Source:    ad.Name(),
		Quality:   ad.Quality(),
		FetchedAt: a.now(),
		Payload:   out.payload,
	}}
}

// merge folds the results in priority order. The first source to supply a
// field wins it.
func merge(spec models.EntitySpec, adapters []domrepo.SourceAdapter, results []fetchResult, builtAt time.Time) *models.EnrichedProfile {
	profile := &models.EnrichedProfile{
		Entity:      spec,
		DataSources: make([]models.RawRecord, 0, len(results)),
		BuiltAt:     builtAt,
	}
	for i, res := range results {
		if res.err != nil || res.record == nil {
			profile.FailedSources = append(profile.FailedSources, adapters[i].Name())
			continue
		}
		rec := *res.record
		profile.DataSources = append(profile.DataSources, rec)
		if rec.Payload.Stats != nil {
			mergeStats(&profile.Stats, rec.Payload.Stats)
		}
		if len(profile.News) == 0 && len(rec.Payload.News) > 0 {
			profile.News = append([]models.NewsItem(nil), rec.Payload.News...)
		}
		if rec.Payload.Sentiment != nil {
			mergeSentiment(&profile.Sentiment, rec.Payload.Sentiment)
		}
		if rec.Payload.Standing != nil {
			mergeStanding(&profile.Standings, rec.Payload.Standing)
		}
	}
	profile.DataQualityScore = QualityScore(profile.DataSources, len(results))
	return profile
}

// QualityScore is (100*High + 50*Medium) / attempted, rounded to two places.
// A profile with at least one source never scores below 1, so a profile fed
// only by Low sources scores 1 rather than the formula's 0. A score of 0 then
// always means no source contributed.
func QualityScore(sources []models.RawRecord, attempted int) float64 {
	if attempted == 0 || len(sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sources {
		sum += s.Quality.Weight()
	}
	score := mathx.Round2(sum / float64(attempted))
	if score < 1 {
		score = 1
	}
	return mathx.Clamp(score, 0, 100)
}

func mergeStats(dst, src *models.TeamStats) {
	fillFloat(&dst.GoalsFor, src.GoalsFor)
	fillFloat(&dst.GoalsAgainst, src.GoalsAgainst)
	fillFloat(&dst.ShotsFor, src.ShotsFor)
	fillFloat(&dst.ShotsOnTarget, src.ShotsOnTarget)
	fillFloat(&dst.Possession, src.Possession)
	fillFloat(&dst.Corners, src.Corners)
	fillFloat(&dst.Fouls, src.Fouls)
	fillFloat(&dst.YellowCards, src.YellowCards)
	fillFloat(&dst.RedCards, src.RedCards)
	fillInt(&dst.GamesPlayed, src.GamesPlayed)
	fillString(&dst.Form, src.Form)
	fillFloat(&dst.XG, src.XG)
	fillFloat(&dst.XGA, src.XGA)
	fillFloat(&dst.XA, src.XA)
	fillFloat(&dst.XPTS, src.XPTS)
}

func mergeSentiment(dst, src *models.Sentiment) {
	fillSigned(&dst.Score, src.Score)
	fillInt(&dst.Mentions, src.Mentions)
	fillFloat(&dst.Positive, src.Positive)
}

func mergeStanding(dst, src *models.Standing) {
	fillInt(&dst.Position, src.Position)
	fillInt(&dst.Points, src.Points)
	fillInt(&dst.Played, src.Played)
	fillInt(&dst.Won, src.Won)
	fillInt(&dst.Drawn, src.Drawn)
	fillInt(&dst.Lost, src.Lost)
	fillString(&dst.Form, src.Form)
}

// The fill helpers copy src into an unset dst. A value that is out of range
// for its field counts as absent, so a lower-priority source can supply it.

func fillFloat(dst **float64, src *float64) {
	if src != nil && *src < 0 {
		return
	}
	fillSigned(dst, src)
}

func fillSigned(dst **float64, src *float64) {
	if *dst == nil && src != nil && !math.IsNaN(*src) && !math.IsInf(*src, 0) {
		v := *src
		*dst = &v
	}
}

func fillInt(dst **int, src *int) {
	if *dst == nil && src != nil && *src >= 0 {
		v := *src
		*dst = &v
	}
}

func fillString(dst **string, src *string) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

var (
	_ domsvc.ProfileAggregator = (*Aggregator)(nil)
	_ domsvc.ProfileRefresher  = (*Aggregator)(nil)
)
