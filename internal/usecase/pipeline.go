package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ApexPick/internal/domain/models"
	domrepo "ApexPick/internal/domain/repository"
	domsvc "ApexPick/internal/domain/service"
	"ApexPick/internal/services/analytics"
	"ApexPick/pkg/logger"
	"ApexPick/pkg/mathx"
)

const DefaultPredictionTTL = 6 * time.Hour

// Pipeline runs Aggregator -> StatsDeriver -> ProbabilityModel -> EdgeCalculator
// -> {StakeSizer, RiskAssessor} -> Composer for one fixture or a slate.
type Pipeline struct {
	profiles  domsvc.ProfileAggregator
	deriver   domsvc.StatsDeriver
	model     domsvc.ProbabilityModel
	evaluator domsvc.MarketEvaluator
	stakes    domsvc.StakeSizer
	risk      domsvc.RiskAssessor
	composer  *Composer
	store     domrepo.PredictionStore
	publisher domrepo.PredictionPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger

	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPredictionTTL sets the lifetime stamped on persisted records.
func WithPredictionTTL(ttl time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func WithIDGenerator(gen func() string) PipelineOption {
	return func(p *Pipeline) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// WithPersistence attaches the store and publisher. Either may be nil.
func WithPersistence(store domrepo.PredictionStore, pub domrepo.PredictionPublisher) PipelineOption {
	return func(p *Pipeline) {
		p.store = store
		p.publisher = pub
	}
}

func NewPipeline(
	profiles domsvc.ProfileAggregator,
	deriver domsvc.StatsDeriver,
	model domsvc.ProbabilityModel,
	evaluator domsvc.MarketEvaluator,
	stakes domsvc.StakeSizer,
	risk domsvc.RiskAssessor,
	composer *Composer,
	m domrepo.Metrics,
	log *logger.Logger,
	opts ...PipelineOption,
) *Pipeline {
	if m == nil {
		m = domrepo.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{
		profiles:  profiles,
		deriver:   deriver,
		model:     model,
		evaluator: evaluator,
		stakes:    stakes,
		risk:      risk,
		composer:  composer,
		metrics:   m,
		log:       log,
		ttl:       DefaultPredictionTTL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict evaluates every offered market of one fixture and returns the
// composed prediction. Only validation errors are returned.
func (p *Pipeline) Predict(ctx context.Context, req models.FixtureRequest) (*models.ApexPrediction, error) {
	normalizeFixture(&req)
	if err := models.Prepare(ctx, &req); err != nil {
		p.metrics.RecordError("validation")
		return nil, err
	}

	ev, err := p.evaluate(ctx, req)
	if err != nil {
		p.metrics.RecordError("validation")
		return nil, err
	}
	pred := p.composer.Compose(ev, nil, p.now())
	p.finalize(ctx, pred)
	p.publish(ctx, pred)
	return pred, nil
}

// PredictSlate evaluates several fixtures concurrently. Contingency picks may
// come from any other fixture of the slate.
func (p *Pipeline) PredictSlate(ctx context.Context, req models.SlateRequest) ([]*models.ApexPrediction, error) {
	for i := range req.Fixtures {
		normalizeFixture(&req.Fixtures[i])
	}
	if err := models.Prepare(ctx, &req); err != nil {
		p.metrics.RecordError("validation")
		return nil, err
	}
	seen := make(map[string]struct{}, len(req.Fixtures))
	for _, f := range req.Fixtures {
		if _, dup := seen[f.FixtureID]; dup {
			p.metrics.RecordError("validation")
			return nil, models.NewValidationError("fixtures", "duplicate fixture_id "+f.FixtureID)
		}
		seen[f.FixtureID] = struct{}{}
	}

	evals := make([]*FixtureEvaluation, len(req.Fixtures))
	errs := make([]error, len(req.Fixtures))
	var wg sync.WaitGroup
	for i := range req.Fixtures {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			evals[i], errs[i] = p.evaluate(ctx, req.Fixtures[i])
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			p.metrics.RecordError("validation")
			return nil, fmt.Errorf("fixture %s: %w", req.Fixtures[i].FixtureID, err)
		}
	}

	now := p.now()
	out := make([]*models.ApexPrediction, len(evals))
	for i, ev := range evals {
		var pool []Candidate
		for j, other := range evals {
			if j != i {
				pool = append(pool, other.Candidates()...)
			}
		}
		out[i] = p.composer.Compose(ev, pool, now)
		p.finalize(ctx, out[i])
	}
	p.publish(ctx, out...)
	return out, nil
}

func (p *Pipeline) evaluate(ctx context.Context, req models.FixtureRequest) (*FixtureEvaluation, error) {
	home, away, err := p.fetchProfiles(ctx, req)
	if err != nil {
		return nil, err
	}

	hs := p.deriver.DeriveStats(home.TeamData())
	as := p.deriver.DeriveStats(away.TeamData())
	xgDiff := p.deriver.MatchXGDifferential(hs, as)
	homeGoals, awayGoals := p.deriver.MatchExpectedGoals(hs, as)
	quality := mathx.Round2((home.DataQualityScore + away.DataQualityScore) / 2)

	ev := &FixtureEvaluation{
		Request:   req,
		Markets:   make([]models.BettingMarket, 0, len(req.Markets)),
		Home:      home,
		Away:      away,
		HomeStats: hs,
		AwayStats: as,
		XGDiff:    xgDiff,
		Quality:   quality,
	}
	for _, in := range req.Markets {
		market, err := p.priceMarket(req.FixtureID, in, xgDiff, homeGoals+awayGoals, quality)
		if err != nil {
			return nil, err
		}
		market.RecommendedStake = p.stakes.Recommend(market.Edge, market.Odds, market.ConfidenceScore)
		market.RiskAssessment = p.risk.Assess(&market, home, away)
		ev.Markets = append(ev.Markets, market)
	}
	return ev, nil
}

// priceMarket builds the ensemble of a market and evaluates it. A market no
// signal can price falls back to its own implied probability.
func (p *Pipeline) priceMarket(fixtureID string, in models.MarketInput, xgDiff, totalGoals, quality float64) (models.BettingMarket, error) {
	members := append([]float64(nil), in.ModelProbabilities...)
	if sig, ok := p.model.StatsSignal(in.Side, in.Line, xgDiff, totalGoals); ok {
		members = append(members, sig)
	}
	if len(members) == 0 {
		implied, err := analytics.ImpliedProbability(in.Odds)
		if err != nil {
			return models.BettingMarket{}, err
		}
		members = append(members, implied)
	}

	prob, confidence := p.model.Calibrate(members, quality)
	return p.evaluator.Evaluate(fixtureID, in, prob, confidence, quality)
}

func (p *Pipeline) fetchProfiles(ctx context.Context, req models.FixtureRequest) (*models.EnrichedProfile, *models.EnrichedProfile, error) {
	var (
		wg               sync.WaitGroup
		home, away       *models.EnrichedProfile
		homeErr, awayErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		home, homeErr = p.profiles.GetProfile(ctx, req.Home())
	}()
	go func() {
		defer wg.Done()
		away, awayErr = p.profiles.GetProfile(ctx, req.Away())
	}()
	wg.Wait()

	if homeErr != nil {
		return nil, nil, homeErr
	}
	if awayErr != nil {
		return nil, nil, awayErr
	}
	return home, away, nil
}

// finalize assigns the id and persists the prediction. Store failures are
// logged and never returned.
func (p *Pipeline) finalize(ctx context.Context, pred *models.ApexPrediction) {
	pred.ID = p.newID()
	p.metrics.RecordPrediction(string(pred.PredictionStability))

	if p.store != nil {
		rec, err := p.record(pred)
		if err == nil {
			err = p.store.Save(ctx, rec)
		}
		if err != nil {
			p.metrics.RecordError("store")
			p.log.Error("failed to persist prediction",
				logger.String("id", pred.ID),
				logger.String("fixture", pred.FixtureID),
				logger.Error(err),
			)
		}
	}
	fields := []logger.Field{
		logger.String("id", pred.ID),
		logger.String("fixture", pred.FixtureID),
		logger.String("match", pred.Match()),
		logger.Float64("quality", pred.DataQualityScore),
		logger.String("stability", string(pred.PredictionStability)),
	}
	if pm := pred.PrimaryMarket; pm != nil {
		fields = append(fields,
			logger.String("market", pm.BetType+" "+pm.Selection),
			logger.Float64("edge", pm.Edge),
		)
	}
	p.log.Info("prediction composed", fields...)
}

// publish hands preds to the publisher in one call. Failures are logged and
// never returned.
func (p *Pipeline) publish(ctx context.Context, preds ...*models.ApexPrediction) {
	if p.publisher == nil || len(preds) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, preds...); err != nil {
		p.metrics.RecordError("publish")
		ids := make([]string, len(preds))
		for i, pred := range preds {
			ids[i] = pred.ID
		}
		p.log.Error("failed to publish predictions",
			logger.Strings("ids", ids),
			logger.Error(err),
		)
	}
}

// record flattens pred into the persisted row.
func (p *Pipeline) record(pred *models.ApexPrediction) (models.PredictionRecord, error) {
	data, err := json.Marshal(pred)
	if err != nil {
		return models.PredictionRecord{}, fmt.Errorf("marshal prediction: %w", err)
	}
	rec := models.PredictionRecord{
		ID:        pred.ID,
		Sport:     pred.Sport,
		Match:     pred.Match(),
		Data:      data,
		CreatedAt: pred.Timestamp,
		ExpiresAt: pred.Timestamp.Add(p.ttl),
	}
	if pm := pred.PrimaryMarket; pm != nil {
		rec.BetType = pm.BetType
		rec.BestOdds = pm.Odds
		rec.Edge = pm.Edge
		rec.ConfidenceScore = pm.ConfidenceScore
	}
	return rec, nil
}

// normalizeFixture canonicalises the enum fields so validation accepts any
// letter case.
func normalizeFixture(req *models.FixtureRequest) {
	req.Sport = models.NormalizeSport(req.Sport)
	req.HomeTeam = strings.TrimSpace(req.HomeTeam)
	req.AwayTeam = strings.TrimSpace(req.AwayTeam)
	for i := range req.Markets {
		m := &req.Markets[i]
		m.Side = models.Side(strings.ToLower(strings.TrimSpace(string(m.Side))))
		switch strings.ToLower(strings.TrimSpace(string(m.Liquidity))) {
		case "high":
			m.Liquidity = models.LiquidityHigh
		case "medium":
			m.Liquidity = models.LiquidityMedium
		case "low":
			m.Liquidity = models.LiquidityLow
		}
	}
}

var _ domsvc.Predictor = (*Pipeline)(nil)
