package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ApexPick/internal/domain/models"
	domrepo "ApexPick/internal/domain/repository"
)

type fakeAdapter struct {
	name    string
	quality models.SourceQuality
	timeout time.Duration
	delay   time.Duration
	block   chan struct{} // ignores ctx until closed
	payload models.SourcePayload
	err     error
	calls   int32
}

func (f *fakeAdapter) Name() string                  { return f.name }
func (f *fakeAdapter) Quality() models.SourceQuality { return f.quality }
func (f *fakeAdapter) Kinds() []models.SourceKind    { return []models.SourceKind{models.KindStats} }
func (f *fakeAdapter) Timeout() time.Duration        { return f.timeout }

func (f *fakeAdapter) Fetch(ctx context.Context, _ models.EntitySpec) (models.SourcePayload, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.SourcePayload{}, ctx.Err()
		}
	}
	return f.payload, f.err
}

func (f *fakeAdapter) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

type staticRouter []domrepo.SourceAdapter

func (r staticRouter) For(string) []domrepo.SourceAdapter { return r }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memStore struct {
	mu      sync.Mutex
	records []models.PredictionRecord
	err     error
}

func (s *memStore) Init(context.Context) error   { return nil }
func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

func (s *memStore) Save(_ context.Context, rec models.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

type memPublisher struct {
	mu        sync.Mutex
	published []*models.ApexPrediction
	calls     int
	err       error
}

func (p *memPublisher) Close() error { return nil }

func (p *memPublisher) Publish(_ context.Context, preds ...*models.ApexPrediction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, preds...)
	return nil
}

func statsPayload(goalsFor float64) models.SourcePayload {
	return models.SourcePayload{Stats: &models.TeamStats{GoalsFor: models.Float(goalsFor)}}
}
