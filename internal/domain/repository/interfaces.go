package repository

import (
	"context"
	"time"

	"ApexPick/internal/domain/models"
)

// SourceAdapter is one external data provider. Fetch must honour ctx; the
// aggregator additionally enforces Timeout around every call.
type SourceAdapter interface {
	Name() string
	Quality() models.SourceQuality
	Kinds() []models.SourceKind
	Timeout() time.Duration
	Fetch(ctx context.Context, spec models.EntitySpec) (models.SourcePayload, error)
}

// AdapterRouter returns the adapters applicable to a sport in priority order.
type AdapterRouter interface {
	For(sport string) []SourceAdapter
}

type PredictionStore interface {
	Init(ctx context.Context) error // ensure tables
	Save(ctx context.Context, rec models.PredictionRecord) error
	Health(ctx context.Context) error
	Close() error
}

type PredictionPublisher interface {
	Publish(ctx context.Context, preds ...*models.ApexPrediction) error
	Close() error
}

type Metrics interface {
	RecordAdapterCall(source, result string, seconds float64)
	RecordCacheLookup(hit bool)
	RecordProfileQuality(sport string, score float64)
	RecordStakeCapViolation()
	RecordPrediction(stability string)
	RecordError(kind string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordAdapterCall(string, string, float64) {}
func (NopMetrics) RecordCacheLookup(bool)                    {}
func (NopMetrics) RecordProfileQuality(string, float64)      {}
func (NopMetrics) RecordStakeCapViolation()                  {}
func (NopMetrics) RecordPrediction(string)                   {}
func (NopMetrics) RecordError(string)                        {}
