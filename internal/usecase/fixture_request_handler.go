package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ApexPick/internal/domain/models"
	domrepo "ApexPick/internal/domain/repository"
	domsvc "ApexPick/internal/domain/service"
	pkgkafka "ApexPick/pkg/kafka"
	"ApexPick/pkg/logger"
)

// FixtureRequestHandler consumes fixture requests from Kafka and runs the
// pipeline on them. A message holding a "fixtures" array is treated as a slate.
type FixtureRequestHandler struct {
	topic     string
	predictor domsvc.Predictor
	metrics   domrepo.Metrics
	log       *logger.Logger
}

func NewFixtureRequestHandler(topic string, predictor domsvc.Predictor, m domrepo.Metrics, log *logger.Logger) *FixtureRequestHandler {
	if m == nil {
		m = domrepo.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FixtureRequestHandler{topic: topic, predictor: predictor, metrics: m, log: log}
}

func (h *FixtureRequestHandler) Topic() string { return h.topic }

// Handle returns a permanent error for undecodable or invalid requests so the
// consumer dead-letters them without retrying.
func (h *FixtureRequestHandler) Handle(ctx context.Context, b []byte) error {
	var shape struct {
		Fixtures json.RawMessage `json:"fixtures"`
	}
	if err := json.Unmarshal(b, &shape); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode fixture request: %w", err))
	}

	start := time.Now()
	var (
		count int
		err   error
	)
	if isSlate(shape.Fixtures) {
		var req models.SlateRequest
		if err := json.Unmarshal(b, &req); err != nil {
			h.metrics.RecordError("consumer_unmarshal")
			return pkgkafka.Permanent(fmt.Errorf("decode slate request: %w", err))
		}
		var preds []*models.ApexPrediction
		preds, err = h.predictor.PredictSlate(ctx, req)
		count = len(preds)
	} else {
		var req models.FixtureRequest
		if err := json.Unmarshal(b, &req); err != nil {
			h.metrics.RecordError("consumer_unmarshal")
			return pkgkafka.Permanent(fmt.Errorf("decode fixture request: %w", err))
		}
		if _, err = h.predictor.Predict(ctx, req); err == nil {
			count = 1
		}
	}

	if err != nil {
		if models.IsValidation(err) {
			return pkgkafka.Permanent(err)
		}
		return err
	}
	h.log.Debug("fixture request handled",
		logger.Int("predictions", count),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*FixtureRequestHandler)(nil)

// isSlate reports whether the "fixtures" member is present and not null.
func isSlate(fixtures json.RawMessage) bool {
	v := bytes.TrimSpace(fixtures)
	return len(v) > 0 && !bytes.Equal(v, []byte("null"))
}
