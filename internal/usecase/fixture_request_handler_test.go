package usecase

import (
	"context"
	"errors"
	"testing"

	"ApexPick/internal/domain/models"
	pkgkafka "ApexPick/pkg/kafka"
)

type recordingPredictor struct {
	fixtures []models.FixtureRequest
	slates   []models.SlateRequest
	err      error
}

func (r *recordingPredictor) Predict(_ context.Context, req models.FixtureRequest) (*models.ApexPrediction, error) {
	r.fixtures = append(r.fixtures, req)
	if r.err != nil {
		return nil, r.err
	}
	return &models.ApexPrediction{FixtureID: req.FixtureID}, nil
}

func (r *recordingPredictor) PredictSlate(_ context.Context, req models.SlateRequest) ([]*models.ApexPrediction, error) {
	r.slates = append(r.slates, req)
	if r.err != nil {
		return nil, r.err
	}
	return make([]*models.ApexPrediction, len(req.Fixtures)), nil
}

func isPermanent(err error) bool {
	var pe *pkgkafka.PermanentError
	return errors.As(err, &pe)
}

func TestFixtureRequestHandlerRoutesSingleAndSlate(t *testing.T) {
	pred := &recordingPredictor{}
	h := NewFixtureRequestHandler("apex.requests", pred, nil, nil)
	if h.Topic() != "apex.requests" {
		t.Fatalf("topic = %q", h.Topic())
	}

	single := []byte(`{"fixture_id":"f1","sport":"football","home_team":"A","away_team":"B","markets":[{"bet_type":"1X2","selection":"A","odds":2.1}]}`)
	if err := h.Handle(context.Background(), single); err != nil {
		t.Fatalf("single: %v", err)
	}
	slate := []byte(`{"fixtures":[{"fixture_id":"f1"},{"fixture_id":"f2"}]}`)
	if err := h.Handle(context.Background(), slate); err != nil {
		t.Fatalf("slate: %v", err)
	}
	if len(pred.fixtures) != 1 || pred.fixtures[0].Markets[0].Odds != 2.1 {
		t.Fatalf("fixtures = %+v", pred.fixtures)
	}
	if len(pred.slates) != 1 || len(pred.slates[0].Fixtures) != 2 {
		t.Fatalf("slates = %+v", pred.slates)
	}
}

func TestFixtureRequestHandlerNullFixturesIsSingle(t *testing.T) {
	pred := &recordingPredictor{}
	h := NewFixtureRequestHandler("apex.requests", pred, nil, nil)

	msg := []byte(`{"fixtures": null,"fixture_id":"f1","sport":"football","home_team":"A","away_team":"B"}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(pred.slates) != 0 || len(pred.fixtures) != 1 || pred.fixtures[0].FixtureID != "f1" {
		t.Fatalf("slates = %d, fixtures = %+v", len(pred.slates), pred.fixtures)
	}
}

func TestFixtureRequestHandlerBadInputIsPermanent(t *testing.T) {
	h := NewFixtureRequestHandler("t", &recordingPredictor{}, nil, nil)
	if err := h.Handle(context.Background(), []byte("{not json")); !isPermanent(err) {
		t.Fatalf("bad json: err = %v, want permanent", err)
	}

	invalid := &recordingPredictor{err: models.NewValidationError("odds", "must be greater than 1")}
	h = NewFixtureRequestHandler("t", invalid, nil, nil)
	if err := h.Handle(context.Background(), []byte(`{"fixture_id":"f1"}`)); !isPermanent(err) {
		t.Fatalf("validation: err = %v, want permanent", err)
	}
}

func TestFixtureRequestHandlerTransientErrorIsRetryable(t *testing.T) {
	h := NewFixtureRequestHandler("t", &recordingPredictor{err: errors.New("transient")}, nil, nil)
	err := h.Handle(context.Background(), []byte(`{"fixture_id":"f1"}`))
	if err == nil || isPermanent(err) {
		t.Fatalf("err = %v, want retryable", err)
	}
}
