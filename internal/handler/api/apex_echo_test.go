package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"ApexPick/internal/domain/models"
	"ApexPick/internal/services/stats"
)

type stubProfiles struct {
	last models.EntitySpec
}

func (s *stubProfiles) GetProfile(_ context.Context, spec models.EntitySpec) (*models.EnrichedProfile, error) {
	s.last = spec
	return &models.EnrichedProfile{Entity: spec, DataQualityScore: 66.67}, nil
}

type stubPredictor struct {
	err    error
	slates int
}

func (s *stubPredictor) Predict(_ context.Context, req models.FixtureRequest) (*models.ApexPrediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ApexPrediction{ID: "pred-1", FixtureID: req.FixtureID}, nil
}

func (s *stubPredictor) PredictSlate(_ context.Context, req models.SlateRequest) ([]*models.ApexPrediction, error) {
	s.slates++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*models.ApexPrediction, 0, len(req.Fixtures))
	for _, f := range req.Fixtures {
		out = append(out, &models.ApexPrediction{FixtureID: f.FixtureID})
	}
	return out, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(pred *stubPredictor, checks ...HealthCheck) (*echo.Echo, *stubProfiles) {
	profiles := &stubProfiles{}
	e := echo.New()
	NewApexEchoHandler(nil, profiles, stats.NewDeriver(), pred, checks...).RegisterRoutes(e)
	return e, profiles
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, target, err, rec.Body.String())
	}
	return rec.Code, env
}

func TestProfileBindsQuery(t *testing.T) {
	e, profiles := newTestServer(&stubPredictor{})

	code, env := do(t, e, http.MethodGet, "/api/profile?sport=football&entity=Arsenal&league=EPL", "")
	if code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("code = %d status = %d", code, env.Status)
	}
	if profiles.last.EntityName != "Arsenal" || profiles.last.League != "EPL" {
		t.Fatalf("spec = %+v", profiles.last)
	}
	var p models.EnrichedProfile
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if p.DataQualityScore != 66.67 {
		t.Fatalf("quality = %v", p.DataQualityScore)
	}
}

func TestProfileMissingSportIsBadRequest(t *testing.T) {
	e, _ := newTestServer(&stubPredictor{})
	code, env := do(t, e, http.MethodGet, "/api/profile?entity=Arsenal", "")
	if code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", code)
	}
	if !strings.Contains(string(env.Data), "ERR_REQUIRED") {
		t.Fatalf("data = %s", env.Data)
	}
}

func TestDeriveStatsPassesThroughSuppliedXG(t *testing.T) {
	e, _ := newTestServer(&stubPredictor{})
	code, env := do(t, e, http.MethodPost, "/api/stats/derive", `{"stats":{"xg":1.65,"shots_for":14}}`)
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	var adv models.AdvancedStats
	if err := json.Unmarshal(env.Data, &adv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if adv.XG == nil || *adv.XG != 1.65 {
		t.Fatalf("xg = %v, want 1.65", adv.XG)
	}
	if adv.XGA == nil || adv.XPTS == nil {
		t.Fatalf("missing derived metrics: %+v", adv)
	}
}

func TestPredictStatusMapping(t *testing.T) {
	body := `{"fixture_id":"f1","sport":"football","home_team":"A","away_team":"B","markets":[{"bet_type":"1X2","selection":"A","odds":2.1}]}`

	e, _ := newTestServer(&stubPredictor{})
	code, env := do(t, e, http.MethodPost, "/api/predictions", body)
	if code != http.StatusOK {
		t.Fatalf("ok: code = %d", code)
	}
	var pred models.ApexPrediction
	if err := json.Unmarshal(env.Data, &pred); err != nil || pred.FixtureID != "f1" {
		t.Fatalf("prediction = %+v, err = %v", pred, err)
	}

	e, _ = newTestServer(&stubPredictor{err: models.NewValidationError("markets[0].odds", "failed gt=1")})
	code, env = do(t, e, http.MethodPost, "/api/predictions", body)
	if code != http.StatusBadRequest {
		t.Fatalf("validation: code = %d, want 400", code)
	}
	if !strings.Contains(string(env.Data), `"field":"markets[0].odds"`) {
		t.Fatalf("validation data = %s", env.Data)
	}

	e, _ = newTestServer(&stubPredictor{err: errors.New("boom")})
	if code, _ = do(t, e, http.MethodPost, "/api/predictions", body); code != http.StatusInternalServerError {
		t.Fatalf("internal: code = %d, want 500", code)
	}

	e, _ = newTestServer(&stubPredictor{})
	if code, _ = do(t, e, http.MethodPost, "/api/predictions", `{"fixture_id":`); code != http.StatusBadRequest {
		t.Fatalf("bad json: code = %d, want 400", code)
	}
}

func TestPredictSlate(t *testing.T) {
	pred := &stubPredictor{}
	e, _ := newTestServer(pred)
	code, env := do(t, e, http.MethodPost, "/api/predictions/slate", `{"fixtures":[{"fixture_id":"f1"},{"fixture_id":"f2"}]}`)
	if code != http.StatusOK || pred.slates != 1 {
		t.Fatalf("code = %d slates = %d", code, pred.slates)
	}
	var preds []models.ApexPrediction
	if err := json.Unmarshal(env.Data, &preds); err != nil || len(preds) != 2 {
		t.Fatalf("preds = %+v, err = %v", preds, err)
	}
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "store", Check: func(context.Context) error { return nil }}
	e, _ := newTestServer(&stubPredictor{}, ok)
	if code, _ := do(t, e, http.MethodGet, "/healthz", ""); code != http.StatusOK {
		t.Fatalf("healthy: code = %d", code)
	}

	down := HealthCheck{Name: "cache", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}
	e, _ = newTestServer(&stubPredictor{}, ok, down)
	code, env := do(t, e, http.MethodGet, "/healthz", "")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: code = %d, want 503", code)
	}
	var status map[string]string
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["store"] != "ok" || status["cache"] == "ok" {
		t.Fatalf("status = %v", status)
	}
}
