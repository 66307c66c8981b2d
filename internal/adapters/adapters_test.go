package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ApexPick/internal/domain/models"
	"ApexPick/pkg/config"
	xhttp "ApexPick/pkg/http"
)

func providerServer(t *testing.T, status int, body interface{}) (*httptest.Server, *http.Request) {
	t.Helper()
	seen := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = *r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestHTTPSourceFetch(t *testing.T) {
	srv, seen := providerServer(t, http.StatusOK, map[string]interface{}{
		"stats":    map[string]interface{}{"goals_for": 1.9, "form": "WWDLW"},
		"news":     []map[string]interface{}{{"title": "Captain fit"}},
		"standing": map[string]interface{}{"position": 2},
	})

	src := NewHTTPSource(config.AdapterConfig{
		Name:       "stats-pro",
		Kinds:      []string{"stats", "standings"},
		Sports:     []string{"Soccer"},
		BaseURL:    srv.URL + "/",
		APIKey:     "k-123",
		Quality:    "High",
		RatePerSec: 100,
		Burst:      10,
	}, 10*time.Second)

	payload, err := src.Fetch(context.Background(), models.EntitySpec{Sport: "Soccer", EntityName: "Man City", League: "EPL"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if payload.Stats == nil || *payload.Stats.GoalsFor != 1.9 {
		t.Fatalf("expected stats, got %+v", payload.Stats)
	}
	if payload.Standing == nil || *payload.Standing.Position != 2 {
		t.Fatalf("expected standing, got %+v", payload.Standing)
	}
	if len(payload.News) != 0 {
		t.Fatalf("news is not a configured kind and must be dropped")
	}

	if seen.URL.Path != "/v1/soccer/teams/Man City" {
		t.Fatalf("unexpected path %q", seen.URL.Path)
	}
	if seen.URL.Query().Get("league") != "EPL" {
		t.Fatalf("expected league query, got %q", seen.URL.RawQuery)
	}
	if seen.Header.Get("X-API-Key") != "k-123" {
		t.Fatalf("expected api key header")
	}
	if src.Quality() != models.QualityHigh || src.Timeout() != 10*time.Second {
		t.Fatalf("unexpected adapter metadata")
	}
}

func TestHTTPSourceStatusError(t *testing.T) {
	srv, _ := providerServer(t, http.StatusTooManyRequests, map[string]string{"error": "slow down"})
	src := NewHTTPSource(config.AdapterConfig{Name: "a", Kinds: []string{"stats"}, Sports: []string{"*"}, BaseURL: srv.URL}, time.Second)

	_, err := src.Fetch(context.Background(), models.EntitySpec{Sport: "soccer", EntityName: "x"})
	var se *xhttp.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests || !se.Retryable() {
		t.Fatalf("expected 429 status error, got %v", err)
	}
}

func TestHTTPSourceEmptyPayloadIsFailure(t *testing.T) {
	srv, _ := providerServer(t, http.StatusOK, map[string]interface{}{"news": []interface{}{}})
	src := NewHTTPSource(config.AdapterConfig{Name: "a", Kinds: []string{"stats", "news"}, Sports: []string{"*"}, BaseURL: srv.URL}, time.Second)

	if _, err := src.Fetch(context.Background(), models.EntitySpec{Sport: "soccer", EntityName: "x"}); !errors.Is(err, errNoData) {
		t.Fatalf("expected errNoData, got %v", err)
	}
}

func TestHTTPSourceHonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(config.AdapterConfig{Name: "slow", Kinds: []string{"stats"}, Sports: []string{"*"}, BaseURL: srv.URL}, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := src.Fetch(ctx, models.EntitySpec{Sport: "soccer", EntityName: "x"}); err == nil {
		t.Fatalf("expected deadline error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("fetch ignored the context deadline")
	}
}

type namedAdapter struct{ name string }

func (a namedAdapter) Name() string                  { return a.name }
func (a namedAdapter) Quality() models.SourceQuality { return models.QualityMedium }
func (a namedAdapter) Kinds() []models.SourceKind    { return []models.SourceKind{models.KindStats} }
func (a namedAdapter) Timeout() time.Duration        { return time.Second }
func (a namedAdapter) Fetch(context.Context, models.EntitySpec) (models.SourcePayload, error) {
	return models.SourcePayload{}, nil
}

func TestRegistryOrdering(t *testing.T) {
	r := NewRegistry()
	r.Register(namedAdapter{"espn-nba"}, "basketball")
	r.Register(namedAdapter{"general-1"}, AnySport)
	r.Register(namedAdapter{"bball-ref"}, "Basketball", "basketball")
	r.Register(namedAdapter{"general-2"}, "soccer", AnySport)
	r.Register(namedAdapter{"fbref"}, "soccer")

	names := func(sport string) []string {
		var out []string
		for _, a := range r.For(sport) {
			out = append(out, a.Name())
		}
		return out
	}

	want := []string{"general-1", "general-2", "espn-nba", "bball-ref"}
	got := names("BASKETBALL")
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if got := names("cricket"); len(got) != 2 {
		t.Fatalf("unknown sport should get only general adapters, got %v", got)
	}
	if got := names("soccer"); len(got) != 3 || got[2] != "fbref" {
		t.Fatalf("unexpected soccer routing %v", got)
	}
}

func TestBuildRegistrySkipsDisabled(t *testing.T) {
	r := BuildRegistry([]config.AdapterConfig{
		{Name: "a", Kinds: []string{"stats"}, Sports: []string{"*"}, BaseURL: "http://a"},
		{Name: "b", Kinds: []string{"stats"}, Sports: []string{"soccer"}, BaseURL: "http://b", Disabled: true},
		{Name: "c", Kinds: []string{"news"}, Sports: []string{"soccer"}, BaseURL: "http://c", Timeout: 3 * time.Second},
	}, 10*time.Second)

	list := r.For("soccer")
	if len(list) != 2 || list[0].Name() != "a" || list[1].Name() != "c" {
		t.Fatalf("unexpected adapters %v", r.Names())
	}
	if list[0].Timeout() != 10*time.Second || list[1].Timeout() != 3*time.Second {
		t.Fatalf("unexpected timeouts")
	}
}
