package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ApexPick/internal/domain/models"
	"ApexPick/internal/domain/repository"
	"ApexPick/internal/service/ratelimit"
	"ApexPick/pkg/config"
)

var errNoData = errors.New("provider returned no data for the configured kinds")

// sourceResponse is the category-tagged body served by providers at
// GET /v1/{sport}/teams/{entity}.
type sourceResponse struct {
	Stats     *models.TeamStats `json:"stats"`
	News      []models.NewsItem `json:"news"`
	Sentiment *models.Sentiment `json:"sentiment"`
	Standing  *models.Standing  `json:"standing"`
}

// HTTPSource is a generic JSON provider adapter.
type HTTPSource struct {
	base    *HTTPSourceBase
	name    string
	quality models.SourceQuality
	kinds   []models.SourceKind
	sports  []string
	timeout time.Duration
	limiter *ratelimit.Limiter
}

// NewHTTPSource builds an adapter from its config entry. defaultTimeout
// applies when the entry has none.
func NewHTTPSource(cfg config.AdapterConfig, defaultTimeout time.Duration) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	kinds := make([]models.SourceKind, 0, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		kinds = append(kinds, models.SourceKind(strings.ToLower(k)))
	}
	sports := make([]string, 0, len(cfg.Sports))
	for _, s := range cfg.Sports {
		sports = append(sports, models.NormalizeSport(s))
	}
	return &HTTPSource{
		base:    NewHTTPSourceBase(strings.TrimRight(cfg.BaseURL, "/"), cfg.APIKey, timeout),
		name:    cfg.Name,
		quality: models.ParseSourceQuality(cfg.Quality),
		kinds:   kinds,
		sports:  sports,
		timeout: timeout,
		limiter: ratelimit.New(cfg.RatePerSec, cfg.Burst),
	}
}

func (s *HTTPSource) Name() string                  { return s.name }
func (s *HTTPSource) Quality() models.SourceQuality { return s.quality }
func (s *HTTPSource) Kinds() []models.SourceKind    { return s.kinds }
func (s *HTTPSource) Timeout() time.Duration        { return s.timeout }
func (s *HTTPSource) Sports() []string              { return s.sports }

// Fetch waits for a rate-limit token within the ctx deadline, then requests
// the entity and keeps only the configured categories.
func (s *HTTPSource) Fetch(ctx context.Context, spec models.EntitySpec) (models.SourcePayload, error) {
	if err := s.limiter.Wait(ctx, s.name); err != nil {
		return models.SourcePayload{}, fmt.Errorf("rate limited: %w", err)
	}

	path := fmt.Sprintf("/v1/%s/teams/%s",
		url.PathEscape(models.NormalizeSport(spec.Sport)),
		url.PathEscape(spec.EntityName))
	var query map[string][]string
	if spec.League != "" {
		query = map[string][]string{"league": {spec.League}}
	}

	var resp sourceResponse
	if err := s.base.GetJSON(ctx, path, query, &resp); err != nil {
		return models.SourcePayload{}, err
	}

	payload := s.filter(resp)
	if payload.Empty() {
		return models.SourcePayload{}, errNoData
	}
	return payload, nil
}

func (s *HTTPSource) filter(resp sourceResponse) models.SourcePayload {
	var out models.SourcePayload
	for _, k := range s.kinds {
		switch k {
		case models.KindStats:
			out.Stats = resp.Stats
		case models.KindNews:
			out.News = resp.News
		case models.KindSentiment:
			out.Sentiment = resp.Sentiment
		case models.KindStandings:
			out.Standing = resp.Standing
		}
	}
	return out
}

var _ repository.SourceAdapter = (*HTTPSource)(nil)
