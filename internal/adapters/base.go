package adapters

import (
	"context"
	"fmt"
	"time"

	xhttp "ApexPick/pkg/http"
)

// HTTPSourceBase centralizes client construction and authenticated JSON GETs
// for provider adapters.
type HTTPSourceBase struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

// NewHTTPSourceBase builds a client for baseURL. The client timeout is a
// backstop; callers pass a deadline on ctx.
func NewHTTPSourceBase(baseURL, apiKey string, timeout time.Duration) *HTTPSourceBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSourceBase{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// GetJSON requests path under baseURL and decodes the JSON body into dest.
func (b *HTTPSourceBase) GetJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("source http client not initialized")
	}
	headers := map[string]string{"Accept": "application/json"}
	if b.apiKey != "" {
		headers["X-API-Key"] = b.apiKey
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		Headers:     headers,
		QueryParams: query,
	}, dest)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}
