// Package providers implements the three citation-provider HTTP clients
// behind a common Client interface.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/shuu5/obsclip/internal/errs"
)

// Reference is the common reference record shape every provider maps its
// wire response into.
type Reference struct {
	Title         string
	Authors       string
	Journal       string
	Volume        string
	Number        string
	Pages         string
	DOI           string
	URL           string
	Abstract      string
	Keywords      string
	Year          int
	CitationCount int

	// OCI, Creation and Timespan are populated only by the OpenCitations
	// provider: the Open Citation Identifier of the citing-cited edge, the
	// citing paper's publication date, and the citing-to-cited time gap.
	OCI      string
	Creation string
	Timespan string
}

// Client is the common provider interface.
type Client interface {
	Name() string
	FetchReferences(ctx context.Context, doi string) ([]Reference, error)
}

// Config configures one provider client.
type Config struct {
	Name       string
	BaseURL    string
	UserAgent  string
	APIKey     string
	APIKeyName string // header name to carry APIKey, e.g. "x-api-key"
	RatePerSec float64
	Timeout    time.Duration
}

// httpClient is the shared transport behavior: a rate limiter gating
// requests to RatePerSec, a timeout-bounded http.Client, and status-code
// mapping into errs.API sub-kinds.
type httpClient struct {
	cfg     Config
	limiter *rate.Limiter
	http    *http.Client
}

func newHTTPClient(cfg Config) *httpClient {
	limit := rate.Limit(cfg.RatePerSec)
	if cfg.RatePerSec <= 0 {
		limit = rate.Inf
	}

	return &httpClient{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// get performs a rate-limited GET request, returning the response body on
// 2xx, nil,nil on 404 (treated as "no references found", not an error), and
// a classified *errs.Error for every other case.
func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.API(errs.APITimeout, "rate limiter wait canceled", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.API(errs.APIConnection, "build request", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)

	if c.cfg.APIKey != "" && c.cfg.APIKeyName != "" {
		req.Header.Set(c.cfg.APIKeyName, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errs.API(errs.APITimeout, "request timed out", err)
		}

		return nil, errs.API(errs.APIConnection, "request failed", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, errs.API(errs.APIConnection, "read response body", readErr)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.API(errs.APIRateLimit, "provider rate-limited this request", nil).WithContext("status", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, errs.API(errs.APIHTTPStatus, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).WithContext("status", resp.StatusCode)
	}

	return body, nil
}

func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errs.API(errs.APIInvalidJSON, "decode provider response", err)
	}

	return nil
}
