// internal/search/external/provider.go
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/time/rate"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	commonhttp "github.com/AlphaGL/Finda-backend-sub000/internal/common/http"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/normalize"
)

const providerName = "web-search"

// providerPayloadSchema validates the provider response before any field is
// trusted by the normalizer.
const providerPayloadSchema = `{
	"type": "object",
	"properties": {
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title":   {"type": "string"},
					"snippet": {"type": "string"},
					"link":    {"type": "string"},
					"price":   {"type": ["number", "null"]},
					"currency": {"type": "string"},
					"source":  {"type": "string"},
					"city":    {"type": "string"},
					"rating":  {"type": ["number", "null"]},
					"ratingCount": {"type": ["integer", "null"]}
				},
				"required": ["title"]
			}
		}
	},
	"required": ["items"]
}`

// Provider is the external web-search collaborator contract.
type Provider interface {
	Search(ctx context.Context, query string, loc *models.Location, kind models.ListingKind, limit int) ([]normalize.ProviderItem, error)
}

// ProviderConfig configures the HTTP provider client.
type ProviderConfig struct {
	BaseURL  string
	APIKey   string
	EngineID string
	Timeout  time.Duration
	RateRPS  float64
}

// HTTPProvider calls the external search API over HTTP with client-side
// rate limiting; limiter exhaustion surfaces as the transient rate-limit
// error rather than a blocked goroutine.
type HTTPProvider struct {
	config  ProviderConfig
	client  *commonhttp.Client
	limiter *rate.Limiter
	schema  *gojsonschema.Schema
}

func NewHTTPProvider(cfg ProviderConfig) *HTTPProvider {
	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 5
	}
	schema, _ := gojsonschema.NewSchema(gojsonschema.NewStringLoader(providerPayloadSchema))
	return &HTTPProvider{
		config:  cfg,
		client:  commonhttp.NewClient(cfg.Timeout),
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		schema:  schema,
	}
}

type providerResponse struct {
	Items []struct {
		Title       string   `json:"title"`
		Snippet     string   `json:"snippet"`
		Link        string   `json:"link"`
		Price       *float64 `json:"price"`
		Currency    string   `json:"currency"`
		Source      string   `json:"source"`
		City        string   `json:"city"`
		Rating      *float64 `json:"rating"`
		RatingCount *int     `json:"ratingCount"`
	} `json:"items"`
}

func (p *HTTPProvider) Search(ctx context.Context, query string, loc *models.Location, kind models.ListingKind, limit int) ([]normalize.ProviderItem, error) {
	if !p.limiter.Allow() {
		return nil, stderrors.NewProviderRateLimitError(providerName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(query, loc, kind, limit), nil)
	if err != nil {
		return nil, stderrors.NewProviderBadPayloadError(providerName, err.Error())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || commonhttp.IsTimeout(err) {
			return nil, stderrors.NewProviderTimeoutError(providerName)
		}
		return nil, stderrors.NewProviderBadPayloadError(providerName, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, stderrors.NewProviderAuthError(providerName, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, stderrors.NewProviderRateLimitError(providerName)
	case resp.StatusCode != http.StatusOK:
		return nil, stderrors.NewProviderBadPayloadError(providerName, fmt.Sprintf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, stderrors.NewProviderBadPayloadError(providerName, err.Error())
	}

	if err := p.validatePayload(body); err != nil {
		return nil, err
	}

	var parsed providerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, stderrors.NewProviderBadPayloadError(providerName, err.Error())
	}

	items := make([]normalize.ProviderItem, 0, len(parsed.Items))
	for _, raw := range parsed.Items {
		item := normalize.ProviderItem{
			Title:   raw.Title,
			Snippet: raw.Snippet,
			Link:    raw.Link,
			Source:  raw.Source,
			City:    raw.City,
		}
		if raw.Price != nil {
			item.Price = *raw.Price
			item.HasPrice = true
		}
		if raw.Rating != nil {
			item.RatingAvg = *raw.Rating
		}
		if raw.RatingCount != nil {
			item.RatingCount = *raw.RatingCount
		}
		items = append(items, item)
	}

	return items, nil
}

func (p *HTTPProvider) validatePayload(body []byte) error {
	if p.schema == nil {
		return nil
	}
	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return stderrors.NewProviderBadPayloadError(providerName, err.Error())
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return stderrors.NewProviderBadPayloadError(providerName, strings.Join(details, "; "))
	}
	return nil
}

func (p *HTTPProvider) buildSearchURL(query string, loc *models.Location, kind models.ListingKind, limit int) string {
	baseURL, _ := url.Parse(p.config.BaseURL)
	params := url.Values{}
	params.Add("key", p.config.APIKey)
	params.Add("cx", p.config.EngineID)
	params.Add("q", query)
	params.Add("kind", string(kind))
	params.Add("num", fmt.Sprintf("%d", limit))
	if loc != nil && loc.City != "" {
		params.Add("location", loc.City)
	}
	baseURL.RawQuery = params.Encode()
	return baseURL.String()
}
