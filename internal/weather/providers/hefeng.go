package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/hefeng-humidity/internal/weather"
	"github.com/sony/gobreaker"
)

var errAPICode = errors.New("api reported failure")

// Endpoint carries the per-request HeFeng host and keys.
// Host is either a bare host name or a full base URL.
type Endpoint struct {
	Host       string
	GeoKey     string
	HistoryKey string
}

// BaseURL returns the scheme-qualified API root without a trailing slash.
func (e Endpoint) BaseURL() string {
	h := strings.TrimRight(strings.TrimSpace(e.Host), "/")
	if strings.Contains(h, "://") {
		return h
	}
	return "https://" + h
}

// HeFengProvider implements weather.Source for the HeFeng (QWeather) API.
type HeFengProvider struct {
	name     string
	endpoint Endpoint
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewHeFengProvider builds a provider for one endpoint. The circuit breaker is
// expected to be shared between providers talking to the same host.
func NewHeFengProvider(client *http.Client, cb *gobreaker.CircuitBreaker, ep Endpoint, maxRetries int) *HeFengProvider {
	if cb == nil {
		cb = NewCircuitBreaker("hefeng")
	}
	return &HeFengProvider{
		name:     "hefeng",
		endpoint: ep,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

func (p *HeFengProvider) Name() string {
	return p.name
}

// LookupCity queries /geo/v2/city/lookup. A "404" code yields no candidates.
func (p *HeFengProvider) LookupCity(ctx context.Context, name, adm string) ([]weather.City, error) {
	if p.endpoint.GeoKey == "" {
		return nil, fmt.Errorf("hefeng geo api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.endpoint.GeoKey)
	values.Set("location", name)
	if adm != "" {
		values.Set("adm", adm)
	}

	body, err := p.get(ctx, "/geo/v2/city/lookup", values)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Code     string         `json:"code"`
		Location []weather.City `json:"location"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode city lookup: %w", err)
	}

	switch payload.Code {
	case "", weather.SuccessCode:
		return payload.Location, nil
	case "404":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: city lookup code %s", errAPICode, payload.Code)
	}
}

// Historical queries /v7/historical/weather and returns the raw body when the
// response code is the success code.
func (p *HeFengProvider) Historical(ctx context.Context, cityID, date string) ([]byte, error) {
	if p.endpoint.HistoryKey == "" {
		return nil, fmt.Errorf("hefeng history api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.endpoint.HistoryKey)
	values.Set("location", cityID)
	values.Set("date", date)

	body, err := p.get(ctx, "/v7/historical/weather", values)
	if err != nil {
		return nil, err
	}

	var head struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if head.Code != weather.SuccessCode {
		return nil, fmt.Errorf("%w: history code %q", errAPICode, head.Code)
	}
	return body, nil
}

func (p *HeFengProvider) get(ctx context.Context, path string, values url.Values) ([]byte, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", p.endpoint.BaseURL(), path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
