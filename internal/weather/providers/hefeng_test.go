package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, h http.HandlerFunc, retries int) *HeFengProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHeFengProvider(srv.Client(), NewCircuitBreaker(t.Name()), Endpoint{
		Host:       srv.URL,
		GeoKey:     "geo-key",
		HistoryKey: "history-key",
	}, retries)
}

func TestEndpointBaseURL(t *testing.T) {
	assert.Equal(t, "https://devapi.qweather.com", Endpoint{Host: "devapi.qweather.com"}.BaseURL())
	assert.Equal(t, "https://devapi.qweather.com", Endpoint{Host: " devapi.qweather.com/ "}.BaseURL())
	assert.Equal(t, "http://127.0.0.1:9000", Endpoint{Host: "http://127.0.0.1:9000"}.BaseURL())
}

func TestLookupCity(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/v2/city/lookup", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "geo-key", q.Get("key"))
		assert.Equal(t, "chaoyang", q.Get("location"))
		assert.Equal(t, "beijing", q.Get("adm"))
		_, _ = w.Write([]byte(`{"code":"200","location":[{"name":"朝阳","id":"101010300","adm1":"北京市","lat":"39.92","lon":"116.44"}]}`))
	}, 0)

	cities, err := p.LookupCity(context.Background(), "chaoyang", "beijing")
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "101010300", cities[0].ID)
	assert.Equal(t, "朝阳", cities[0].Name)
}

func TestLookupCityOmitsEmptyAdm(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["adm"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"code":"404"}`))
	}, 0)

	cities, err := p.LookupCity(context.Background(), "nowhere", "")
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func TestLookupCityErrorCode(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"401"}`))
	}, 0)

	_, err := p.LookupCity(context.Background(), "beijing", "")
	require.ErrorIs(t, err, errAPICode)
}

func TestHistorical(t *testing.T) {
	body := `{"code":"200","weatherDaily":{"date":"2026-10-15"},"weatherHourly":[{"time":"2026-10-15T00:00+08:00","humidity":"40"}]}`
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/historical/weather", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "history-key", q.Get("key"))
		assert.Equal(t, "101010100", q.Get("location"))
		assert.Equal(t, "20261015", q.Get("date"))
		_, _ = w.Write([]byte(body))
	}, 0)

	got, err := p.Historical(context.Background(), "101010100", "20261015")
	require.NoError(t, err)
	assert.JSONEq(t, body, string(got))
}

func TestHistoricalNonSuccessCode(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"204"}`))
	}, 0)

	_, err := p.Historical(context.Background(), "101010100", "20261015")
	require.ErrorIs(t, err, errAPICode)
}

func TestHistoricalMissingKey(t *testing.T) {
	p := NewHeFengProvider(http.DefaultClient, nil, Endpoint{Host: "example.invalid"}, 0)
	_, err := p.Historical(context.Background(), "1", "20261015")
	require.Error(t, err)
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"code":"200","location":[]}`))
	}, 1)

	_, err := p.LookupCity(context.Background(), "beijing", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestServerErrorWithoutRetries(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, 0)

	_, err := p.LookupCity(context.Background(), "beijing", "")
	require.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(1), calls.Load())
}
