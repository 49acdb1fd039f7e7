package weather

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is a map-backed Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

// fakeSource serves a fixed candidate list and synthesizes a day of history
// for every date not listed in failDates.
type fakeSource struct {
	mu        sync.Mutex
	cities    []City
	failDates map[string]bool
	lookups   int
	histories int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) LookupCity(_ context.Context, _, _ string) ([]City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.cities, nil
}

func (f *fakeSource) Historical(_ context.Context, cityID, date string) ([]byte, error) {
	f.mu.Lock()
	f.histories++
	fail := f.failDates[date]
	f.mu.Unlock()

	if fail {
		return nil, errors.New("upstream unavailable")
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, err
	}
	rec := day(d.Format("2006-01-02"), "40", "60")
	return json.Marshal(rec)
}

func (f *fakeSource) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups, f.histories
}

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local)

func newTestService(src Source) (*Service, *memCache) {
	cache := newMemCache()
	svc := NewService(cache, src)
	svc.now = func() time.Time { return fixedNow }
	return svc, cache
}

func TestGetCityCodeUsesCache(t *testing.T) {
	src := &fakeSource{}
	svc, cache := newTestService(src)
	cache.data[cityKey("beijing")] = `{"id":"101010100","name":"北京"}`

	city, err := svc.GetCityCode(context.Background(), "beijing", "", ByName("北京"))
	require.NoError(t, err)
	assert.Equal(t, "101010100", city.ID)
	assert.Equal(t, "北京", city.Name)

	lookups, _ := src.calls()
	assert.Zero(t, lookups)
}

func TestGetCityCodeFiltersAndCaches(t *testing.T) {
	src := &fakeSource{cities: []City{
		{ID: "1", Name: "朝阳", Adm1: "辽宁"},
		{ID: "2", Name: "朝阳区", Adm1: "北京"},
	}}
	svc, cache := newTestService(src)

	city, err := svc.GetCityCode(context.Background(), "chaoyang", "beijing", ByName("朝阳区"))
	require.NoError(t, err)
	assert.Equal(t, "2", city.ID)

	stored, ok := cache.data[cityKey("chaoyang")]
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"2","name":"朝阳区","adm1":"北京"}`, stored)

	_, err = svc.GetCityCode(context.Background(), "chaoyang", "beijing", ByName("朝阳区"))
	require.NoError(t, err)
	lookups, _ := src.calls()
	assert.Equal(t, 1, lookups)
}

func TestGetCityCodeNoMatch(t *testing.T) {
	src := &fakeSource{cities: []City{{ID: "1", Name: "朝阳"}}}
	svc, cache := newTestService(src)

	_, err := svc.GetCityCode(context.Background(), "chaoyang", "", ByName("海淀区"))
	require.ErrorIs(t, err, ErrCityNotFound)
	assert.Empty(t, cache.data)
}

func TestByNameEmptyAcceptsFirst(t *testing.T) {
	src := &fakeSource{cities: []City{{ID: "7", Name: "上海"}, {ID: "8", Name: "上海南"}}}
	svc, _ := newTestService(src)

	city, err := svc.GetCityCode(context.Background(), "shanghai", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "7", city.ID)
}

func TestGetHistoryUsesCache(t *testing.T) {
	src := &fakeSource{}
	svc, cache := newTestService(src)
	b, err := json.Marshal(day("2026-10-15", "55"))
	require.NoError(t, err)
	cache.data[historyKey("101010100", "20261015")] = string(b)

	rec, err := svc.GetHistory(context.Background(), "101010100", "20261015")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", rec.WeatherDaily.Date)

	_, histories := src.calls()
	assert.Zero(t, histories)
}

func TestGetHistoryFailureIsMerged(t *testing.T) {
	src := &fakeSource{failDates: map[string]bool{"20261015": true}}
	svc, cache := newTestService(src)

	_, err := svc.GetHistory(context.Background(), "101010100", "20261015")
	require.ErrorIs(t, err, ErrHistoryUnavailable)
	assert.Empty(t, cache.data)
}

func TestGetHistory10DaysSettlesAll(t *testing.T) {
	src := &fakeSource{failDates: map[string]bool{"20261012": true, "20261008": true}}
	svc, cache := newTestService(src)

	outcomes := svc.GetHistory10Days(context.Background(), "101010100")
	require.Len(t, outcomes, HistoryDays)

	assert.Equal(t, "20261015", outcomes[0].Date)
	assert.Equal(t, "20261006", outcomes[HistoryDays-1].Date)

	var failed int
	for _, o := range outcomes {
		if !o.OK() {
			failed++
			assert.ErrorIs(t, o.Err, ErrHistoryUnavailable)
		}
	}
	assert.Equal(t, 2, failed)
	assert.Len(t, cache.data, HistoryDays-2)
}

// barrierSource holds every Historical call until want calls are in flight.
type barrierSource struct {
	fakeSource
	want     int
	mu       sync.Mutex
	arrived  int
	released chan struct{}
}

func (b *barrierSource) Historical(ctx context.Context, cityID, date string) ([]byte, error) {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.want {
		close(b.released)
	}
	b.mu.Unlock()

	select {
	case <-b.released:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.fakeSource.Historical(ctx, cityID, date)
}

func TestGetHistory10DaysRequestsConcurrently(t *testing.T) {
	src := &barrierSource{want: HistoryDays, released: make(chan struct{})}
	svc, _ := newTestService(src)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcomes := svc.GetHistory10Days(ctx, "101010100")
	require.Len(t, outcomes, HistoryDays)
	for _, o := range outcomes {
		assert.True(t, o.OK(), "date %s: %v", o.Date, o.Err)
	}

	select {
	case <-src.released:
	default:
		t.Fatal("history requests were not in flight at the same time")
	}
}

func TestBuildReport(t *testing.T) {
	src := &fakeSource{
		cities:    []City{{ID: "101010100", Name: "北京"}},
		failDates: map[string]bool{"20261014": true},
	}
	svc, _ := newTestService(src)

	result, err := svc.BuildReport(context.Background(), Query{City: "beijing", DisplayName: "北京"})
	require.NoError(t, err)
	assert.Equal(t, "北京", result.City.Name)
	assert.Len(t, result.Outcomes, HistoryDays)
	assert.Len(t, result.Report.Total, HistoryDays-1)
	assert.NotContains(t, result.Report.Days, "2026-10-14")
	assert.Equal(t, "2026-10-15", result.Report.Total[0].Date)
}

func TestBuildReportAllDaysFailed(t *testing.T) {
	fail := make(map[string]bool)
	for i := 1; i <= HistoryDays; i++ {
		fail[dateFrom(fixedNow, -i)] = true
	}
	src := &fakeSource{cities: []City{{ID: "1", Name: "北京"}}, failDates: fail}
	svc, _ := newTestService(src)

	_, err := svc.BuildReport(context.Background(), Query{City: "beijing"})
	require.ErrorIs(t, err, ErrEmptyReport)
}

func TestGetDate(t *testing.T) {
	now := time.Now()
	assert.Equal(t, now.Format("20060102"), GetDate(0))
	assert.Equal(t, now.AddDate(0, 0, -1).Format("20060102"), GetDate(-1))

	assert.Equal(t, "20260301", dateFrom(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), -1))
	assert.Equal(t, "20251231", dateFrom(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), -1))
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "北京", truncate("北京", 100))
	// Each of these characters is three bytes long.
	assert.Equal(t, "北", truncate("北京", 4))
	assert.Equal(t, "", truncate("北京", 2))
	assert.Equal(t, "abc", truncate("abcdef", 3))
}
