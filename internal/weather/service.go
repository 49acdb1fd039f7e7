package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"
)

// Service resolves cities and daily history through a read-through cache.
type Service struct {
	cache  Cache
	source Source
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(cache Cache, source Source) *Service {
	return &Service{
		cache:  cache,
		source: source,
		now:    time.Now,
	}
}

// Outcome is the settled result of one day of the history fan-out.
type Outcome struct {
	Date   string
	Record *DailyRecord
	Err    error
}

// OK reports whether the day produced a record.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Record != nil
}

// Query names the city a report is built for.
type Query struct {
	City        string
	Adm         string
	DisplayName string
}

// Result is everything a render cycle needs.
type Result struct {
	City     City
	Outcomes []Outcome
	Report   Report
}

func cityKey(name string) string {
	return "cityId_" + name
}

func historyKey(cityID, date string) string {
	return "history_" + cityID + "_" + date
}

// cachedFetch returns the value stored under key, or calls fetch, decodes its
// bytes into T and stores them under key. The bool reports a cache hit.
func cachedFetch[T any](ctx context.Context, c Cache, key string, fetch func(context.Context) ([]byte, error)) (T, bool, error) {
	var out T

	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		slog.Warn("cache read failed; fetching from network", "key", key, "error", err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return out, true, fmt.Errorf("decode cached %s: %w", key, err)
		}
		slog.Debug("cache hit", "key", key, "value", truncate(raw, 100))
		return out, true, nil
	}

	body, err := fetch(ctx)
	if err != nil {
		return out, false, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, false, fmt.Errorf("decode %s: %w", key, err)
	}
	if err := c.Set(ctx, key, string(body)); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
	slog.Debug("fetched from network", "key", key, "value", truncate(string(body), 100))
	return out, false, nil
}

// GetCityCode resolves cityName to a City, optionally scoped to the parent
// region upName. The first lookup candidate accepted by filter is cached and
// returned; its ID is the city code.
func (s *Service) GetCityCode(ctx context.Context, cityName, upName string, filter CityFilter) (City, error) {
	if filter == nil {
		filter = ByName("")
	}

	city, hit, err := cachedFetch[City](ctx, s.cache, cityKey(cityName), func(ctx context.Context) ([]byte, error) {
		candidates, err := s.source.LookupCity(ctx, cityName, upName)
		if err != nil {
			return nil, fmt.Errorf("lookup %s via %s: %w", cityName, s.source.Name(), err)
		}
		for _, c := range candidates {
			if filter(c) {
				return json.Marshal(c)
			}
		}
		return nil, fmt.Errorf("%w: %s (%d candidates)", ErrCityNotFound, cityName, len(candidates))
	})
	if err != nil {
		return City{}, err
	}

	slog.Info("resolved city", "city", cityName, "id", city.ID, "name", city.Name, "cached", hit)
	return city, nil
}

// GetHistory returns one day of history for a city id and a yyyyMMdd date.
// Every failure is reported as ErrHistoryUnavailable wrapping its cause.
func (s *Service) GetHistory(ctx context.Context, cityID, date string) (*DailyRecord, error) {
	rec, _, err := cachedFetch[DailyRecord](ctx, s.cache, historyKey(cityID, date), func(ctx context.Context) ([]byte, error) {
		return s.source.Historical(ctx, cityID, date)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: city %s date %s: %w", ErrHistoryUnavailable, cityID, date, err)
	}
	return &rec, nil
}

// GetHistory10Days requests the previous HistoryDays days concurrently and
// waits for all of them. The result always has HistoryDays entries, ordered
// from yesterday backwards; a failed day carries its error.
func (s *Service) GetHistory10Days(ctx context.Context, cityID string) []Outcome {
	now := s.now()
	outcomes := make([]Outcome, HistoryDays)

	var wg sync.WaitGroup
	for i := range outcomes {
		date := dateFrom(now, -(i + 1))
		outcomes[i].Date = date

		wg.Add(1)
		go func(i int, date string) {
			defer wg.Done()

			rec, err := s.GetHistory(ctx, cityID, date)
			if err != nil {
				slog.Warn("history fetch failed", "city", cityID, "date", date, "error", err)
			}
			outcomes[i].Record = rec
			outcomes[i].Err = err
		}(i, date)
	}
	wg.Wait()

	return outcomes
}

// BuildReport runs one render cycle: resolve the city, fetch the last
// HistoryDays days and aggregate the days that succeeded.
func (s *Service) BuildReport(ctx context.Context, q Query) (Result, error) {
	city, err := s.GetCityCode(ctx, q.City, q.Adm, ByName(q.DisplayName))
	if err != nil {
		return Result{}, err
	}

	outcomes := s.GetHistory10Days(ctx, city.ID)

	records := make([]DailyRecord, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() && o.Record.Code == SuccessCode {
			records = append(records, *o.Record)
		}
	}

	report := FormatData(records)
	if len(report.Total) == 0 {
		return Result{}, fmt.Errorf("%w: city %s", ErrEmptyReport, city.ID)
	}

	slog.Info("report built", "city", city.Name, "days", len(report.Total), "failed", len(outcomes)-len(records))
	return Result{City: city, Outcomes: outcomes, Report: report}, nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
