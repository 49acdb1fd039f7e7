package weather

import (
	"context"
	"errors"
)

var (
	// ErrCityNotFound is returned when no lookup candidate satisfies the filter.
	ErrCityNotFound = errors.New("city not found")
	// ErrHistoryUnavailable covers every way a day's history can fail: transport,
	// decoding, or a non-success code reported by the API.
	ErrHistoryUnavailable = errors.New("history unavailable")
	// ErrEmptyReport is returned when no day of the batch produced data.
	ErrEmptyReport = errors.New("no humidity data for any requested day")
)

// Source abstracts the remote weather API (HeFeng).
type Source interface {
	Name() string
	// LookupCity returns the lookup candidates for a location name, optionally
	// qualified by a parent administrative region.
	LookupCity(ctx context.Context, name, adm string) ([]City, error)
	// Historical returns the raw JSON body of a successful history response
	// for a city id and a yyyyMMdd date.
	Historical(ctx context.Context, cityID, date string) ([]byte, error)
}

// Cache is the key/value contract the resolvers read through.
// Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
