package store

import (
	"context"
	"errors"
)

// DefaultPrefix namespaces every key this application writes.
const DefaultPrefix = "__HeFengWeather_"

// Backend is the raw persistent key/value storage behind a Cache.
type Backend interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string) error
	Close() error
}

// Cache adds the key prefix on top of a Backend. Entries never expire.
type Cache struct {
	backend Backend
	prefix  string
}

// NewCache wraps backend; an empty prefix selects DefaultPrefix.
func NewCache(backend Backend, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{backend: backend, prefix: prefix}
}

// Get returns the value for key and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.backend.Load(ctx, c.prefix+key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores value under key.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	return c.backend.Save(ctx, c.prefix+key, value)
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}
