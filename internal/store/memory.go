package store

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned by a Backend when no value is stored under a key.
	ErrNotFound = errors.New("no cache entry for key")
)

// MemoryStore is a concurrency-safe in-memory Backend. Entries live as long
// as the process.
type MemoryStore struct {
	mu sync.RWMutex

	// key: fully prefixed cache key, value: serialized JSON
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

// Load returns the value stored under key.
func (s *MemoryStore) Load(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Save stores value under key, replacing any previous value.
func (s *MemoryStore) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Close() error { return nil }
