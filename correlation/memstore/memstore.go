// Package memstore is an in-process correlation.Store, suitable for a single callback host
// or for tests.
package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-oauth-flows/correlation"
)

var _ correlation.Store = (*InMemoryStore)(nil)

// InMemoryStore is a thread-safe in-memory implementation of correlation.Store
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

// New creates an empty store
func New() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[string]string),
	}
}

// Get retrieves the value stored under key
func (s *InMemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, correlation.ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.values[key]
	return value, exists, nil
}

// Set stores or replaces the value under key
func (s *InMemoryStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return correlation.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.writes++
	return nil
}

// Delete removes key
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return correlation.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Writes returns how many times Set has succeeded.
func (s *InMemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
