// Package mocks provides in-memory test doubles for external dependencies.
package mocks

import (
	"context"
	"sync"
	"time"
)

// MockCache is an in-memory mock implementation of the cache.Cache interface.
// Used for testing without requiring a real Redis instance.
type MockCache struct {
	data    map[string]string
	expires map[string]time.Time
	mu      sync.RWMutex

	// Call counters for asserting cache behavior.
	GetCalls int
	SetCalls int
}

// NewMockCache creates a new mock cache instance.
func NewMockCache() *MockCache {
	return &MockCache{
		data:    make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

// Get retrieves a value. Missing or expired keys return an empty string, like
// the Redis-backed implementation.
func (m *MockCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if expiry, ok := m.expires[key]; ok && time.Now().After(expiry) {
		delete(m.data, key)
		delete(m.expires, key)
		return "", nil
	}
	return m.data[key], nil
}

// Set stores a value with an expiration.
func (m *MockCache) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls++
	m.data[key] = value
	if expiration > 0 {
		m.expires[key] = time.Now().Add(expiration)
	} else {
		delete(m.expires, key)
	}
	return nil
}

// Del removes keys.
func (m *MockCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
		delete(m.expires, key)
	}
	return nil
}
