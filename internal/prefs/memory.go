package prefs

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// MemoryStore is an in-process KVStore used when Redis is not configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the value for key or domain.ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Incr adds one to the integer at key.
func (m *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if v, ok := m.data[key]; ok {
		var err error
		if n, err = strconv.ParseInt(v, 10, 64); err != nil {
			return 0, fmt.Errorf("prefs: incr %s: %w", key, domain.ErrInconsistentState)
		}
	}
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// Update replaces the value at key with fn's result under the store lock.
func (m *MemoryStore) Update(_ context.Context, key string, fn func(old string, found bool) (string, error)) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, found := m.data[key]
	next, err := fn(old, found)
	if err != nil {
		return "", err
	}
	m.data[key] = next
	return next, nil
}

var _ domain.KVStore = (*MemoryStore)(nil)
