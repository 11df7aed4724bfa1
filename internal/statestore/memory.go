package statestore

import (
	"fmt"
	"slices"
	"sync"
)

// MemoryBackend keeps entries in memory. It is used for ephemeral sessions
// and in tests.
type MemoryBackend struct {
	maxEntryBytes int

	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryBackend returns an empty backend. A positive maxEntryBytes makes
// larger writes fail with ErrEntryTooLarge.
func NewMemoryBackend(maxEntryBytes int) *MemoryBackend {
	return &MemoryBackend{
		maxEntryBytes: maxEntryBytes,
		entries:       make(map[string][]byte),
	}
}

// Get implements Backend.
func (m *MemoryBackend) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(key string, data []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if m.maxEntryBytes > 0 && len(data) > m.maxEntryBytes {
		return fmt.Errorf("%w: %d bytes > %d", ErrEntryTooLarge, len(data), m.maxEntryBytes)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = slices.Clone(data)
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
