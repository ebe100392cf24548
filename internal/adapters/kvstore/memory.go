package kvstore

import (
	"context"
	"sync"
	"time"
)

// Memory keeps values in a map. It is the default backend and the one used
// in tests.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Name implements Backend.
func (m *Memory) Name() string { return BackendMemory }

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	start := time.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		observe(BackendMemory, "get", start, ErrClosed)
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	observe(BackendMemory, "get", start, nil)
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key, value string) error {
	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		observe(BackendMemory, "set", start, ErrClosed)
		return ErrClosed
	}
	m.data[key] = value
	observe(BackendMemory, "set", start, nil)
	return nil
}

// Ping implements Backend.
func (m *Memory) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close implements Backend.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
