package store

import (
	"context"
	"sync"
)

// MemKV is an in-memory KV double for tests and the scenario harness.
// Values survive for the lifetime of the process only.
//
// Thread-safety: all methods are safe for concurrent use.
type MemKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	closed bool

	// SetErr, when non-nil, is returned by every Set without modifying
	// stored data. Tests use it to simulate quota/serialization failures.
	SetErr error

	// GetErr, when non-nil, is returned by every Get. Tests use it to
	// simulate an unreadable backend.
	GetErr error
}

// NewMemKV creates an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements KV.
func (m *MemKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// Close implements KV.
func (m *MemKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
