// Package cache stores resolved definitions keyed by normalized term.
package cache

import (
	"context"
	"sync"
)

// Entry is a cached definition together with the source that produced it.
type Entry struct {
	Definition string `json:"definition"`
	Source     string `json:"source"`
}

// Cache is a definition cache. Keys are already normalized by the caller.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
	Len(ctx context.Context) (int, error)
}

// Memory is an in-process cache that lives as long as the process.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory returns an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}

func (m *Memory) Len(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
