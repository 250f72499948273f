// Package storage is the persistent key-value store standing in for the
// browser's localStorage: small JSON snapshots under fixed keys.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Well-known keys.
const (
	KeyRecipes    = "recipes_cache_final"
	KeyCategories = "cats_cache_final"
	KeyFavorites  = "favorites"
)

var ErrNotFound = errors.New("storage: key not found")

// KV is one namespace of the key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Scoper hands out per-namespace views. *Repo implements it.
type Scoper interface {
	Scope(namespace string) KV
}

// Memory is an in-memory KV for tests. It counts writes.
type Memory struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes int
	err    error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// NewMemoryWithError returns a KV whose every call fails with err.
func NewMemoryWithError(err error) *Memory {
	return &Memory{data: make(map[string][]byte), err: err}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Writes returns the number of successful Set calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// MemoryScoper hands out one Memory per namespace, for tests.
type MemoryScoper struct {
	mu     sync.Mutex
	scopes map[string]*Memory
}

func NewMemoryScoper() *MemoryScoper {
	return &MemoryScoper{scopes: make(map[string]*Memory)}
}

func (s *MemoryScoper) Scope(namespace string) KV {
	return s.Memory(namespace)
}

// Memory returns the store of one namespace, creating it if needed.
func (s *MemoryScoper) Memory(namespace string) *Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.scopes[namespace]
	if !ok {
		m = NewMemory()
		s.scopes[namespace] = m
	}
	return m
}
