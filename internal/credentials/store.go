package credentials

import (
	"fmt"
	"strings"
	"sync"
)

// Package credentials provides the client-side key-value store the request
// pipeline reads the API credential from.

// Store reads named credential entries. A missing or empty entry reports ok=false.
type Store interface {
	Close() error
	Get(key string) (value string, ok bool, err error)
}

// Writer is implemented by stores that can be written from outside the request
// pipeline (login/logout commands).
type Writer interface {
	Store
	Put(key, value string) error
	Delete(key string) error
}

// NewStore creates the configured credential backend.
func NewStore(typ, path string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "memory":
		return NewMemoryStore(nil), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt credential store requires a path")
		}
		store, err := openBolt(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported credential store type %q", typ)
	}
}

type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) Get(string) (string, bool, error) { return "", false, nil }

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore returns a MemoryStore seeded with a copy of entries.
func NewMemoryStore(entries map[string]string) *MemoryStore {
	m := &MemoryStore{entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		m.entries[k] = v
	}
	return m
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (m *MemoryStore) Put(key, value string) error {
	m.mu.Lock()
	m.entries[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
