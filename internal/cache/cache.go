// Package cache stores small JSON-encoded values such as lookup tables.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache stores JSON-encodable values by key.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type entry struct {
	data    []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Memory is an in-process Cache. A zero ttl keeps entries forever.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// NewMemory creates an in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now := m.now(); e.expired(now) {
		m.mu.Lock()
		// A Set may have replaced the entry since the read lock was released.
		if cur, ok := m.entries[key]; ok && cur.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return false, nil
	}
	return true, json.Unmarshal(e.data, dst)
}

func (m *Memory) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	e := entry{data: data}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}
