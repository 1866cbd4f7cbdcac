package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache used when no Redis URL is configured.
type Memory struct {
	c *gocache.Cache
}

// NewMemory returns a cache that sweeps expired entries every cleanupInterval.
func NewMemory(cleanupInterval time.Duration) *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	// Copy so callers can reuse their buffer.
	stored := make([]byte, len(value))
	copy(stored, value)
	m.c.Set(key, stored, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}
