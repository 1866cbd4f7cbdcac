package cache

import (
	"context"
	"time"

	"github.com/harentsoaR/clinic-api/internal/metrics"
)

// Backend is the contract shared by Redis and Memory.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Instrumented counts hits, misses and errors of the wrapped backend.
type Instrumented struct {
	next    Backend
	metrics *metrics.Metrics
}

func NewInstrumented(next Backend, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := c.next.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.CacheErrors.WithLabelValues("get").Inc()
	case found:
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	default:
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return val, found, err
}

func (c *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.next.Set(ctx, key, value, ttl)
	if err != nil {
		c.metrics.CacheErrors.WithLabelValues("set").Inc()
	}
	return err
}

func (c *Instrumented) Delete(ctx context.Context, keys ...string) error {
	err := c.next.Delete(ctx, keys...)
	if err != nil {
		c.metrics.CacheErrors.WithLabelValues("delete").Inc()
	}
	return err
}
