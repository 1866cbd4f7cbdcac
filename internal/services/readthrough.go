package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// readThrough serves key from c as JSON, falling back to load and filling the cache with
// ttl. An entry that no longer decodes counts as a miss.
func readThrough[T any](ctx context.Context, c Cache, key string, ttl time.Duration, log *zap.Logger, load func(context.Context) (T, error)) (T, error) {
	var zero T
	log = log.With(zap.String("key", key))

	raw, found, err := c.Get(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("reading cache: %w", err)
	}
	if found {
		var cached T
		decodeErr := json.Unmarshal(raw, &cached)
		if decodeErr == nil {
			log.Debug("cache hit")
			return cached, nil
		}
		log.Warn("discarding unreadable cache entry", zap.Error(decodeErr))
	}

	log.Debug("cache miss")
	value, err := load(ctx)
	if err != nil {
		return zero, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := c.Set(ctx, key, payload, ttl); err != nil {
		return zero, fmt.Errorf("writing cache: %w", err)
	}
	return value, nil
}
