package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader reads through a Store, collapsing concurrent loads of the same key
type Loader struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewLoader creates a read-through loader. A ttl of zero disables caching.
func NewLoader(store Store, ttl time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, ttl: ttl, logger: logger}
}

// Invalidate drops every cached key with the given prefix
func (l *Loader) Invalidate(ctx context.Context, prefix string) error {
	if l.store == nil {
		return nil
	}
	return l.store.DeletePrefix(ctx, prefix)
}

// GetOrLoad returns the cached JSON value for key, or calls load and caches its result.
// Cache failures are logged and never fail the call.
func GetOrLoad[T any](ctx context.Context, l *Loader, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if l == nil || l.store == nil || l.ttl <= 0 {
		return load(ctx)
	}

	if raw, err := l.store.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		l.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, ErrCacheMiss) {
		l.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(loaded); err == nil {
			if err := l.store.Set(ctx, key, raw, l.ttl); err != nil {
				l.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
