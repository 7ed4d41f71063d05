package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"yapisite/internal/catalog"
	"yapisite/internal/platform/metrics"
)

const (
	keySettings   = "settings"
	keyCategories = "categories"

	loadTimeout = 10 * time.Second
)

// CachedReader wraps a Reader with a read-through cache. Concurrent misses
// for the same key share one load. Cache failures degrade to direct reads.
type CachedReader struct {
	next    Reader
	cache   Cache
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// CachedOption configures a CachedReader.
type CachedOption func(*CachedReader)

func WithMetrics(m *metrics.Metrics) CachedOption {
	return func(r *CachedReader) { r.metrics = m }
}

func WithLogger(logger *slog.Logger) CachedOption {
	return func(r *CachedReader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewCachedReader(next Reader, cache Cache, ttl time.Duration, opts ...CachedOption) *CachedReader {
	r := &CachedReader{next: next, cache: cache, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CachedReader) Settings(ctx context.Context) (SiteSettings, error) {
	return readThrough(ctx, r, keySettings, r.next.Settings)
}

func (r *CachedReader) Categories(ctx context.Context) ([]catalog.Category, error) {
	return readThrough(ctx, r, keyCategories, r.next.Categories)
}

// Invalidate drops every cached key.
func (r *CachedReader) Invalidate(ctx context.Context) error {
	if err := r.cache.Delete(ctx, keySettings, keyCategories); err != nil {
		return fmt.Errorf("invalidate settings cache: %w", err)
	}
	return r.next.Invalidate(ctx)
}

func readThrough[T any](ctx context.Context, r *CachedReader, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.WarnContext(ctx, "settings cache read failed", "key", key, "error", err)
	}
	if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			r.metrics.RecordCacheHit(key)
			return cached, nil
		}
		r.logger.WarnContext(ctx, "settings cache entry undecodable", "key", key)
	}
	r.metrics.RecordCacheMiss(key)

	// The shared load serves every waiter, so it must not inherit the
	// cancellation of whichever request happened to start it.
	ch := r.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if encoded, err := json.Marshal(value); err == nil {
			if err := r.cache.Set(loadCtx, key, encoded, r.ttl); err != nil {
				r.logger.WarnContext(ctx, "settings cache write failed", "key", key, "error", err)
			}
		}
		return value, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
