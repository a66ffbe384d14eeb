package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/logging"
)

// Backend stores raw cache entries.
type Backend interface {
	// Get returns the value for key; ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching the glob pattern.
	DeletePattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}

// Cache is a read-through cache over a Backend. Backend failures are
// logged and never returned; reads fall through to the loader.
//
// A nil *Cache is valid and caches nothing.
type Cache struct {
	backend Backend
	prefix  string
	logger  logging.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix namespaces every key, e.g. "calsync:".
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithLogger sets the logger for swallowed backend errors.
func WithLogger(logger logging.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records hit/miss/error counts.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a Cache over backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{backend: backend, logger: logging.DefaultLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for name/key, or calls load and caches
// its result with the TTL of name. Errors from load are returned uncached.
func Fetch[T any](ctx context.Context, c *Cache, name, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil || c.backend == nil {
		return load(ctx)
	}

	full := c.prefix + key
	raw, ok, err := c.backend.Get(ctx, full)
	switch {
	case err != nil:
		c.metrics.RecordCacheLookup(ctx, name, instrumentation.CacheError)
		c.logger.Warn("cache get failed", "cache", name, "key", key, logging.Err(err))
	case ok:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			c.metrics.RecordCacheLookup(ctx, name, instrumentation.CacheHit)
			return v, nil
		}
		c.logger.Warn("dropping undecodable cache entry", "cache", name, "key", key)
		_ = c.backend.Delete(ctx, full)
	default:
		c.metrics.RecordCacheLookup(ctx, name, instrumentation.CacheMiss)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", "cache", name, "key", key, logging.Err(err))
		return v, nil
	}
	if err := c.backend.Set(ctx, full, encoded, TTL(name)); err != nil {
		c.logger.Warn("cache set failed", "cache", name, "key", key, logging.Err(err))
	}
	return v, nil
}

// Invalidate removes every entry named by inv.
func (c *Cache) Invalidate(ctx context.Context, inv Invalidation) {
	if c == nil || c.backend == nil || inv.Empty() {
		return
	}
	if len(inv.Keys) > 0 {
		keys := make([]string, len(inv.Keys))
		for i, k := range inv.Keys {
			keys[i] = c.prefix + k
		}
		if err := c.backend.Delete(ctx, keys...); err != nil {
			c.logger.Warn("cache delete failed", "keys", len(keys), logging.Err(err))
		}
	}
	for _, p := range inv.Patterns {
		if err := c.backend.DeletePattern(ctx, EscapePattern(c.prefix)+p); err != nil {
			c.logger.Warn("cache pattern delete failed", "pattern", p, logging.Err(err))
		}
	}
}

// Ping checks the backend. A nil cache is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Ping(ctx)
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Close()
}
