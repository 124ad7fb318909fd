package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
)

// envelope is the persisted form of a cached value.
type envelope struct {
	Data     json.RawMessage `json:"data"`
	StoredAt int64           `json:"storedAt"`
	TTLMs    int64           `json:"ttlMs"`
}

// Cache stores JSON values with a time-to-live. Failures never propagate;
// anything unreadable or expired is reported as a miss.
type Cache struct {
	backend Backend
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for backend warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics records hit/miss counters.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Cache) { c.metrics = rec }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache wraps backend. A nil backend gets a MemoryBackend.
func NewCache(backend Backend, opts ...Option) *Cache {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	c := &Cache{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the live value under key into dst and reports whether it did.
// Expired entries are removed as a side effect.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	raw, err := c.backend.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Warn(c.logger, "cache read failed", logging.FieldCacheKey, key, "err", err)
		}
		c.metrics.RecordCacheLookup(false)
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.StoredAt == 0 || len(env.Data) == 0 {
		c.evict(ctx, key)
		c.metrics.RecordCacheLookup(false)
		return false
	}
	if c.now().UnixMilli()-env.StoredAt >= env.TTLMs {
		c.evict(ctx, key)
		c.metrics.RecordCacheLookup(false)
		return false
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		c.evict(ctx, key)
		c.metrics.RecordCacheLookup(false)
		return false
	}

	c.metrics.RecordCacheLookup(true)
	return true
}

// Set stores value under key for ttl. Write failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn(c.logger, "cache encode failed", logging.FieldCacheKey, key, "err", err)
		return
	}
	raw, err := json.Marshal(envelope{
		Data:     data,
		StoredAt: c.now().UnixMilli(),
		TTLMs:    ttl.Milliseconds(),
	})
	if err != nil {
		logging.Warn(c.logger, "cache encode failed", logging.FieldCacheKey, key, "err", err)
		return
	}
	if err := c.backend.Write(ctx, key, raw, ttl); err != nil {
		logging.Warn(c.logger, "cache write failed", logging.FieldCacheKey, key, "err", err)
	}
}

// Invalidate removes key.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.evict(ctx, key)
}

// Ping reports backend liveness when the backend supports it.
func (c *Cache) Ping(ctx context.Context) error {
	if p, ok := c.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

func (c *Cache) evict(ctx context.Context, key string) {
	if err := c.backend.Delete(ctx, key); err != nil {
		logging.Debug(c.logger, "cache delete failed", logging.FieldCacheKey, key, "err", err)
	}
}
