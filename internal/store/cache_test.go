package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preston-bernstein/homefeed-service/internal/metrics"
)

type payload struct {
	IDs []int `json:"ids"`
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

type failingBackend struct {
	*MemoryBackend
	writeErr error
	readErr  error
}

func (f *failingBackend) Write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryBackend.Write(ctx, key, value, ttl)
}

func (f *failingBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.MemoryBackend.Read(ctx, key)
}

func TestCacheRoundTripWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	rec := metrics.NewRecorder()
	c := NewCache(NewMemoryBackend(), WithClock(clock.now), WithMetrics(rec))
	ctx := context.Background()

	c.Set(ctx, "recs", payload{IDs: []int{1, 2}}, 5*time.Minute)
	clock.advance(4*time.Minute + 59*time.Second)

	var got payload
	if !c.Get(ctx, "recs", &got) {
		t.Fatalf("expected cache hit")
	}
	if len(got.IDs) != 2 || got.IDs[1] != 2 {
		t.Fatalf("unexpected payload %+v", got)
	}
	if rec.CacheHits() != 1 {
		t.Fatalf("expected 1 hit, got %d", rec.CacheHits())
	}
}

func TestCacheExpiresAtTTLBoundary(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	backend := NewMemoryBackend()
	c := NewCache(backend, WithClock(clock.now))
	ctx := context.Background()

	c.Set(ctx, "recs", payload{IDs: []int{1}}, time.Minute)
	clock.advance(time.Minute)

	var got payload
	if c.Get(ctx, "recs", &got) {
		t.Fatalf("expected miss at ttl boundary")
	}
	if _, err := backend.Read(ctx, "recs"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired entry to be evicted, got %v", err)
	}
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	_ = backend.Write(ctx, "recs", []byte("{not json"), 0)

	c := NewCache(backend)
	var got payload
	if c.Get(ctx, "recs", &got) {
		t.Fatalf("expected corrupt entry to read as absent")
	}
}

func TestCacheMissingTimestampIsMiss(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	_ = backend.Write(ctx, "recs", []byte(`{"data":{"ids":[1]},"ttlMs":60000}`), 0)

	c := NewCache(backend)
	var got payload
	if c.Get(ctx, "recs", &got) {
		t.Fatalf("expected entry without storedAt to read as absent")
	}
}

func TestCacheSwallowsWriteFailure(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), writeErr: errors.New("quota exceeded")}
	c := NewCache(backend)
	ctx := context.Background()

	c.Set(ctx, "recs", payload{IDs: []int{1}}, time.Minute)

	var got payload
	if c.Get(ctx, "recs", &got) {
		t.Fatalf("expected miss after rejected write")
	}
}

func TestCacheReadFailureIsMiss(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), readErr: errors.New("disk gone")}
	rec := metrics.NewRecorder()
	c := NewCache(backend, WithMetrics(rec))

	var got payload
	if c.Get(context.Background(), "recs", &got) {
		t.Fatalf("expected miss on read failure")
	}
	if rec.CacheMisses() != 1 {
		t.Fatalf("expected 1 miss, got %d", rec.CacheMisses())
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()
	c.Set(ctx, "recs", payload{IDs: []int{1}}, time.Minute)
	c.Invalidate(ctx, "recs")

	var got payload
	if c.Get(ctx, "recs", &got) {
		t.Fatalf("expected miss after invalidate")
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("expected memory backend ping to succeed, got %v", err)
	}
}
