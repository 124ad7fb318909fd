package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/preston-bernstein/homefeed-service/internal/config"
	"github.com/preston-bernstein/homefeed-service/internal/providers"
	"github.com/preston-bernstein/homefeed-service/internal/store"
	"github.com/preston-bernstein/homefeed-service/internal/teststubs"
	"github.com/preston-bernstein/homefeed-service/internal/testutil"
)

type closeCountingBackend struct {
	*store.MemoryBackend
	closes atomic.Int32
}

func (b *closeCountingBackend) Close() error {
	b.closes.Add(1)
	return nil
}

func newCountingCache() (*store.Cache, *closeCountingBackend) {
	backend := &closeCountingBackend{MemoryBackend: store.NewMemoryBackend()}
	return store.NewCache(backend), backend
}

func TestServerServesHealthAndHome(t *testing.T) {
	srv, err := newServerWithSources(config.Config{Port: "0"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router := srv.Handler()

	healthRec := testutil.Serve(router, http.MethodGet, "/health", nil)
	testutil.AssertStatus(t, healthRec, http.StatusOK)

	readyRec := testutil.Serve(router, http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, readyRec, http.StatusOK)

	homeRec := testutil.Serve(router, http.MethodGet, "/home", nil)
	testutil.AssertStatus(t, homeRec, http.StatusOK)
	if homeRec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header from middleware")
	}

	var page struct {
		Recommendations struct {
			Status string            `json:"status"`
			Games  []json.RawMessage `json:"games"`
		} `json:"recommendations"`
		Feed struct {
			State string            `json:"state"`
			Items []json.RawMessage `json:"items"`
		} `json:"feed"`
	}
	testutil.DecodeJSON(t, homeRec, &page)
	if page.Recommendations.Status != "ok" || len(page.Recommendations.Games) == 0 {
		t.Fatalf("unexpected recommendations %+v", page.Recommendations)
	}
	if page.Feed.State != "ready" || len(page.Feed.Items) == 0 {
		t.Fatalf("unexpected feed %+v", page.Feed)
	}
}

func TestServerReportsCooldownAfterUpstreamRateLimit(t *testing.T) {
	platform := &teststubs.StubPlatform{
		Recommendations: providers.PrimaryRecommendations{Sorts: []providers.RecommendationSort{{
			RecommendationList: []providers.RecommendationItem{{ContentType: providers.ContentTypeGame, ContentID: 1}},
		}}},
		MetadataErr: &providers.RateLimitError{Provider: "platform", StatusCode: http.StatusTooManyRequests},
	}
	sources := &upstreams{platform: platform, community: &teststubs.StubCommunity{}}
	srv, err := newServerWithSources(config.Config{Port: "0"}, nil, sources, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := testutil.Serve(srv.Handler(), http.MethodGet, "/home/recommendations", nil)
	testutil.AssertStatus(t, first, http.StatusOK)
	second := testutil.Serve(srv.Handler(), http.MethodGet, "/home/recommendations", nil)
	testutil.AssertStatus(t, second, http.StatusOK)

	var resp map[string]any
	testutil.DecodeJSON(t, second, &resp)
	if resp["status"] != "cooldown" {
		t.Fatalf("expected cooldown, got %v", resp["status"])
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if got := platform.MetadataCall.Count.Load(); got != 1 {
		t.Fatalf("expected one metadata call across both requests, got %d", got)
	}
}

func TestServerFeedDegradesWhenPlatformFails(t *testing.T) {
	platform := &teststubs.StubPlatform{NotificationsErr: errors.New("platform down")}
	sources := &upstreams{platform: platform, community: &teststubs.StubCommunity{}}
	srv, err := newServerWithSources(config.Config{Port: "0"}, nil, sources, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rr := testutil.Serve(srv.Handler(), http.MethodGet, "/home/feed", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var resp map[string]any
	testutil.DecodeJSON(t, rr, &resp)
	if resp["state"] != "empty" {
		t.Fatalf("expected empty feed, got %v", resp["state"])
	}
}

func TestServerMountsAdminOnlyWithToken(t *testing.T) {
	srv, err := newServerWithSources(config.Config{Port: "0"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rr := testutil.Serve(srv.Handler(), http.MethodPost, "/admin/home/reset", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	srv, err = newServerWithSources(config.Config{Port: "0", AdminToken: "secret"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/home/reset", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = testutil.ServeRequest(srv.Handler(), req)
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestNewConstructsServer(t *testing.T) {
	cfg := config.Config{
		Port:     "0",
		Provider: "fixture",
		Cache:    config.CacheConfig{Backend: config.CacheBackendFile, Path: t.TempDir()},
		Metrics: config.MetricsConfig{
			Enabled: false,
		},
	}
	srv, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv == nil || srv.Handler() == nil {
		t.Fatalf("expected server with handler")
	}
	srv.gracefulShutdown()
}

func TestNewFailsWhenCacheCannotOpen(t *testing.T) {
	orig := openBackend
	defer func() { openBackend = orig }()
	openBackend = func(cfg config.CacheConfig) (store.Backend, error) {
		return nil, errors.New("disk full")
	}

	if _, err := New(config.Config{Port: "0"}, nil); err == nil {
		t.Fatalf("expected cache open error")
	}
}

func TestGracefulShutdownStopsServerAndClosesCache(t *testing.T) {
	cache, backend := newCountingCache()
	httpSrv := &testutil.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, cache, httpSrv)
	srv.gracefulShutdown()

	if httpSrv.ShutdownCalls() != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls())
	}
	if got := backend.closes.Load(); got != 1 {
		t.Fatalf("expected cache backend closed once, got %d", got)
	}
}

func TestGracefulShutdownTimesOutLongRunningShutdown(t *testing.T) {
	cache, backend := newCountingCache()
	blocking := &testutil.StubHTTPServer{Unblock: make(chan struct{})}

	original := shutdownTimeout
	shutdownTimeout = 5 * time.Millisecond
	defer func() { shutdownTimeout = original }()

	srv := newServerWithDeps(config.Config{}, nil, cache, blocking)

	start := time.Now()
	srv.gracefulShutdown()
	elapsed := time.Since(start)

	if blocking.ShutdownCalls() != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", blocking.ShutdownCalls())
	}
	if backend.closes.Load() != 1 {
		t.Fatalf("expected cache closed after timed-out shutdown")
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("shutdown took too long: %s", elapsed)
	}
}

func TestGracefulShutdownContinuesWhenServerShutdownErrors(t *testing.T) {
	cache, backend := newCountingCache()
	httpSrv := &testutil.StubHTTPServer{ShutdownErr: errors.New("stuck")}
	metricsSrv := &testutil.StubHTTPServer{}
	stopCalls := 0

	srv := newServerWithDeps(config.Config{}, nil, cache, httpSrv)
	srv.metricsServer = metricsSrv
	srv.metricsStop = func(context.Context) error {
		stopCalls++
		return errors.New("flush failed")
	}
	srv.gracefulShutdown()

	if metricsSrv.ShutdownCalls() != 1 || stopCalls != 1 {
		t.Fatalf("expected metrics server and exporter stopped, got %d/%d", metricsSrv.ShutdownCalls(), stopCalls)
	}
	if backend.closes.Load() != 1 {
		t.Fatalf("expected cache closed")
	}
}

func TestServerStartHandlesListenErrorAndStops(t *testing.T) {
	srv := newServerWithDeps(config.Config{}, nil, nil, &testutil.StubHTTPServer{ListenErr: errors.New("listen failure")})

	var wg sync.WaitGroup
	wg.Add(1)
	stopCalled := make(chan struct{})
	stop := func() {
		close(stopCalled)
		wg.Done()
	}

	srv.startServer(stop)

	select {
	case <-stopCalled:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected stop to be called on listen failure")
	}

	wg.Wait()
}

func TestRunCancelsAndStopsComponents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, backend := newCountingCache()
	httpSrv := &testutil.StubHTTPServer{ListenErr: http.ErrServerClosed}

	srv := newServerWithDeps(config.Config{}, nil, cache, httpSrv)

	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("run did not return after cancel")
	}

	if httpSrv.ShutdownCalls() != 1 {
		t.Fatalf("expected server Shutdown called once, got %d", httpSrv.ShutdownCalls())
	}
	if backend.closes.Load() != 1 {
		t.Fatalf("expected cache closed on run exit")
	}
}
