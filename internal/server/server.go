package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/homefeed-service/internal/app/home"
	"github.com/preston-bernstein/homefeed-service/internal/config"
	"github.com/preston-bernstein/homefeed-service/internal/feed"
	httpserver "github.com/preston-bernstein/homefeed-service/internal/http"
	"github.com/preston-bernstein/homefeed-service/internal/http/handlers"
	"github.com/preston-bernstein/homefeed-service/internal/http/middleware"
	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
	"github.com/preston-bernstein/homefeed-service/internal/recommend"
	"github.com/preston-bernstein/homefeed-service/internal/store"
	"github.com/preston-bernstein/homefeed-service/internal/telemetry"
)

var (
	metricsSetup = metrics.Setup
	tracingSetup = telemetry.SetupTracing
)

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	cache         *store.Cache
	home          *home.Service
	httpServer    httpServer
	metricsServer httpServer
	metricsStop   func(context.Context) error
	tracingStop   func(context.Context) error
}

// New constructs a server with sources, cache and telemetry built from cfg.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServerWithSources(cfg, logger, nil, nil)
}

// newServerWithSources lets tests inject sources and a recorder; nil builds them from cfg.
func newServerWithSources(cfg config.Config, logger *slog.Logger, sources *upstreams, recorder *metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	cache, err := buildCache(cfg.Cache, logger, recorder)
	if err != nil {
		if metricsShutdown != nil {
			_ = metricsShutdown(context.Background())
		}
		return nil, err
	}

	if sources == nil {
		built := newSourceFactory(logger, recorder).build(cfg)
		sources = &built
	}
	svc := buildHomeService(cfg, *sources, cache, logger, recorder)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		cache:         cache,
		home:          svc,
		httpServer:    buildHTTPServer(cfg, svc, cache, logger, recorder),
		metricsServer: metricsSrv,
		metricsStop:   metricsShutdown,
		tracingStop:   buildTracing(cfg, logger),
	}, nil
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, cache *store.Cache, httpSrv httpServer) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		cache:      cache,
		httpServer: httpSrv,
	}
}

func buildHomeService(cfg config.Config, sources upstreams, cache *store.Cache, logger *slog.Logger, recorder *metrics.Recorder) *home.Service {
	selector := recommend.NewSelector(recommend.Sources{
		Recommendations: sources.platform,
		Community:       sources.community,
		Metadata:        sources.platform,
		Thumbnails:      sources.platform,
	}, cache, recommend.Config{
		CacheTTL: cfg.Selection.CacheTTL,
		Cooldown: cfg.Selection.RateLimitCooldown,
	},
		recommend.WithLogger(logger),
		recommend.WithMetrics(recorder),
	)
	aggregator := feed.NewAggregator(feed.Sources{
		Shouts:        sources.platform,
		Notifications: sources.platform,
		Community:     sources.community,
		Thumbnails:    sources.platform,
	},
		feed.WithPlatformIsolation(cfg.Feed.IsolatePlatformFailure),
		feed.WithLogger(logger),
		feed.WithMetrics(recorder),
	)
	return home.NewService(selector, aggregator, logger)
}

func buildHTTPServer(cfg config.Config, svc *home.Service, cache *store.Cache, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	handler := handlers.NewHandler(svc, cache, logger)
	var admin *handlers.AdminHandler
	// Only mount the admin reset endpoint when a token is configured.
	if cfg.AdminToken != "" {
		admin = handlers.NewAdminHandler(svc, cfg.AdminToken, logger)
	}
	router := httpserver.NewRouter(handler, admin, httpserver.RouterConfig{HomeRateLimit: cfg.HTTPRateLimit})
	wrapped := middleware.LoggingMiddleware(logger, recorder, router)

	return newNetHTTPServer(":"+cfg.Port, wrapped)
}

// Run starts the HTTP servers, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.tracingStop != nil {
		if err := s.tracingStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "tracing shutdown failed", "error", err)
		}
	}

	// Close the cache last so in-flight requests can still write through it.
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			logging.Error(s.logger, "cache close failed", err)
		}
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = newNetHTTPServer(":"+recCfg.Port, handler)
	}

	return rec, metricsSrv, shutdown
}

func buildTracing(cfg config.Config, logger *slog.Logger) func(context.Context) error {
	serviceName := cfg.Metrics.ServiceName
	if serviceName == "" {
		serviceName = "homefeed-service"
	}
	shutdown, err := tracingSetup(context.Background(), serviceName, cfg.Metrics.TracesEndpoint)
	if err != nil {
		logging.Warn(logger, "tracing setup failed, continuing without spans", "err", err)
		return nil
	}
	return shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
