package server

import (
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/homefeed-service/internal/config"
	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
	"github.com/preston-bernstein/homefeed-service/internal/store"
)

var openBackend = store.Open

// buildCache opens the configured backend and wraps it in the TTL cache.
func buildCache(cfg config.CacheConfig, logger *slog.Logger, rec *metrics.Recorder) (*store.Cache, error) {
	backend, err := openBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	logging.Info(logger, "cache backend ready",
		slog.String("backend", cfg.Backend),
		slog.String("path", cfg.Path),
	)
	return store.NewCache(backend, store.WithLogger(logger), store.WithMetrics(rec)), nil
}
