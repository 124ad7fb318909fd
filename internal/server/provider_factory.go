package server

import (
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/homefeed-service/internal/config"
	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
	"github.com/preston-bernstein/homefeed-service/internal/providers"
	"github.com/preston-bernstein/homefeed-service/internal/providers/community"
	"github.com/preston-bernstein/homefeed-service/internal/providers/fixture"
	"github.com/preston-bernstein/homefeed-service/internal/providers/platform"
)

const (
	guardPlatform  = "platform"
	guardCommunity = "community"
)

// upstreams are the sources the home page reads from.
type upstreams struct {
	platform  providers.Platform
	community providers.CommunitySource
}

// sourceFactory assembles the sources with shared wrappers (rate limit + breaker).
type sourceFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newSourceFactory(logger *slog.Logger, metrics *metrics.Recorder) sourceFactory {
	return sourceFactory{logger: logger, metrics: metrics}
}

func (f sourceFactory) build(cfg config.Config) upstreams {
	switch name := normalizeProviderName(cfg.Provider); name {
	case providerLive:
		return f.live(cfg.Upstream)
	case providerFixture:
		return fixtureUpstreams()
	default:
		logging.Warn(f.logger, "unknown provider, falling back to fixture", slog.String(logging.FieldProvider, name))
		return fixtureUpstreams()
	}
}

// fixtureUpstreams serves in-process data; there is no upstream quota to guard.
func fixtureUpstreams() upstreams {
	p := fixture.New()
	return upstreams{platform: p, community: p}
}

func (f sourceFactory) live(cfg config.UpstreamConfig) upstreams {
	client := &http.Client{Timeout: cfg.Timeout}
	platformClient := platform.NewClient(platform.Config{
		DiscoveryURL:     cfg.Platform.DiscoveryURL,
		GamesURL:         cfg.Platform.GamesURL,
		ThumbnailsURL:    cfg.Platform.ThumbnailsURL,
		NotificationsURL: cfg.Platform.NotificationsURL,
		GroupShoutsURL:   cfg.Platform.GroupShoutsURL,
		Cookie:           cfg.Platform.Cookie,
		HTTPClient:       client,
	})
	communityClient := community.NewClient(community.Config{
		BaseURL:    cfg.Community.BaseURL,
		APIKey:     cfg.Community.APIKey,
		HTTPClient: client,
	})

	return upstreams{
		platform:  providers.NewGuardedPlatform(platformClient, f.guard(guardPlatform, cfg)),
		community: providers.NewGuardedCommunity(communityClient, f.guard(guardCommunity, cfg)),
	}
}

func (f sourceFactory) guard(name string, cfg config.UpstreamConfig) *providers.Guard {
	return providers.NewGuard(providers.GuardConfig{
		Name:              name,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		MinRequests:       cfg.Breaker.MinRequests,
		FailureRatio:      cfg.Breaker.FailureRatio,
		Interval:          cfg.Breaker.Interval,
		OpenTimeout:       cfg.Breaker.OpenTimeout,
	}, f.metrics, f.logger)
}
