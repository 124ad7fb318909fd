package testutil

import (
	"math/rand/v2"

	"github.com/preston-bernstein/homefeed-service/internal/app/home"
	"github.com/preston-bernstein/homefeed-service/internal/feed"
	"github.com/preston-bernstein/homefeed-service/internal/providers"
	"github.com/preston-bernstein/homefeed-service/internal/recommend"
	"github.com/preston-bernstein/homefeed-service/internal/store"
)

// NewHomeService builds a home service over the given sources, backed by an
// in-memory cache and a seeded random source.
func NewHomeService(platform providers.Platform, community providers.CommunitySource) *home.Service {
	svc, _ := NewHomeServiceWithCache(platform, community)
	return svc
}

// NewHomeServiceWithCache is NewHomeService that also returns the cache so
// tests can inspect or seed recommendation state.
func NewHomeServiceWithCache(platform providers.Platform, community providers.CommunitySource) (*home.Service, *store.Cache) {
	cache := store.NewCache(store.NewMemoryBackend())
	selector := recommend.NewSelector(recommend.Sources{
		Recommendations: platform,
		Community:       community,
		Metadata:        platform,
		Thumbnails:      platform,
	}, cache, recommend.Config{}, recommend.WithRand(rand.New(rand.NewPCG(1, 2))))
	aggregator := feed.NewAggregator(feed.Sources{
		Shouts:        platform,
		Notifications: platform,
		Community:     community,
		Thumbnails:    platform,
	})
	return home.NewService(selector, aggregator, nil), cache
}
