// Package home coordinates a home page load across the recommendation
// selector and the feed aggregator.
package home

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/homefeed-service/internal/domain/activity"
	"github.com/preston-bernstein/homefeed-service/internal/feed"
	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/recommend"
)

// Recommender defines the contract for selecting home recommendations.
type Recommender interface {
	Select(ctx context.Context) recommend.Result
	Reset(ctx context.Context, clearCooldown bool)
}

// FeedBuilder defines the contract for building the activity feed.
type FeedBuilder interface {
	Build(ctx context.Context) (feed.Result, error)
}

// Page is everything the home page renders.
type Page struct {
	Recommendations recommend.Result `json:"recommendations"`
	Feed            feed.Result      `json:"feed"`
}

// Service coordinates home page operations.
type Service struct {
	recommender Recommender
	feed        FeedBuilder
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(recommender Recommender, builder FeedBuilder, logger *slog.Logger) *Service {
	return &Service{recommender: recommender, feed: builder, logger: logger}
}

// Load runs the recommendation selection and the feed build concurrently.
func (s *Service) Load(ctx context.Context) Page {
	var (
		page Page
		g    errgroup.Group
	)
	g.Go(func() error {
		page.Recommendations = s.Recommendations(ctx)
		return nil
	})
	g.Go(func() error {
		page.Feed = s.Feed(ctx)
		return nil
	})
	_ = g.Wait()
	return page
}

// Recommendations returns the current recommendation result.
func (s *Service) Recommendations(ctx context.Context) recommend.Result {
	if s.recommender == nil {
		return recommend.Result{Status: recommend.StatusNoResults, Games: nilSafeGames(nil)}
	}
	res := s.recommender.Select(ctx)
	res.Games = nilSafeGames(res.Games)
	return res
}

// Feed returns the activity feed. A build error renders as an empty feed.
func (s *Service) Feed(ctx context.Context) feed.Result {
	if s.feed == nil {
		return emptyFeed()
	}
	res, err := s.feed.Build(ctx)
	if err != nil {
		logging.Warn(logging.FromContext(ctx, s.logger), "feed build failed", "err", err)
		return emptyFeed()
	}
	if res.Items == nil {
		res.Items = []activity.Item{}
	}
	return res
}

// Reset invalidates the cached recommendations, and the cooldown when asked.
func (s *Service) Reset(ctx context.Context, clearCooldown bool) {
	if s.recommender == nil {
		return
	}
	s.recommender.Reset(ctx, clearCooldown)
	logging.Info(logging.FromContext(ctx, s.logger), "recommendations reset", "clear_cooldown", clearCooldown)
}

func emptyFeed() feed.Result {
	return feed.Result{State: feed.StateEmpty, Items: []activity.Item{}}
}
