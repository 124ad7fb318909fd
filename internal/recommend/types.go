// Package recommend selects the small set of games shown on the home page from
// the platform's recommendations and the review community.
package recommend

import (
	"context"
	"time"

	"github.com/preston-bernstein/homefeed-service/internal/domain/games"
)

// Status describes how a selection cycle ended.
type Status string

const (
	StatusOK        Status = "ok"
	StatusCooldown  Status = "cooldown"
	StatusNoResults Status = "no_results"
)

// Result is the outcome of Select. Cooldown and NoResults are degraded
// results, not errors.
type Result struct {
	Status            Status                `json:"status"`
	Games             []games.CandidateGame `json:"games"`
	RetryAfterSeconds int                   `json:"retryAfterSeconds,omitempty"`
	Cached            bool                  `json:"cached"`
}

// RateLimitState is the persisted cooldown flag.
type RateLimitState struct {
	Active  bool      `json:"active"`
	ResetAt time.Time `json:"resetAt"`
}

// StateStore persists the recommendation payload and the cooldown flag.
type StateStore interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
}

// Cache slot names.
const (
	CacheKey     = "recommended_games_cache"
	RateLimitKey = "recommended_games_ratelimit"
)

// PlaceholderThumbnail marks a game whose image could not be resolved.
const PlaceholderThumbnail = "placeholder://thumbnail"

const (
	homePageType   = "Home"
	perSortLimit   = 10
	targetTotal    = 4
	maxPrimary     = 3
	maxCommunity   = 2
	communityLimit = 20
	communityPage  = 1

	defaultCacheTTL = 5 * time.Minute
	defaultCooldown = 60 * time.Second
)

// Community ranking criteria; one is picked uniformly per cycle.
var communitySortKeys = [...]string{"quality", "highest-voted"}
