package recommend

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/homefeed-service/internal/domain/games"
	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
	"github.com/preston-bernstein/homefeed-service/internal/providers"
	"github.com/preston-bernstein/homefeed-service/internal/telemetry"
)

// Sources are the adapters a Selector reads from.
type Sources struct {
	Recommendations providers.RecommendationSource
	Community       providers.CommunitySource
	Metadata        providers.GameMetadataSource
	Thumbnails      providers.ThumbnailSource
}

// Config tunes cache lifetime and the rate-limit cooldown.
type Config struct {
	CacheTTL time.Duration
	Cooldown time.Duration
}

// Selector produces recommendation results. A single selection cycle is
// expected in flight at a time.
type Selector struct {
	sources Sources
	state   StateStore
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customizes a Selector.
type Option func(*Selector)

// WithRand fixes the random source used for sort choice and shuffles.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for absorbed source failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) { s.logger = logger }
}

// WithMetrics records selection outcomes.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Selector) { s.metrics = rec }
}

// NewSelector wires a Selector. Nil sources contribute nothing.
func NewSelector(sources Sources, state StateStore, cfg Config, opts ...Option) *Selector {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	now := time.Now()
	s := &Selector{
		sources: sources,
		state:   state,
		cfg:     cfg,
		now:     time.Now,
		rng:     rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(now.Unix()))),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select runs one selection cycle.
func (s *Selector) Select(ctx context.Context) Result {
	ctx, span := telemetry.Tracer().Start(ctx, "recommend.select")
	defer span.End()

	start := s.now()
	res := s.selectOnce(ctx)

	outcome := string(res.Status)
	if res.Cached {
		outcome = "cached"
	}
	byOrigin := games.CountByOrigin(res.Games)
	span.SetAttributes(
		attribute.String("recommend.outcome", outcome),
		attribute.Int("recommend.count", len(res.Games)),
		attribute.Int("recommend.primary", byOrigin[games.OriginPrimary]),
		attribute.Int("recommend.community", byOrigin[games.OriginCommunity]),
	)
	s.metrics.RecordSelection(outcome, s.now().Sub(start))
	return res
}

func (s *Selector) selectOnce(ctx context.Context) Result {
	limit := s.loadRateLimit(ctx)

	var cached []games.CandidateGame
	if s.state != nil && s.state.Get(ctx, CacheKey, &cached) && len(cached) > 0 {
		logging.Debug(s.logger, "recommendations served from cache", logging.FieldCount, len(cached))
		return Result{Status: StatusOK, Games: cached, Cached: true}
	}

	if limit.Active {
		return s.cooldownResult(limit.ResetAt)
	}

	var (
		primaryIDs []int64
		community  []games.CandidateGame
		g          errgroup.Group
	)
	g.Go(func() error {
		primaryIDs = s.fetchPrimaryIDs(ctx)
		return nil
	})
	g.Go(func() error {
		community = s.fetchCommunity(ctx)
		return nil
	})
	_ = g.Wait()

	selectedIDs, selectedCommunity := s.choose(primaryIDs, community)
	if len(selectedIDs) == 0 && len(selectedCommunity) == 0 {
		return Result{Status: StatusNoResults}
	}

	allIDs := make([]int64, 0, len(selectedIDs)+len(selectedCommunity))
	allIDs = append(allIDs, selectedIDs...)
	for _, c := range selectedCommunity {
		allIDs = append(allIDs, c.UniverseID)
	}

	var (
		metadata     []providers.GameMetadata
		metadataErr  error
		thumbs       map[int64]string
		thumbLimited bool
		details      errgroup.Group
	)
	details.Go(func() error {
		metadata, metadataErr = s.fetchMetadata(ctx, selectedIDs)
		return nil
	})
	details.Go(func() error {
		thumbs, thumbLimited = s.fetchThumbnails(ctx, allIDs)
		return nil
	})
	_ = details.Wait()

	if providers.IsRateLimited(metadataErr) {
		logging.Warn(s.logger, "metadata rate limited; entering cooldown",
			logging.FieldSource, providers.SourceGameMetadata,
			logging.FieldRetryAfter, s.cfg.Cooldown.Seconds(),
		)
		resetAt := s.tripCooldown(ctx)
		return s.cooldownResult(resetAt)
	}
	if metadataErr != nil {
		logging.Warn(s.logger, "metadata fetch failed; dropping primary picks",
			logging.FieldSource, providers.SourceGameMetadata, "err", metadataErr)
		metadata = nil
	}
	if thumbLimited {
		s.tripCooldown(ctx)
	}

	final := buildCandidates(metadata, selectedCommunity, thumbs)
	if len(final) == 0 {
		return Result{Status: StatusNoResults}
	}
	shuffleWith(s, final)

	if s.state != nil {
		s.state.Set(ctx, CacheKey, final, s.cfg.CacheTTL)
		if !thumbLimited {
			s.state.Invalidate(ctx, RateLimitKey)
		}
	}
	return Result{Status: StatusOK, Games: final}
}

// loadRateLimit reads the cooldown flag and clears it once reset time has passed.
func (s *Selector) loadRateLimit(ctx context.Context) RateLimitState {
	if s.state == nil {
		return RateLimitState{}
	}
	var limit RateLimitState
	if !s.state.Get(ctx, RateLimitKey, &limit) {
		return RateLimitState{}
	}
	if !limit.Active || !s.now().Before(limit.ResetAt) {
		s.state.Invalidate(ctx, RateLimitKey)
		return RateLimitState{}
	}
	return limit
}

func (s *Selector) tripCooldown(ctx context.Context) time.Time {
	resetAt := s.now().Add(s.cfg.Cooldown)
	if s.state != nil {
		s.state.Set(ctx, RateLimitKey, RateLimitState{Active: true, ResetAt: resetAt}, s.cfg.Cooldown)
	}
	return resetAt
}

func (s *Selector) cooldownResult(resetAt time.Time) Result {
	remaining := resetAt.Sub(s.now())
	return Result{
		Status:            StatusCooldown,
		RetryAfterSeconds: int(math.Ceil(remaining.Seconds())),
	}
}

func (s *Selector) fetchPrimaryIDs(ctx context.Context) []int64 {
	if s.sources.Recommendations == nil {
		return nil
	}
	recs, err := s.sources.Recommendations.FetchPrimaryRecommendations(ctx, homePageType)
	if err != nil {
		logging.Warn(s.logger, "primary recommendations unavailable",
			logging.FieldSource, providers.SourcePrimaryRecommendations, "err", err)
		return nil
	}
	return collectPrimaryIDs(recs)
}

// collectPrimaryIDs takes up to perSortLimit game ids from each sort and dedupes them.
func collectPrimaryIDs(recs providers.PrimaryRecommendations) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, sort := range recs.Sorts {
		taken := 0
		for _, item := range sort.RecommendationList {
			if taken == perSortLimit {
				break
			}
			if item.ContentType != providers.ContentTypeGame || item.ContentID == 0 {
				continue
			}
			taken++
			id := int64(item.ContentID)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Selector) fetchCommunity(ctx context.Context) []games.CandidateGame {
	if s.sources.Community == nil {
		return nil
	}
	query := providers.CommunityQuery{
		SortKey: s.pickSortKey(),
		Limit:   communityLimit,
		Page:    communityPage,
	}
	ranked, err := s.sources.Community.FetchCommunityRankedGames(ctx, query)
	if err != nil {
		logging.Warn(s.logger, "community games unavailable",
			logging.FieldSource, providers.SourceCommunityRanked, "err", err)
		return nil
	}
	return collectCommunity(ranked)
}

// collectCommunity drops blacklisted reviews and keeps the first entry per universe.
func collectCommunity(ranked providers.CommunityRankedGames) []games.CandidateGame {
	seen := make(map[int64]struct{})
	var out []games.CandidateGame
	for _, review := range ranked.Reviews {
		if review.IsBlacklisted {
			continue
		}
		game, ok := review.RankedGame()
		if !ok || game.UniverseID == 0 {
			continue
		}
		id := int64(game.UniverseID)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		candidate := games.CandidateGame{
			UniverseID:   id,
			Name:         game.Name,
			PlayerCount:  max(game.Playing, 0),
			ThumbnailURL: game.ThumbnailURL,
			Origin:       games.OriginCommunity,
		}
		if placeID, ok := review.PlaceID(); ok {
			candidate.PlaceID = &placeID
		}
		out = append(out, candidate)
	}
	return out
}

// choose removes community overlap from the primary pool, shuffles both pools
// and applies the quota.
func (s *Selector) choose(primaryIDs []int64, community []games.CandidateGame) ([]int64, []games.CandidateGame) {
	communityIDs := make(map[int64]struct{}, len(community))
	for _, c := range community {
		communityIDs[c.UniverseID] = struct{}{}
	}
	pool := make([]int64, 0, len(primaryIDs))
	for _, id := range primaryIDs {
		if _, taken := communityIDs[id]; !taken {
			pool = append(pool, id)
		}
	}
	communityPool := append([]games.CandidateGame(nil), community...)

	shuffleWith(s, pool)
	shuffleWith(s, communityPool)

	primaryN, communityN := allocateQuota(len(pool), len(communityPool))
	return pool[:primaryN], communityPool[:communityN]
}

func (s *Selector) fetchMetadata(ctx context.Context, ids []int64) ([]providers.GameMetadata, error) {
	if len(ids) == 0 || s.sources.Metadata == nil {
		return nil, nil
	}
	batch, err := s.sources.Metadata.FetchGameMetadata(ctx, ids)
	if err != nil {
		return nil, err
	}
	return batch.Data, nil
}

// fetchThumbnails resolves universe images. The bool reports a rate limit.
func (s *Selector) fetchThumbnails(ctx context.Context, ids []int64) (map[int64]string, bool) {
	if len(ids) == 0 || s.sources.Thumbnails == nil {
		return nil, false
	}
	batch, err := s.sources.Thumbnails.FetchUniverseThumbnails(ctx, ids, providers.SizeUniverse)
	if err != nil {
		limited := providers.IsRateLimited(err)
		logging.Warn(s.logger, "universe thumbnails unavailable",
			logging.FieldSource, providers.SourceUniverseThumbnails,
			"rate_limited", limited, "err", err)
		return batch.ByID(), limited
	}
	return batch.ByID(), false
}

func buildCandidates(metadata []providers.GameMetadata, community []games.CandidateGame, thumbs map[int64]string) []games.CandidateGame {
	out := make([]games.CandidateGame, 0, len(metadata)+len(community))
	seen := make(map[int64]struct{}, cap(out))

	for _, meta := range metadata {
		id := int64(meta.ID)
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		candidate := games.CandidateGame{
			UniverseID:   id,
			Name:         meta.Name,
			PlayerCount:  max(meta.Playing, 0),
			ThumbnailURL: thumbnailFor(thumbs, id, ""),
			Origin:       games.OriginPrimary,
		}
		if meta.RootPlaceID != 0 {
			placeID := int64(meta.RootPlaceID)
			candidate.PlaceID = &placeID
		}
		out = append(out, candidate)
	}

	for _, c := range community {
		if _, dup := seen[c.UniverseID]; dup {
			continue
		}
		seen[c.UniverseID] = struct{}{}
		c.ThumbnailURL = thumbnailFor(thumbs, c.UniverseID, c.ThumbnailURL)
		out = append(out, c)
	}
	return out
}

func thumbnailFor(thumbs map[int64]string, id int64, declared string) string {
	if url, ok := thumbs[id]; ok && url != "" {
		return url
	}
	if declared != "" {
		return declared
	}
	return PlaceholderThumbnail
}

func (s *Selector) pickSortKey() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return communitySortKeys[s.rng.IntN(len(communitySortKeys))]
}

func shuffleWith[T any](s *Selector, list []T) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	Shuffle(s.rng, list)
}

// Reset drops the cached recommendation payload so the next Select refetches.
// With clearCooldown it also lifts an active rate-limit cooldown.
func (s *Selector) Reset(ctx context.Context, clearCooldown bool) {
	if s.state == nil {
		return
	}
	s.state.Invalidate(ctx, CacheKey)
	if clearCooldown {
		s.state.Invalidate(ctx, RateLimitKey)
	}
}
