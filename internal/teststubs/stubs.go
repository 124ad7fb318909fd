package teststubs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/preston-bernstein/homefeed-service/internal/providers"
)

// Call tracks invocations of one stubbed source.
type Call struct {
	Count atomic.Int32
	// Delay holds the call before returning, letting tests reorder completions.
	Delay time.Duration
}

func (c *Call) enter(ctx context.Context) error {
	c.Count.Add(1)
	if c.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(c.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StubPlatform is a programmable providers.Platform.
type StubPlatform struct {
	Recommendations     providers.PrimaryRecommendations
	RecommendationsErr  error
	RecommendationsCall Call

	Metadata     providers.GameMetadataBatch
	MetadataErr  error
	MetadataCall Call

	// MetadataFunc, when set, replaces Metadata and MetadataErr.
	MetadataFunc func(ids []int64) (providers.GameMetadataBatch, error)

	UniverseThumbs     providers.ThumbnailBatch
	UniverseThumbsErr  error
	UniverseThumbsCall Call

	Avatars     providers.ThumbnailBatch
	AvatarsErr  error
	AvatarsCall Call

	GroupIcons     providers.ThumbnailBatch
	GroupIconsErr  error
	GroupIconsCall Call

	Notifications     []providers.PlatformNotification
	NotificationsErr  error
	NotificationsCall Call

	Shouts     []providers.GroupShout
	ShoutsErr  error
	ShoutsCall Call

	mu        sync.Mutex
	requested map[string][][]int64
	sizes     map[string]string
}

var _ providers.Platform = (*StubPlatform)(nil)

func (s *StubPlatform) record(source string, ids []int64, size string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requested == nil {
		s.requested = make(map[string][][]int64)
		s.sizes = make(map[string]string)
	}
	s.requested[source] = append(s.requested[source], append([]int64(nil), ids...))
	if size != "" {
		s.sizes[source] = size
	}
}

// Requested returns every id batch passed to source.
func (s *StubPlatform) Requested(source string) [][]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested[source]
}

// Size returns the last size class requested from source.
func (s *StubPlatform) Size(source string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizes[source]
}

func (s *StubPlatform) FetchPrimaryRecommendations(ctx context.Context, pageType string) (providers.PrimaryRecommendations, error) {
	_ = pageType
	if err := s.RecommendationsCall.enter(ctx); err != nil {
		return providers.PrimaryRecommendations{}, err
	}
	return s.Recommendations, s.RecommendationsErr
}

func (s *StubPlatform) FetchGameMetadata(ctx context.Context, ids []int64) (providers.GameMetadataBatch, error) {
	s.record(providers.SourceGameMetadata, ids, "")
	if err := s.MetadataCall.enter(ctx); err != nil {
		return providers.GameMetadataBatch{}, err
	}
	if s.MetadataFunc != nil {
		return s.MetadataFunc(ids)
	}
	return s.Metadata, s.MetadataErr
}

func (s *StubPlatform) FetchUniverseThumbnails(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	s.record(providers.SourceUniverseThumbnails, ids, size)
	if err := s.UniverseThumbsCall.enter(ctx); err != nil {
		return providers.ThumbnailBatch{}, err
	}
	return s.UniverseThumbs, s.UniverseThumbsErr
}

func (s *StubPlatform) FetchUserAvatars(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	s.record(providers.SourceUserAvatars, ids, size)
	if err := s.AvatarsCall.enter(ctx); err != nil {
		return providers.ThumbnailBatch{}, err
	}
	return s.Avatars, s.AvatarsErr
}

func (s *StubPlatform) FetchGroupIcons(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	s.record(providers.SourceGroupIcons, ids, size)
	if err := s.GroupIconsCall.enter(ctx); err != nil {
		return providers.ThumbnailBatch{}, err
	}
	return s.GroupIcons, s.GroupIconsErr
}

func (s *StubPlatform) FetchPlatformNotifications(ctx context.Context) ([]providers.PlatformNotification, error) {
	if err := s.NotificationsCall.enter(ctx); err != nil {
		return nil, err
	}
	return s.Notifications, s.NotificationsErr
}

func (s *StubPlatform) FetchGroupShouts(ctx context.Context) ([]providers.GroupShout, error) {
	if err := s.ShoutsCall.enter(ctx); err != nil {
		return nil, err
	}
	return s.Shouts, s.ShoutsErr
}

// StubCommunity is a programmable providers.CommunitySource.
type StubCommunity struct {
	Ranked     providers.CommunityRankedGames
	RankedErr  error
	RankedCall Call

	Notifications     providers.CommunityNotifications
	NotificationsErr  error
	NotificationsCall Call

	mu            sync.Mutex
	rankedQueries []providers.CommunityQuery
	notifQueries  []providers.NotificationQuery
}

var _ providers.CommunitySource = (*StubCommunity)(nil)

func (s *StubCommunity) FetchCommunityRankedGames(ctx context.Context, query providers.CommunityQuery) (providers.CommunityRankedGames, error) {
	s.mu.Lock()
	s.rankedQueries = append(s.rankedQueries, query)
	s.mu.Unlock()
	if err := s.RankedCall.enter(ctx); err != nil {
		return providers.CommunityRankedGames{}, err
	}
	return s.Ranked, s.RankedErr
}

func (s *StubCommunity) FetchCommunityNotifications(ctx context.Context, query providers.NotificationQuery) (providers.CommunityNotifications, error) {
	s.mu.Lock()
	s.notifQueries = append(s.notifQueries, query)
	s.mu.Unlock()
	if err := s.NotificationsCall.enter(ctx); err != nil {
		return providers.CommunityNotifications{}, err
	}
	return s.Notifications, s.NotificationsErr
}

// RankedQueries returns every ranked-games query received.
func (s *StubCommunity) RankedQueries() []providers.CommunityQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]providers.CommunityQuery(nil), s.rankedQueries...)
}

// NotificationQueries returns every notification query received.
func (s *StubCommunity) NotificationQueries() []providers.NotificationQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]providers.NotificationQuery(nil), s.notifQueries...)
}
