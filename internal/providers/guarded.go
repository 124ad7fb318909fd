package providers

import "context"

type guardedPlatform struct {
	next  Platform
	guard *Guard
}

// NewGuardedPlatform wraps every platform call with guard.
func NewGuardedPlatform(next Platform, guard *Guard) Platform {
	return &guardedPlatform{next: next, guard: guard}
}

func (p *guardedPlatform) FetchPrimaryRecommendations(ctx context.Context, pageType string) (PrimaryRecommendations, error) {
	return Call(ctx, p.guard, SourcePrimaryRecommendations, func(ctx context.Context) (PrimaryRecommendations, error) {
		return p.next.FetchPrimaryRecommendations(ctx, pageType)
	})
}

func (p *guardedPlatform) FetchGameMetadata(ctx context.Context, ids []int64) (GameMetadataBatch, error) {
	return Call(ctx, p.guard, SourceGameMetadata, func(ctx context.Context) (GameMetadataBatch, error) {
		return p.next.FetchGameMetadata(ctx, ids)
	})
}

func (p *guardedPlatform) FetchUniverseThumbnails(ctx context.Context, ids []int64, size string) (ThumbnailBatch, error) {
	return Call(ctx, p.guard, SourceUniverseThumbnails, func(ctx context.Context) (ThumbnailBatch, error) {
		return p.next.FetchUniverseThumbnails(ctx, ids, size)
	})
}

func (p *guardedPlatform) FetchUserAvatars(ctx context.Context, ids []int64, size string) (ThumbnailBatch, error) {
	return Call(ctx, p.guard, SourceUserAvatars, func(ctx context.Context) (ThumbnailBatch, error) {
		return p.next.FetchUserAvatars(ctx, ids, size)
	})
}

func (p *guardedPlatform) FetchGroupIcons(ctx context.Context, ids []int64, size string) (ThumbnailBatch, error) {
	return Call(ctx, p.guard, SourceGroupIcons, func(ctx context.Context) (ThumbnailBatch, error) {
		return p.next.FetchGroupIcons(ctx, ids, size)
	})
}

func (p *guardedPlatform) FetchPlatformNotifications(ctx context.Context) ([]PlatformNotification, error) {
	return Call(ctx, p.guard, SourcePlatformNotifications, func(ctx context.Context) ([]PlatformNotification, error) {
		return p.next.FetchPlatformNotifications(ctx)
	})
}

func (p *guardedPlatform) FetchGroupShouts(ctx context.Context) ([]GroupShout, error) {
	return Call(ctx, p.guard, SourceGroupShouts, func(ctx context.Context) ([]GroupShout, error) {
		return p.next.FetchGroupShouts(ctx)
	})
}

type guardedCommunity struct {
	next  CommunitySource
	guard *Guard
}

// NewGuardedCommunity wraps every community call with guard.
func NewGuardedCommunity(next CommunitySource, guard *Guard) CommunitySource {
	return &guardedCommunity{next: next, guard: guard}
}

func (c *guardedCommunity) FetchCommunityRankedGames(ctx context.Context, query CommunityQuery) (CommunityRankedGames, error) {
	return Call(ctx, c.guard, SourceCommunityRanked, func(ctx context.Context) (CommunityRankedGames, error) {
		return c.next.FetchCommunityRankedGames(ctx, query)
	})
}

func (c *guardedCommunity) FetchCommunityNotifications(ctx context.Context, query NotificationQuery) (CommunityNotifications, error) {
	return Call(ctx, c.guard, SourceCommunityNotifications, func(ctx context.Context) (CommunityNotifications, error) {
		return c.next.FetchCommunityNotifications(ctx, query)
	})
}
