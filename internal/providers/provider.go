package providers

import (
	"context"
)

// RecommendationSource yields the platform's own home recommendations.
type RecommendationSource interface {
	FetchPrimaryRecommendations(ctx context.Context, pageType string) (PrimaryRecommendations, error)
}

// CommunitySource is the third-party review community.
type CommunitySource interface {
	FetchCommunityRankedGames(ctx context.Context, query CommunityQuery) (CommunityRankedGames, error)
	FetchCommunityNotifications(ctx context.Context, query NotificationQuery) (CommunityNotifications, error)
}

// GameMetadataSource resolves name, player count and root place for universes.
type GameMetadataSource interface {
	FetchGameMetadata(ctx context.Context, ids []int64) (GameMetadataBatch, error)
}

// ThumbnailSource resolves images for universes, users and groups.
type ThumbnailSource interface {
	FetchUniverseThumbnails(ctx context.Context, ids []int64, size string) (ThumbnailBatch, error)
	FetchUserAvatars(ctx context.Context, ids []int64, size string) (ThumbnailBatch, error)
	FetchGroupIcons(ctx context.Context, ids []int64, size string) (ThumbnailBatch, error)
}

// NotificationSource yields the platform's notification stream.
type NotificationSource interface {
	FetchPlatformNotifications(ctx context.Context) ([]PlatformNotification, error)
}

// GroupShoutSource yields recent shouts from the user's groups.
type GroupShoutSource interface {
	FetchGroupShouts(ctx context.Context) ([]GroupShout, error)
}

// Platform bundles every source served by the platform itself.
type Platform interface {
	RecommendationSource
	GameMetadataSource
	ThumbnailSource
	NotificationSource
	GroupShoutSource
}

// Thumbnail size classes requested from the thumbnail service.
const (
	SizeUniverse = "256x144"
	SizeGroup    = "150x150"
	SizeAvatar   = "48x48"
)
