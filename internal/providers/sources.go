package providers

// Source names used in logs and metrics.
const (
	SourcePrimaryRecommendations = "primary_recommendations"
	SourceCommunityRanked        = "community_ranked"
	SourceGameMetadata           = "game_metadata"
	SourceUniverseThumbnails     = "universe_thumbnails"
	SourceUserAvatars            = "user_avatars"
	SourceGroupIcons             = "group_icons"
	SourcePlatformNotifications  = "platform_notifications"
	SourceGroupShouts            = "group_shouts"
	SourceCommunityNotifications = "community_notifications"
)
