// Package fixture serves a static home feed dataset for local runs.
package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/preston-bernstein/homefeed-service/internal/providers"
)

// Provider returns deterministic data for every platform and community source.
type Provider struct {
	now func() time.Time
}

var (
	_ providers.Platform        = (*Provider)(nil)
	_ providers.CommunitySource = (*Provider)(nil)
)

// New creates a fixture provider with a time source.
func New() *Provider {
	return &Provider{
		now: time.Now,
	}
}

var fixtureGames = map[int64]providers.GameMetadata{
	1001: {ID: 1001, RootPlaceID: 5001, Name: "Obby Tower", Playing: 1200},
	1002: {ID: 1002, RootPlaceID: 5002, Name: "Pizza Place", Playing: 860},
	1003: {ID: 1003, RootPlaceID: 5003, Name: "Tycoon Island", Playing: 340},
	1004: {ID: 1004, RootPlaceID: 5004, Name: "Racing Circuit", Playing: 95},
	1005: {ID: 1005, RootPlaceID: 5005, Name: "Hide and Seek", Playing: 41},
}

// FetchPrimaryRecommendations returns two sorts with one overlapping game.
func (p *Provider) FetchPrimaryRecommendations(ctx context.Context, pageType string) (providers.PrimaryRecommendations, error) {
	_ = ctx
	_ = pageType

	return providers.PrimaryRecommendations{
		Sorts: []providers.RecommendationSort{
			{
				Topic: "Recommended For You",
				RecommendationList: []providers.RecommendationItem{
					{ContentType: providers.ContentTypeGame, ContentID: 1001},
					{ContentType: providers.ContentTypeGame, ContentID: 1002},
					{ContentType: "Catalog", ContentID: 9001},
					{ContentType: providers.ContentTypeGame, ContentID: 1003},
				},
			},
			{
				Topic: "Popular",
				RecommendationList: []providers.RecommendationItem{
					{ContentType: providers.ContentTypeGame, ContentID: 1002},
					{ContentType: providers.ContentTypeGame, ContentID: 1004},
					{ContentType: providers.ContentTypeGame, ContentID: 1005},
				},
			},
		},
	}, nil
}

// FetchGameMetadata returns metadata for the known fixture universes.
func (p *Provider) FetchGameMetadata(ctx context.Context, ids []int64) (providers.GameMetadataBatch, error) {
	_ = ctx

	out := providers.GameMetadataBatch{Data: make([]providers.GameMetadata, 0, len(ids))}
	for _, id := range ids {
		if meta, ok := fixtureGames[id]; ok {
			out.Data = append(out.Data, meta)
		}
	}
	return out, nil
}

// FetchUniverseThumbnails returns a synthetic image per universe.
func (p *Provider) FetchUniverseThumbnails(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	_ = ctx

	out := providers.ThumbnailBatch{Data: make([]providers.ThumbnailEntry, 0, len(ids))}
	for _, id := range ids {
		out.Data = append(out.Data, providers.ThumbnailEntry{
			UniverseID: providers.FlexibleID(id),
			Thumbnails: []providers.ThumbnailImage{{ImageURL: imageURL("universe", id, size), State: "Completed"}},
		})
	}
	return out, nil
}

// FetchUserAvatars returns a synthetic headshot per user.
func (p *Provider) FetchUserAvatars(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	_ = ctx
	return targetBatch("avatar", ids, size), nil
}

// FetchGroupIcons returns a synthetic icon per group.
func (p *Provider) FetchGroupIcons(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	_ = ctx
	return targetBatch("group", ids, size), nil
}

// FetchPlatformNotifications returns a friend request and a bare notification.
func (p *Provider) FetchPlatformNotifications(ctx context.Context) ([]providers.PlatformNotification, error) {
	_ = ctx

	now := p.now().UTC().Truncate(time.Minute)
	return []providers.PlatformNotification{
		{
			EventDate: providers.Timestamp{Time: now.Add(-15 * time.Minute)},
			Content: &providers.NotificationContent{
				NotificationType: "FriendRequestReceived",
				States: &providers.NotificationStates{
					Default: &providers.NotificationState{
						VisualItems: &providers.VisualItems{
							Thumbnails: []providers.ThumbnailRef{{IDType: providers.IDTypeUserThumbnail, ID: 42}},
							TextBodies: []providers.TextBody{{Label: &providers.TextLabel{Text: "Connection request from builderman"}}},
						},
					},
				},
			},
		},
		{
			EventDate:              providers.Timestamp{Time: now.Add(-3 * time.Hour)},
			NotificationSourceType: "GameUpdate",
		},
	}, nil
}

// FetchGroupShouts returns one unseen and one already-read shout.
func (p *Provider) FetchGroupShouts(ctx context.Context) ([]providers.GroupShout, error) {
	_ = ctx

	now := p.now().UTC().Truncate(time.Minute)
	return []providers.GroupShout{
		{
			GroupID:   7,
			GroupName: "Builders Club",
			Body:      "Build contest starts Friday!",
			Poster:    &providers.ShoutPoster{Username: "clubowner"},
			Updated:   providers.Timestamp{Time: now.Add(-time.Hour)},
			IsNew:     true,
		},
		{
			GroupID:    8,
			GroupName:  "Old News",
			Body:       "Seen already",
			Updated:    providers.Timestamp{Time: now.Add(-48 * time.Hour)},
			Interacted: true,
		},
	}, nil
}

// FetchCommunityRankedGames returns reviews including a duplicate and a blacklisted entry.
func (p *Provider) FetchCommunityRankedGames(ctx context.Context, query providers.CommunityQuery) (providers.CommunityRankedGames, error) {
	_ = ctx
	_ = query

	return providers.CommunityRankedGames{
		Reviews: []providers.CommunityReview{
			{Game: &providers.CommunityGame{UniverseID: 2001, ID: 6001, Name: "Hidden Gem", Playing: 12, ThumbnailURL: "https://fixture.invalid/community/2001.png"}},
			{Game: &providers.CommunityGame{UniverseID: 2001, ID: 6001, Name: "Hidden Gem (dup)", Playing: 12}},
			{Game: &providers.CommunityGame{UniverseID: 2002, ID: 6002, Name: "Cozy Farm", Playing: 7}},
			{IsBlacklisted: true, Game: &providers.CommunityGame{UniverseID: 1003, ID: 5003, Name: "Tycoon Island"}},
		},
	}, nil
}

// FetchCommunityNotifications returns one unread reply.
func (p *Provider) FetchCommunityNotifications(ctx context.Context, query providers.NotificationQuery) (providers.CommunityNotifications, error) {
	_ = ctx
	_ = query

	now := p.now().UTC().Truncate(time.Minute)
	return providers.CommunityNotifications{
		Notifications: []providers.CommunityNotification{
			{
				ID:        "fixture-notif-1",
				Type:      "reply",
				Message:   "Someone replied to your review",
				Data:      &providers.NotificationRefs{GameID: 2001},
				Timestamp: providers.Timestamp{Time: now.Add(-30 * time.Minute)},
			},
		},
	}, nil
}

func targetBatch(kind string, ids []int64, size string) providers.ThumbnailBatch {
	out := providers.ThumbnailBatch{Data: make([]providers.ThumbnailEntry, 0, len(ids))}
	for _, id := range ids {
		out.Data = append(out.Data, providers.ThumbnailEntry{
			TargetID: providers.FlexibleID(id),
			ImageURL: imageURL(kind, id, size),
		})
	}
	return out
}

func imageURL(kind string, id int64, size string) string {
	return fmt.Sprintf("https://fixture.invalid/%s/%d/%s.png", kind, id, size)
}
