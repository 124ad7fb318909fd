// Package platform talks to the platform's own HTTP APIs: recommendations,
// game metadata, thumbnails, notifications and group shouts.
package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/preston-bernstein/homefeed-service/internal/providers"
)

const sessionCookieName = ".ROBLOSECURITY"

// Config controls how the client reaches each upstream.
type Config struct {
	DiscoveryURL     string
	GamesURL         string
	ThumbnailsURL    string
	NotificationsURL string
	GroupShoutsURL   string
	Cookie           string
	HTTPClient       *http.Client
}

// Client implements providers.Platform over HTTP.
type Client struct {
	discoveryURL     string
	gamesURL         string
	thumbnailsURL    string
	notificationsURL string
	groupShoutsURL   string
	cookie           string
	httpClient       httpDoer
	now              func() time.Time
	newSessionID     func() string
}

var _ providers.Platform = (*Client)(nil)

// NewClient constructs a platform client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		discoveryURL:     normalizeBaseURL(cfg.DiscoveryURL),
		gamesURL:         normalizeBaseURL(cfg.GamesURL),
		thumbnailsURL:    normalizeBaseURL(cfg.ThumbnailsURL),
		notificationsURL: normalizeBaseURL(cfg.NotificationsURL),
		groupShoutsURL:   normalizeBaseURL(cfg.GroupShoutsURL),
		cookie:           cfg.Cookie,
		httpClient:       resolveHTTPClient(cfg.HTTPClient),
		now:              time.Now,
		newSessionID:     uuid.NewString,
	}
}

type omniRequest struct {
	PageType  string `json:"pageType"`
	SessionID string `json:"sessionId"`
}

// FetchPrimaryRecommendations requests the omni recommendation sorts for pageType.
func (c *Client) FetchPrimaryRecommendations(ctx context.Context, pageType string) (providers.PrimaryRecommendations, error) {
	if pageType == "" {
		pageType = defaultPageType
	}
	var out providers.PrimaryRecommendations
	body := omniRequest{PageType: pageType, SessionID: c.newSessionID()}
	if err := c.postJSON(ctx, c.discoveryURL+"/omni-recommendation", body, &out); err != nil {
		return providers.PrimaryRecommendations{}, err
	}
	return out, nil
}

// FetchGameMetadata looks up universes in one batched call.
func (c *Client) FetchGameMetadata(ctx context.Context, ids []int64) (providers.GameMetadataBatch, error) {
	if len(ids) == 0 {
		return providers.GameMetadataBatch{}, nil
	}
	q := url.Values{}
	q.Set("universeIds", joinIDs(ids))

	var out providers.GameMetadataBatch
	if err := c.getJSON(ctx, c.gamesURL+"/v1/games?"+q.Encode(), &out); err != nil {
		return providers.GameMetadataBatch{}, err
	}
	return out, nil
}

// FetchUniverseThumbnails resolves one icon per universe.
func (c *Client) FetchUniverseThumbnails(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	q := url.Values{}
	q.Set("universeIds", joinIDs(ids))
	q.Set("countPerUniverse", "1")
	return c.fetchThumbnails(ctx, "/v1/games/multiget/thumbnails", q, ids, size)
}

// FetchUserAvatars resolves avatar headshots.
func (c *Client) FetchUserAvatars(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	q := url.Values{}
	q.Set("userIds", joinIDs(ids))
	return c.fetchThumbnails(ctx, "/v1/users/avatar-headshot", q, ids, size)
}

// FetchGroupIcons resolves group emblems.
func (c *Client) FetchGroupIcons(ctx context.Context, ids []int64, size string) (providers.ThumbnailBatch, error) {
	q := url.Values{}
	q.Set("groupIds", joinIDs(ids))
	return c.fetchThumbnails(ctx, "/v1/groups/icons", q, ids, size)
}

func (c *Client) fetchThumbnails(ctx context.Context, path string, q url.Values, ids []int64, size string) (providers.ThumbnailBatch, error) {
	if len(ids) == 0 {
		return providers.ThumbnailBatch{}, nil
	}
	q.Set("size", size)
	q.Set("format", "Png")

	var out providers.ThumbnailBatch
	if err := c.getJSON(ctx, c.thumbnailsURL+path+"?"+q.Encode(), &out); err != nil {
		return providers.ThumbnailBatch{}, fmt.Errorf("thumbnails %s: %w", size, err)
	}
	return out, nil
}

// FetchPlatformNotifications returns the most recent stream notifications.
func (c *Client) FetchPlatformNotifications(ctx context.Context) ([]providers.PlatformNotification, error) {
	q := url.Values{}
	q.Set("startIndex", "0")
	q.Set("maxRows", fmt.Sprint(notificationRows))

	var out []providers.PlatformNotification
	if err := c.getJSON(ctx, c.notificationsURL+"/v2/stream-notifications/get-recent?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchGroupShouts returns recent shouts from the user's groups.
func (c *Client) FetchGroupShouts(ctx context.Context) ([]providers.GroupShout, error) {
	var out []providers.GroupShout
	if err := c.getJSON(ctx, c.groupShoutsURL+"/v1/shouts/recent", &out); err != nil {
		return nil, err
	}
	return out, nil
}
