// Package activity defines the feed items merged into the home timeline.
package activity

import (
	"time"

	"github.com/goccy/go-json"
)

// Source tags which stream produced a feed item.
type Source string

const (
	SourceGroupShout            Source = "group_shout"
	SourceCommunityNotification Source = "community_notification"
	SourcePlatformNotification  Source = "platform_notification"
)

// Item is the common projection over every feed entry.
type Item interface {
	Source() Source
	PostedAt() time.Time
}

// GroupShoutItem is a recent announcement from a group the user belongs to.
type GroupShoutItem struct {
	GroupID    int64     `json:"groupId"`
	GroupName  string    `json:"groupName"`
	Body       string    `json:"body"`
	PosterName string    `json:"posterName"`
	Posted     time.Time `json:"postedAt"`
	Thumbnail  string    `json:"thumbnail"`
}

func (i GroupShoutItem) Source() Source { return SourceGroupShout }
func (i GroupShoutItem) PostedAt() time.Time { return i.Posted }

func (i GroupShoutItem) MarshalJSON() ([]byte, error) {
	type alias GroupShoutItem
	return json.Marshal(struct {
		Source Source `json:"source"`
		alias
	}{i.Source(), alias(i)})
}

// CommunityNotificationItem is an unread notification from the review community.
type CommunityNotificationItem struct {
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	LinkTarget string    `json:"linkTarget,omitempty"`
	Read       bool      `json:"read"`
	NotifID    string    `json:"notifId"`
	Posted     time.Time `json:"postedAt"`
	Icon       string    `json:"icon"`
}

func (i CommunityNotificationItem) Source() Source { return SourceCommunityNotification }
func (i CommunityNotificationItem) PostedAt() time.Time { return i.Posted }

func (i CommunityNotificationItem) MarshalJSON() ([]byte, error) {
	type alias CommunityNotificationItem
	return json.Marshal(struct {
		Source Source `json:"source"`
		alias
	}{i.Source(), alias(i)})
}

// PlatformNotificationItem is a notification from the platform itself.
type PlatformNotificationItem struct {
	RawMessage   string    `json:"rawMessage"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Posted       time.Time `json:"postedAt"`
}

func (i PlatformNotificationItem) Source() Source { return SourcePlatformNotification }
func (i PlatformNotificationItem) PostedAt() time.Time { return i.Posted }

func (i PlatformNotificationItem) MarshalJSON() ([]byte, error) {
	type alias PlatformNotificationItem
	return json.Marshal(struct {
		Source Source `json:"source"`
		alias
	}{i.Source(), alias(i)})
}
