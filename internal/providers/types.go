package providers

import (
	"bytes"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/preston-bernstein/homefeed-service/internal/timeutil"
)

// FlexibleID decodes identifiers that upstreams send as either numbers or
// strings. Zero means absent.
type FlexibleID int64

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(b), 64)
		if ferr != nil {
			// Non-numeric ids read as missing.
			*id = 0
			return nil
		}
		v = int64(f)
	}
	*id = FlexibleID(v)
	return nil
}

// Timestamp decodes RFC3339 strings or epoch milliseconds. Absent or
// unparseable values decode to the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	parsed, err := timeutil.ParseTimestamp(string(b))
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

// RecommendationItem is one entry of a recommendation sort.
type RecommendationItem struct {
	ContentType string     `json:"contentType"`
	ContentID   FlexibleID `json:"contentId"`
}

// ContentTypeGame marks recommendation entries that are games.
const ContentTypeGame = "Game"

// RecommendationSort is a named group of recommendations.
type RecommendationSort struct {
	Topic              string               `json:"topic"`
	RecommendationList []RecommendationItem `json:"recommendationList"`
}

// PrimaryRecommendations is the platform recommendation response.
type PrimaryRecommendations struct {
	Sorts []RecommendationSort `json:"sorts"`
}

// CommunityQuery selects a page of ranked community reviews.
type CommunityQuery struct {
	SortKey string
	Limit   int
	Page    int
}

// CommunityGame is the game embedded in a ranked review.
type CommunityGame struct {
	UniverseID   FlexibleID `json:"universeId"`
	ID           FlexibleID `json:"id"`
	Name         string     `json:"name"`
	Playing      int        `json:"playing"`
	ThumbnailURL string     `json:"thumbnailUrl"`
}

// CommunityReview is one ranked review.
type CommunityReview struct {
	IsBlacklisted bool           `json:"isBlacklisted"`
	GameID        FlexibleID     `json:"gameId"`
	Game          *CommunityGame `json:"game"`
	GameData      *CommunityGame `json:"gameData"`
}

// RankedGame returns the embedded game, preferring game over gameData.
func (r CommunityReview) RankedGame() (CommunityGame, bool) {
	switch {
	case r.Game != nil:
		return *r.Game, true
	case r.GameData != nil:
		return *r.GameData, true
	default:
		return CommunityGame{}, false
	}
}

// PlaceID returns the game's place id, falling back to the review's gameId.
func (r CommunityReview) PlaceID() (int64, bool) {
	if g, ok := r.RankedGame(); ok && g.ID != 0 {
		return int64(g.ID), true
	}
	if r.GameID != 0 {
		return int64(r.GameID), true
	}
	return 0, false
}

// CommunityRankedGames is the ranked-reviews response.
type CommunityRankedGames struct {
	Reviews []CommunityReview `json:"reviews"`
}

// UnmarshalJSON accepts either {"reviews": [...]} or a bare array.
func (c *CommunityRankedGames) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &c.Reviews)
	}
	type alias CommunityRankedGames
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	*c = CommunityRankedGames(a)
	return nil
}

// GameMetadata is one entry of the batched games lookup.
type GameMetadata struct {
	ID          FlexibleID `json:"id"`
	RootPlaceID FlexibleID `json:"rootPlaceId"`
	Name        string     `json:"name"`
	Playing     int        `json:"playing"`
}

// GameMetadataBatch is the games lookup response.
type GameMetadataBatch struct {
	Data []GameMetadata `json:"data"`
}

// ThumbnailImage is a single rendered image.
type ThumbnailImage struct {
	ImageURL string `json:"imageUrl"`
	State    string `json:"state,omitempty"`
}

// ThumbnailEntry is one thumbnail lookup result. Universe lookups populate
// UniverseID and Thumbnails; user and group lookups populate TargetID and ImageURL.
type ThumbnailEntry struct {
	UniverseID FlexibleID       `json:"universeId"`
	TargetID   FlexibleID       `json:"targetId"`
	ImageURL   string           `json:"imageUrl"`
	Thumbnails []ThumbnailImage `json:"thumbnails"`
}

// Key returns the id the entry describes.
func (e ThumbnailEntry) Key() int64 {
	if e.UniverseID != 0 {
		return int64(e.UniverseID)
	}
	return int64(e.TargetID)
}

// URL returns the first usable image url.
func (e ThumbnailEntry) URL() (string, bool) {
	if e.ImageURL != "" {
		return e.ImageURL, true
	}
	if len(e.Thumbnails) > 0 && e.Thumbnails[0].ImageURL != "" {
		return e.Thumbnails[0].ImageURL, true
	}
	return "", false
}

// ThumbnailBatch is a thumbnail lookup response.
type ThumbnailBatch struct {
	Data []ThumbnailEntry `json:"data"`
}

// ByID indexes resolved urls by id, skipping entries without one.
func (b ThumbnailBatch) ByID() map[int64]string {
	out := make(map[int64]string, len(b.Data))
	for _, entry := range b.Data {
		key := entry.Key()
		if key == 0 {
			continue
		}
		if url, ok := entry.URL(); ok {
			out[key] = url
		}
	}
	return out
}

// ShoutPoster identifies who posted a shout.
type ShoutPoster struct {
	Username string `json:"username"`
}

// GroupShout is one group announcement.
type GroupShout struct {
	GroupID    FlexibleID   `json:"groupId"`
	GroupName  string       `json:"groupName"`
	Body       string       `json:"body"`
	Poster     *ShoutPoster `json:"poster"`
	Updated    Timestamp    `json:"updated"`
	IsNew      bool         `json:"isNew"`
	Interacted bool         `json:"interacted"`
}

// PosterName returns the poster's username or "Unknown".
func (s GroupShout) PosterName() string {
	if s.Poster == nil || s.Poster.Username == "" {
		return "Unknown"
	}
	return s.Poster.Username
}

// Unseen reports whether the shout is new or has not been interacted with.
func (s GroupShout) Unseen() bool {
	return s.IsNew || !s.Interacted
}

// ThumbnailRef points at an image owned by another entity.
type ThumbnailRef struct {
	IDType string     `json:"idType"`
	ID     FlexibleID `json:"id"`
}

// IDTypeUserThumbnail marks references to user avatars.
const IDTypeUserThumbnail = "userThumbnail"

// TextLabel is the rendered text of a body entry.
type TextLabel struct {
	Text string `json:"text"`
}

// TextBody is one rich-text entry.
type TextBody struct {
	Label *TextLabel `json:"label"`
}

// VisualItems is the display payload of a notification state.
type VisualItems struct {
	Thumbnails []ThumbnailRef `json:"thumbnail"`
	TextBodies []TextBody     `json:"textBody"`
}

// Thumbnail returns the first thumbnail reference.
func (v VisualItems) Thumbnail() (ThumbnailRef, bool) {
	if len(v.Thumbnails) == 0 {
		return ThumbnailRef{}, false
	}
	return v.Thumbnails[0], true
}

// UserThumbnailID returns the referenced user id when the first thumbnail is a user avatar.
func (v VisualItems) UserThumbnailID() (int64, bool) {
	ref, ok := v.Thumbnail()
	if !ok || ref.IDType != IDTypeUserThumbnail || ref.ID == 0 {
		return 0, false
	}
	return int64(ref.ID), true
}

// TextBody returns the first non-empty rich-text label.
func (v VisualItems) TextBody() (string, bool) {
	if len(v.TextBodies) == 0 {
		return "", false
	}
	label := v.TextBodies[0].Label
	if label == nil || label.Text == "" {
		return "", false
	}
	return label.Text, true
}

// NotificationState is one display state of a notification.
type NotificationState struct {
	VisualItems *VisualItems `json:"visualItems"`
}

// NotificationStates holds the named display states.
type NotificationStates struct {
	Default *NotificationState `json:"default"`
}

// NotificationContent is the notification body.
type NotificationContent struct {
	States           *NotificationStates `json:"states"`
	NotificationType string              `json:"notificationType"`
}

// PlatformNotification is one entry of the platform notification stream.
type PlatformNotification struct {
	EventDate              Timestamp            `json:"eventDate"`
	Content                *NotificationContent `json:"content"`
	NotificationSourceType string               `json:"notificationSourceType"`
}

// VisualItems walks content.states.default.visualItems.
func (n PlatformNotification) VisualItems() (VisualItems, bool) {
	if n.Content == nil || n.Content.States == nil || n.Content.States.Default == nil || n.Content.States.Default.VisualItems == nil {
		return VisualItems{}, false
	}
	return *n.Content.States.Default.VisualItems, true
}

// TypeLabel returns the notification type, falling back to the source type.
func (n PlatformNotification) TypeLabel() string {
	if n.Content != nil && n.Content.NotificationType != "" {
		return n.Content.NotificationType
	}
	return n.NotificationSourceType
}

// NotificationQuery selects community notifications.
type NotificationQuery struct {
	IncludeRead bool
	Limit       int
}

// NotificationRefs are entity references embedded in a community notification.
type NotificationRefs struct {
	GameID   FlexibleID `json:"gameId"`
	ReviewID FlexibleID `json:"reviewId"`
}

// CommunityNotification is one community notification.
type CommunityNotification struct {
	ID        FlexibleString    `json:"id"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Data      *NotificationRefs `json:"data"`
	Timestamp Timestamp         `json:"timestamp"`
	Read      bool              `json:"read"`
	Icon      string            `json:"icon"`
}

// CommunityNotifications is the community notification response.
type CommunityNotifications struct {
	Notifications []CommunityNotification `json:"notifications"`
}

// FlexibleString decodes ids that may be numbers or strings into a string.
type FlexibleString string

func (s *FlexibleString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexibleString(v)
		return nil
	}
	*s = FlexibleString(b)
	return nil
}
