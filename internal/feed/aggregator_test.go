package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preston-bernstein/homefeed-service/internal/domain/activity"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
	"github.com/preston-bernstein/homefeed-service/internal/providers"
	"github.com/preston-bernstein/homefeed-service/internal/teststubs"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) providers.Timestamp {
	return providers.Timestamp{Time: baseTime.Add(time.Duration(minutes) * time.Minute)}
}

func platformNote(minutes int, text string, userID int64) providers.PlatformNotification {
	visual := &providers.VisualItems{}
	if text != "" {
		visual.TextBodies = []providers.TextBody{{Label: &providers.TextLabel{Text: text}}}
	}
	if userID != 0 {
		visual.Thumbnails = []providers.ThumbnailRef{{IDType: providers.IDTypeUserThumbnail, ID: providers.FlexibleID(userID)}}
	}
	return providers.PlatformNotification{
		EventDate: at(minutes),
		Content: &providers.NotificationContent{
			States: &providers.NotificationStates{Default: &providers.NotificationState{VisualItems: visual}},
		},
	}
}

func newAggregator(platform *teststubs.StubPlatform, community *teststubs.StubCommunity, opts ...Option) *Aggregator {
	opts = append([]Option{WithClock(func() time.Time { return baseTime.Add(time.Hour) })}, opts...)
	return NewAggregator(Sources{
		Shouts:        platform,
		Notifications: platform,
		Community:     community,
		Thumbnails:    platform,
	}, opts...)
}

func TestBuildOrdersNewestFirstRegardlessOfCompletionOrder(t *testing.T) {
	platform := &teststubs.StubPlatform{
		Shouts: []providers.GroupShout{
			{GroupID: 7, GroupName: "Builders", Body: "hi", Updated: at(0), IsNew: true},
		},
		Notifications: []providers.PlatformNotification{platformNote(2, "hello", 0)},
	}
	community := &teststubs.StubCommunity{
		Notifications: providers.CommunityNotifications{Notifications: []providers.CommunityNotification{
			{ID: "n1", Type: "reply", Message: "m", Timestamp: at(1)},
		}},
	}
	// Slowest source produces the newest item.
	platform.NotificationsCall.Delay = 30 * time.Millisecond
	platform.ShoutsCall.Delay = 10 * time.Millisecond

	res, err := newAggregator(platform, community).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != StateReady {
		t.Fatalf("expected ready, got %s", res.State)
	}
	want := []activity.Source{
		activity.SourcePlatformNotification,
		activity.SourceCommunityNotification,
		activity.SourceGroupShout,
	}
	if len(res.Items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(res.Items))
	}
	for i, src := range want {
		if res.Items[i].Source() != src {
			t.Fatalf("item %d: expected %s, got %s", i, src, res.Items[i].Source())
		}
	}
}

func TestBuildEmptyWhenNothingToShow(t *testing.T) {
	rec := metrics.NewRecorder()
	res, err := newAggregator(&teststubs.StubPlatform{}, &teststubs.StubCommunity{}, WithMetrics(rec)).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != StateEmpty || len(res.Items) != 0 {
		t.Fatalf("expected empty feed, got %+v", res)
	}
	if res.Items == nil {
		t.Fatalf("expected non-nil items slice")
	}
	if rec.FeedBuilds("empty") != 1 {
		t.Fatalf("expected one empty build recorded, got %d", rec.FeedBuilds("empty"))
	}
}

func TestBuildAbsorbsShoutAndCommunityFailures(t *testing.T) {
	platform := &teststubs.StubPlatform{
		ShoutsErr:     errors.New("boom"),
		Notifications: []providers.PlatformNotification{platformNote(0, "hello", 0)},
	}
	community := &teststubs.StubCommunity{NotificationsErr: errors.New("down")}

	res, err := newAggregator(platform, community).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Source() != activity.SourcePlatformNotification {
		t.Fatalf("expected only the platform item, got %+v", res.Items)
	}
}

func TestBuildPlatformFailurePropagatesByDefault(t *testing.T) {
	rec := metrics.NewRecorder()
	platform := &teststubs.StubPlatform{
		NotificationsErr: errors.New("platform down"),
		Shouts:           []providers.GroupShout{{GroupID: 7, Updated: at(0), IsNew: true}},
	}

	_, err := newAggregator(platform, &teststubs.StubCommunity{}, WithMetrics(rec)).Build(context.Background())
	if err == nil {
		t.Fatalf("expected platform error")
	}
	if rec.FeedBuilds("failed") != 1 {
		t.Fatalf("expected failed build recorded")
	}
	if len(platform.Requested(providers.SourceGroupIcons)) != 0 {
		t.Fatalf("expected no image resolution after platform failure")
	}
}

func TestBuildPlatformIsolation(t *testing.T) {
	platform := &teststubs.StubPlatform{
		NotificationsErr: errors.New("platform down"),
		Shouts:           []providers.GroupShout{{GroupID: 7, Updated: at(0), IsNew: true}},
	}

	res, err := newAggregator(platform, &teststubs.StubCommunity{}, WithPlatformIsolation(true)).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != StateReady || len(res.Items) != 1 {
		t.Fatalf("expected the shout to survive, got %+v", res)
	}
}

func TestBuildFiltersAndCapsShouts(t *testing.T) {
	shouts := []providers.GroupShout{
		{GroupID: 1, Updated: at(0), Interacted: true},
		{GroupID: 2, Updated: at(0), IsNew: true, Interacted: true},
	}
	for i := 0; i < 12; i++ {
		shouts = append(shouts, providers.GroupShout{GroupID: providers.FlexibleID(100 + i), Updated: at(i)})
	}
	platform := &teststubs.StubPlatform{Shouts: shouts}

	res, err := newAggregator(platform, &teststubs.StubCommunity{}).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != maxShouts {
		t.Fatalf("expected %d shouts, got %d", maxShouts, len(res.Items))
	}
	for _, item := range res.Items {
		if item.(activity.GroupShoutItem).GroupID == 1 {
			t.Fatalf("expected seen shout to be dropped")
		}
	}
}

func TestBuildResolvesGroupIconsWithPlaceholder(t *testing.T) {
	platform := &teststubs.StubPlatform{
		Shouts: []providers.GroupShout{
			{GroupID: 7, Updated: at(1), IsNew: true, Poster: &providers.ShoutPoster{Username: "ana"}},
			{GroupID: 8, Updated: at(0), IsNew: true},
		},
		GroupIcons: providers.ThumbnailBatch{Data: []providers.ThumbnailEntry{{TargetID: 7, ImageURL: "https://img/7"}}},
	}

	res, err := newAggregator(platform, &teststubs.StubCommunity{}).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := res.Items[0].(activity.GroupShoutItem)
	second := res.Items[1].(activity.GroupShoutItem)
	if first.Thumbnail != "https://img/7" || first.PosterName != "ana" {
		t.Fatalf("unexpected first shout %+v", first)
	}
	if second.Thumbnail != PlaceholderGroupIcon || second.PosterName != "Unknown" {
		t.Fatalf("unexpected second shout %+v", second)
	}
	if got := platform.Size(providers.SourceGroupIcons); got != providers.SizeGroup {
		t.Fatalf("expected group icon size %s, got %s", providers.SizeGroup, got)
	}
}

func TestBuildPlatformMessagesAndAvatars(t *testing.T) {
	typed := providers.PlatformNotification{
		EventDate: at(1),
		Content:   &providers.NotificationContent{NotificationType: "TradeAccepted"},
	}
	bare := providers.PlatformNotification{EventDate: at(0)}
	platform := &teststubs.StubPlatform{
		Notifications: []providers.PlatformNotification{
			platformNote(3, "New CONNECTION REQUEST from bob", 42),
			platformNote(2, "", 43),
			typed,
			bare,
		},
		Avatars: providers.ThumbnailBatch{Data: []providers.ThumbnailEntry{{TargetID: 42, ImageURL: "https://img/42"}}},
	}

	res, err := newAggregator(platform, &teststubs.StubCommunity{}).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]activity.PlatformNotificationItem, 0, len(res.Items))
	for _, item := range res.Items {
		got = append(got, item.(activity.PlatformNotificationItem))
	}
	if got[0].RawMessage != "New Friend request from bob" || got[0].ThumbnailURL != "https://img/42" {
		t.Fatalf("unexpected first notification %+v", got[0])
	}
	if got[1].RawMessage != defaultPlatformMessage || got[1].ThumbnailURL != "" {
		t.Fatalf("unexpected second notification %+v", got[1])
	}
	if got[2].RawMessage != "TradeAccepted" {
		t.Fatalf("expected type label, got %q", got[2].RawMessage)
	}
	if got[3].RawMessage != defaultPlatformMessage {
		t.Fatalf("expected default message, got %q", got[3].RawMessage)
	}
	if size := platform.Size(providers.SourceUserAvatars); size != providers.SizeAvatar {
		t.Fatalf("expected avatar size %s, got %s", providers.SizeAvatar, size)
	}
}

func TestBuildCommunityNotifications(t *testing.T) {
	community := &teststubs.StubCommunity{
		Notifications: providers.CommunityNotifications{Notifications: []providers.CommunityNotification{
			{ID: "a", Type: "banned", Timestamp: at(3), Data: &providers.NotificationRefs{GameID: 55, ReviewID: 9}},
			{ID: "b", Type: "reply", Timestamp: at(2), Data: &providers.NotificationRefs{ReviewID: 9}},
			{ID: "c", Type: "mystery", Timestamp: at(1), Icon: "🎲"},
			{ID: "d", Type: "mystery", Timestamp: at(0)},
		}},
	}

	res, err := newAggregator(&teststubs.StubPlatform{}, community).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := make([]activity.CommunityNotificationItem, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, item.(activity.CommunityNotificationItem))
	}
	if items[0].Icon != "🔨" || items[0].LinkTarget != "#game-detail?id=55" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Icon != "💬" || items[1].LinkTarget != "#reviews" {
		t.Fatalf("unexpected second item %+v", items[1])
	}
	if items[2].Icon != "🎲" || items[2].LinkTarget != "" {
		t.Fatalf("unexpected third item %+v", items[2])
	}
	if items[3].Icon != defaultIcon {
		t.Fatalf("expected default icon, got %q", items[3].Icon)
	}

	queries := community.NotificationQueries()
	if len(queries) != 1 || queries[0].IncludeRead || queries[0].Limit != communityNotificationCap {
		t.Fatalf("unexpected notification query %+v", queries)
	}
}

func TestBuildMissingTimestampsUseFetchTime(t *testing.T) {
	platform := &teststubs.StubPlatform{
		Shouts: []providers.GroupShout{{GroupID: 7, IsNew: true}},
	}

	res, err := newAggregator(platform, &teststubs.StubCommunity{}).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Items[0].PostedAt(); !got.Equal(baseTime.Add(time.Hour)) {
		t.Fatalf("expected fetch time, got %v", got)
	}
}

func TestBuildTiesKeepStreamOrder(t *testing.T) {
	platform := &teststubs.StubPlatform{
		Shouts:        []providers.GroupShout{{GroupID: 7, Updated: at(0), IsNew: true}},
		Notifications: []providers.PlatformNotification{platformNote(0, "x", 0)},
	}
	community := &teststubs.StubCommunity{
		Notifications: providers.CommunityNotifications{Notifications: []providers.CommunityNotification{
			{ID: "n", Type: "reply", Timestamp: at(0)},
		}},
	}

	res, err := newAggregator(platform, community).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []activity.Source{
		activity.SourceGroupShout,
		activity.SourceCommunityNotification,
		activity.SourcePlatformNotification,
	}
	for i, src := range want {
		if res.Items[i].Source() != src {
			t.Fatalf("item %d: expected %s, got %s", i, src, res.Items[i].Source())
		}
	}
}

func TestNilSourcesContributeNothing(t *testing.T) {
	res, err := NewAggregator(Sources{}).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != StateEmpty {
		t.Fatalf("expected empty, got %s", res.State)
	}
}

func TestLinkTarget(t *testing.T) {
	cases := []struct {
		refs *providers.NotificationRefs
		want string
	}{
		{nil, ""},
		{&providers.NotificationRefs{}, ""},
		{&providers.NotificationRefs{GameID: 3}, "#game-detail?id=3"},
		{&providers.NotificationRefs{ReviewID: 4}, "#reviews"},
	}
	for _, tc := range cases {
		if got := LinkTarget(tc.refs); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
