// Package feed merges group shouts, platform notifications and community
// notifications into one timeline, newest first.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/homefeed-service/internal/domain/activity"
	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
	"github.com/preston-bernstein/homefeed-service/internal/providers"
	"github.com/preston-bernstein/homefeed-service/internal/telemetry"
	"github.com/preston-bernstein/homefeed-service/internal/timeutil"
)

// State marks whether the feed has anything to show.
type State string

const (
	StateReady State = "ready"
	StateEmpty State = "empty"
)

// Result is a built feed.
type Result struct {
	State State           `json:"state"`
	Items []activity.Item `json:"items"`
}

// PlaceholderGroupIcon stands in for group icons that did not resolve.
const PlaceholderGroupIcon = "placeholder://group-icon"

const (
	maxShouts                = 10
	communityNotificationCap = 20
	defaultPlatformMessage   = "New notification"
	friendRequestReplacement = "Friend request"
	feedBuildStateFailed     = "failed"
)

var connectionRequestPattern = regexp.MustCompile(`(?i)connection request`)

// Sources are the adapters an Aggregator reads from.
type Sources struct {
	Shouts        providers.GroupShoutSource
	Notifications providers.NotificationSource
	Community     providers.CommunitySource
	Thumbnails    providers.ThumbnailSource
}

// Aggregator builds the home activity feed.
type Aggregator struct {
	sources         Sources
	isolatePlatform bool
	logger          *slog.Logger
	metrics         *metrics.Recorder
	now             func() time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithPlatformIsolation makes a platform notification failure contribute an
// empty list instead of failing the whole build.
func WithPlatformIsolation(enabled bool) Option {
	return func(a *Aggregator) { a.isolatePlatform = enabled }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger for absorbed source failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

// WithMetrics records feed builds.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(a *Aggregator) { a.metrics = rec }
}

// NewAggregator wires an Aggregator. Nil sources contribute nothing.
func NewAggregator(sources Sources, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources: sources,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build fetches every stream and returns the merged feed. Group shout and
// community failures yield empty contributions; a platform notification
// failure is returned unless platform isolation is enabled.
func (a *Aggregator) Build(ctx context.Context) (Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "feed.build")
	defer span.End()

	start := a.now()
	res, err := a.build(ctx, start)

	state := string(res.State)
	if err != nil {
		state = feedBuildStateFailed
		span.RecordError(err)
	}
	span.SetAttributes(
		attribute.String("feed.state", state),
		attribute.Int("feed.count", len(res.Items)),
	)
	a.metrics.RecordFeedBuild(state, len(res.Items), a.now().Sub(start))
	return res, err
}

func (a *Aggregator) build(ctx context.Context, fetchedAt time.Time) (Result, error) {
	var (
		shouts        []providers.GroupShout
		notifications []providers.PlatformNotification
		platformErr   error
		community     []providers.CommunityNotification
		streams       errgroup.Group
	)
	streams.Go(func() error {
		shouts = a.fetchShouts(ctx)
		return nil
	})
	streams.Go(func() error {
		notifications, platformErr = a.fetchPlatform(ctx)
		return nil
	})
	streams.Go(func() error {
		community = a.fetchCommunity(ctx)
		return nil
	})
	_ = streams.Wait()

	if platformErr != nil {
		if !a.isolatePlatform {
			return Result{State: StateEmpty, Items: []activity.Item{}}, fmt.Errorf("platform notifications: %w", platformErr)
		}
		logging.Warn(a.logger, "platform notifications unavailable",
			logging.FieldSource, providers.SourcePlatformNotifications, "err", platformErr)
		notifications = nil
	}

	var (
		groupIcons map[int64]string
		avatars    map[int64]string
		images     errgroup.Group
	)
	images.Go(func() error {
		groupIcons = a.resolve(ctx, providers.SourceGroupIcons, groupIDs(shouts), providers.SizeGroup)
		return nil
	})
	images.Go(func() error {
		avatars = a.resolve(ctx, providers.SourceUserAvatars, avatarIDs(notifications), providers.SizeAvatar)
		return nil
	})
	_ = images.Wait()

	items := make([]activity.Item, 0, len(shouts)+len(community)+len(notifications))
	for _, s := range shouts {
		items = append(items, shoutItem(s, groupIcons, fetchedAt))
	}
	for _, n := range community {
		items = append(items, communityItem(n, fetchedAt))
	}
	for _, n := range notifications {
		items = append(items, platformItem(n, avatars, fetchedAt))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PostedAt().After(items[j].PostedAt())
	})

	if len(items) == 0 {
		return Result{State: StateEmpty, Items: items}, nil
	}
	return Result{State: StateReady, Items: items}, nil
}

func (a *Aggregator) fetchShouts(ctx context.Context) []providers.GroupShout {
	if a.sources.Shouts == nil {
		return nil
	}
	all, err := a.sources.Shouts.FetchGroupShouts(ctx)
	if err != nil {
		logging.Warn(a.logger, "group shouts unavailable",
			logging.FieldSource, providers.SourceGroupShouts, "err", err)
		return nil
	}
	kept := make([]providers.GroupShout, 0, min(len(all), maxShouts))
	for _, s := range all {
		if len(kept) == maxShouts {
			break
		}
		if s.Unseen() {
			kept = append(kept, s)
		}
	}
	return kept
}

func (a *Aggregator) fetchPlatform(ctx context.Context) ([]providers.PlatformNotification, error) {
	if a.sources.Notifications == nil {
		return nil, nil
	}
	return a.sources.Notifications.FetchPlatformNotifications(ctx)
}

func (a *Aggregator) fetchCommunity(ctx context.Context) []providers.CommunityNotification {
	if a.sources.Community == nil {
		return nil
	}
	resp, err := a.sources.Community.FetchCommunityNotifications(ctx, providers.NotificationQuery{
		IncludeRead: false,
		Limit:       communityNotificationCap,
	})
	if err != nil {
		logging.Warn(a.logger, "community notifications unavailable",
			logging.FieldSource, providers.SourceCommunityNotifications, "err", err)
		return nil
	}
	return resp.Notifications
}

// resolve batch-fetches thumbnails for ids; failures resolve nothing.
func (a *Aggregator) resolve(ctx context.Context, source string, ids []int64, size string) map[int64]string {
	if len(ids) == 0 || a.sources.Thumbnails == nil {
		return nil
	}
	var (
		batch providers.ThumbnailBatch
		err   error
	)
	switch source {
	case providers.SourceGroupIcons:
		batch, err = a.sources.Thumbnails.FetchGroupIcons(ctx, ids, size)
	default:
		batch, err = a.sources.Thumbnails.FetchUserAvatars(ctx, ids, size)
	}
	if err != nil {
		logging.Warn(a.logger, "thumbnails unavailable", logging.FieldSource, source, "err", err)
		return nil
	}
	return batch.ByID()
}

func groupIDs(shouts []providers.GroupShout) []int64 {
	ids := make([]int64, 0, len(shouts))
	seen := make(map[int64]struct{}, len(shouts))
	for _, s := range shouts {
		id := int64(s.GroupID)
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func avatarIDs(notifications []providers.PlatformNotification) []int64 {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, n := range notifications {
		visual, ok := n.VisualItems()
		if !ok {
			continue
		}
		id, ok := visual.UserThumbnailID()
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func shoutItem(s providers.GroupShout, icons map[int64]string, fetchedAt time.Time) activity.GroupShoutItem {
	thumb, ok := icons[int64(s.GroupID)]
	if !ok || thumb == "" {
		thumb = PlaceholderGroupIcon
	}
	return activity.GroupShoutItem{
		GroupID:    int64(s.GroupID),
		GroupName:  s.GroupName,
		Body:       s.Body,
		PosterName: s.PosterName(),
		Posted:     timeutil.OrNow(s.Updated.Time, fetchedAt),
		Thumbnail:  thumb,
	}
}

func communityItem(n providers.CommunityNotification, fetchedAt time.Time) activity.CommunityNotificationItem {
	icon := n.Icon
	if icon == "" {
		icon = IconFor(n.Type)
	}
	return activity.CommunityNotificationItem{
		Kind:       n.Type,
		Message:    n.Message,
		LinkTarget: LinkTarget(n.Data),
		Read:       n.Read,
		NotifID:    string(n.ID),
		Posted:     timeutil.OrNow(n.Timestamp.Time, fetchedAt),
		Icon:       icon,
	}
}

func platformItem(n providers.PlatformNotification, avatars map[int64]string, fetchedAt time.Time) activity.PlatformNotificationItem {
	item := activity.PlatformNotificationItem{
		RawMessage: platformMessage(n),
		Posted:     timeutil.OrNow(n.EventDate.Time, fetchedAt),
	}
	if visual, ok := n.VisualItems(); ok {
		if id, ok := visual.UserThumbnailID(); ok {
			item.ThumbnailURL = avatars[id]
		}
	}
	return item
}

// platformMessage prefers the rich-text body, then the type label, then a placeholder.
func platformMessage(n providers.PlatformNotification) string {
	if visual, ok := n.VisualItems(); ok {
		if text, ok := visual.TextBody(); ok {
			return connectionRequestPattern.ReplaceAllString(text, friendRequestReplacement)
		}
	}
	if label := n.TypeLabel(); label != "" {
		return label
	}
	return defaultPlatformMessage
}
