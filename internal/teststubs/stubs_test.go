package teststubs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preston-bernstein/homefeed-service/internal/providers"
)

func TestStubPlatformTracksCallsAndErrors(t *testing.T) {
	err := errors.New("boom")
	p := &StubPlatform{MetadataErr: err}
	if _, got := p.FetchGameMetadata(context.Background(), []int64{1, 2}); !errors.Is(got, err) {
		t.Fatalf("expected error passthrough, got %v", got)
	}
	if p.MetadataCall.Count.Load() != 1 {
		t.Fatalf("expected call count 1, got %d", p.MetadataCall.Count.Load())
	}
	if got := p.Requested(providers.SourceGameMetadata); len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("expected recorded ids, got %v", got)
	}
}

func TestStubPlatformRecordsSize(t *testing.T) {
	p := &StubPlatform{}
	_, _ = p.FetchUserAvatars(context.Background(), []int64{1}, providers.SizeAvatar)
	if p.Size(providers.SourceUserAvatars) != providers.SizeAvatar {
		t.Fatalf("expected avatar size recorded, got %q", p.Size(providers.SourceUserAvatars))
	}
}

func TestCallDelayHonorsContext(t *testing.T) {
	p := &StubPlatform{ShoutsCall: Call{Delay: time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.FetchGroupShouts(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestStubCommunityRecordsQueries(t *testing.T) {
	c := &StubCommunity{}
	_, _ = c.FetchCommunityRankedGames(context.Background(), providers.CommunityQuery{SortKey: "quality", Limit: 20, Page: 1})
	_, _ = c.FetchCommunityNotifications(context.Background(), providers.NotificationQuery{Limit: 20})

	if q := c.RankedQueries(); len(q) != 1 || q[0].SortKey != "quality" {
		t.Fatalf("unexpected ranked queries %+v", q)
	}
	if q := c.NotificationQueries(); len(q) != 1 || q[0].Limit != 20 {
		t.Fatalf("unexpected notification queries %+v", q)
	}
	if c.RankedCall.Count.Load() != 1 || c.NotificationsCall.Count.Load() != 1 {
		t.Fatalf("expected one call each")
	}
}
