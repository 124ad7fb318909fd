package testutil

import (
	"time"

	"github.com/preston-bernstein/homefeed-service/internal/domain/activity"
	"github.com/preston-bernstein/homefeed-service/internal/domain/games"
)

// FixedTime is the reference instant used by fixtures.
var FixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// SampleCandidate returns a minimal candidate game with the provided id.
func SampleCandidate(id int64, origin games.Origin) games.CandidateGame {
	place := id * 10
	return games.CandidateGame{
		UniverseID:   id,
		PlaceID:      &place,
		Name:         "Game",
		PlayerCount:  100,
		ThumbnailURL: "https://img.example/" + string(origin),
		Origin:       origin,
	}
}

// SampleShoutItem builds a group shout feed item for the group.
func SampleShoutItem(groupID int64) activity.GroupShoutItem {
	return activity.GroupShoutItem{
		GroupID:    groupID,
		GroupName:  "Builders",
		Body:       "Update live",
		PosterName: "ana",
		Posted:     FixedTime,
		Thumbnail:  "https://img.example/group",
	}
}
