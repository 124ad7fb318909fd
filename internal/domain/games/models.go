package games

// Origin records which source contributed a candidate.
type Origin string

const (
	OriginPrimary   Origin = "primary"
	OriginCommunity Origin = "community"
)

// CandidateGame is one recommended game as returned to the home surface.
type CandidateGame struct {
	UniverseID   int64  `json:"universeId"`
	PlaceID      *int64 `json:"placeId"`
	Name         string `json:"name"`
	PlayerCount  int    `json:"playerCount"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Origin       Origin `json:"origin"`
}

// CountByOrigin tallies games per origin.
func CountByOrigin(list []CandidateGame) map[Origin]int {
	counts := make(map[Origin]int, 2)
	for _, g := range list {
		counts[g.Origin]++
	}
	return counts
}
