package home

import "github.com/preston-bernstein/homefeed-service/internal/domain/games"

// nilSafeGames keeps JSON responses emitting [] instead of null.
func nilSafeGames(list []games.CandidateGame) []games.CandidateGame {
	if list == nil {
		return []games.CandidateGame{}
	}
	return list
}
