package server

import "strings"

const (
	providerFixture = "fixture"
	providerLive    = "live"
)

// normalizeProviderName lower-cases the configured provider, defaulting to the fixture.
// Used across server wiring and the source factory to keep naming consistent in logs.
func normalizeProviderName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return providerFixture
	}
	return name
}
