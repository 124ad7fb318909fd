package config

import "time"

// UpstreamConfig controls how we talk to the platform and community APIs.
type UpstreamConfig struct {
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	// RequestsPerSecond and Burst shape the outbound token bucket shared per upstream.
	RequestsPerSecond float64 `env:"UPSTREAM_RPS" envDefault:"5" validate:"gt=0"`
	Burst             int     `env:"UPSTREAM_BURST" envDefault:"5" validate:"gt=0"`

	Breaker   BreakerConfig
	Platform  PlatformConfig
	Community CommunityConfig
}

// BreakerConfig tunes the per-upstream circuit breaker.
type BreakerConfig struct {
	MinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"10" validate:"gt=0"`
	FailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.6" validate:"gt=0,lte=1"`
	Interval     time.Duration `env:"BREAKER_INTERVAL" envDefault:"1m" validate:"gt=0"`
	OpenTimeout  time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"2m" validate:"gt=0"`
}

// PlatformConfig holds base URLs for the platform's own APIs.
type PlatformConfig struct {
	DiscoveryURL     string `env:"PLATFORM_DISCOVERY_URL" envDefault:"https://apis.roblox.com/discovery-api" validate:"required,url"`
	GamesURL         string `env:"PLATFORM_GAMES_URL" envDefault:"https://games.roblox.com" validate:"required,url"`
	ThumbnailsURL    string `env:"PLATFORM_THUMBNAILS_URL" envDefault:"https://thumbnails.roblox.com" validate:"required,url"`
	NotificationsURL string `env:"PLATFORM_NOTIFICATIONS_URL" envDefault:"https://notifications.roblox.com" validate:"required,url"`
	GroupShoutsURL   string `env:"PLATFORM_GROUP_SHOUTS_URL" envDefault:"http://localhost:4100" validate:"required,url"`
	// Cookie is forwarded as the session cookie on authenticated calls.
	Cookie string `env:"PLATFORM_COOKIE"`
}

// CommunityConfig holds the community review service settings.
type CommunityConfig struct {
	BaseURL string `env:"COMMUNITY_BASE_URL" envDefault:"https://rovloo.com" validate:"required,url"`
	APIKey  string `env:"COMMUNITY_API_KEY"`
}
