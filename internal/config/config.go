package config

import "time"

// Config holds runtime configuration for the server.
type Config struct {
	Port       string `env:"PORT" envDefault:"4000" validate:"required,numeric"`
	Provider   string `env:"PROVIDER" envDefault:"fixture" validate:"oneof=fixture live"`
	AdminToken string `env:"ADMIN_TOKEN"`

	// HTTPRateLimit caps /home requests per client IP per minute. Zero disables it.
	HTTPRateLimit int `env:"HTTP_RATE_LIMIT" envDefault:"60" validate:"gte=0"`

	Log       LogConfig
	Cache     CacheConfig
	Selection SelectionConfig
	Feed      FeedConfig
	Upstream  UpstreamConfig
	Metrics   MetricsConfig
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
}

// SelectionConfig tunes the recommendation selector.
type SelectionConfig struct {
	CacheTTL          time.Duration `env:"RECOMMENDATION_CACHE_TTL" envDefault:"5m" validate:"gt=0"`
	RateLimitCooldown time.Duration `env:"RATE_LIMIT_COOLDOWN" envDefault:"60s" validate:"gt=0"`
}

// FeedConfig tunes the feed aggregator.
type FeedConfig struct {
	// IsolatePlatformFailure stops a platform notification failure from
	// collapsing the whole feed. Off by default.
	IsolatePlatformFailure bool `env:"FEED_ISOLATE_PLATFORM_FAILURE" envDefault:"false"`
}

// Load reads configuration from environment variables with sensible defaults
// and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := parseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
