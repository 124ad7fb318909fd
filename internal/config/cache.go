package config

// CacheConfig selects the persistent cache backend.
type CacheConfig struct {
	Backend string `env:"CACHE_BACKEND" envDefault:"memory" validate:"oneof=memory file badger sqlite"`
	// Path is the directory holding on-disk cache data.
	Path string `env:"CACHE_PATH" envDefault:"data/cache" validate:"required_unless=Backend memory"`
}

const (
	CacheBackendMemory = "memory"
	CacheBackendFile   = "file"
	CacheBackendBadger = "badger"
	CacheBackendSQLite = "sqlite"
)
