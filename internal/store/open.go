package store

import (
	"fmt"
	"path/filepath"

	"github.com/preston-bernstein/homefeed-service/internal/config"
)

const sqliteFileName = "homefeed.db"

// Open builds the backend named by cfg.
func Open(cfg config.CacheConfig) (Backend, error) {
	switch cfg.Backend {
	case "", config.CacheBackendMemory:
		return NewMemoryBackend(), nil
	case config.CacheBackendFile:
		return NewFileBackend(cfg.Path)
	case config.CacheBackendBadger:
		return OpenBadger(cfg.Path)
	case config.CacheBackendSQLite:
		return OpenSQLite(filepath.Join(cfg.Path, sqliteFileName))
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
