// Package store provides the persistent key/value cache behind recommendation
// results and rate-limit state.
//
// A Backend moves raw bytes; Cache layers JSON envelopes with a stored-at
// timestamp and TTL on top so that expired or unreadable entries read as absent.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by backends when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Backend is a single-slot key/value store.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	// Write stores value under key. Backends with native expiry may use ttl;
	// others persist indefinitely and rely on the envelope check.
	Write(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
