package store

import (
	"testing"

	"github.com/preston-bernstein/homefeed-service/internal/config"
)

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		backend string
		want    string
	}{
		{backend: "memory", want: "*store.MemoryBackend"},
		{backend: "file", want: "*store.FileBackend"},
		{backend: "badger", want: "*store.BadgerBackend"},
		{backend: "sqlite", want: "*store.SQLiteBackend"},
	}
	for _, tc := range cases {
		t.Run(tc.backend, func(t *testing.T) {
			b, err := Open(config.CacheConfig{Backend: tc.backend, Path: dir + "/" + tc.backend})
			if err != nil {
				t.Fatalf("open %s: %v", tc.backend, err)
			}
			defer b.Close()
			if got := typeName(b); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(config.CacheConfig{Backend: "redis"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func typeName(b Backend) string {
	switch b.(type) {
	case *MemoryBackend:
		return "*store.MemoryBackend"
	case *FileBackend:
		return "*store.FileBackend"
	case *BadgerBackend:
		return "*store.BadgerBackend"
	case *SQLiteBackend:
		return "*store.SQLiteBackend"
	}
	return "unknown"
}
