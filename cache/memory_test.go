package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestNewMemoryStorage(t *testing.T) {
	if _, err := NewMemoryStorage(0); err == nil {
		t.Error("Expected error for zero size")
	}
	if _, err := NewMemoryStorage(16); err != nil {
		t.Errorf("NewMemoryStorage failed: %v", err)
	}
}

func TestMemoryStorage_SetAndGet(t *testing.T) {
	storage, err := NewMemoryStorage(16)
	if err != nil {
		t.Fatalf("NewMemoryStorage failed: %v", err)
	}
	ctx := context.Background()

	fetchedAt := time.Now().Add(-time.Minute)
	content := []byte("payload")
	if err := storage.Set(ctx, testKey, NewEntry(content, fetchedAt)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	content[0] = 'X'

	entry, err := storage.Get(ctx, testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(entry.Content) != "payload" {
		t.Errorf("Expected stored copy to be unaffected by caller mutation, got %q", entry.Content)
	}
	if !entry.Timestamp.Equal(fetchedAt) {
		t.Errorf("Expected timestamp %v, got %v", fetchedAt, entry.Timestamp)
	}

	if _, err := storage.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStorage_KeepsFetchTime(t *testing.T) {
	storage, err := NewMemoryStorage(16)
	if err != nil {
		t.Fatalf("NewMemoryStorage failed: %v", err)
	}
	ctx := context.Background()

	_ = storage.Set(ctx, "old", NewEntry([]byte("x"), time.Now().Add(-2*time.Hour)))
	_ = storage.Set(ctx, "new", NewEntry([]byte("x"), time.Now()))

	tests := []struct {
		key       string
		wantFresh bool
	}{
		{"old", false},
		{"new", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			entry, err := storage.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if fresh := entry.Fresh(time.Now(), time.Hour); fresh != tt.wantFresh {
				t.Errorf("Fresh(%q) = %v, want %v", tt.key, fresh, tt.wantFresh)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{"file", Options{Backend: "file", Dir: t.TempDir()}, "*cache.FileStorage", false},
		{"default is file", Options{Dir: t.TempDir()}, "*cache.FileStorage", false},
		{"memory", Options{Backend: "memory", MemorySize: 8}, "*cache.MemoryStorage", false},
		{"redis", Options{Backend: "redis", RedisURL: "redis://localhost:6379/0"}, "*cache.RedisStorage", false},
		{"bad redis url", Options{Backend: "redis", RedisURL: "http://nope"}, "", true},
		{"unknown", Options{Backend: "memcached"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := Open(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := typeName(storage); got != tt.want {
				t.Errorf("Open() returned %s, want %s", got, tt.want)
			}
		})
	}
}

// TestRedisStorage runs against a live server when CACHE_TEST_REDIS_URL is set
func TestRedisStorage(t *testing.T) {
	url := os.Getenv("CACHE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CACHE_TEST_REDIS_URL not set")
	}

	storage, err := NewRedisStorage(url, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStorage failed: %v", err)
	}
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	if err := storage.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	key := "test:" + time.Now().Format(time.RFC3339Nano)
	if _, err := storage.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound before Set, got %v", err)
	}
	if err := storage.Set(ctx, key, NewEntry([]byte("payload"), time.Now())); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	entry, err := storage.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(entry.Content) != "payload" {
		t.Errorf("Expected payload, got %q", entry.Content)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *FileStorage:
		return "*cache.FileStorage"
	case *MemoryStorage:
		return "*cache.MemoryStorage"
	case *RedisStorage:
		return "*cache.RedisStorage"
	default:
		return "unknown"
	}
}
