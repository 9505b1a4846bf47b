package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Storage.Get when no entry exists for a key
var ErrNotFound = errors.New("cache entry not found")

// Storage defines the interface for cache operations. Implementations keep
// entries past their TTL so callers can fall back to stale content.
type Storage interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
}

// Entry represents a cached item with its metadata
type Entry struct {
	Content   []byte    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry stamps content with the given fetch time
func NewEntry(content []byte, fetchedAt time.Time) *Entry {
	return &Entry{Content: content, Timestamp: fetchedAt}
}

// Fresh reports whether the entry is younger than ttl at now.
// An entry is fresh iff now - fetchedAt < ttl.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.Timestamp) < ttl
}

// DeriveKeyFromURL creates a cache key for a fetched URL
func DeriveKeyFromURL(url string) string {
	return "url:" + url
}

// DeriveKeyFromResource creates a cache key for a named remote resource
func DeriveKeyFromResource(name string) string {
	return "resource:" + name
}
