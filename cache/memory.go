package cache

import (
	"context"
	"fmt"

	"github.com/maypok86/otter/v2"
)

// MemoryStorage implements Storage with a size-bounded in-process cache.
// Entries are evicted by size only; TTL is judged from the entry timestamp.
type MemoryStorage struct {
	cache *otter.Cache[string, *Entry]
}

// NewMemoryStorage creates an in-memory storage holding at most maxEntries
func NewMemoryStorage(maxEntries int) (*MemoryStorage, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("memory cache size must be positive, got %d", maxEntries)
	}

	c, err := otter.New(&otter.Options[string, *Entry]{
		MaximumSize: maxEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &MemoryStorage{cache: c}, nil
}

// Get retrieves a cached entry by key
func (m *MemoryStorage) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := m.cache.GetIfPresent(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	// Copy so callers cannot mutate the cached slice
	return NewEntry(append([]byte(nil), entry.Content...), entry.Timestamp), nil
}

// Set stores an entry
func (m *MemoryStorage) Set(ctx context.Context, key string, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.cache.Set(key, NewEntry(append([]byte(nil), entry.Content...), entry.Timestamp))
	return nil
}
