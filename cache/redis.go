package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "iptv-guide:"

// RedisStorage implements Storage on a shared Redis instance. Entries are
// kept for the retention period, which should be well above any TTL so stale
// fallbacks stay available.
type RedisStorage struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStorage parses a Redis URL (e.g. "redis://host:6379/0") and returns
// a storage backed by it. A zero retention keeps entries forever.
func NewRedisStorage(rawURL string, retention time.Duration) (*RedisStorage, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStorage{client: redis.NewClient(opts), retention: retention}, nil
}

// Get retrieves a cached entry by key
func (r *RedisStorage) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, nil
}

// Set stores an entry
func (r *RedisStorage) Set(ctx context.Context, key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.retention).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection to Redis
func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close shuts down the Redis client
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
