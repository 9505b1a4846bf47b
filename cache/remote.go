package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alorle/iptv-guide/logging"
	"github.com/alorle/iptv-guide/metrics"
)

// Lookup outcomes reported by Remote
const (
	OutcomeHit   = "hit"   // fresh cached payload
	OutcomeMiss  = "miss"  // fetched and stored
	OutcomeStale = "stale" // fetch failed, previous payload served
	OutcomeEmpty = "empty" // fetch failed, nothing cached
)

// FetchFunc loads a remote resource
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Remote is a TTL cache for auxiliary resources whose unavailability must
// not fail the caller. Concurrent misses for one key share a single fetch.
type Remote[T any] struct {
	storage Storage
	ttl     time.Duration
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time
}

type remoteResult[T any] struct {
	value   T
	outcome string
}

// NewRemote creates a Remote cache persisting payloads as JSON in storage
func NewRemote[T any](storage Storage, ttl time.Duration, logger *slog.Logger) *Remote[T] {
	return &Remote[T]{
		storage: storage,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// TTL returns the freshness window
func (r *Remote[T]) TTL() time.Duration {
	return r.ttl
}

// Get returns the payload for key. A fresh cached payload is returned as is;
// otherwise fetch runs once for all concurrent callers. When fetching or
// decoding fails the previous payload is returned, or the zero value if
// there is none. The second return value is one of the Outcome constants.
func (r *Remote[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) (T, string) {
	storageKey := DeriveKeyFromResource(key)

	if value, entry, ok := r.load(ctx, storageKey); ok && entry.Fresh(r.now(), r.ttl) {
		metrics.RecordRemoteCacheLookup(key, OutcomeHit)
		return value, OutcomeHit
	}

	// The shared fetch must not die with whichever caller started it
	sharedCtx := context.WithoutCancel(ctx)
	v, _, _ := r.group.Do(storageKey, func() (any, error) {
		return r.refresh(sharedCtx, key, storageKey, fetch), nil
	})
	res := v.(remoteResult[T])

	metrics.RecordRemoteCacheLookup(key, res.outcome)
	return res.value, res.outcome
}

// refresh runs under the single-flight group
func (r *Remote[T]) refresh(ctx context.Context, key, storageKey string, fetch FetchFunc[T]) remoteResult[T] {
	previous, entry, hasPrevious := r.load(ctx, storageKey)
	// Another flight may have stored a fresh value since the caller checked
	if hasPrevious && entry.Fresh(r.now(), r.ttl) {
		return remoteResult[T]{value: previous, outcome: OutcomeHit}
	}

	value, err := fetch(ctx)
	if err == nil {
		var data []byte
		data, err = json.Marshal(value)
		if err == nil {
			if setErr := r.storage.Set(ctx, storageKey, NewEntry(data, r.now())); setErr != nil {
				r.logger.Warn("Failed to store remote resource", "resource", key, "error", setErr)
			}
			return remoteResult[T]{value: value, outcome: OutcomeMiss}
		}
	}

	logging.LogCacheFallback(r.logger, key, hasPrevious, err)
	if hasPrevious {
		return remoteResult[T]{value: previous, outcome: OutcomeStale}
	}
	var zero T
	return remoteResult[T]{value: zero, outcome: OutcomeEmpty}
}

// load reads and decodes the stored payload. Undecodable entries count as absent.
func (r *Remote[T]) load(ctx context.Context, storageKey string) (T, *Entry, bool) {
	var value T
	entry, err := r.storage.Get(ctx, storageKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.Warn("Failed to read remote resource cache", "key", storageKey, "error", err)
		}
		return value, nil, false
	}
	if err := json.Unmarshal(entry.Content, &value); err != nil {
		r.logger.Warn("Discarding undecodable cache entry", "key", storageKey, "error", err)
		var zero T
		return zero, nil, false
	}
	return value, entry, true
}
