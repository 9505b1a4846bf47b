package cache

import (
	"fmt"
	"time"
)

// Options selects and configures a Storage backend
type Options struct {
	Backend    string // "file", "memory" or "redis"
	Dir        string
	MemorySize int
	RedisURL   string
	Retention  time.Duration // redis key lifetime, 0 keeps keys forever
}

// Open builds the Storage named by opts.Backend
func Open(opts Options) (Storage, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStorage(opts.Dir)
	case "memory":
		return NewMemoryStorage(opts.MemorySize)
	case "redis":
		return NewRedisStorage(opts.RedisURL, opts.Retention)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
