package driven

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// RemoteConfigYAML implements the RemoteConfig port on top of a flat YAML
// mapping of keys to strings. The file is re-read whenever its modification
// time changes, so operators can publish new values without a restart.
type RemoteConfigYAML struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	values  map[string]string
}

// NewRemoteConfigYAML creates a remote config backed by the file at path.
// A missing file is treated as an empty mapping.
func NewRemoteConfigYAML(path string) *RemoteConfigYAML {
	return &RemoteConfigYAML{path: path}
}

// GetString returns the value published for key.
func (r *RemoteConfigYAML) GetString(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reload(); err != nil {
		return "", false, err
	}

	v, ok := r.values[key]
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (r *RemoteConfigYAML) reload() error {
	if r.path == "" {
		return nil
	}

	info, err := os.Stat(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.values = nil
		r.modTime = time.Time{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat remote config: %w", err)
	}
	if r.values != nil && info.ModTime().Equal(r.modTime) {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read remote config: %w", err)
	}

	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse remote config: %w", err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			values[k] = val
		default:
			values[k] = fmt.Sprint(val)
		}
	}

	r.values = values
	r.modTime = info.ModTime()
	return nil
}
