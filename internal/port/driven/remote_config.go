package driven

import "context"

// RemoteConfig resolves keys to values published by an operator, such as the
// URLs of auxiliary resource lists.
type RemoteConfig interface {
	// GetString returns the value for key and whether it is set.
	GetString(ctx context.Context, key string) (string, bool, error)
}
