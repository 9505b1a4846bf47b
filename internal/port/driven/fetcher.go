package driven

import "context"

// Fetcher retrieves remote documents as text.
// This is a driven port implemented by the HTTP fetcher.
type Fetcher interface {
	// Fetch downloads url. Failures carry the network error kind and match
	// fetcher.ErrFetch.
	Fetch(ctx context.Context, url string) (string, error)
}
