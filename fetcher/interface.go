package fetcher

import "context"

// Interface defines the contract for fetching remote playlist and guide documents
type Interface interface {
	// Fetch downloads url and returns its decoded text. On upstream failure a
	// previously cached copy is returned when one exists; otherwise the error
	// is an *Error matching ErrFetch.
	Fetch(ctx context.Context, url string) (string, error)
}
