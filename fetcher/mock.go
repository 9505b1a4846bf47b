package fetcher

import "context"

// MockFetcher is a mock implementation of the Fetcher interface for testing
type MockFetcher struct {
	FetchFunc func(ctx context.Context, url string) (string, error)
}

// Fetch implements Interface.Fetch
func (m *MockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}
	return "", nil
}
