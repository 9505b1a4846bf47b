package cache

import (
	"context"
)

// MockStorage is a mock implementation of the Storage interface for testing
type MockStorage struct {
	GetFunc func(ctx context.Context, key string) (*Entry, error)
	SetFunc func(ctx context.Context, key string, entry *Entry) error
}

// Get implements Storage.Get
func (m *MockStorage) Get(ctx context.Context, key string) (*Entry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, ErrNotFound
}

// Set implements Storage.Set
func (m *MockStorage) Set(ctx context.Context, key string, entry *Entry) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, entry)
	}
	return nil
}
