package application

import (
	"context"
	"errors"
	"time"

	"github.com/alorle/iptv-guide/internal/playlist"
)

type mockPlaylistStore struct {
	saveFunc           func(ctx context.Context, id string, p playlist.Playlist) error
	getFunc            func(ctx context.Context, id string) (playlist.Playlist, error)
	listFunc           func(ctx context.Context) ([]playlist.Summary, error)
	deleteFunc         func(ctx context.Context, id string) error
	channelsFunc       func(ctx context.Context, playlistID string) ([]playlist.ChannelWithProgramCount, error)
	currentFunc        func(ctx context.Context, playlistID, channelID string, at time.Time) (playlist.Program, bool, error)
	getSelectionFunc   func(ctx context.Context) (string, error)
	setSelectionFunc   func(ctx context.Context, id string) error
	clearSelectionFunc func(ctx context.Context) error
	pingFunc           func(ctx context.Context) error
}

func (m *mockPlaylistStore) SavePlaylist(ctx context.Context, id string, p playlist.Playlist) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, id, p)
	}
	return nil
}

func (m *mockPlaylistStore) GetPlaylist(ctx context.Context, id string) (playlist.Playlist, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return playlist.Playlist{}, playlist.ErrPlaylistNotFound
}

func (m *mockPlaylistStore) ListPlaylists(ctx context.Context) ([]playlist.Summary, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []playlist.Summary{}, nil
}

func (m *mockPlaylistStore) DeletePlaylist(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockPlaylistStore) ListChannelsWithProgramCounts(ctx context.Context, playlistID string) ([]playlist.ChannelWithProgramCount, error) {
	if m.channelsFunc != nil {
		return m.channelsFunc(ctx, playlistID)
	}
	return nil, playlist.ErrPlaylistNotFound
}

func (m *mockPlaylistStore) GetCurrentProgram(ctx context.Context, playlistID, channelID string, at time.Time) (playlist.Program, bool, error) {
	if m.currentFunc != nil {
		return m.currentFunc(ctx, playlistID, channelID, at)
	}
	return playlist.Program{}, false, playlist.ErrChannelNotFound
}

func (m *mockPlaylistStore) GetCurrentPlaylistID(ctx context.Context) (string, error) {
	if m.getSelectionFunc != nil {
		return m.getSelectionFunc(ctx)
	}
	return "", playlist.ErrNoSelection
}

func (m *mockPlaylistStore) SetCurrentPlaylistID(ctx context.Context, id string) error {
	if m.setSelectionFunc != nil {
		return m.setSelectionFunc(ctx, id)
	}
	return nil
}

func (m *mockPlaylistStore) ClearCurrentPlaylist(ctx context.Context) error {
	if m.clearSelectionFunc != nil {
		return m.clearSelectionFunc(ctx)
	}
	return nil
}

func (m *mockPlaylistStore) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// mockFetcher serves documents by URL and fails for unknown URLs
type mockFetcher struct {
	documents map[string]string
	fetchFunc func(ctx context.Context, url string) (string, error)
}

var errNotServed = errors.New("connection refused")

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	if content, ok := m.documents[url]; ok {
		return content, nil
	}
	return "", errNotServed
}

type mockRemoteConfig struct {
	values map[string]string
	err    error
}

func (m *mockRemoteConfig) GetString(ctx context.Context, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}
