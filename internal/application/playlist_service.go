package application

import (
	"context"
	"strings"

	"github.com/alorle/iptv-guide/internal/m3u"
	"github.com/alorle/iptv-guide/internal/playlist"
	"github.com/alorle/iptv-guide/internal/port/driven"
)

// PlaylistService provides use cases over stored playlists as a whole.
// It depends only on port interfaces.
type PlaylistService struct {
	store driven.PlaylistStore
}

// NewPlaylistService creates a new PlaylistService with the given store.
func NewPlaylistService(store driven.PlaylistStore) *PlaylistService {
	return &PlaylistService{
		store: store,
	}
}

// List returns a summary of every stored playlist.
func (p *PlaylistService) List(ctx context.Context) ([]playlist.Summary, error) {
	summaries, err := p.store.ListPlaylists(ctx)
	if err != nil {
		return nil, storeError("list playlists", err)
	}
	return summaries, nil
}

// Get returns a stored playlist.
func (p *PlaylistService) Get(ctx context.Context, id string) (playlist.Playlist, error) {
	pl, err := p.store.GetPlaylist(ctx, id)
	if err != nil {
		return playlist.Playlist{}, storeError("get playlist", err)
	}
	return pl, nil
}

// Delete removes a stored playlist.
func (p *PlaylistService) Delete(ctx context.Context, id string) error {
	if err := p.store.DeletePlaylist(ctx, id); err != nil {
		return storeError("delete playlist", err)
	}
	return nil
}

// GenerateM3U exports a stored playlist in the extended M3U dialect.
// Returns a playlist with only the #EXTM3U header if it has no channels.
func (p *PlaylistService) GenerateM3U(ctx context.Context, id string) (string, error) {
	pl, err := p.Get(ctx, id)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	if err := m3u.FromPlaylist(pl).Encode(&builder); err != nil {
		return "", err
	}
	return builder.String(), nil
}
