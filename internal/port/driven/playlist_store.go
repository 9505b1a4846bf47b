package driven

import (
	"context"
	"time"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// PlaylistStore defines the interface for playlist persistence operations.
// This is a driven port implemented by concrete adapters (e.g., BoltDB).
type PlaylistStore interface {
	// SavePlaylist stores p under id, replacing any channels and programs
	// previously stored for that id. The replacement is atomic: readers see
	// either the old or the new playlist, never a mix.
	SavePlaylist(ctx context.Context, id string, p playlist.Playlist) error

	// GetPlaylist retrieves a stored playlist. Returns playlist.ErrPlaylistNotFound
	// if no playlist is stored under id.
	GetPlaylist(ctx context.Context, id string) (playlist.Playlist, error)

	// ListPlaylists returns a summary of every stored playlist ordered by id.
	ListPlaylists(ctx context.Context) ([]playlist.Summary, error)

	// DeletePlaylist removes a playlist. Returns playlist.ErrPlaylistNotFound
	// if it does not exist. Clears the current selection when it pointed at id.
	DeletePlaylist(ctx context.Context, id string) error

	// ListChannelsWithProgramCounts returns the playlist's channels in source
	// order, each paired with the number of programs joined to it.
	ListChannelsWithProgramCounts(ctx context.Context, playlistID string) ([]playlist.ChannelWithProgramCount, error)

	// GetCurrentProgram returns the program airing on a channel at the given
	// instant. ok is false when nothing is airing, including on channels
	// without programs. Unknown playlists and channels are errors.
	GetCurrentProgram(ctx context.Context, playlistID, channelID string, at time.Time) (p playlist.Program, ok bool, err error)

	// GetCurrentPlaylistID returns the selected playlist id.
	// Returns playlist.ErrNoSelection when nothing is selected.
	GetCurrentPlaylistID(ctx context.Context) (string, error)

	// SetCurrentPlaylistID selects a stored playlist. Returns
	// playlist.ErrPlaylistNotFound if id is not stored.
	SetCurrentPlaylistID(ctx context.Context, id string) error

	// ClearCurrentPlaylist removes the selection. Clearing an empty
	// selection is not an error.
	ClearCurrentPlaylist(ctx context.Context) error

	// Ping checks if the store (database) is accessible and operational.
	Ping(ctx context.Context) error
}
