package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alorle/iptv-guide/internal/playlist"
	"github.com/alorle/iptv-guide/internal/port/driven"
)

// GuideService serves the read side of stored playlists: channel listings
// with program counts, the program airing now and the current selection.
type GuideService struct {
	store driven.PlaylistStore
	now   func() time.Time
}

// NewGuideService creates a new GuideService.
func NewGuideService(store driven.PlaylistStore) *GuideService {
	return &GuideService{store: store, now: time.Now}
}

// Channels lists the channels of a playlist with their program counts.
func (s *GuideService) Channels(ctx context.Context, playlistID string) ([]playlist.ChannelWithProgramCount, error) {
	views, err := s.store.ListChannelsWithProgramCounts(ctx, playlistID)
	if err != nil {
		return nil, storeError("list channels", err)
	}
	return views, nil
}

// NowPlaying returns the program airing on a channel at the given instant,
// or at the current time when at is zero. ok is false when nothing airs.
func (s *GuideService) NowPlaying(ctx context.Context, playlistID, channelID string, at time.Time) (playlist.Program, bool, error) {
	if at.IsZero() {
		at = s.now()
	}
	p, ok, err := s.store.GetCurrentProgram(ctx, playlistID, channelID, at)
	if err != nil {
		return playlist.Program{}, false, storeError("current program", err)
	}
	return p, ok, nil
}

// CurrentPlaylist returns the selected playlist id.
func (s *GuideService) CurrentPlaylist(ctx context.Context) (string, error) {
	id, err := s.store.GetCurrentPlaylistID(ctx)
	if err != nil {
		return "", storeError("get selection", err)
	}
	return id, nil
}

// Select makes id the current playlist.
func (s *GuideService) Select(ctx context.Context, id string) error {
	if err := s.store.SetCurrentPlaylistID(ctx, id); err != nil {
		return storeError("set selection", err)
	}
	return nil
}

// ClearSelection removes the current playlist selection.
func (s *GuideService) ClearSelection(ctx context.Context) error {
	if err := s.store.ClearCurrentPlaylist(ctx); err != nil {
		return storeError("clear selection", err)
	}
	return nil
}

// storeError passes lookup misses through and wraps everything else as a
// store failure
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, playlist.ErrPlaylistNotFound),
		errors.Is(err, playlist.ErrChannelNotFound),
		errors.Is(err, playlist.ErrNoSelection):
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}
