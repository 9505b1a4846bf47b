package driven

import (
	port "github.com/alorle/iptv-guide/internal/port/driven"
)

// Compile-time check that PlaylistBoltDBStore implements PlaylistStore interface
var _ port.PlaylistStore = (*PlaylistBoltDBStore)(nil)

// Compile-time check that RemoteConfigYAML implements RemoteConfig interface
var _ port.RemoteConfig = (*RemoteConfigYAML)(nil)
