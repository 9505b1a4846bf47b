package playlist

import "errors"

// Domain errors for playlist entities.
var (
	// Channel validation errors
	ErrEmptyChannelID = errors.New("channel id cannot be empty")
	ErrEmptyURL       = errors.New("channel url cannot be empty")

	// Program validation errors
	ErrEmptyChannelRef  = errors.New("program channel reference cannot be empty")
	ErrInvalidTimeRange = errors.New("program start time must be before end time")

	// Group validation errors
	ErrEmptyGroupID = errors.New("group id cannot be empty")

	// Lookup errors
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrChannelNotFound  = errors.New("channel not found")
	ErrNoSelection      = errors.New("no current playlist selected")

	ErrUnknownFormat = errors.New("unknown format")
)
