// Package parser turns playlist and program guide documents into the
// canonical playlist model. Each dialect has its own parser; Service selects
// one from a declared format or by sniffing the content.
package parser

import (
	"github.com/alorle/iptv-guide/internal/playlist"
)

// Result is the outcome of parsing a playlist document.
type Result struct {
	Playlist playlist.Playlist
	// Skipped counts entries dropped because they were individually malformed.
	Skipped int
}

// GuideResult is the outcome of parsing a program guide document.
type GuideResult struct {
	Programs []playlist.Program
	Skipped  int
}

// PlaylistParser parses one playlist dialect.
type PlaylistParser interface {
	// Parse converts content into a playlist. The playlist name is left
	// empty; callers supply it. Returns a *ParseError wrapping
	// ErrMalformedDocument when content is not a document of this dialect.
	Parse(content string) (Result, error)

	// SupportedFormat returns the dialect handled by this parser.
	SupportedFormat() playlist.Format
}

// GuideParser parses one program guide dialect.
type GuideParser interface {
	// ParsePrograms converts content into programs in document order.
	// Returns a *ParseError wrapping ErrMalformedDocument when content is
	// not a document of this dialect.
	ParsePrograms(content string) (GuideResult, error)

	// SupportedFormat returns the dialect handled by this parser.
	SupportedFormat() playlist.Format
}
