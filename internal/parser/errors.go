package parser

import (
	"errors"
	"fmt"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// Document-level parse failures. Entry-level problems never surface as
// errors; they are counted in Result.Skipped.
var (
	ErrUnrecognizedFormat = errors.New("unrecognized format")
	ErrMalformedDocument  = errors.New("malformed document")
	ErrNoParser           = errors.New("no parser registered for format")
)

// ParseError reports a document that could not be parsed at all.
// It matches ErrUnrecognizedFormat or ErrMalformedDocument with errors.Is,
// and the underlying cause when there is one.
type ParseError struct {
	Kind   error
	Format playlist.Format
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Format)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Format, e.Cause)
}

func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func malformed(f playlist.Format, cause error) error {
	return &ParseError{Kind: ErrMalformedDocument, Format: f, Cause: cause}
}

func malformedf(f playlist.Format, format string, args ...any) error {
	return malformed(f, fmt.Errorf(format, args...))
}

func unrecognized(cause error) error {
	return &ParseError{Kind: ErrUnrecognizedFormat, Format: playlist.FormatUnknown, Cause: cause}
}
