package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/alorle/iptv-guide/circuitbreaker"
)

// ErrFetch matches every *Error
var ErrFetch = errors.New("fetch failed")

// Error kinds, also used as the fetch error metric label
const (
	KindTimeout     = "timeout"
	KindNetwork     = "network"
	KindStatus      = "status"
	KindTooLarge    = "body_too_large"
	KindDecode      = "decode"
	KindCircuitOpen = "circuit_open"
	KindRequest     = "request"
)

// Error describes a failed fetch
type Error struct {
	URL        string
	Kind       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s %d: %v", e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrFetch as a match so callers need not know the concrete type
func (e *Error) Is(target error) bool { return target == ErrFetch }

// retryable reports whether another attempt could succeed
func (e *Error) retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindStatus:
		return e.StatusCode >= 500 || e.StatusCode == 429
	default:
		return false
	}
}

// upstreamFault reports whether err says the upstream host is unhealthy.
// Caller cancellation, client-side status codes and bodies that are too large
// or undecodable do not trip the host's breaker.
func upstreamFault(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return classify("", err).retryable()
}

// classify wraps a transport or breaker error into an *Error
func classify(url string, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	kind := KindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrHalfOpenLimitReached):
		kind = KindCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &Error{URL: url, Kind: kind, Err: err}
}
