package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"go.uber.org/ratelimit"

	"github.com/alorle/iptv-guide/cache"
	"github.com/alorle/iptv-guide/circuitbreaker"
	"github.com/alorle/iptv-guide/logging"
	"github.com/alorle/iptv-guide/metrics"
)

// RetryPolicy controls retries of transient failures
type RetryPolicy struct {
	Attempts       int           // extra attempts after the first
	InitialBackoff time.Duration // delay before the first retry, doubled each time
	MaxBackoff     time.Duration
}

// Options configures a Fetcher
type Options struct {
	Timeout     time.Duration
	RateLimit   int // requests per second across all hosts
	MaxBodySize int // bytes, applied before and after decompression
	UserAgent   string
	Retry       RetryPolicy
	Breaker     circuitbreaker.Config
}

// Fetcher downloads playlist and guide documents with rate limiting, per-host
// circuit breaking, retries and stale cache fallback
type Fetcher struct {
	client   *http.Client
	storage  cache.Storage
	limiter  ratelimit.Limiter
	breakers *circuitbreaker.Group
	opts     Options
	logger   *slog.Logger
}

// New creates a Fetcher. storage may be nil to disable the stale fallback.
func New(opts Options, storage cache.Storage, logger *slog.Logger) *Fetcher {
	limiter := ratelimit.NewUnlimited()
	if opts.RateLimit > 0 {
		limiter = ratelimit.New(opts.RateLimit)
	}
	if opts.Breaker.Logger == nil {
		opts.Breaker.Logger = logger
	}
	if opts.Breaker.IsFailure == nil {
		opts.Breaker.IsFailure = upstreamFault
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		storage:  storage,
		limiter:  limiter,
		breakers: circuitbreaker.NewGroup(opts.Breaker),
		opts:     opts,
		logger:   logger,
	}
}

// Fetch downloads rawURL and returns its decoded content. When every attempt
// fails, the last successfully fetched copy is served if one is cached.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		metrics.RecordFetchError(KindRequest)
		return "", &Error{URL: rawURL, Kind: KindRequest, Err: fmt.Errorf("invalid URL")}
	}

	cacheKey := cache.DeriveKeyFromURL(rawURL)
	f.logger.Debug("Fetching", "url", rawURL)

	content, fetchErr := f.fetchWithRetry(ctx, u.Host, rawURL)
	if fetchErr == nil {
		if f.storage != nil {
			if setErr := f.storage.Set(ctx, cacheKey, cache.NewEntry(content, time.Now())); setErr != nil {
				f.logger.Warn("Failed to update fetch cache", "url", rawURL, "error", setErr)
			}
		}
		return string(content), nil
	}

	metrics.RecordFetchError(fetchErr.Kind)
	f.logger.Warn("Fetch failed", "url", rawURL, "kind", fetchErr.Kind, "error", fetchErr.Err)

	if f.storage == nil || ctx.Err() != nil {
		return "", fetchErr
	}

	// Serve the last good copy, however old
	entry, cacheErr := f.storage.Get(ctx, cacheKey)
	if cacheErr != nil {
		if !errors.Is(cacheErr, cache.ErrNotFound) {
			f.logger.Warn("Fetch cache unavailable", "url", rawURL, "error", cacheErr)
		}
		return "", fetchErr
	}

	logging.LogCacheFallback(f.logger, rawURL, true, fetchErr)
	return string(entry.Content), nil
}

// BreakerStates reports the circuit breaker state of every host fetched so far
func (f *Fetcher) BreakerStates() map[string]string {
	states := f.breakers.States()
	out := make(map[string]string, len(states))
	for host, s := range states {
		out[host] = s.String()
	}
	return out
}

// fetchWithRetry runs fetchOnce through the host's breaker, backing off
// between transient failures
func (f *Fetcher) fetchWithRetry(ctx context.Context, host, rawURL string) ([]byte, *Error) {
	breaker := f.breakers.Get(host)
	backoff := f.opts.Retry.InitialBackoff

	var lastErr *Error
	for attempt := 0; attempt <= f.opts.Retry.Attempts; attempt++ {
		if attempt > 0 {
			f.logger.Debug("Retrying fetch", "url", rawURL, "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, classify(rawURL, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
			if f.opts.Retry.MaxBackoff > 0 && backoff > f.opts.Retry.MaxBackoff {
				backoff = f.opts.Retry.MaxBackoff
			}
		}

		var body []byte
		err := breaker.Execute(func() error {
			var fetchErr error
			body, fetchErr = f.fetchOnce(ctx, rawURL)
			return fetchErr
		})
		if err == nil {
			return body, nil
		}

		lastErr = classify(rawURL, err)
		if ctx.Err() != nil || !lastErr.retryable() {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// fetchOnce performs a single HTTP GET and decodes the body
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: KindRequest, Err: err}
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	f.limiter.Take()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(rawURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Debug("Failed to close response body", "url", rawURL, "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: rawURL, Kind: KindStatus, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	raw, err := readLimited(resp.Body, f.opts.MaxBodySize)
	if err != nil {
		return nil, wrapRead(rawURL, err)
	}

	content, err := decompress(raw, f.opts.MaxBodySize)
	if err != nil {
		return nil, wrapRead(rawURL, err)
	}
	return content, nil
}

var errTooLarge = errors.New("body exceeds size limit")

// readLimited reads r fully, failing if it holds more than limit bytes.
// A non-positive limit disables the check.
func readLimited(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, errTooLarge
	}
	return data, nil
}

// decompress inflates gzip and xz payloads detected by magic bytes; other
// content is returned unchanged
func decompress(data []byte, limit int) ([]byte, error) {
	br := bufio.NewReader(bytes.NewReader(data))
	header, _ := br.Peek(6)

	var r io.Reader
	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, &decodeError{format: "gzip", err: err}
		}
		defer func() { _ = gzr.Close() }()
		r = gzr
	case len(header) >= 6 && header[0] == 0xfd && header[1] == '7' && header[2] == 'z' && header[3] == 'X' && header[4] == 'Z' && header[5] == 0x00:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, &decodeError{format: "xz", err: err}
		}
		r = xzr
	default:
		return data, nil
	}

	out, err := readLimited(r, limit)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, err
		}
		return nil, &decodeError{format: "compressed", err: err}
	}
	return out, nil
}

type decodeError struct {
	format string
	err    error
}

func (e *decodeError) Error() string { return fmt.Sprintf("decode %s body: %v", e.format, e.err) }
func (e *decodeError) Unwrap() error { return e.err }

// wrapRead maps body read failures onto fetch error kinds
func wrapRead(rawURL string, err error) *Error {
	var de *decodeError
	switch {
	case errors.Is(err, errTooLarge):
		return &Error{URL: rawURL, Kind: KindTooLarge, Err: err}
	case errors.As(err, &de):
		return &Error{URL: rawURL, Kind: KindDecode, Err: err}
	default:
		return classify(rawURL, err)
	}
}
