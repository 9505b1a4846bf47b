package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/grafana/regexp"
	"github.com/panjf2000/ants/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/alorle/iptv-guide/internal/parser"
	"github.com/alorle/iptv-guide/internal/playlist"
	"github.com/alorle/iptv-guide/internal/port/driven"
	"github.com/alorle/iptv-guide/metrics"
)

var playlistIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// IngestRequest describes one playlist source. Exactly one of URL and
// Content must be set.
type IngestRequest struct {
	ID      string
	Name    string
	URL     string
	Content string
	Format  playlist.Format
	// EPGURL overrides the guide URL advertised by the playlist itself
	EPGURL string
}

// IngestResult summarizes a stored playlist.
type IngestResult struct {
	ID       string
	Format   playlist.Format
	Channels int
	Programs int
	Skipped  int
	EPGURL   string

	// MatchedChannels counts channels joined to at least one program
	MatchedChannels int
	// AiringNow counts channels with a program airing at ingestion time
	AiringNow       int

	// EPGError is set when the guide could not be attached. The playlist is
	// stored with its embedded programs only.
	EPGError string
}

// IngestOutcome pairs a source id with the result of ingesting it.
type IngestOutcome struct {
	ID     string
	Result IngestResult
	Err    error
}

// IngestOptions configures an IngestService.
type IngestOptions struct {
	Workers      int
	AutoFetchEPG bool
}

// IngestService runs the write path: fetch, parse, attach the guide and store.
// Ingestions for different ids run concurrently on a shared worker pool;
// ingestions for the same id wait for each other.
type IngestService struct {
	fetcher      driven.Fetcher
	parser       *parser.Service
	store        driven.PlaylistStore
	pool         *ants.Pool
	locks        *xsync.MapOf[string, chan struct{}]
	autoFetchEPG bool
	now          func() time.Time
	logger       *slog.Logger
}

// NewIngestService creates a new IngestService. Close releases its workers.
func NewIngestService(
	fetcher driven.Fetcher,
	parserService *parser.Service,
	store driven.PlaylistStore,
	opts IngestOptions,
	logger *slog.Logger,
) (*IngestService, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create ingest pool: %w", err)
	}

	return &IngestService{
		fetcher:      fetcher,
		parser:       parserService,
		store:        store,
		pool:         pool,
		locks:        xsync.NewMapOf[string, chan struct{}](),
		autoFetchEPG: opts.AutoFetchEPG,
		now:          time.Now,
		logger:       logger,
	}, nil
}

// Close releases the worker pool.
func (s *IngestService) Close() {
	s.pool.Release()
}

// Ingest fetches or takes the request content, parses it and replaces the
// playlist stored under the request id. A failure at any step leaves the
// previously stored playlist untouched.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	if err := validateIngestRequest(req); err != nil {
		metrics.RecordIngestion("invalid")
		return IngestResult{}, err
	}

	unlock, err := s.lock(ctx, req.ID)
	if err != nil {
		metrics.RecordIngestion("cancelled")
		return IngestResult{}, err
	}
	defer unlock()

	result, err := s.ingest(ctx, req)
	metrics.RecordIngestion(ingestionResult(err))
	if err != nil {
		s.logger.Warn("Ingestion failed", "playlist_id", req.ID, "error", err)
		return IngestResult{}, err
	}

	s.logger.Info("Playlist ingested",
		"playlist_id", req.ID,
		"format", result.Format.String(),
		"channels", result.Channels,
		"programs", result.Programs,
		"skipped", result.Skipped,
		"matched_channels", result.MatchedChannels,
		"airing_now", result.AiringNow,
	)
	return result, nil
}

// IngestAll ingests every request on the worker pool and waits for all of
// them. Outcomes are returned in request order.
func (s *IngestService) IngestAll(ctx context.Context, reqs []IngestRequest) []IngestOutcome {
	outcomes := make([]IngestOutcome, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			result, err := s.Ingest(ctx, req)
			outcomes[i] = IngestOutcome{ID: req.ID, Result: result, Err: err}
		})
		if err != nil {
			wg.Done()
			outcomes[i] = IngestOutcome{ID: req.ID, Err: fmt.Errorf("schedule ingestion: %w", err)}
		}
	}
	wg.Wait()

	return outcomes
}

func (s *IngestService) ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	content := req.Content
	if req.URL != "" {
		fetched, err := s.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			return IngestResult{}, fmt.Errorf("%w: playlist %s: %w", ErrFetchFailure, req.ID, err)
		}
		content = fetched
	}

	parsed, err := s.parser.Parse(content, req.Format)
	if err != nil {
		return IngestResult{}, fmt.Errorf("parse playlist %s: %w", req.ID, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.ID
	}
	pl := parsed.Playlist.WithName(name)
	result := IngestResult{ID: req.ID, Format: pl.Format(), Skipped: parsed.Skipped}

	epgURL := req.EPGURL
	if epgURL == "" && s.autoFetchEPG {
		epgURL = pl.EPGURL()
	}
	if epgURL != "" {
		programs, skipped, err := s.fetchGuide(ctx, epgURL)
		switch {
		case err != nil && ctx.Err() != nil:
			return IngestResult{}, ctx.Err()
		case err != nil:
			s.logger.Warn("Guide unavailable, keeping embedded programs",
				"playlist_id", req.ID,
				"epg_url", epgURL,
				"error", err,
			)
			result.EPGError = err.Error()
		default:
			pl = pl.WithPrograms(programs)
			result.Skipped += skipped
		}
		if req.EPGURL != "" {
			pl = pl.WithEPGURL(req.EPGURL)
		}
	}

	if err := s.store.SavePlaylist(ctx, req.ID, pl); err != nil {
		return IngestResult{}, fmt.Errorf("%w: save playlist %s: %w", ErrStoreFailure, req.ID, err)
	}

	result.Channels = len(pl.Channels())
	result.Programs = len(pl.Programs())
	result.EPGURL = pl.EPGURL()
	for _, v := range Reconcile(pl.Channels(), pl.Programs()) {
		if v.ProgramCount > 0 {
			result.MatchedChannels++
		}
	}
	result.AiringNow = len(CurrentlyAiring(pl.Channels(), pl.Programs(), s.now()))
	return result, nil
}

func (s *IngestService) fetchGuide(ctx context.Context, epgURL string) ([]playlist.Program, int, error) {
	content, err := s.fetcher.Fetch(ctx, epgURL)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: guide: %w", ErrFetchFailure, err)
	}
	guide, err := s.parser.ParseGuide(content, playlist.FormatUnknown)
	if err != nil {
		return nil, 0, fmt.Errorf("parse guide: %w", err)
	}
	return guide.Programs, guide.Skipped, nil
}

// lock waits for exclusive use of id or for ctx to end
func (s *IngestService) lock(ctx context.Context, id string) (func(), error) {
	sem, _ := s.locks.LoadOrCompute(id, func() chan struct{} {
		return make(chan struct{}, 1)
	})
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func validateIngestRequest(req IngestRequest) error {
	if !playlistIDRegex.MatchString(req.ID) {
		return fmt.Errorf("%w: playlist id %q must be 1-128 letters, digits, '.', '_' or '-'", ErrInvalidRequest, req.ID)
	}
	hasURL, hasContent := req.URL != "", req.Content != ""
	if hasURL == hasContent {
		return fmt.Errorf("%w: exactly one of url and content is required", ErrInvalidRequest)
	}
	if hasURL && !playlist.IsWellFormedURL(req.URL) {
		return fmt.Errorf("%w: malformed url %q", ErrInvalidRequest, req.URL)
	}
	if req.EPGURL != "" && !playlist.IsWellFormedURL(req.EPGURL) {
		return fmt.Errorf("%w: malformed epg url %q", ErrInvalidRequest, req.EPGURL)
	}
	return nil
}

func ingestionResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrFetchFailure):
		return "fetch_error"
	case errors.Is(err, ErrStoreFailure):
		return "store_error"
	case errors.Is(err, parser.ErrUnrecognizedFormat),
		errors.Is(err, parser.ErrMalformedDocument),
		errors.Is(err, parser.ErrNoParser):
		return "parse_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
