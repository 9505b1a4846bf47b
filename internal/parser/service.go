package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alorle/iptv-guide/internal/playlist"
	"github.com/alorle/iptv-guide/logging"
	"github.com/alorle/iptv-guide/metrics"
)

// Service dispatches documents to the parser registered for their format.
type Service struct {
	playlists map[playlist.Format]PlaylistParser
	guides    map[playlist.Format]GuideParser
	logger    *slog.Logger
}

// NewService creates a Service with every built-in dialect registered.
func NewService(logger *slog.Logger) *Service {
	s := &Service{
		playlists: make(map[playlist.Format]PlaylistParser),
		guides:    make(map[playlist.Format]GuideParser),
		logger:    logger,
	}
	s.Register(NewM3UParser())
	s.Register(NewXMLParser())
	s.Register(NewJSONParser())
	s.Register(NewIPTVOrgParser())
	s.Register(NewXSPFParser())
	s.RegisterGuide(NewGuideXMLParser())
	s.RegisterGuide(NewGuideJSONParser())
	s.RegisterGuide(NewXMLTVParser())
	return s
}

// Register adds or replaces the playlist parser for its format.
func (s *Service) Register(p PlaylistParser) {
	s.playlists[p.SupportedFormat()] = p
}

// RegisterGuide adds or replaces the guide parser for its format.
func (s *Service) RegisterGuide(p GuideParser) {
	s.guides[p.SupportedFormat()] = p
}

// Parse parses content as a playlist. A declared format is binding: its
// parser's error is returned as-is without trying other dialects. With
// playlist.FormatUnknown the format is detected from the content. Guide
// dialects produce a playlist holding only programs.
func (s *Service) Parse(content string, declared playlist.Format) (Result, error) {
	format := declared
	if format == playlist.FormatUnknown {
		format = Detect(content)
		if format == playlist.FormatUnknown {
			metrics.RecordParseFailure(format.String(), "unrecognized")
			return Result{}, unrecognized(errors.New("content matches no known signature"))
		}
	}

	if format.IsEPG() {
		guide, err := s.parseGuide(content, format)
		if err != nil {
			return Result{}, err
		}
		pl := playlist.NewPlaylist("", nil, guide.Programs, nil).WithFormat(format)
		return Result{Playlist: pl, Skipped: guide.Skipped}, nil
	}

	p, ok := s.playlists[format]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNoParser, format)
	}

	started := time.Now()
	result, err := p.Parse(content)
	if err != nil {
		metrics.RecordParseFailure(format.String(), "malformed")
		return Result{}, err
	}
	s.observe(format, started, result.Skipped)
	return result, nil
}

// ParseGuide parses content as a program guide. A declared playlist dialect
// is rejected with ErrNoParser.
func (s *Service) ParseGuide(content string, declared playlist.Format) (GuideResult, error) {
	format := declared
	if format == playlist.FormatUnknown {
		format = DetectGuide(content)
		if format == playlist.FormatUnknown {
			metrics.RecordParseFailure(format.String(), "unrecognized")
			return GuideResult{}, unrecognized(errors.New("content matches no known guide signature"))
		}
	}
	return s.parseGuide(content, format)
}

func (s *Service) parseGuide(content string, format playlist.Format) (GuideResult, error) {
	p, ok := s.guides[format]
	if !ok {
		return GuideResult{}, fmt.Errorf("%w: %s", ErrNoParser, format)
	}

	started := time.Now()
	result, err := p.ParsePrograms(content)
	if err != nil {
		metrics.RecordParseFailure(format.String(), "malformed")
		return GuideResult{}, err
	}
	s.observe(format, started, result.Skipped)
	return result, nil
}

func (s *Service) observe(format playlist.Format, started time.Time, skipped int) {
	metrics.RecordParse(format.String(), time.Since(started), skipped)
	if skipped > 0 {
		logging.LogEntriesSkipped(s.logger, format.String(), skipped)
	}
}
