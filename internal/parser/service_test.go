package parser_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/alorle/iptv-guide/internal/parser"
	"github.com/alorle/iptv-guide/internal/playlist"
	"github.com/alorle/iptv-guide/logging"
)

// mockPlaylistParser is a func-field PlaylistParser for dispatch tests.
type mockPlaylistParser struct {
	format    playlist.Format
	parseFunc func(content string) (parser.Result, error)
}

func (m *mockPlaylistParser) Parse(content string) (parser.Result, error) {
	return m.parseFunc(content)
}

func (m *mockPlaylistParser) SupportedFormat() playlist.Format {
	return m.format
}

func TestService_Parse_Detected(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantFormat playlist.Format
		wantCount  int
	}{
		{"m3u", "#EXTM3U\n#EXTINF:-1,A\nhttp://a\n", playlist.FormatM3U, 1},
		{"catalog", `[{"channel":"BBC","feed":"UK","url":"http://x/live.m3u8","referrer":"http://ref"}]`, playlist.FormatIPTVOrg, 1},
		{"json", `{"channels":[{"name":"A","url":"http://a"},{"name":"B","url":"http://b"}]}`, playlist.FormatJSON, 2},
		{"xml", `<channels><channel id="a"><url>http://a</url></channel></channels>`, playlist.FormatXML, 1},
		{"xspf", xspfSample, playlist.FormatXSPF, 2},
	}

	svc := parser.NewService(logging.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Parse(tt.content, playlist.FormatUnknown)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if result.Playlist.Format() != tt.wantFormat {
				t.Errorf("Format() = %v, want %v", result.Playlist.Format(), tt.wantFormat)
			}
			if n := len(result.Playlist.Channels()); n != tt.wantCount {
				t.Errorf("len(Channels()) = %d, want %d", n, tt.wantCount)
			}
		})
	}
}

func TestService_Parse_GuideContentYieldsProgramsOnly(t *testing.T) {
	svc := parser.NewService(logging.Discard())

	result, err := svc.Parse(xmltvSample, playlist.FormatUnknown)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Playlist.Format() != playlist.FormatXMLTV {
		t.Errorf("Format() = %v, want xmltv", result.Playlist.Format())
	}
	if len(result.Playlist.Channels()) != 0 || len(result.Playlist.Programs()) != 2 {
		t.Errorf("got %d channels and %d programs, want 0 and 2",
			len(result.Playlist.Channels()), len(result.Playlist.Programs()))
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", result.Skipped)
	}
}

func TestService_Parse_UnrecognizedFormat(t *testing.T) {
	svc := parser.NewService(logging.Discard())

	for _, content := range []string{"", "hello world", "http://stream/only"} {
		t.Run(content, func(t *testing.T) {
			_, err := svc.Parse(content, playlist.FormatUnknown)
			if !errors.Is(err, parser.ErrUnrecognizedFormat) {
				t.Fatalf("error = %v, want ErrUnrecognizedFormat", err)
			}
			var perr *parser.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("error should be a *ParseError, got %T", err)
			}
		})
	}
}

func TestService_Parse_DeclaredFormatIsBinding(t *testing.T) {
	m3u := "#EXTM3U\n#EXTINF:-1,A\nhttp://a\n"
	catalog := `[{"channel":"BBC","url":"http://x"}]`
	named := `[{"name":"BBC","url":"http://x"}]`
	guide := `[{"channel":"bbc1","start":"2025-07-28T12:00:00Z","end":"2025-07-28T13:00:00Z"}]`

	tests := []struct {
		name     string
		content  string
		declared playlist.Format
	}{
		{"m3u declared as json", m3u, playlist.FormatJSON},
		{"m3u declared as catalog", m3u, playlist.FormatIPTVOrg},
		{"m3u declared as xml", m3u, playlist.FormatXML},
		{"catalog declared as m3u", catalog, playlist.FormatM3U},
		{"catalog declared as xspf", catalog, playlist.FormatXSPF},
		{"xmltv declared as xml", xmltvSample, playlist.FormatXML},
		{"xspf declared as xml", xspfSample, playlist.FormatXML},
		{"m3u declared as xmltv", m3u, playlist.FormatXMLTV},
		{"xml declared as guide json", `<guide/>`, playlist.FormatEPGJSON},
		{"playlist object declared as guide json", `{"channels":[{"name":"A","url":"http://a"}]}`, playlist.FormatEPGJSON},
		{"object without programs declared as guide json", `{"name":"A"}`, playlist.FormatEPGJSON},
		{"catalog declared as guide json", catalog, playlist.FormatEPGJSON},
		{"named array declared as guide json", named, playlist.FormatEPGJSON},
		{"catalog declared as json", catalog, playlist.FormatJSON},
		{"guide array declared as json", guide, playlist.FormatJSON},
		{"named array declared as catalog", named, playlist.FormatIPTVOrg},
		{"guide array declared as catalog", guide, playlist.FormatIPTVOrg},
	}

	svc := parser.NewService(logging.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Parse(tt.content, tt.declared)
			if !errors.Is(err, parser.ErrMalformedDocument) {
				t.Fatalf("error = %v, want ErrMalformedDocument", err)
			}
			var perr *parser.ParseError
			if errors.As(err, &perr) && perr.Format != tt.declared {
				t.Errorf("ParseError.Format = %v, want %v", perr.Format, tt.declared)
			}
		})
	}
}

func TestService_Register(t *testing.T) {
	svc := parser.NewService(logging.Discard())

	var called string
	svc.Register(&mockPlaylistParser{
		format: playlist.FormatM3U,
		parseFunc: func(content string) (parser.Result, error) {
			called = content
			return parser.Result{Playlist: playlist.NewPlaylist("", nil, nil, nil)}, nil
		},
	})

	if _, err := svc.Parse("#EXTM3U\n", playlist.FormatUnknown); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if called != "#EXTM3U\n" {
		t.Errorf("registered parser not used, got %q", called)
	}
}

func TestService_Parse_ParserErrorSurfacesUnchanged(t *testing.T) {
	svc := parser.NewService(logging.Discard())
	want := errors.New("boom")
	svc.Register(&mockPlaylistParser{
		format:    playlist.FormatJSON,
		parseFunc: func(string) (parser.Result, error) { return parser.Result{}, want },
	})

	_, err := svc.Parse(`{}`, playlist.FormatJSON)
	if !errors.Is(err, want) {
		t.Errorf("error = %v, want %v", err, want)
	}
}

func TestService_Parse_LogsSkippedEntries(t *testing.T) {
	buf := &bytes.Buffer{}
	svc := parser.NewService(logging.New(slog.LevelDebug, buf))

	result, err := svc.Parse("#EXTM3U\n#EXTINF garbage\nhttp://a\n", playlist.FormatM3U)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if !strings.Contains(buf.String(), string(logging.EventEntriesSkipped)) {
		t.Errorf("expected skipped-entry log, got %q", buf.String())
	}
}

func TestService_ParseGuide(t *testing.T) {
	svc := parser.NewService(logging.Discard())

	t.Run("detected xmltv", func(t *testing.T) {
		result, err := svc.ParseGuide(xmltvSample, playlist.FormatUnknown)
		if err != nil {
			t.Fatalf("ParseGuide() error = %v", err)
		}
		if len(result.Programs) != 2 {
			t.Errorf("len(Programs) = %d, want 2", len(result.Programs))
		}
	})

	t.Run("playlist dialect declared", func(t *testing.T) {
		_, err := svc.ParseGuide("#EXTM3U\n", playlist.FormatM3U)
		if !errors.Is(err, parser.ErrNoParser) {
			t.Errorf("error = %v, want ErrNoParser", err)
		}
	})

	t.Run("undetectable", func(t *testing.T) {
		_, err := svc.ParseGuide("#EXTM3U\n", playlist.FormatUnknown)
		if !errors.Is(err, parser.ErrUnrecognizedFormat) {
			t.Errorf("error = %v, want ErrUnrecognizedFormat", err)
		}
	})
}
