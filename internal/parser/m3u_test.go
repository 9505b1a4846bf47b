package parser_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alorle/iptv-guide/internal/parser"
	"github.com/alorle/iptv-guide/internal/playlist"
)

func TestM3UParser_Parse(t *testing.T) {
	content := strings.Join([]string{
		`#EXTM3U url-tvg="http://epg.example/guide.xml,http://epg.example/backup.xml"`,
		`#PLAYLIST:My TV`,
		`#EXTINF:-1 tvg-id="bbc1.uk" tvg-name="BBC One" tvg-logo="http://logo/bbc1.png" group-title="UK News" tvg-shift="1",BBC One HD`,
		`#EXTVLCOPT:http-referrer=http://ref`,
		`#EXTVLCOPT:http-user-agent=VLC/3.0`,
		`http://stream/bbc1`,
		`http://stream/plain`,
	}, "\n")

	result, err := parser.NewM3UParser().Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	pl := result.Playlist
	if pl.Format() != playlist.FormatM3U {
		t.Errorf("Format() = %v, want m3u", pl.Format())
	}
	if pl.EPGURL() != "http://epg.example/guide.xml" {
		t.Errorf("EPGURL() = %q", pl.EPGURL())
	}
	if pl.Title() != "My TV" {
		t.Errorf("Title() = %q, want My TV", pl.Title())
	}
	if pl.Name() != "" {
		t.Errorf("Name() = %q, want empty (names are caller supplied)", pl.Name())
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}

	channels := pl.Channels()
	if len(channels) != 2 {
		t.Fatalf("len(Channels()) = %d, want 2", len(channels))
	}

	first := channels[0]
	if first.ID() != "bbc1.uk" {
		t.Errorf("ID() = %q, want bbc1.uk", first.ID())
	}
	if first.Name() != "BBC One" {
		t.Errorf("Name() = %q, want BBC One", first.Name())
	}
	if first.URL() != "http://stream/bbc1" {
		t.Errorf("URL() = %q", first.URL())
	}
	if first.LogoURL() != "http://logo/bbc1.png" {
		t.Errorf("LogoURL() = %q", first.LogoURL())
	}
	if first.GroupID() != "uk_news" || first.GroupTitle() != "UK News" {
		t.Errorf("group = (%q, %q), want (uk_news, UK News)", first.GroupID(), first.GroupTitle())
	}
	if first.EPGID() != "bbc1.uk" {
		t.Errorf("EPGID() = %q, want bbc1.uk", first.EPGID())
	}
	attrs := first.Attributes()
	if v, _ := attrs.Get(playlist.AttrReferer); v != "http://ref" {
		t.Errorf("Referer = %q, want http://ref", v)
	}
	if v, _ := attrs.Get(playlist.AttrUserAgent); v != "VLC/3.0" {
		t.Errorf("User-Agent = %q, want VLC/3.0", v)
	}
	if v, _ := attrs.Get("tvg-shift"); v != "1" {
		t.Errorf("tvg-shift = %q, want 1", v)
	}

	second := channels[1]
	if second.ID() != parser.SynthesizeID("", "http://stream/plain") {
		t.Errorf("ID() = %q, want synthesized id", second.ID())
	}
	if second.Name() != "" || second.GroupID() != "" || second.EPGID() != "" || second.Attributes().Len() != 0 {
		t.Errorf("second channel should carry only url and id, got %+v", second)
	}

	groups := pl.Groups()
	if len(groups) != 1 || groups[0].ID() != "uk_news" || groups[0].Title() != "UK News" {
		t.Errorf("Groups() = %+v, want [uk_news]", groups)
	}
}

func TestM3UParser_TitleFallback(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1 tvg-id=\"x\",Display, With Comma\nhttp://s/x\n"

	result, err := parser.NewM3UParser().Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := result.Playlist.Channels()[0].Name(); got != "With Comma" {
		t.Errorf("Name() = %q, want text after the last comma", got)
	}
}

func TestM3UParser_RepeatedKeyLastWins(t *testing.T) {
	content := strings.Join([]string{
		`#EXTM3U`,
		`#EXTINF:-1 group-title="First",Channel`,
		`#EXTGRP:Second`,
		`#EXTINF:-1 group-title="Third",Channel`,
		`http://s/1`,
	}, "\n")

	result, err := parser.NewM3UParser().Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := result.Playlist.Channels()[0].GroupTitle(); got != "Third" {
		t.Errorf("GroupTitle() = %q, want Third", got)
	}
}

func TestM3UParser_EveryURLLineYieldsOneChannel(t *testing.T) {
	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d urls", n), func(t *testing.T) {
			var b strings.Builder
			b.WriteString("#EXTM3U\n")
			for i := 0; i < n; i++ {
				if i%2 == 0 {
					fmt.Fprintf(&b, "#EXTINF:-1 tvg-id=\"ch%d\",Channel %d\n", i, i)
				}
				fmt.Fprintf(&b, "http://stream/%d\n", i)
			}

			result, err := parser.NewM3UParser().Parse(b.String())
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			channels := result.Playlist.Channels()
			if len(channels) != n {
				t.Fatalf("len(Channels()) = %d, want %d", len(channels), n)
			}
			for i, ch := range channels {
				if ch.URL() != fmt.Sprintf("http://stream/%d", i) {
					t.Errorf("channel %d URL() = %q", i, ch.URL())
				}
				wantName := ""
				if i%2 == 0 {
					wantName = fmt.Sprintf("Channel %d", i)
				}
				if ch.Name() != wantName {
					t.Errorf("channel %d Name() = %q, want %q", i, ch.Name(), wantName)
				}
			}
		})
	}
}

func TestM3UParser_DirectiveThenTwoURLs(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1 tvg-id=\"news\" group-title=\"News\",News 24\nhttp://s/a\nhttp://s/b\n"

	result, err := parser.NewM3UParser().Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	channels := result.Playlist.Channels()
	if len(channels) != 2 {
		t.Fatalf("len(Channels()) = %d, want 2", len(channels))
	}
	if channels[0].ID() != "news" || channels[0].Name() != "News 24" || channels[0].GroupTitle() != "News" {
		t.Errorf("first channel = (%q, %q, %q)", channels[0].ID(), channels[0].Name(), channels[0].GroupTitle())
	}
	if channels[1].ID() != parser.SynthesizeID("", "http://s/b") {
		t.Errorf("second ID() = %q, want synthesized", channels[1].ID())
	}
	if channels[1].Name() != "" || channels[1].GroupTitle() != "" {
		t.Errorf("second channel inherited metadata: (%q, %q)", channels[1].Name(), channels[1].GroupTitle())
	}
}

func TestM3UParser_EntryLevelMalformation(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantCount   int
		wantSkipped int
	}{
		{
			name:        "unbalanced quotes still capture url",
			content:     "#EXTM3U\n#EXTINF:-1 tvg-id=\"broken,Name\nhttp://s/1\n",
			wantCount:   1,
			wantSkipped: 1,
		},
		{
			name:        "unparseable directive still captures url",
			content:     "#EXTM3U\n#EXTINF garbage\nhttp://s/1\nhttp://s/2\n",
			wantCount:   2,
			wantSkipped: 1,
		},
		{
			name:        "trailing directive without url",
			content:     "#EXTM3U\nhttp://s/1\n#EXTINF:-1,Dangling\n",
			wantCount:   1,
			wantSkipped: 1,
		},
		{
			name:        "vlcopt without value",
			content:     "#EXTM3U\n#EXTVLCOPT:novalue\nhttp://s/1\n",
			wantCount:   1,
			wantSkipped: 1,
		},
		{
			name:        "unknown directives ignored",
			content:     "#EXTM3U\n#EXT-X-SESSION-DATA:foo\n# a comment\nhttp://s/1\n",
			wantCount:   1,
			wantSkipped: 0,
		},
		{
			name:        "stream line that is not a url fails its entry",
			content:     "#EXTM3U\n#EXTINF:-1,Broken\nnot a url\n#EXTINF:-1,Good\nhttp://s/1\n",
			wantCount:   1,
			wantSkipped: 1,
		},
		{
			name:        "relative path is skipped",
			content:     "#EXTM3U\nstreams/one.ts\nhttp://s/1\n",
			wantCount:   1,
			wantSkipped: 1,
		},
		{
			name:        "header only",
			content:     "#EXTM3U\n",
			wantCount:   0,
			wantSkipped: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parser.NewM3UParser().Parse(tt.content)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := len(result.Playlist.Channels()); got != tt.wantCount {
				t.Errorf("len(Channels()) = %d, want %d", got, tt.wantCount)
			}
			if result.Skipped != tt.wantSkipped {
				t.Errorf("Skipped = %d, want %d", result.Skipped, tt.wantSkipped)
			}
		})
	}
}

func TestM3UParser_OverLongLineFailsOnlyItsEntry(t *testing.T) {
	huge := strings.Repeat("x", 1100*1024)

	t.Run("directive", func(t *testing.T) {
		content := "#EXTM3U\n#EXTINF:-1,A\nhttp://s/a\n" +
			"#EXTINF:-1 tvg-name=\"" + huge + "\",Huge\nhttp://s/huge\n" +
			"#EXTINF:-1,B\nhttp://s/b\n"

		result, err := parser.NewM3UParser().Parse(content)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		channels := result.Playlist.Channels()
		if len(channels) != 3 {
			t.Fatalf("len(Channels()) = %d, want 3", len(channels))
		}
		if channels[0].Name() != "A" || channels[2].Name() != "B" {
			t.Errorf("names = (%q, %q), want (A, B)", channels[0].Name(), channels[2].Name())
		}
		if channels[1].URL() != "http://s/huge" || channels[1].Name() != "" {
			t.Errorf("middle channel = (%q, %q), want bare url", channels[1].URL(), channels[1].Name())
		}
		if result.Skipped != 1 {
			t.Errorf("Skipped = %d, want 1", result.Skipped)
		}
	})

	t.Run("stream line", func(t *testing.T) {
		content := "#EXTM3U\n#EXTINF:-1,A\nhttp://s/a\n" +
			"#EXTINF:-1,Huge\nhttp://s/" + huge + "\n" +
			"#EXTINF:-1,B\nhttp://s/b\n"

		result, err := parser.NewM3UParser().Parse(content)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		channels := result.Playlist.Channels()
		if len(channels) != 2 || channels[0].Name() != "A" || channels[1].Name() != "B" {
			t.Fatalf("Channels() = %d entries, want A and B", len(channels))
		}
		if result.Skipped != 1 {
			t.Errorf("Skipped = %d, want 1", result.Skipped)
		}
	})

	t.Run("before header", func(t *testing.T) {
		_, err := parser.NewM3UParser().Parse(huge + "\n#EXTM3U\nhttp://s/a\n")
		if !errors.Is(err, parser.ErrMalformedDocument) {
			t.Errorf("error = %v, want ErrMalformedDocument", err)
		}
	})
}

func TestM3UParser_DuplicateTvgID(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1 tvg-id=\"dup\",A\nhttp://s/a\n#EXTINF:-1 tvg-id=\"dup\",B\nhttp://s/b\n"

	result, err := parser.NewM3UParser().Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	channels := result.Playlist.Channels()
	if channels[0].ID() != "dup" {
		t.Errorf("first ID() = %q, want dup", channels[0].ID())
	}
	if channels[1].ID() != parser.SynthesizeID("B", "http://s/b") {
		t.Errorf("second ID() = %q, want synthesized", channels[1].ID())
	}
	if channels[1].EPGID() != "dup" {
		t.Errorf("second EPGID() = %q, want dup", channels[1].EPGID())
	}
}

func TestM3UParser_Deterministic(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1,Same\nhttp://s/1\n"

	first, err := parser.NewM3UParser().Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	second, err := parser.NewM3UParser().Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if first.Playlist.Channels()[0].ID() != second.Playlist.Channels()[0].ID() {
		t.Error("re-parsing identical content produced different ids")
	}
}

func TestM3UParser_MissingHeader(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"json", `[{"name":"x","url":"http://x"}]`},
		{"bare urls", "http://s/1\nhttp://s/2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.NewM3UParser().Parse(tt.content)
			if !errors.Is(err, parser.ErrMalformedDocument) {
				t.Fatalf("error = %v, want ErrMalformedDocument", err)
			}
			var perr *parser.ParseError
			if !errors.As(err, &perr) || perr.Format != playlist.FormatM3U {
				t.Errorf("error = %#v, want *ParseError for m3u", err)
			}
		})
	}
}
