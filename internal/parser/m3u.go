package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/grafana/regexp"

	"github.com/alorle/iptv-guide/internal/playlist"
)

const (
	m3uHeader      = "#EXTM3U"
	m3uMaxLineSize = 1024 * 1024
)

var (
	// #EXTINF:<duration> <attributes>,<title>
	extinfRegex = regexp.MustCompile(`^#EXTINF:\s*(-?\d+(?:\.\d+)?)?(.*)$`)

	// key="value" or key=value
	attrRegex = regexp.MustCompile(`([A-Za-z0-9_-]+)=(?:"([^"]*)"|([^\s",]+))`)

	errUnbalancedQuotes = errors.New("unbalanced quotes in directive")
	errBadDirective     = errors.New("directive does not match #EXTINF syntax")
)

// M3UParser parses the extended M3U dialect. A directive line carries
// metadata for the next URL line; every URL line yields one channel.
type M3UParser struct{}

// NewM3UParser creates an M3U parser.
func NewM3UParser() *M3UParser {
	return &M3UParser{}
}

// SupportedFormat returns playlist.FormatM3U.
func (p *M3UParser) SupportedFormat() playlist.Format {
	return playlist.FormatM3U
}

// m3uEntry accumulates directive metadata until a URL line is seen.
// Repeated keys overwrite earlier values.
type m3uEntry struct {
	title string
	attrs playlist.Attributes
}

func (e *m3uEntry) set(key, value string) {
	e.attrs = e.attrs.With(key, value)
}

// Parse implements PlaylistParser. Lines longer than the line size cap and
// stream lines that are not well-formed URLs fail only their own entry.
func (p *M3UParser) Parse(content string) (Result, error) {
	r := bufio.NewReaderSize(strings.NewReader(content), 64*1024)

	var (
		result   Result
		channels []playlist.Channel
		pending  *m3uEntry
		epgURL   string
		title    string
		ids      = newIDAllocator()
		sawHead  bool
	)

	for {
		raw, tooLong, err := readM3ULine(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, malformed(playlist.FormatM3U, err)
		}
		line := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		if tooLong {
			if !sawHead {
				return Result{}, malformedf(playlist.FormatM3U, "missing %s header", m3uHeader)
			}
			// An over-long stream line takes its directive down with it
			if !strings.HasPrefix(line, "#") {
				pending = nil
			}
			result.Skipped++
			continue
		}
		if line == "" {
			continue
		}

		if !sawHead {
			if !strings.HasPrefix(line, m3uHeader) {
				return Result{}, malformedf(playlist.FormatM3U, "missing %s header", m3uHeader)
			}
			sawHead = true
			epgURL = headerEPGURL(line)
			continue
		}

		if !strings.HasPrefix(line, "#") {
			if !playlist.IsWellFormedURL(line) {
				pending = nil
				result.Skipped++
				continue
			}
			ch, err := p.buildChannel(pending, line, ids)
			pending = nil
			if err != nil {
				result.Skipped++
				continue
			}
			channels = append(channels, ch)
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXTINF"):
			if pending == nil {
				pending = &m3uEntry{}
			}
			if err := parseExtinf(line, pending); err != nil {
				result.Skipped++
			}

		case strings.HasPrefix(line, "#EXTGRP:"):
			if pending == nil {
				pending = &m3uEntry{}
			}
			pending.set("group-title", strings.TrimSpace(strings.TrimPrefix(line, "#EXTGRP:")))

		case strings.HasPrefix(line, "#EXTVLCOPT:"):
			key, value, ok := strings.Cut(strings.TrimPrefix(line, "#EXTVLCOPT:"), "=")
			if !ok {
				result.Skipped++
				continue
			}
			if pending == nil {
				pending = &m3uEntry{}
			}
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "http-referrer", "http-referer":
				pending.set(playlist.AttrReferer, strings.TrimSpace(value))
			case "http-user-agent":
				pending.set(playlist.AttrUserAgent, strings.TrimSpace(value))
			default:
				pending.set(strings.TrimSpace(key), strings.TrimSpace(value))
			}

		case strings.HasPrefix(line, "#PLAYLIST:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "#PLAYLIST:"))

		case strings.HasPrefix(line, m3uHeader):
			if u := headerEPGURL(line); u != "" && epgURL == "" {
				epgURL = u
			}
		}
	}

	if !sawHead {
		return Result{}, malformedf(playlist.FormatM3U, "missing %s header", m3uHeader)
	}
	if pending != nil {
		result.Skipped++
	}

	result.Playlist = playlist.NewPlaylist("", channels, nil, nil).
		WithFormat(playlist.FormatM3U).
		WithEPGURL(epgURL).
		WithTitle(title)
	return result, nil
}

// readM3ULine returns the next line without its terminator. A line over
// m3uMaxLineSize is drained and returned truncated with tooLong set.
func readM3ULine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		switch {
		case tooLong:
		case len(buf)+len(frag) > m3uMaxLineSize:
			tooLong = true
			buf = append(buf, frag...)[:64]
		default:
			buf = append(buf, frag...)
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// buildChannel turns the pending directive metadata and a URL line into a
// channel. Without metadata the channel carries only the URL and a
// synthesized id.
func (p *M3UParser) buildChannel(e *m3uEntry, streamURL string, ids *idAllocator) (playlist.Channel, error) {
	if e == nil {
		return playlist.NewChannel(ids.assign("", "", streamURL), "", streamURL, "", "", "", "", playlist.Attributes{})
	}

	var (
		tvgID, tvgName, logo, groupTitle string
		extra                            playlist.Attributes
	)
	for key, value := range e.attrs.All() {
		switch strings.ToLower(key) {
		case "tvg-id":
			tvgID = value
		case "tvg-name":
			tvgName = value
		case "tvg-logo", "logo":
			logo = value
		case "group-title":
			groupTitle = value
		default:
			extra = extra.With(key, value)
		}
	}

	name := tvgName
	if name == "" {
		name = e.title
	}

	id := ids.assign(tvgID, name, streamURL)
	return playlist.NewChannel(id, name, streamURL, logo, playlist.GroupIDFromTitle(groupTitle), groupTitle, tvgID, extra)
}

// parseExtinf merges the attributes and title of an #EXTINF line into e.
// A line that cannot be tokenized leaves e untouched.
func parseExtinf(line string, e *m3uEntry) error {
	m := extinfRegex.FindStringSubmatch(line)
	if m == nil {
		return errBadDirective
	}
	if strings.Count(line, `"`)%2 != 0 {
		return errUnbalancedQuotes
	}

	rest := m[2]
	attrPart, titlePart := splitTitle(rest)

	for _, am := range attrRegex.FindAllStringSubmatch(attrPart, -1) {
		value := am[2]
		if value == "" {
			value = am[3]
		}
		e.set(am[1], value)
	}
	if t := strings.TrimSpace(titlePart); t != "" {
		e.title = t
	}
	return nil
}

// splitTitle splits at the last comma that is not inside double quotes.
func splitTitle(s string) (attrs, title string) {
	inQuotes := false
	last := -1
	for i, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				last = i
			}
		}
	}
	if last < 0 {
		return s, ""
	}
	return s[:last], s[last+1:]
}

// headerEPGURL extracts the first guide URL declared on the #EXTM3U line.
func headerEPGURL(line string) string {
	for _, am := range attrRegex.FindAllStringSubmatch(line, -1) {
		switch strings.ToLower(am[1]) {
		case "url-tvg", "x-tvg-url", "tvg-url":
			value := am[2]
			if value == "" {
				value = am[3]
			}
			first, _, _ := strings.Cut(value, ",")
			return strings.TrimSpace(first)
		}
	}
	return ""
}
