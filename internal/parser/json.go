package parser

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// JSONParser parses the generic JSON playlist dialect. Accepted shapes:
//
//	[{"name": "...", "url": "..."}]
//	{"name": "...", "epgUrl": "...", "channels": [...], "programs": [...]}
//	{"groups": [{"id": "news", "title": "News", "channels": [...]}]}
type JSONParser struct{}

// NewJSONParser creates a generic JSON playlist parser.
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// SupportedFormat returns playlist.FormatJSON.
func (p *JSONParser) SupportedFormat() playlist.Format {
	return playlist.FormatJSON
}

type jsonPlaylistDoc struct {
	Name     string            `json:"name"`
	Title    string            `json:"title"`
	EPGURL   string            `json:"epgUrl"`
	Channels []json.RawMessage `json:"channels"`
	Groups   []jsonGroup       `json:"groups"`
	Programs []json.RawMessage `json:"programs"`
}

type jsonGroup struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Name     string            `json:"name"`
	Channels []json.RawMessage `json:"channels"`
}

type jsonURLRef struct {
	URL string `json:"url"`
}

type jsonChannel struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Title      string            `json:"title"`
	URL        string            `json:"url"`
	RemoteData *jsonURLRef       `json:"remote_data"`
	Logo       string            `json:"logo"`
	LogoURL    string            `json:"logoUrl"`
	Image      *jsonURLRef       `json:"image"`
	Group      string            `json:"group"`
	GroupID    string            `json:"groupId"`
	GroupTitle string            `json:"groupTitle"`
	EPG        string            `json:"epg"`
	EPGID      string            `json:"epgId"`
	Attributes map[string]string `json:"attributes"`
}

// Parse implements PlaylistParser.
func (p *JSONParser) Parse(content string) (Result, error) {
	raw := bytes.TrimSpace([]byte(content))

	var doc jsonPlaylistDoc
	switch {
	case bytes.HasPrefix(raw, []byte("[")):
		if err := json.Unmarshal(raw, &doc.Channels); err != nil {
			return Result{}, malformed(playlist.FormatJSON, err)
		}
		if f, ok := arrayFormat(doc.Channels); ok && f != playlist.FormatJSON {
			return Result{}, malformedf(playlist.FormatJSON, "records belong to the %s dialect", f)
		}
	case bytes.HasPrefix(raw, []byte("{")):
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Result{}, malformed(playlist.FormatJSON, err)
		}
	default:
		return Result{}, malformedf(playlist.FormatJSON, "root must be an array or object")
	}

	var (
		result   Result
		channels []playlist.Channel
		groups   []playlist.Group
		ids      = newIDAllocator()
	)

	add := func(records []json.RawMessage, inherited playlist.Group) {
		for _, rawChannel := range records {
			var rec jsonChannel
			if err := json.Unmarshal(rawChannel, &rec); err != nil {
				result.Skipped++
				continue
			}
			ch, err := rec.toChannel(ids, inherited)
			if err != nil {
				result.Skipped++
				continue
			}
			channels = append(channels, ch)
		}
	}

	add(doc.Channels, playlist.Group{})
	for _, g := range doc.Groups {
		title := firstNonEmpty(g.Title, g.Name)
		id := firstNonEmpty(g.ID, playlist.GroupIDFromTitle(title))
		group, err := playlist.NewGroup(id, title)
		if err != nil {
			result.Skipped++
			add(g.Channels, playlist.Group{})
			continue
		}
		groups = append(groups, group)
		add(g.Channels, group)
	}

	programs, skipped := decodePrograms(doc.Programs)
	result.Skipped += skipped

	result.Playlist = playlist.NewPlaylist("", channels, programs, groups).
		WithFormat(playlist.FormatJSON).
		WithEPGURL(doc.EPGURL).
		WithTitle(firstNonEmpty(doc.Title, doc.Name))
	return result, nil
}

func (c jsonChannel) toChannel(ids *idAllocator, inherited playlist.Group) (playlist.Channel, error) {
	streamURL := c.URL
	if streamURL == "" && c.RemoteData != nil {
		streamURL = c.RemoteData.URL
	}
	streamURL = strings.TrimSpace(streamURL)
	if streamURL == "" {
		return playlist.Channel{}, playlist.ErrEmptyURL
	}

	logo := firstNonEmpty(c.Logo, c.LogoURL)
	if logo == "" && c.Image != nil {
		logo = c.Image.URL
	}

	groupTitle := firstNonEmpty(c.GroupTitle, c.Group)
	groupID := strings.TrimSpace(c.GroupID)
	if groupTitle == "" && groupID == "" {
		groupID, groupTitle = inherited.ID(), inherited.Title()
	}
	if groupID == "" {
		groupID = playlist.GroupIDFromTitle(groupTitle)
	}

	var attrs playlist.Attributes
	keys := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		attrs = attrs.With(k, c.Attributes[k])
	}

	name := firstNonEmpty(c.Name, c.Title)
	id := ids.assign(c.ID, name, streamURL)
	return playlist.NewChannel(id, name, streamURL, logo, groupID, groupTitle, firstNonEmpty(c.EPGID, c.EPG), attrs)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
