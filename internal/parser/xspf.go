package parser

import (
	"encoding/xml"
	"strings"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// XSPFParser parses XSPF playlists as written by VLC. Groups come from the
// playlist-level <vlc:node> extension whose <vlc:item tid> children point
// at the <vlc:id> of each track.
type XSPFParser struct{}

// NewXSPFParser creates an XSPF parser.
func NewXSPFParser() *XSPFParser {
	return &XSPFParser{}
}

// SupportedFormat returns playlist.FormatXSPF.
func (p *XSPFParser) SupportedFormat() playlist.Format {
	return playlist.FormatXSPF
}

type xspfDoc struct {
	XMLName    xml.Name        `xml:"playlist"`
	Title      string          `xml:"title"`
	Tracks     []xspfTrack     `xml:"trackList>track"`
	Extensions []xspfExtension `xml:"extension"`
}

type xspfTrack struct {
	Title      string          `xml:"title"`
	Locations  []string        `xml:"location"`
	Image      string          `xml:"image"`
	Extensions []xspfExtension `xml:"extension"`
}

type xspfExtension struct {
	ID    string     `xml:"id"`
	Nodes []xspfNode `xml:"node"`
}

type xspfNode struct {
	Title string     `xml:"title,attr"`
	Items []xspfItem `xml:"item"`
	Nodes []xspfNode `xml:"node"`
}

type xspfItem struct {
	TID string `xml:"tid,attr"`
}

// Parse implements PlaylistParser.
func (p *XSPFParser) Parse(content string) (Result, error) {
	var doc xspfDoc
	if err := unmarshalXML(content, &doc); err != nil {
		return Result{}, malformed(playlist.FormatXSPF, err)
	}

	groupByTrack := make(map[string]string)
	for _, ext := range doc.Extensions {
		for _, node := range ext.Nodes {
			collectNodeGroups(node, groupByTrack)
		}
	}

	var (
		result   Result
		channels []playlist.Channel
		ids      = newIDAllocator()
	)
	for _, track := range doc.Tracks {
		var streamURL string
		if len(track.Locations) > 0 {
			streamURL = strings.TrimSpace(track.Locations[0])
		}
		if streamURL == "" {
			result.Skipped++
			continue
		}

		var vlcID string
		for _, ext := range track.Extensions {
			if ext.ID != "" {
				vlcID = strings.TrimSpace(ext.ID)
			}
		}

		name := strings.TrimSpace(track.Title)
		group := groupByTrack[vlcID]
		ch, err := playlist.NewChannel(ids.assign("", name, streamURL), name, streamURL, track.Image,
			playlist.GroupIDFromTitle(group), group, "", playlist.Attributes{})
		if err != nil {
			result.Skipped++
			continue
		}
		channels = append(channels, ch)
	}

	result.Playlist = playlist.NewPlaylist("", channels, nil, nil).
		WithFormat(playlist.FormatXSPF).
		WithTitle(doc.Title)
	return result, nil
}

// collectNodeGroups maps every track id below node to the innermost titled
// node containing it.
func collectNodeGroups(node xspfNode, out map[string]string) {
	title := strings.TrimSpace(node.Title)
	for _, item := range node.Items {
		if tid := strings.TrimSpace(item.TID); tid != "" && title != "" {
			out[tid] = title
		}
	}
	for _, child := range node.Nodes {
		collectNodeGroups(child, out)
	}
}
