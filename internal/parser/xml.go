package parser

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// XMLParser parses the generic XML playlist dialect: a root element of any
// name holding <channel> records, optionally wrapped in <channels>, plus
// optional <program> records.
//
//	<channels epg-url="http://guide.example/epg.xml">
//	  <title>My list</title>
//	  <channel id="bbc1">
//	    <display-name>BBC One</display-name>
//	    <icon src="http://logo"/>
//	    <group>News</group>
//	    <url>http://stream</url>
//	  </channel>
//	</channels>
type XMLParser struct{}

// NewXMLParser creates a generic XML playlist parser.
func NewXMLParser() *XMLParser {
	return &XMLParser{}
}

// SupportedFormat returns playlist.FormatXML.
func (p *XMLParser) SupportedFormat() playlist.Format {
	return playlist.FormatXML
}

type xmlPlaylistDoc struct {
	XMLName        xml.Name
	TrackList      *struct{}      `xml:"trackList"`
	Title          string         `xml:"title"`
	EPGURL         string         `xml:"epg-url,attr"`
	Groups         []xmlGroupDecl `xml:"groups>group"`
	Channels       []xmlChannel   `xml:"channel"`
	NestedChannels []xmlChannel   `xml:"channels>channel"`
	Programs       []xmlProgram   `xml:"program"`
	NestedPrograms []xmlProgram   `xml:"programs>program"`
}

type xmlGroupDecl struct {
	ID    string `xml:"id,attr"`
	Title string `xml:",chardata"`
}

type xmlChannel struct {
	ID           string         `xml:"id,attr"`
	DisplayNames []string       `xml:"display-name"`
	Name         string         `xml:"name"`
	URL          string         `xml:"url"`
	Icon         xmlIcon        `xml:"icon"`
	Logo         string         `xml:"logo"`
	Group        string         `xml:"group"`
	EPGID        string         `xml:"epg-id"`
	Attributes   []xmlAttribute `xml:"attribute"`
}

type xmlIcon struct {
	Src string `xml:"src,attr"`
}

type xmlAttribute struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// Parse implements PlaylistParser.
func (p *XMLParser) Parse(content string) (Result, error) {
	var doc xmlPlaylistDoc
	if err := unmarshalXML(content, &doc); err != nil {
		return Result{}, malformed(playlist.FormatXML, err)
	}
	switch root := strings.ToLower(doc.XMLName.Local); {
	case root == "tv" || root == "guide":
		return Result{}, malformedf(playlist.FormatXML, "<%s> is a program guide root", doc.XMLName.Local)
	case doc.TrackList != nil:
		return Result{}, malformedf(playlist.FormatXML, "<%s> holds an XSPF track list", doc.XMLName.Local)
	}

	var (
		result   Result
		channels []playlist.Channel
		groups   []playlist.Group
		ids      = newIDAllocator()
	)

	for _, g := range doc.Groups {
		title := strings.TrimSpace(g.Title)
		id := strings.TrimSpace(g.ID)
		if id == "" {
			id = playlist.GroupIDFromTitle(title)
		}
		group, err := playlist.NewGroup(id, title)
		if err != nil {
			result.Skipped++
			continue
		}
		groups = append(groups, group)
	}

	for _, rec := range append(doc.Channels, doc.NestedChannels...) {
		ch, err := rec.toChannel(ids)
		if err != nil {
			result.Skipped++
			continue
		}
		channels = append(channels, ch)
	}

	var programs []playlist.Program
	for _, rec := range append(doc.Programs, doc.NestedPrograms...) {
		prog, err := rec.toProgram()
		if err != nil {
			result.Skipped++
			continue
		}
		programs = append(programs, prog)
	}

	result.Playlist = playlist.NewPlaylist("", channels, programs, groups).
		WithFormat(playlist.FormatXML).
		WithEPGURL(doc.EPGURL).
		WithTitle(doc.Title)
	return result, nil
}

func (c xmlChannel) toChannel(ids *idAllocator) (playlist.Channel, error) {
	streamURL := strings.TrimSpace(c.URL)
	if streamURL == "" {
		return playlist.Channel{}, playlist.ErrEmptyURL
	}

	name := strings.TrimSpace(c.Name)
	if len(c.DisplayNames) > 0 {
		name = strings.TrimSpace(c.DisplayNames[0])
	}

	logo := c.Icon.Src
	if logo == "" {
		logo = c.Logo
	}

	var attrs playlist.Attributes
	for _, a := range c.Attributes {
		if key := strings.TrimSpace(a.Key); key != "" {
			attrs = attrs.With(key, strings.TrimSpace(a.Value))
		}
	}

	epgID := c.EPGID
	if epgID == "" {
		epgID = c.ID
	}

	group := strings.TrimSpace(c.Group)
	id := ids.assign(c.ID, name, streamURL)
	return playlist.NewChannel(id, name, streamURL, logo, playlist.GroupIDFromTitle(group), group, epgID, attrs)
}

// unmarshalXML decodes the root element of content into v. Declared
// encodings other than UTF-8 are read as-is.
func unmarshalXML(content string, v any) error {
	d := xml.NewDecoder(strings.NewReader(content))
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) {
		return r, nil
	}
	return d.Decode(v)
}
