// Package m3u writes playlists in the extended M3U dialect.
package m3u

import (
	"fmt"
	"io"
	"strings"

	"github.com/grafana/regexp"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// Only keys the M3U reader can tokenize are exported as extra attributes
var attrKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Encoder struct {
	epgUrls []string
	title   string
	items   []*Channel
}

func NewEncoder(guideUrls []string) *Encoder {
	return &Encoder{epgUrls: guideUrls, items: []*Channel{}}
}

// FromPlaylist builds an encoder holding every channel of p in order
func FromPlaylist(p playlist.Playlist) *Encoder {
	var guides []string
	if p.EPGURL() != "" {
		guides = []string{p.EPGURL()}
	}

	e := NewEncoder(guides)
	e.title = p.Title()

	for _, ch := range p.Channels() {
		item := &Channel{
			Title:    ch.Name(),
			URI:      ch.URL(),
			Duration: -1,
			TVGTags: &TVGTags{
				ID:         ch.EPGID(),
				Name:       ch.Name(),
				Logo:       ch.LogoURL(),
				GroupTitle: ch.GroupTitle(),
			},
		}
		for key, value := range ch.Attributes().All() {
			switch key {
			case playlist.AttrReferer:
				item.Referer = value
			case playlist.AttrUserAgent:
				item.UserAgent = value
			default:
				if attrKeyRegex.MatchString(key) {
					item.Extra = append(item.Extra, [2]string{key, value})
				}
			}
		}
		e.AddChannel(item)
	}
	return e
}

func (p *Encoder) AddChannel(item *Channel) {
	p.items = append(p.items, item)
}

func (p *Encoder) Len() int {
	return len(p.items)
}

func (p *Encoder) Encode(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "#EXTM3U"); err != nil {
		return err
	}

	if len(p.epgUrls) > 0 {
		if _, err := fmt.Fprintf(w, " url-tvg=\"%s\"", quote(strings.Join(p.epgUrls, ","))); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n"); err != nil {
		return err
	}

	if p.title != "" {
		if _, err := fmt.Fprintf(w, "#PLAYLIST:%s\n", p.title); err != nil {
			return err
		}
	}

	for _, item := range p.items {
		if err := item.encode(w); err != nil {
			return err
		}
	}

	return nil
}
