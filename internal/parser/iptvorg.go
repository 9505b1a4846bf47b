package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// AttrQuality is the attribute key carrying the stream quality label of
// community catalog records.
const AttrQuality = "Quality"

// IPTVOrgParser parses the community catalog dialect: a flat array of
// stream records.
//
//	[{"channel":"BBCOne.uk","feed":"UK","title":"BBC One","url":"http://...",
//	  "referrer":"http://...","user_agent":"...","quality":"720p"}]
//
// An empty or null payload yields an empty playlist because the upstream
// catalog occasionally serves one.
type IPTVOrgParser struct{}

// NewIPTVOrgParser creates a community catalog parser.
func NewIPTVOrgParser() *IPTVOrgParser {
	return &IPTVOrgParser{}
}

// SupportedFormat returns playlist.FormatIPTVOrg.
func (p *IPTVOrgParser) SupportedFormat() playlist.Format {
	return playlist.FormatIPTVOrg
}

type iptvOrgStream struct {
	Channel   *string `json:"channel"`
	Feed      *string `json:"feed"`
	Title     *string `json:"title"`
	URL       *string `json:"url"`
	Referrer  *string `json:"referrer"`
	UserAgent *string `json:"user_agent"`
	Quality   *string `json:"quality"`
}

// Parse implements PlaylistParser.
func (p *IPTVOrgParser) Parse(content string) (Result, error) {
	raw := bytes.TrimSpace([]byte(content))
	empty := Result{Playlist: playlist.NewPlaylist("", nil, nil, nil).WithFormat(playlist.FormatIPTVOrg)}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return empty, nil
	}
	if raw[0] != '[' {
		return Result{}, malformedf(playlist.FormatIPTVOrg, "root must be an array")
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return Result{}, malformed(playlist.FormatIPTVOrg, err)
	}
	if err := catalogRecords(records); err != nil {
		return Result{}, err
	}

	var (
		result   Result
		channels []playlist.Channel
		ids      = newIDAllocator()
	)
	for _, rec := range records {
		var s iptvOrgStream
		if err := json.Unmarshal(rec, &s); err != nil {
			result.Skipped++
			continue
		}
		ch, err := s.toChannel(ids)
		if err != nil {
			result.Skipped++
			continue
		}
		channels = append(channels, ch)
	}

	result.Playlist = playlist.NewPlaylist("", channels, nil, nil).WithFormat(playlist.FormatIPTVOrg)
	return result, nil
}

func (s iptvOrgStream) toChannel(ids *idAllocator) (playlist.Channel, error) {
	streamURL := deref(s.URL)
	if streamURL == "" {
		return playlist.Channel{}, playlist.ErrEmptyURL
	}

	channelID := deref(s.Channel)
	feed := deref(s.Feed)
	name := firstNonEmpty(deref(s.Title), channelID)

	var attrs playlist.Attributes
	if ref := deref(s.Referrer); ref != "" {
		attrs = attrs.With(playlist.AttrReferer, ref)
	}
	if ua := deref(s.UserAgent); ua != "" {
		attrs = attrs.With(playlist.AttrUserAgent, ua)
	}
	if q := deref(s.Quality); q != "" {
		attrs = attrs.With(AttrQuality, q)
	}

	id := ids.assign(channelID, name, streamURL)
	return playlist.NewChannel(id, name, streamURL, "", feed, feed, channelID, attrs)
}

// catalogRecords rejects arrays whose first record belongs to a sibling
// dialect: named playlist entries or guide programs.
func catalogRecords(records []json.RawMessage) error {
	if len(records) == 0 {
		return nil
	}
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(records[0], &rec); err != nil {
		return nil
	}
	if _, named := rec["name"]; named {
		return malformedf(playlist.FormatIPTVOrg, "records carry a name, not a catalog channel reference")
	}
	if recordFormat(rec) == playlist.FormatEPGJSON {
		return malformedf(playlist.FormatIPTVOrg, "records are guide programs")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
