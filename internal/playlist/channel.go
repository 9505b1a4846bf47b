package playlist

import (
	"net/url"
	"strings"
)

// Attribute keys shared by parsers and consumers.
const (
	AttrReferer   = "Referer"
	AttrUserAgent = "User-Agent"
)

// Channel represents a playable stream within a playlist.
type Channel struct {
	id         string
	name       string
	url        string
	logoURL    string
	groupID    string
	groupTitle string
	epgID      string
	attributes Attributes
}

// NewChannel creates a new Channel with the given attributes.
// It trims whitespace from every field. The name may be empty.
// Returns ErrEmptyChannelID if the id is empty or contains only whitespace.
// Returns ErrEmptyURL if the url is empty or contains only whitespace.
func NewChannel(id, name, streamURL, logoURL, groupID, groupTitle, epgID string, attrs Attributes) (Channel, error) {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return Channel{}, ErrEmptyChannelID
	}

	trimmedURL := strings.TrimSpace(streamURL)
	if trimmedURL == "" {
		return Channel{}, ErrEmptyURL
	}

	return Channel{
		id:         trimmedID,
		name:       strings.TrimSpace(name),
		url:        trimmedURL,
		logoURL:    strings.TrimSpace(logoURL),
		groupID:    strings.TrimSpace(groupID),
		groupTitle: strings.TrimSpace(groupTitle),
		epgID:      strings.TrimSpace(epgID),
		attributes: attrs.clone(),
	}, nil
}

// ID returns the channel's identifier, unique within its playlist.
func (c Channel) ID() string {
	return c.id
}

// Name returns the display name.
func (c Channel) Name() string {
	return c.name
}

// URL returns the stream locator.
func (c Channel) URL() string {
	return c.url
}

// LogoURL returns the artwork locator.
func (c Channel) LogoURL() string {
	return c.logoURL
}

// GroupID returns the category group identifier.
func (c Channel) GroupID() string {
	return c.groupID
}

// GroupTitle returns the category group title.
func (c Channel) GroupTitle() string {
	return c.groupTitle
}

// EPGID returns the join key into program data.
func (c Channel) EPGID() string {
	return c.epgID
}

// Attributes returns the format-specific metadata.
func (c Channel) Attributes() Attributes {
	return c.attributes.clone()
}

// JoinKey returns the key used to match programs to this channel:
// the EPG id when present, otherwise the normalized name.
// Name matching is lossy since different providers reuse display names.
func (c Channel) JoinKey() string {
	if c.epgID != "" {
		return c.epgID
	}
	return NormalizeName(c.name)
}

// GroupIDFromTitle derives a group identifier from a title:
// lowercase with spaces replaced by underscores.
func GroupIDFromTitle(title string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "_")
}

// NormalizeName folds a display name into a comparison key:
// lowercase with surrounding and repeated whitespace collapsed.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// IsWellFormedURL reports whether s parses as an absolute URL with a scheme
// and either a host or an opaque part.
func IsWellFormedURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}
