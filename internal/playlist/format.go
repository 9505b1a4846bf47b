package playlist

import (
	"fmt"
	"strings"
)

// Format identifies a playlist or EPG dialect.
type Format string

const (
	FormatUnknown Format = ""

	// Playlist dialects
	FormatM3U     Format = "m3u"
	FormatXML     Format = "xml"
	FormatJSON    Format = "json"
	FormatIPTVOrg Format = "iptv-org"
	FormatXSPF    Format = "xspf"

	// EPG dialects
	FormatEPGXML  Format = "epg-xml"
	FormatEPGJSON Format = "epg-json"
	FormatXMLTV   Format = "xmltv"
)

var allFormats = []Format{
	FormatM3U,
	FormatXML,
	FormatJSON,
	FormatIPTVOrg,
	FormatXSPF,
	FormatEPGXML,
	FormatEPGJSON,
	FormatXMLTV,
}

// Formats returns every known format in a stable order.
func Formats() []Format {
	out := make([]Format, len(allFormats))
	copy(out, allFormats)
	return out
}

// ParseFormat converts a case-insensitive name into a Format.
// Returns ErrUnknownFormat for names outside the closed set.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allFormats {
		if f == known {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// IsEPG reports whether the format carries only program data.
func (f Format) IsEPG() bool {
	switch f {
	case FormatEPGXML, FormatEPGJSON, FormatXMLTV:
		return true
	}
	return false
}

// String returns the format name, or "unknown" for the zero value.
func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}
