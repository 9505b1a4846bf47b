package parser

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// Detect inspects a content sample and returns the dialect it most likely
// belongs to, or playlist.FormatUnknown. The extended-tag magic token is
// checked first, then the first non-whitespace character decides between
// XML and JSON, and only then is the root element or first record examined.
func Detect(content string) playlist.Format {
	trimmed := trimLeading(content)

	switch {
	case strings.HasPrefix(trimmed, m3uHeader):
		return playlist.FormatM3U
	case strings.HasPrefix(trimmed, "<"):
		switch xmlRoot(trimmed) {
		case "playlist":
			return playlist.FormatXSPF
		case "tv":
			return playlist.FormatXMLTV
		case "guide":
			return playlist.FormatEPGXML
		default:
			return playlist.FormatXML
		}
	case strings.HasPrefix(trimmed, "{"):
		return detectJSONObject(trimmed)
	case strings.HasPrefix(trimmed, "["):
		return detectJSONArray(trimmed)
	}
	return playlist.FormatUnknown
}

// DetectGuide is Detect restricted to program guide dialects.
func DetectGuide(content string) playlist.Format {
	trimmed := trimLeading(content)

	switch {
	case strings.HasPrefix(trimmed, "<"):
		switch xmlRoot(trimmed) {
		case "tv":
			return playlist.FormatXMLTV
		case "guide":
			return playlist.FormatEPGXML
		}
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return playlist.FormatEPGJSON
	}
	return playlist.FormatUnknown
}

func trimLeading(content string) string {
	return strings.TrimLeft(content, " \t\r\n\ufeff")
}

// xmlRoot returns the lowercased local name of the first element, or "" when
// none can be read.
func xmlRoot(content string) string {
	d := xml.NewDecoder(strings.NewReader(content))
	d.Strict = false
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) {
		return r, nil
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return ""
		}
		if start, ok := tok.(xml.StartElement); ok {
			return strings.ToLower(start.Name.Local)
		}
	}
}

func detectJSONObject(content string) playlist.Format {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &keys); err != nil {
		return playlist.FormatJSON
	}
	return objectFormat(keys)
}

// objectFormat classifies an object root by its keys: a guide digest holds
// programs and nothing a playlist would.
func objectFormat(keys map[string]json.RawMessage) playlist.Format {
	_, hasPrograms := keys["programs"]
	_, hasChannels := keys["channels"]
	_, hasGroups := keys["groups"]
	if hasPrograms && !hasChannels && !hasGroups {
		return playlist.FormatEPGJSON
	}
	return playlist.FormatJSON
}

func detectJSONArray(content string) playlist.Format {
	d := json.NewDecoder(strings.NewReader(content))
	if _, err := d.Token(); err != nil || !d.More() {
		return playlist.FormatJSON
	}

	var rec map[string]json.RawMessage
	if err := d.Decode(&rec); err != nil {
		return playlist.FormatJSON
	}
	return recordFormat(rec)
}

// recordFormat classifies an array record: catalog records reference a
// channel and carry a url but no name, guide records carry a start instant.
func recordFormat(rec map[string]json.RawMessage) playlist.Format {
	has := func(k string) bool {
		_, ok := rec[k]
		return ok
	}

	switch {
	case has("start") && (has("channel") || has("channelId")):
		return playlist.FormatEPGJSON
	case has("url") && (has("channel") || has("feed")) && !has("name"):
		return playlist.FormatIPTVOrg
	}
	return playlist.FormatJSON
}

// arrayFormat classifies decoded array records by the first one. An empty
// array or a non-object first record reports ok == false.
func arrayFormat(records []json.RawMessage) (f playlist.Format, ok bool) {
	if len(records) == 0 {
		return playlist.FormatUnknown, false
	}
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(records[0], &rec); err != nil {
		return playlist.FormatUnknown, false
	}
	return recordFormat(rec), true
}
