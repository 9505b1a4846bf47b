package parser

import (
	"encoding/xml"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// XMLTVParser parses XMLTV guides. Only <programme> elements are read;
// <channel> declarations carry nothing the join needs beyond the id the
// programmes already reference.
type XMLTVParser struct{}

// NewXMLTVParser creates an XMLTV parser.
func NewXMLTVParser() *XMLTVParser {
	return &XMLTVParser{}
}

// SupportedFormat returns playlist.FormatXMLTV.
func (p *XMLTVParser) SupportedFormat() playlist.Format {
	return playlist.FormatXMLTV
}

type xmltvDoc struct {
	XMLName    xml.Name         `xml:"tv"`
	Programmes []xmltvProgramme `xml:"programme"`
}

type xmltvProgramme struct {
	Start        string   `xml:"start,attr"`
	Stop         string   `xml:"stop,attr"`
	Channel      string   `xml:"channel,attr"`
	Titles       []string `xml:"title"`
	Descriptions []string `xml:"desc"`
	Categories   []string `xml:"category"`
	Icon         xmlIcon  `xml:"icon"`
}

// ParsePrograms implements GuideParser. A programme whose start or stop
// cannot be read is skipped; the rest of the guide is still returned.
func (p *XMLTVParser) ParsePrograms(content string) (GuideResult, error) {
	var doc xmltvDoc
	if err := unmarshalXML(content, &doc); err != nil {
		return GuideResult{}, malformed(playlist.FormatXMLTV, err)
	}

	var result GuideResult
	for _, rec := range doc.Programmes {
		start, err := ParseXMLTVTime(rec.Start)
		if err != nil {
			result.Skipped++
			continue
		}
		stop, err := ParseXMLTVTime(rec.Stop)
		if err != nil {
			result.Skipped++
			continue
		}

		prog, err := playlist.NewProgram("", rec.Channel, first(rec.Titles), first(rec.Descriptions),
			first(rec.Categories), rec.Icon.Src, start, stop)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Programs = append(result.Programs, prog)
	}
	return result, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
