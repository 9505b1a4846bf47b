package parser

import (
	"encoding/xml"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// GuideXMLParser parses the XML program digest:
//
//	<guide>
//	  <program channel="bbc1" start="2025-01-01T10:00:00Z" end="2025-01-01T11:00:00Z">
//	    <title>News</title>
//	    <description>...</description>
//	  </program>
//	</guide>
//
// Instants may be RFC 3339, XMLTV dates, or unix epoch numbers.
type GuideXMLParser struct{}

// NewGuideXMLParser creates an XML digest parser.
func NewGuideXMLParser() *GuideXMLParser {
	return &GuideXMLParser{}
}

// SupportedFormat returns playlist.FormatEPGXML.
func (p *GuideXMLParser) SupportedFormat() playlist.Format {
	return playlist.FormatEPGXML
}

type xmlGuideDoc struct {
	XMLName  xml.Name     `xml:"guide"`
	Programs []xmlProgram `xml:"program"`
}

type xmlProgram struct {
	ID          string  `xml:"id,attr"`
	Channel     string  `xml:"channel,attr"`
	Start       string  `xml:"start,attr"`
	End         string  `xml:"end,attr"`
	Stop        string  `xml:"stop,attr"`
	Title       string  `xml:"title"`
	Description string  `xml:"description"`
	Desc        string  `xml:"desc"`
	Category    string  `xml:"category"`
	Icon        xmlIcon `xml:"icon"`
}

// ParsePrograms implements GuideParser.
func (p *GuideXMLParser) ParsePrograms(content string) (GuideResult, error) {
	var doc xmlGuideDoc
	if err := unmarshalXML(content, &doc); err != nil {
		return GuideResult{}, malformed(playlist.FormatEPGXML, err)
	}

	var result GuideResult
	for _, rec := range doc.Programs {
		prog, err := rec.toProgram()
		if err != nil {
			result.Skipped++
			continue
		}
		result.Programs = append(result.Programs, prog)
	}
	return result, nil
}

func (r xmlProgram) toProgram() (playlist.Program, error) {
	start, err := parseInstant(r.Start)
	if err != nil {
		return playlist.Program{}, err
	}
	endText := r.End
	if endText == "" {
		endText = r.Stop
	}
	end, err := parseInstant(endText)
	if err != nil {
		return playlist.Program{}, err
	}

	desc := r.Description
	if desc == "" {
		desc = r.Desc
	}
	return playlist.NewProgram(r.ID, r.Channel, r.Title, desc, r.Category, r.Icon.Src, start, end)
}
