package parser

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// GuideJSONParser parses the JSON program digest. The root is either an
// array of programs or an object holding them under "programs".
type GuideJSONParser struct{}

// NewGuideJSONParser creates a JSON digest parser.
func NewGuideJSONParser() *GuideJSONParser {
	return &GuideJSONParser{}
}

// SupportedFormat returns playlist.FormatEPGJSON.
func (p *GuideJSONParser) SupportedFormat() playlist.Format {
	return playlist.FormatEPGJSON
}

type jsonProgram struct {
	ID          string          `json:"id"`
	Channel     string          `json:"channel"`
	ChannelID   string          `json:"channelId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Desc        string          `json:"desc"`
	Category    string          `json:"category"`
	Icon        string          `json:"icon"`
	Start       json.RawMessage `json:"start"`
	End         json.RawMessage `json:"end"`
	Stop        json.RawMessage `json:"stop"`
}

// ParsePrograms implements GuideParser.
func (p *GuideJSONParser) ParsePrograms(content string) (GuideResult, error) {
	raw := bytes.TrimSpace([]byte(content))

	var records []json.RawMessage
	switch {
	case bytes.HasPrefix(raw, []byte("[")):
		if err := json.Unmarshal(raw, &records); err != nil {
			return GuideResult{}, malformed(playlist.FormatEPGJSON, err)
		}
		if f, ok := arrayFormat(records); ok && f != playlist.FormatEPGJSON {
			return GuideResult{}, malformedf(playlist.FormatEPGJSON, "records carry no start instant and channel reference")
		}
	case bytes.HasPrefix(raw, []byte("{")):
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keys); err != nil {
			return GuideResult{}, malformed(playlist.FormatEPGJSON, err)
		}
		if objectFormat(keys) != playlist.FormatEPGJSON {
			return GuideResult{}, malformedf(playlist.FormatEPGJSON, "object has no programs key or holds playlist keys")
		}
		if err := json.Unmarshal(keys["programs"], &records); err != nil {
			return GuideResult{}, malformed(playlist.FormatEPGJSON, err)
		}
	default:
		return GuideResult{}, malformedf(playlist.FormatEPGJSON, "root must be an array or object")
	}

	var result GuideResult
	result.Programs, result.Skipped = decodePrograms(records)
	return result, nil
}

// decodePrograms converts raw program records, counting the ones that fail.
func decodePrograms(records []json.RawMessage) ([]playlist.Program, int) {
	var (
		programs []playlist.Program
		skipped  int
	)
	for _, raw := range records {
		var rec jsonProgram
		if err := json.Unmarshal(raw, &rec); err != nil {
			skipped++
			continue
		}
		prog, err := rec.toProgram()
		if err != nil {
			skipped++
			continue
		}
		programs = append(programs, prog)
	}
	return programs, skipped
}

func (r jsonProgram) toProgram() (playlist.Program, error) {
	start, err := jsonInstant(r.Start)
	if err != nil {
		return playlist.Program{}, err
	}
	endRaw := r.End
	if len(endRaw) == 0 {
		endRaw = r.Stop
	}
	end, err := jsonInstant(endRaw)
	if err != nil {
		return playlist.Program{}, err
	}

	ref := r.Channel
	if ref == "" {
		ref = r.ChannelID
	}
	desc := r.Description
	if desc == "" {
		desc = r.Desc
	}
	return playlist.NewProgram(r.ID, ref, r.Title, desc, r.Category, r.Icon, start, end)
}

// jsonInstant accepts a string instant or a bare epoch number.
func jsonInstant(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, errInvalidInstant
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		return parseInstant(s)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, errInvalidInstant
	}
	return fromEpoch(int64(f)), nil
}
