package m3u

import (
	"fmt"
	"io"
	"strings"
)

// Channel is one entry of an exported playlist
type Channel struct {
	Title     string
	URI       string
	Duration  float64
	TVGTags   *TVGTags
	Referer   string
	UserAgent string
	// Extra attributes are written to the #EXTINF line after the tvg tags
	Extra [][2]string
}

func (c *Channel) encode(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "#EXTINF:%0.0f", c.Duration); err != nil {
		return err
	}

	var pairs [][2]string
	if c.TVGTags != nil {
		pairs = c.TVGTags.pairs()
	}
	pairs = append(pairs, c.Extra...)
	if err := encodeAttrs(w, pairs); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, ",%s\n", strings.ReplaceAll(c.Title, "\n", " ")); err != nil {
		return err
	}

	if c.Referer != "" {
		if _, err := fmt.Fprintf(w, "#EXTVLCOPT:http-referrer=%s\n", c.Referer); err != nil {
			return err
		}
	}
	if c.UserAgent != "" {
		if _, err := fmt.Fprintf(w, "#EXTVLCOPT:http-user-agent=%s\n", c.UserAgent); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s\n", c.URI)
	return err
}
