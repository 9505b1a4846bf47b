package m3u

import (
	"fmt"
	"io"
	"strings"
)

// TVGTags are the tvg-* attributes of an #EXTINF directive
type TVGTags struct {
	ID         string
	Name       string
	Logo       string
	GroupTitle string
}

func (t *TVGTags) pairs() [][2]string {
	var out [][2]string
	if t.ID != "" {
		out = append(out, [2]string{"tvg-id", t.ID})
	}
	if t.Name != "" {
		out = append(out, [2]string{"tvg-name", t.Name})
	}
	if t.Logo != "" {
		out = append(out, [2]string{"tvg-logo", t.Logo})
	}
	if t.GroupTitle != "" {
		out = append(out, [2]string{"group-title", t.GroupTitle})
	}
	return out
}

func encodeAttrs(w io.Writer, pairs [][2]string) error {
	for _, kv := range pairs {
		if _, err := fmt.Fprintf(w, " %s=\"%s\"", kv[0], quote(kv[1])); err != nil {
			return err
		}
	}
	return nil
}

// quote drops characters that would end an attribute value early
func quote(v string) string {
	return strings.NewReplacer(`"`, "'", "\n", " ", "\r", " ").Replace(v)
}
