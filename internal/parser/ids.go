package parser

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SynthesizeID derives a stable channel id from a name and stream URL, so
// re-parsing identical content yields identical ids.
func SynthesizeID(name, streamURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.TrimSpace(name)+"\x00"+strings.TrimSpace(streamURL))).String()
}

// idAllocator hands out channel ids that are unique within one document.
type idAllocator struct {
	used map[string]int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[string]int)}
}

// assign returns preferred when it is non-empty and unused. Otherwise it
// falls back to an id synthesized from name and url, suffixed with an
// occurrence counter when even that collides.
func (a *idAllocator) assign(preferred, name, streamURL string) string {
	preferred = strings.TrimSpace(preferred)
	if preferred != "" && a.used[preferred] == 0 {
		a.used[preferred] = 1
		return preferred
	}

	id := SynthesizeID(name, streamURL)
	n := a.used[id]
	a.used[id] = n + 1
	if n == 0 {
		return id
	}
	return id + "-" + strconv.Itoa(n+1)
}
