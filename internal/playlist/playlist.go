package playlist

import (
	"strings"
	"time"
)

// Group is a navigation category declared by a source or derived from channels.
type Group struct {
	id    string
	title string
}

// NewGroup creates a Group. Returns ErrEmptyGroupID if id is blank.
// An empty title defaults to the id.
func NewGroup(id, title string) (Group, error) {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return Group{}, ErrEmptyGroupID
	}
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		trimmedTitle = trimmedID
	}
	return Group{id: trimmedID, title: trimmedTitle}, nil
}

// ID returns the group identifier.
func (g Group) ID() string {
	return g.id
}

// Title returns the group title.
func (g Group) Title() string {
	return g.title
}

// Playlist is the aggregate result of parsing one source document.
type Playlist struct {
	name     string
	title    string
	format   Format
	epgURL   string
	channels []Channel
	programs []Program
	groups   []Group
}

// NewPlaylist creates a Playlist. The name is supplied by the caller, never
// parsed from content. Declared groups keep their order; every non-empty
// channel group missing from them is appended in channel order.
func NewPlaylist(name string, channels []Channel, programs []Program, declared []Group) Playlist {
	return Playlist{
		name:     strings.TrimSpace(name),
		channels: append([]Channel(nil), channels...),
		programs: append([]Program(nil), programs...),
		groups:   mergeGroups(declared, channels),
	}
}

// WithEPGURL returns a copy that references an external program guide.
func (p Playlist) WithEPGURL(u string) Playlist {
	out := p.copy()
	out.epgURL = strings.TrimSpace(u)
	return out
}

// WithFormat returns a copy tagged with the dialect it was parsed from.
func (p Playlist) WithFormat(f Format) Playlist {
	out := p.copy()
	out.format = f
	return out
}

// WithTitle returns a copy carrying the title declared inside the document.
func (p Playlist) WithTitle(title string) Playlist {
	out := p.copy()
	out.title = strings.TrimSpace(title)
	return out
}

// WithName returns a copy with the caller-supplied name replaced.
func (p Playlist) WithName(name string) Playlist {
	out := p.copy()
	out.name = strings.TrimSpace(name)
	return out
}

// WithPrograms returns a copy whose programs are the existing ones followed
// by extra. Nothing is deduplicated.
func (p Playlist) WithPrograms(extra []Program) Playlist {
	out := p.copy()
	out.programs = append(out.programs, extra...)
	return out
}

// Name returns the caller-supplied label.
func (p Playlist) Name() string {
	return p.name
}

// Title returns the title declared in the source document, if any.
func (p Playlist) Title() string {
	return p.title
}

// Format returns the dialect the playlist was parsed from.
func (p Playlist) Format() Format {
	return p.format
}

// EPGURL returns the program guide location declared by the source, if any.
func (p Playlist) EPGURL() string {
	return p.epgURL
}

// Channels returns the channels in source order.
func (p Playlist) Channels() []Channel {
	return append([]Channel(nil), p.channels...)
}

// Programs returns the programs in source order.
func (p Playlist) Programs() []Program {
	return append([]Program(nil), p.programs...)
}

// Groups returns the distinct groups.
func (p Playlist) Groups() []Group {
	return append([]Group(nil), p.groups...)
}

// Channel looks up a channel by id. Returns ErrChannelNotFound if absent.
func (p Playlist) Channel(id string) (Channel, error) {
	for _, ch := range p.channels {
		if ch.id == id {
			return ch, nil
		}
	}
	return Channel{}, ErrChannelNotFound
}

func (p Playlist) copy() Playlist {
	return Playlist{
		name:     p.name,
		title:    p.title,
		format:   p.format,
		epgURL:   p.epgURL,
		channels: append([]Channel(nil), p.channels...),
		programs: append([]Program(nil), p.programs...),
		groups:   append([]Group(nil), p.groups...),
	}
}

func mergeGroups(declared []Group, channels []Channel) []Group {
	seen := make(map[string]bool, len(declared))
	var groups []Group
	for _, g := range declared {
		if g.id == "" || seen[g.id] {
			continue
		}
		seen[g.id] = true
		groups = append(groups, g)
	}
	for _, ch := range channels {
		if ch.groupID == "" || seen[ch.groupID] {
			continue
		}
		seen[ch.groupID] = true
		groups = append(groups, Group{id: ch.groupID, title: firstNonEmpty(ch.groupTitle, ch.groupID)})
	}
	return groups
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ChannelWithProgramCount pairs a channel with the number of programs
// reconciled against it.
type ChannelWithProgramCount struct {
	Channel      Channel
	ProgramCount int
}

// Summary describes a stored playlist without its channel and program payload.
type Summary struct {
	ID           string
	Name         string
	Format       Format
	ChannelCount int
	ProgramCount int
	UpdatedAt    time.Time
}
