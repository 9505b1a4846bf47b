package playlist

import (
	"strconv"
	"strings"
	"time"
)

// Program represents a scheduled airing on a channel.
type Program struct {
	id          string
	channelRef  string
	title       string
	description string
	category    string
	iconURL     string
	start       time.Time
	end         time.Time
}

// NewProgram creates a new Program.
// When id is empty it is derived from the channel reference and start instant.
// Returns ErrEmptyChannelRef if channelRef is empty or contains only whitespace.
// Returns ErrInvalidTimeRange unless start is strictly before end.
func NewProgram(id, channelRef, title, description, category, iconURL string, start, end time.Time) (Program, error) {
	trimmedRef := strings.TrimSpace(channelRef)
	if trimmedRef == "" {
		return Program{}, ErrEmptyChannelRef
	}

	if !start.Before(end) {
		return Program{}, ErrInvalidTimeRange
	}

	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		trimmedID = trimmedRef + "_" + strconv.FormatInt(start.Unix(), 10)
	}

	return Program{
		id:          trimmedID,
		channelRef:  trimmedRef,
		title:       strings.TrimSpace(title),
		description: strings.TrimSpace(description),
		category:    strings.TrimSpace(category),
		iconURL:     strings.TrimSpace(iconURL),
		start:       start.UTC(),
		end:         end.UTC(),
	}, nil
}

// ID returns the program identifier.
func (p Program) ID() string {
	return p.id
}

// ChannelRef returns the join key matching a channel's EPG id or normalized name.
func (p Program) ChannelRef() string {
	return p.channelRef
}

// Title returns the program title.
func (p Program) Title() string {
	return p.title
}

// Description returns the program description.
func (p Program) Description() string {
	return p.description
}

// Category returns the program category.
func (p Program) Category() string {
	return p.category
}

// IconURL returns the program artwork locator.
func (p Program) IconURL() string {
	return p.iconURL
}

// StartTime returns the start instant in UTC.
func (p Program) StartTime() time.Time {
	return p.start
}

// EndTime returns the end instant in UTC.
func (p Program) EndTime() time.Time {
	return p.end
}

// AiringAt reports whether t falls within [start, end).
func (p Program) AiringAt(t time.Time) bool {
	return !t.Before(p.start) && t.Before(p.end)
}
