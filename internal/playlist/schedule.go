package playlist

import (
	"sort"
	"time"
)

// Schedule indexes programs by the key they join channels on.
// A channel with an EPG id matches programs whose channel reference equals
// that id. A channel without one falls back to matching its normalized name
// against normalized references; this fallback is lossy when providers reuse
// display names.
type Schedule struct {
	byRef  map[string][]Program
	byName map[string][]Program
}

// NewSchedule builds a schedule from programs. Programs are kept in start
// order; duplicates from different sources are all retained.
func NewSchedule(programs []Program) Schedule {
	s := Schedule{
		byRef:  make(map[string][]Program),
		byName: make(map[string][]Program),
	}
	for _, p := range programs {
		s.byRef[p.channelRef] = append(s.byRef[p.channelRef], p)
		key := NormalizeName(p.channelRef)
		s.byName[key] = append(s.byName[key], p)
	}
	for _, list := range s.byRef {
		sortByStart(list)
	}
	for _, list := range s.byName {
		sortByStart(list)
	}
	return s
}

// ProgramsFor returns the programs joined to ch in start order
func (s Schedule) ProgramsFor(ch Channel) []Program {
	var list []Program
	if ch.epgID != "" {
		list = s.byRef[ch.epgID]
	} else if key := NormalizeName(ch.name); key != "" {
		list = s.byName[key]
	}
	return append([]Program(nil), list...)
}

// Count returns the number of programs joined to ch
func (s Schedule) Count(ch Channel) int {
	if ch.epgID != "" {
		return len(s.byRef[ch.epgID])
	}
	if key := NormalizeName(ch.name); key != "" {
		return len(s.byName[key])
	}
	return 0
}

// WithCounts pairs every channel with its program count, keeping channel order
func (s Schedule) WithCounts(channels []Channel) []ChannelWithProgramCount {
	out := make([]ChannelWithProgramCount, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ChannelWithProgramCount{Channel: ch, ProgramCount: s.Count(ch)})
	}
	return out
}

// CurrentFor returns the program joined to ch that is airing at t
func (s Schedule) CurrentFor(ch Channel, t time.Time) (Program, bool) {
	if ch.epgID != "" {
		return CurrentProgram(s.byRef[ch.epgID], t)
	}
	return CurrentProgram(s.byName[NormalizeName(ch.name)], t)
}

// CurrentProgram selects the program airing at t. When overlapping programs
// all contain t, the one with the latest start wins; equal starts keep the
// earliest in input order.
func CurrentProgram(programs []Program, t time.Time) (Program, bool) {
	var (
		best  Program
		found bool
	)
	for _, p := range programs {
		if !p.AiringAt(t) {
			continue
		}
		if !found || p.start.After(best.start) {
			best = p
			found = true
		}
	}
	return best, found
}

func sortByStart(programs []Program) {
	sort.SliceStable(programs, func(i, j int) bool {
		return programs[i].start.Before(programs[j].start)
	})
}
