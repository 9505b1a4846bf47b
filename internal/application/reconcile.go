package application

import (
	"time"

	"github.com/alorle/iptv-guide/internal/playlist"
)

// Reconcile joins channels against programs and returns every channel paired
// with its program count, in channel order. Channels without programs get a
// count of zero. Programs from several sources are all kept.
func Reconcile(channels []playlist.Channel, programs ...[]playlist.Program) []playlist.ChannelWithProgramCount {
	return playlist.NewSchedule(flatten(programs)).WithCounts(channels)
}

// CurrentlyAiring maps channel ids to the program airing on them at t.
// Channels with nothing airing are absent from the result.
func CurrentlyAiring(channels []playlist.Channel, programs []playlist.Program, t time.Time) map[string]playlist.Program {
	schedule := playlist.NewSchedule(programs)
	out := make(map[string]playlist.Program)
	for _, ch := range channels {
		if p, ok := schedule.CurrentFor(ch, t); ok {
			out[ch.ID()] = p
		}
	}
	return out
}

func flatten(sets [][]playlist.Program) []playlist.Program {
	if len(sets) == 1 {
		return sets[0]
	}
	var out []playlist.Program
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
