package driver

import (
	"time"

	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/internal/playlist"
)

// channelResponse represents a channel in JSON format.
type channelResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	LogoURL    string            `json:"logo_url,omitempty"`
	GroupID    string            `json:"group_id,omitempty"`
	GroupTitle string            `json:"group_title,omitempty"`
	EPGID      string            `json:"epg_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type channelWithCountResponse struct {
	channelResponse
	ProgramCount int `json:"program_count"`
}

type programResponse struct {
	ID          string `json:"id"`
	ChannelRef  string `json:"channel_ref"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type groupResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type summaryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Format       string `json:"format"`
	ChannelCount int    `json:"channel_count"`
	ProgramCount int    `json:"program_count"`
	UpdatedAt    string `json:"updated_at"`
}

type playlistResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Title        string            `json:"title,omitempty"`
	Format       string            `json:"format"`
	EPGURL       string            `json:"epg_url,omitempty"`
	Groups       []groupResponse   `json:"groups"`
	Channels     []channelResponse `json:"channels"`
	ProgramCount int               `json:"program_count"`
}

type ingestResponse struct {
	ID       string `json:"id"`
	Format   string `json:"format"`
	Channels int    `json:"channels"`
	Programs int    `json:"programs"`
	Skipped  int    `json:"skipped"`
	EPGURL   string `json:"epg_url,omitempty"`
	EPGError string `json:"epg_error,omitempty"`

	MatchedChannels int `json:"matched_channels"`
	AiringNow       int `json:"airing_now"`
}

func toChannelResponse(ch playlist.Channel) channelResponse {
	resp := channelResponse{
		ID:         ch.ID(),
		Name:       ch.Name(),
		URL:        ch.URL(),
		LogoURL:    ch.LogoURL(),
		GroupID:    ch.GroupID(),
		GroupTitle: ch.GroupTitle(),
		EPGID:      ch.EPGID(),
	}
	if attrs := ch.Attributes(); attrs.Len() > 0 {
		resp.Attributes = attrs.Map()
	}
	return resp
}

func toProgramResponse(p playlist.Program) programResponse {
	return programResponse{
		ID:          p.ID(),
		ChannelRef:  p.ChannelRef(),
		Title:       p.Title(),
		Description: p.Description(),
		Category:    p.Category(),
		IconURL:     p.IconURL(),
		Start:       p.StartTime().UTC().Format(time.RFC3339),
		End:         p.EndTime().UTC().Format(time.RFC3339),
	}
}

func toSummaryResponse(s playlist.Summary) summaryResponse {
	return summaryResponse{
		ID:           s.ID,
		Name:         s.Name,
		Format:       s.Format.String(),
		ChannelCount: s.ChannelCount,
		ProgramCount: s.ProgramCount,
		UpdatedAt:    s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toPlaylistResponse(id string, p playlist.Playlist) playlistResponse {
	resp := playlistResponse{
		ID:           id,
		Name:         p.Name(),
		Title:        p.Title(),
		Format:       p.Format().String(),
		EPGURL:       p.EPGURL(),
		Groups:       make([]groupResponse, 0, len(p.Groups())),
		Channels:     make([]channelResponse, 0, len(p.Channels())),
		ProgramCount: len(p.Programs()),
	}
	for _, g := range p.Groups() {
		resp.Groups = append(resp.Groups, groupResponse{ID: g.ID(), Title: g.Title()})
	}
	for _, ch := range p.Channels() {
		resp.Channels = append(resp.Channels, toChannelResponse(ch))
	}
	return resp
}

func toIngestResponse(r application.IngestResult) ingestResponse {
	return ingestResponse{
		ID:       r.ID,
		Format:   r.Format.String(),
		Channels: r.Channels,
		Programs: r.Programs,
		Skipped:  r.Skipped,
		EPGURL:   r.EPGURL,
		EPGError: r.EPGError,

		MatchedChannels: r.MatchedChannels,
		AiringNow:       r.AiringNow,
	}
}
