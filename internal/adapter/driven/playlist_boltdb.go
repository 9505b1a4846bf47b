package driven

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/alorle/iptv-guide/internal/playlist"
)

const (
	playlistsBucket = "playlists"
	settingsBucket  = "settings"

	metaKey          = "meta"
	channelsBucket   = "channels"
	channelIDsBucket = "channel_ids"
	programsBucket   = "programs"
	scheduleBucket   = "schedule"

	currentPlaylistKey = "current_playlist_id"
)

// PlaylistBoltDBStore implements the PlaylistStore port using BoltDB.
// Each playlist lives in its own nested bucket so a save can drop and
// rebuild it inside one transaction.
type PlaylistBoltDBStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewPlaylistBoltDBStore creates a new BoltDB-backed playlist store.
// It initializes the required buckets if they don't exist.
func NewPlaylistBoltDBStore(db *bbolt.DB) (*PlaylistBoltDBStore, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{playlistsBucket, settingsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &PlaylistBoltDBStore{db: db, now: time.Now}, nil
}

// metaDTO holds playlist-level fields.
type metaDTO struct {
	Name         string     `json:"name"`
	Title        string     `json:"title,omitempty"`
	Format       string     `json:"format"`
	EPGURL       string     `json:"epg_url,omitempty"`
	Groups       []groupDTO `json:"groups,omitempty"`
	ChannelCount int        `json:"channel_count"`
	ProgramCount int        `json:"program_count"`
	UpdatedAt    string     `json:"updated_at"`
}

type groupDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// channelDTO is used for JSON serialization.
type channelDTO struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	URL          string         `json:"url"`
	LogoURL      string         `json:"logo_url,omitempty"`
	GroupID      string         `json:"group_id,omitempty"`
	GroupTitle   string         `json:"group_title,omitempty"`
	EPGID        string         `json:"epg_id,omitempty"`
	Attributes   []attributeDTO `json:"attributes,omitempty"`
	ProgramCount int            `json:"program_count"`
}

type attributeDTO struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

// programDTO is used for JSON serialization.
type programDTO struct {
	ID          string `json:"id"`
	ChannelRef  string `json:"channel_ref"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

func channelToDTO(ch playlist.Channel, programCount int) channelDTO {
	dto := channelDTO{
		ID:           ch.ID(),
		Name:         ch.Name(),
		URL:          ch.URL(),
		LogoURL:      ch.LogoURL(),
		GroupID:      ch.GroupID(),
		GroupTitle:   ch.GroupTitle(),
		EPGID:        ch.EPGID(),
		ProgramCount: programCount,
	}
	for k, v := range ch.Attributes().All() {
		dto.Attributes = append(dto.Attributes, attributeDTO{Key: k, Value: v})
	}
	return dto
}

func dtoToChannel(dto channelDTO) (playlist.Channel, error) {
	var attrs playlist.Attributes
	for _, a := range dto.Attributes {
		attrs = attrs.With(a.Key, a.Value)
	}
	return playlist.NewChannel(dto.ID, dto.Name, dto.URL, dto.LogoURL, dto.GroupID, dto.GroupTitle, dto.EPGID, attrs)
}

func programToDTO(p playlist.Program) programDTO {
	return programDTO{
		ID:          p.ID(),
		ChannelRef:  p.ChannelRef(),
		Title:       p.Title(),
		Description: p.Description(),
		Category:    p.Category(),
		IconURL:     p.IconURL(),
		Start:       p.StartTime().Format(time.RFC3339Nano),
		End:         p.EndTime().Format(time.RFC3339Nano),
	}
}

func dtoToProgram(dto programDTO) (playlist.Program, error) {
	start, err := time.Parse(time.RFC3339Nano, dto.Start)
	if err != nil {
		return playlist.Program{}, err
	}
	end, err := time.Parse(time.RFC3339Nano, dto.End)
	if err != nil {
		return playlist.Program{}, err
	}
	return playlist.NewProgram(dto.ID, dto.ChannelRef, dto.Title, dto.Description, dto.Category, dto.IconURL, start, end)
}

// seqKey encodes a position so cursor order matches source order
func seqKey(n int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(n))
	return key
}

// scheduleKey orders a channel's programs by start, then by source position
func scheduleKey(channelID string, start time.Time, n int) []byte {
	key := make([]byte, 0, len(channelID)+17)
	key = append(key, channelID...)
	key = append(key, 0)
	key = binary.BigEndian.AppendUint64(key, uint64(start.Unix())^(1<<63))
	key = binary.BigEndian.AppendUint64(key, uint64(n))
	return key
}

func schedulePrefix(channelID string) []byte {
	return append([]byte(channelID), 0)
}

// SavePlaylist stores p under id, replacing any previous version atomically.
func (r *PlaylistBoltDBStore) SavePlaylist(ctx context.Context, id string, p playlist.Playlist) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("playlist id cannot be empty")
	}

	channels := p.Channels()
	programs := p.Programs()
	schedule := playlist.NewSchedule(programs)

	meta := metaDTO{
		Name:         p.Name(),
		Title:        p.Title(),
		Format:       string(p.Format()),
		EPGURL:       p.EPGURL(),
		ChannelCount: len(channels),
		ProgramCount: len(programs),
		UpdatedAt:    r.now().UTC().Format(time.RFC3339),
	}
	for _, g := range p.Groups() {
		meta.Groups = append(meta.Groups, groupDTO{ID: g.ID(), Title: g.Title()})
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(playlistsBucket))
		if root == nil {
			return errors.New("playlists bucket not found")
		}

		// Replace rather than merge so re-ingestion never duplicates entries
		if root.Bucket([]byte(id)) != nil {
			if err := root.DeleteBucket([]byte(id)); err != nil {
				return err
			}
		}
		pb, err := root.CreateBucket([]byte(id))
		if err != nil {
			return err
		}

		if err := putJSON(pb, []byte(metaKey), meta); err != nil {
			return err
		}

		chb, err := pb.CreateBucket([]byte(channelsBucket))
		if err != nil {
			return err
		}
		idb, err := pb.CreateBucket([]byte(channelIDsBucket))
		if err != nil {
			return err
		}
		sb, err := pb.CreateBucket([]byte(scheduleBucket))
		if err != nil {
			return err
		}
		for i, ch := range channels {
			if i%1000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			key := seqKey(i)
			if err := putJSON(chb, key, channelToDTO(ch, schedule.Count(ch))); err != nil {
				return err
			}
			if err := idb.Put([]byte(ch.ID()), key); err != nil {
				return err
			}
			for j, prog := range schedule.ProgramsFor(ch) {
				if err := putJSON(sb, scheduleKey(ch.ID(), prog.StartTime(), j), programToDTO(prog)); err != nil {
					return err
				}
			}
		}

		prb, err := pb.CreateBucket([]byte(programsBucket))
		if err != nil {
			return err
		}
		for i, prog := range programs {
			if i%1000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if err := putJSON(prb, seqKey(i), programToDTO(prog)); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetPlaylist retrieves a stored playlist from BoltDB.
func (r *PlaylistBoltDBStore) GetPlaylist(ctx context.Context, id string) (playlist.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return playlist.Playlist{}, err
	}

	var result playlist.Playlist

	err := r.db.View(func(tx *bbolt.Tx) error {
		pb, err := playlistBucket(tx, id)
		if err != nil {
			return err
		}

		var meta metaDTO
		if err := json.Unmarshal(pb.Get([]byte(metaKey)), &meta); err != nil {
			return fmt.Errorf("decode playlist meta: %w", err)
		}

		var channels []playlist.Channel
		err = pb.Bucket([]byte(channelsBucket)).ForEach(func(_, v []byte) error {
			var dto channelDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}
			ch, err := dtoToChannel(dto)
			if err != nil {
				return err
			}
			channels = append(channels, ch)
			return nil
		})
		if err != nil {
			return err
		}

		var programs []playlist.Program
		err = pb.Bucket([]byte(programsBucket)).ForEach(func(_, v []byte) error {
			var dto programDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}
			prog, err := dtoToProgram(dto)
			if err != nil {
				return err
			}
			programs = append(programs, prog)
			return nil
		})
		if err != nil {
			return err
		}

		var groups []playlist.Group
		for _, g := range meta.Groups {
			group, err := playlist.NewGroup(g.ID, g.Title)
			if err != nil {
				return err
			}
			groups = append(groups, group)
		}

		result = playlist.NewPlaylist(meta.Name, channels, programs, groups).
			WithTitle(meta.Title).
			WithFormat(playlist.Format(meta.Format)).
			WithEPGURL(meta.EPGURL)
		return nil
	})

	return result, err
}

// ListPlaylists returns a summary of every stored playlist.
func (r *PlaylistBoltDBStore) ListPlaylists(ctx context.Context) ([]playlist.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summaries := []playlist.Summary{}

	err := r.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(playlistsBucket))
		if root == nil {
			return errors.New("playlists bucket not found")
		}

		return root.ForEachBucket(func(k []byte) error {
			var meta metaDTO
			if err := json.Unmarshal(root.Bucket(k).Get([]byte(metaKey)), &meta); err != nil {
				return fmt.Errorf("decode playlist meta %s: %w", k, err)
			}
			updatedAt, _ := time.Parse(time.RFC3339, meta.UpdatedAt)
			summaries = append(summaries, playlist.Summary{
				ID:           string(k),
				Name:         meta.Name,
				Format:       playlist.Format(meta.Format),
				ChannelCount: meta.ChannelCount,
				ProgramCount: meta.ProgramCount,
				UpdatedAt:    updatedAt,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// DeletePlaylist removes a playlist by its id from BoltDB.
func (r *PlaylistBoltDBStore) DeletePlaylist(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(playlistsBucket))
		if root == nil {
			return errors.New("playlists bucket not found")
		}
		if root.Bucket([]byte(id)) == nil {
			return playlist.ErrPlaylistNotFound
		}
		if err := root.DeleteBucket([]byte(id)); err != nil {
			return err
		}

		settings := tx.Bucket([]byte(settingsBucket))
		if settings == nil {
			return errors.New("settings bucket not found")
		}
		if bytes.Equal(settings.Get([]byte(currentPlaylistKey)), []byte(id)) {
			return settings.Delete([]byte(currentPlaylistKey))
		}
		return nil
	})
}

// ListChannelsWithProgramCounts returns channels in source order with their
// program counts.
func (r *PlaylistBoltDBStore) ListChannelsWithProgramCounts(ctx context.Context, playlistID string) ([]playlist.ChannelWithProgramCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	views := []playlist.ChannelWithProgramCount{}

	err := r.db.View(func(tx *bbolt.Tx) error {
		pb, err := playlistBucket(tx, playlistID)
		if err != nil {
			return err
		}

		return pb.Bucket([]byte(channelsBucket)).ForEach(func(_, v []byte) error {
			var dto channelDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}
			ch, err := dtoToChannel(dto)
			if err != nil {
				return err
			}
			views = append(views, playlist.ChannelWithProgramCount{Channel: ch, ProgramCount: dto.ProgramCount})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}

// GetCurrentProgram returns the program airing on a channel at the instant.
// ok is false when nothing airs then.
func (r *PlaylistBoltDBStore) GetCurrentProgram(ctx context.Context, playlistID, channelID string, at time.Time) (current playlist.Program, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return playlist.Program{}, false, err
	}

	err = r.db.View(func(tx *bbolt.Tx) error {
		pb, err := playlistBucket(tx, playlistID)
		if err != nil {
			return err
		}
		if pb.Bucket([]byte(channelIDsBucket)).Get([]byte(channelID)) == nil {
			return playlist.ErrChannelNotFound
		}

		// Keys are start-ordered, so scanning can stop at the first program
		// that starts after the instant
		var candidates []playlist.Program
		prefix := schedulePrefix(channelID)
		limit := scheduleKey(channelID, at, 1<<62)
		c := pb.Bucket([]byte(scheduleBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix) && bytes.Compare(k, limit) <= 0; k, v = c.Next() {
			var dto programDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}
			prog, err := dtoToProgram(dto)
			if err != nil {
				return err
			}
			candidates = append(candidates, prog)
		}

		current, ok = playlist.CurrentProgram(candidates, at)
		return nil
	})
	if err != nil {
		return playlist.Program{}, false, err
	}

	return current, ok, nil
}

// GetCurrentPlaylistID returns the selected playlist id.
func (r *PlaylistBoltDBStore) GetCurrentPlaylistID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var id string
	err := r.db.View(func(tx *bbolt.Tx) error {
		settings := tx.Bucket([]byte(settingsBucket))
		if settings == nil {
			return errors.New("settings bucket not found")
		}
		v := settings.Get([]byte(currentPlaylistKey))
		if v == nil {
			return playlist.ErrNoSelection
		}
		id = string(v)
		return nil
	})
	return id, err
}

// SetCurrentPlaylistID selects a stored playlist.
func (r *PlaylistBoltDBStore) SetCurrentPlaylistID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if _, err := playlistBucket(tx, id); err != nil {
			return err
		}
		settings := tx.Bucket([]byte(settingsBucket))
		if settings == nil {
			return errors.New("settings bucket not found")
		}
		return settings.Put([]byte(currentPlaylistKey), []byte(id))
	})
}

// ClearCurrentPlaylist removes the selection.
func (r *PlaylistBoltDBStore) ClearCurrentPlaylist(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		settings := tx.Bucket([]byte(settingsBucket))
		if settings == nil {
			return errors.New("settings bucket not found")
		}
		return settings.Delete([]byte(currentPlaylistKey))
	})
}

// Ping checks if the BoltDB database is accessible and operational.
func (r *PlaylistBoltDBStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(playlistsBucket)) == nil {
			return errors.New("playlists bucket not found")
		}
		return nil
	})
}

// playlistBucket returns the nested bucket for id
func playlistBucket(tx *bbolt.Tx, id string) (*bbolt.Bucket, error) {
	root := tx.Bucket([]byte(playlistsBucket))
	if root == nil {
		return nil, errors.New("playlists bucket not found")
	}
	if id == "" {
		return nil, playlist.ErrPlaylistNotFound
	}
	pb := root.Bucket([]byte(id))
	if pb == nil {
		return nil, playlist.ErrPlaylistNotFound
	}
	return pb, nil
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}
