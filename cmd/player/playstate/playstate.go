// Package playstate tracks what is being played and what follows it:
// play mode, the history of positions played so far and a precomputed next
// position. The next song is drawn once and stored, so peeking at it and
// actually advancing to it always agree, even in shuffle mode.
package playstate

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/gigurra/canto/cmd/player/library"
)

var (
	ErrNoNextSong     = errors.New("no next song to play")
	ErrNoSuchPlaylist = errors.New("playlist does not exist")
	ErrNoSuchSong     = errors.New("song index outside the playlist")
)

type PlayMode int

const (
	ModeNormal PlayMode = iota
	ModeShuffle
)

func (m PlayMode) String() string {
	if m == ModeShuffle {
		return "shuffle"
	}
	return "normal"
}

// ParseMode is the inverse of String; unknown input means normal.
func ParseMode(s string) PlayMode {
	if s == "shuffle" {
		return ModeShuffle
	}
	return ModeNormal
}

// PlayPosition is where a song was started from. A song played straight
// from the file browser has no follow-on; a song played from a playlist
// remembers its place there.
type PlayPosition interface {
	SongID() library.SongID
	isPlayPosition()
}

type FilePosition struct {
	ID library.SongID
}

type PlaylistPosition struct {
	ID       library.SongID
	Playlist int // index into the playlist list
	Index    int // index within the playlist
	// Deleted marks a position whose playlist entry was removed while it
	// was still current or upcoming. The song itself remains playable.
	Deleted bool
}

func (p FilePosition) SongID() library.SongID     { return p.ID }
func (p PlaylistPosition) SongID() library.SongID { return p.ID }

func (FilePosition) isPlayPosition()     {}
func (PlaylistPosition) isPlayPosition() {}

// PlayState is not safe for concurrent use; the player drives it from its
// update loop only.
type PlayState struct {
	playing bool
	mode    PlayMode
	history []PlayPosition
	next    PlayPosition

	// rng draws shuffle indices; replaced in tests
	rng func(n int) int
}

func New() *PlayState {
	return &PlayState{rng: rand.IntN}
}

func (s *PlayState) Playing() bool { return s.playing }

func (s *PlayState) SetPlaying(playing bool) { s.playing = playing }

func (s *PlayState) Mode() PlayMode { return s.mode }

// Current returns the position being played, or nil before the first song.
func (s *PlayState) Current() PlayPosition {
	if len(s.history) == 0 {
		return nil
	}
	return s.history[len(s.history)-1]
}

// Next returns the upcoming position without consuming it.
func (s *PlayState) Next() PlayPosition { return s.next }

// PlaySong makes pos the current position and draws the position that will
// follow it. A position nothing can follow (a bare file, the end of a
// playlist) just leaves no next song.
func (s *PlayState) PlaySong(pos PlayPosition, playlists []*library.Playlist) {
	s.history = append(s.history, pos)
	s.next, _ = s.generateNext(pos, playlists)
}

// PlayNext promotes the stored next position to current and draws a new
// one. It returns the position to start playing.
func (s *PlayState) PlayNext(playlists []*library.Playlist) (PlayPosition, error) {
	if s.next == nil {
		return nil, ErrNoNextSong
	}
	pos := s.next
	s.history = append(s.history, pos)
	s.next, _ = s.generateNext(pos, playlists)
	return pos, nil
}

// SetMode switches the play mode and redraws the next position from the
// current one, so a freshly enabled shuffle takes effect immediately.
func (s *PlayState) SetMode(mode PlayMode, playlists []*library.Playlist) {
	s.mode = mode
	if cur := s.Current(); cur != nil {
		s.next, _ = s.generateNext(cur, playlists)
	}
}

func (s *PlayState) ToggleMode(playlists []*library.Playlist) {
	if s.mode == ModeNormal {
		s.SetMode(ModeShuffle, playlists)
	} else {
		s.SetMode(ModeNormal, playlists)
	}
}

// IsPlaylistCurrent reports whether the current position sits inside the
// given playlist.
func (s *PlayState) IsPlaylistCurrent(playlistIndex int) bool {
	p, ok := s.Current().(PlaylistPosition)
	return ok && p.Playlist == playlistIndex
}

// IsSongCurrent reports whether the current position is exactly the given
// playlist entry.
func (s *PlayState) IsSongCurrent(playlistIndex, songIndex int) bool {
	p, ok := s.Current().(PlaylistPosition)
	return ok && p.Playlist == playlistIndex && p.Index == songIndex && !p.Deleted
}

// WasPlayed reports whether the given playlist entry appears anywhere in
// the play history, the current position included.
func (s *PlayState) WasPlayed(playlistIndex, songIndex int) bool {
	for _, pos := range s.history {
		p, ok := pos.(PlaylistPosition)
		if ok && p.Playlist == playlistIndex && p.Index == songIndex && !p.Deleted {
			return true
		}
	}
	return false
}

// ApplyPlaylistDelete rewrites every stored position after the entry at
// songIndex was removed from a playlist: the removed position is flagged
// deleted, positions behind it shift down one.
func (s *PlayState) ApplyPlaylistDelete(playlistIndex, songIndex int) {
	for i, pos := range s.history {
		s.history[i] = positionAfterDelete(pos, playlistIndex, songIndex)
	}
	if s.next != nil {
		s.next = positionAfterDelete(s.next, playlistIndex, songIndex)
	}
}

func positionAfterDelete(pos PlayPosition, playlistIndex, songIndex int) PlayPosition {
	p, ok := pos.(PlaylistPosition)
	if !ok || p.Playlist != playlistIndex {
		return pos
	}
	switch {
	case p.Index == songIndex:
		p.Deleted = true
	case p.Index > songIndex:
		p.Index--
	}
	return p
}

func (s *PlayState) generateNext(from PlayPosition, playlists []*library.Playlist) (PlayPosition, error) {
	pos, ok := from.(PlaylistPosition)
	if !ok {
		return nil, ErrNoNextSong
	}
	if pos.Playlist < 0 || pos.Playlist >= len(playlists) {
		return nil, fmt.Errorf("%w: index %d", ErrNoSuchPlaylist, pos.Playlist)
	}
	pl := playlists[pos.Playlist]
	if len(pl.Songs) == 0 {
		return nil, fmt.Errorf("%w: playlist %q is empty", ErrNoSuchSong, pl.Name)
	}

	var index int
	switch s.mode {
	case ModeShuffle:
		index = s.rng(len(pl.Songs))
	default:
		index = pos.Index + 1
		if pos.Deleted {
			// the deleted entry's successor has shifted into its place
			index = pos.Index
		}
	}
	if index < 0 || index >= len(pl.Songs) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoSuchSong, index, len(pl.Songs))
	}
	return PlaylistPosition{ID: pl.Songs[index], Playlist: pos.Playlist, Index: index}, nil
}
