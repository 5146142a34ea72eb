package library

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Playlist is an ordered list of songs plus its persisted view state.
// Playlists serialize to individual JSON files under the playlist directory.
type Playlist struct {
	Name   string   `json:"name"`
	Songs  []SongID `json:"songs"`
	Cursor int      `json:"cursor_position"`
	Scroll int      `json:"scroll_position"`
}

func NewPlaylist(name string) *Playlist {
	return &Playlist{Name: name}
}

// SetCursor moves the cursor and keeps the scroll window over it.
func (p *Playlist) SetCursor(pos, numRows int) {
	p.Cursor = pos
	p.NormalizeScroll(numRows)
}

// NormalizeScroll clamps the scroll offset so the cursor stays visible in a
// window of numRows rows.
func (p *Playlist) NormalizeScroll(numRows int) {
	p.Scroll = max(p.Scroll, p.Cursor-numRows+1)
	p.Scroll = min(p.Scroll, p.Cursor)
	p.Scroll = max(p.Scroll, 0)
}

// LoadPlaylist reads a single playlist JSON file.
func LoadPlaylist(path string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Playlist
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the playlist to its JSON file under dir, named after the
// playlist.
func (p *Playlist) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, p.Name+".json"), data, 0644)
}

// LoadPlaylists reads all *.json playlists in dir, sorted by file name.
// A missing directory yields no playlists.
func LoadPlaylists(dir string) ([]*Playlist, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	playlists := make([]*Playlist, 0, len(names))
	for _, name := range names {
		p, err := LoadPlaylist(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("skipping unreadable playlist", "file", name, "err", err)
			continue
		}
		playlists = append(playlists, p)
	}
	return playlists, nil
}

// ImportPlaylists imports plain-text playlists (one absolute song path per
// line) from path, which may be a single file or a directory walked
// recursively. Lines naming files that do not exist are skipped.
func ImportPlaylists(path string, store *Store) []*Playlist {
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("cannot import playlists", "path", path, "err", err)
		return nil
	}
	if !info.IsDir() {
		p, err := importPlaylistFile(path, store)
		if err != nil {
			slog.Warn("cannot import playlist file", "path", path, "err", err)
			return nil
		}
		return []*Playlist{p}
	}

	var playlists []*Playlist
	for _, entry := range ListDir(path) {
		if entry.IsDir {
			playlists = append(playlists, ImportPlaylists(entry.Path, store)...)
			continue
		}
		p, err := importPlaylistFile(entry.Path, store)
		if err != nil {
			slog.Warn("cannot import playlist file", "path", entry.Path, "err", err)
			continue
		}
		playlists = append(playlists, p)
	}
	return playlists
}

func importPlaylistFile(path string, store *Store) (*Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p := NewPlaylist(name)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if info, err := os.Stat(line); err != nil || info.IsDir() {
			slog.Warn("skipping playlist entry", "playlist", name, "path", line)
			continue
		}
		p.Songs = append(p.Songs, store.Import(line, ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
