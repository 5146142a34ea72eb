// Package library holds the song catalog and playlists: stable integer song
// ids, title derivation from file names, and JSON persistence under the app
// state directory.
package library

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// SongID identifies a song in the Store. Ids are assigned sequentially on
// first import and are stable across runs via songs.json.
type SongID uint32

// Song is one playable file. Duration is zero until a decoder reported it.
type Song struct {
	ID       SongID        `json:"id"`
	Title    string        `json:"title"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Store is the song catalog. Imports de-duplicate by path, so a song keeps
// its id no matter how often directories are rescanned.
type Store struct {
	Songs  []*Song `json:"songs"`
	NextID SongID  `json:"next_id"`
}

func NewStore() *Store {
	return &Store{}
}

// Import returns the id for path, allocating a new entry if the path is not
// known yet. An empty title derives the title from the file name.
func (s *Store) Import(path string, title string) SongID {
	if song, ok := s.ByPath(path); ok {
		return song.ID
	}
	if title == "" {
		title = TitleFromPath(path)
	}
	song := &Song{
		ID:    s.NextID,
		Title: title,
		Path:  path,
	}
	s.NextID++
	s.Songs = append(s.Songs, song)
	return song.ID
}

func (s *Store) Get(id SongID) (*Song, bool) {
	for _, song := range s.Songs {
		if song.ID == id {
			return song, true
		}
	}
	return nil, false
}

func (s *Store) ByPath(path string) (*Song, bool) {
	for _, song := range s.Songs {
		if song.Path == path {
			return song, true
		}
	}
	return nil, false
}

// SetDuration records a decoded duration for id. Unknown ids are ignored.
func (s *Store) SetDuration(id SongID, d time.Duration) {
	if song, ok := s.Get(id); ok {
		song.Duration = d
	}
}

// LoadStore reads a song catalog from path. A missing file yields an empty
// store.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(), nil
		}
		return nil, err
	}
	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// Save writes the catalog to path, creating parent directories as needed.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
