// Package config persists the player's UI state between runs.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// View names stored in the cache and used to switch player screens.
const (
	ViewBrowser   = "browser"
	ViewPlaylists = "playlists"
	ViewLog       = "log"
)

// Cache is the player state worth keeping across runs. Songs and playlists
// live in their own files; this is just where the user left the UI.
type Cache struct {
	View          string `json:"view"`
	PlayMode      string `json:"play_mode"`
	Volume        int    `json:"volume"` // percent, 0..100
	Follow        bool   `json:"follow"`
	BrowserDir    string `json:"browser_dir"`
	ShownPlaylist int    `json:"shown_playlist"`
}

// DefaultCache returns the state of a first run: browser view in the
// working directory, full volume, follow on.
func DefaultCache() *Cache {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	return &Cache{
		View:       ViewBrowser,
		PlayMode:   "normal",
		Volume:     100,
		Follow:     true,
		BrowserDir: wd,
	}
}

// Load reads the cache at path. A missing file means a first run and
// yields defaults; a present but unreadable file is an error.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCache(), nil
		}
		return nil, err
	}

	cache := DefaultCache()
	if err := json.Unmarshal(data, cache); err != nil {
		return nil, err
	}

	// backfill anything a hand-edited file left out of range
	if cache.View == "" {
		cache.View = ViewBrowser
	}
	if cache.Volume < 0 {
		cache.Volume = 0
	}
	if cache.Volume > 100 {
		cache.Volume = 100
	}
	if cache.ShownPlaylist < 0 {
		cache.ShownPlaylist = 0
	}
	return cache, nil
}

// Save writes the cache to path, creating the directory if needed.
func (c *Cache) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
