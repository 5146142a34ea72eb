package common

import (
	"os"
	"path/filepath"
)

// ConfigDir is where canto keeps everything it persists (~/.canto).
// CANTO_HOME overrides it, mainly for tests and throwaway setups.
func ConfigDir() string {
	if dir := os.Getenv("CANTO_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".canto")
}

// PlaylistDir holds one JSON file per playlist.
func PlaylistDir() string {
	return filepath.Join(ConfigDir(), "playlists")
}

// SongStorePath is the library of every song canto has seen.
func SongStorePath() string {
	return filepath.Join(ConfigDir(), "songs.json")
}

// CachePath holds the player UI state between runs.
func CachePath() string {
	return filepath.Join(ConfigDir(), "cache.json")
}
