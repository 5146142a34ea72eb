package common

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{time.Second, "0:01"},
		{59 * time.Second, "0:59"},
		{time.Minute, "1:00"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "1:00:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{25*time.Hour + 30*time.Minute, "25:30:00"},
		{90*time.Minute + 500*time.Millisecond, "1:30:00"},
	}

	for _, tt := range tests {
		result := FormatDuration(tt.input)
		if result != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CANTO_HOME", dir)

	if got := ConfigDir(); got != dir {
		t.Errorf("ConfigDir() = %q, want %q", got, dir)
	}
	if got, want := PlaylistDir(), filepath.Join(dir, "playlists"); got != want {
		t.Errorf("PlaylistDir() = %q, want %q", got, want)
	}
	if got, want := SongStorePath(), filepath.Join(dir, "songs.json"); got != want {
		t.Errorf("SongStorePath() = %q, want %q", got, want)
	}
	if got, want := CachePath(), filepath.Join(dir, "cache.json"); got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
}
