package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cache, err := Load(filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cache.View != ViewBrowser {
		t.Errorf("View = %q, want %q", cache.View, ViewBrowser)
	}
	if cache.Volume != 100 {
		t.Errorf("Volume = %d, want 100", cache.Volume)
	}
	if !cache.Follow {
		t.Error("Follow = false, want true")
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cache.json")
	saved := &Cache{
		View:          ViewPlaylists,
		PlayMode:      "shuffle",
		Volume:        35,
		Follow:        false,
		BrowserDir:    "/music",
		ShownPlaylist: 2,
	}
	if err := saved.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *saved {
		t.Errorf("loaded %+v, want %+v", loaded, saved)
	}
}

func TestLoadBackfillsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	body := `{"view": "", "volume": 250, "shown_playlist": -3}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cache, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cache.View != ViewBrowser {
		t.Errorf("View = %q, want %q", cache.View, ViewBrowser)
	}
	if cache.Volume != 100 {
		t.Errorf("Volume = %d, want clamped to 100", cache.Volume)
	}
	if cache.ShownPlaylist != 0 {
		t.Errorf("ShownPlaylist = %d, want 0", cache.ShownPlaylist)
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() on a corrupt file succeeded, want error")
	}
}
