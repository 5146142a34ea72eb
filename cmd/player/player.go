// Package player implements `canto player`, the interactive terminal UI:
// a file browser, playlists and a log view on top of the playback engine.
package player

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/gigurra/canto/cmd/common"
	"github.com/gigurra/canto/cmd/player/audio"
	"github.com/gigurra/canto/cmd/player/config"
	"github.com/gigurra/canto/cmd/player/library"
	"github.com/spf13/cobra"
)

type Params struct {
	Dir    string `pos:"true" optional:"true" help:"Directory to start browsing in."`
	Notify bool   `long:"notify" help:"Show a desktop notification when a song starts."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "player",
		Short:       "Browse and play music in a terminal UI",
		Long:        "Opens the interactive player: browse directories, build playlists and control playback. State is kept between runs.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runPlayer(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runPlayer(params *Params) error {
	cfg, err := config.Load(common.CachePath())
	if err != nil {
		slog.Warn("cannot read cache, starting fresh", "err", err)
		cfg = config.DefaultCache()
	}
	if params.Dir != "" {
		dir, err := filepath.Abs(params.Dir)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", params.Dir, err)
		}
		cfg.BrowserDir = dir
	}

	store, err := library.LoadStore(common.SongStorePath())
	if err != nil {
		slog.Warn("cannot read song store, starting fresh", "err", err)
		store = library.NewStore()
	}
	playlists, err := library.LoadPlaylists(common.PlaylistDir())
	if err != nil {
		slog.Warn("cannot read playlists", "err", err)
	}

	sink, err := audio.NewSpeakerSink()
	if err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer func() { _ = sink.Close() }()

	engine := audio.NewEngine(sink, float32(min(max(cfg.Volume, 0), 100))*0.01)
	go engine.Run()
	defer engine.Stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("directory watching unavailable", "err", err)
		watcher = nil
	} else {
		defer func() { _ = watcher.Close() }()
	}

	restore, err := redirectLog()
	if err != nil {
		slog.Warn("cannot open log file", "err", err)
	} else {
		defer restore()
	}

	m := newModel(cfg, store, playlists, engine.Post, engine.Infos(), watcher, params.Notify)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("player failed: %w", err)
	}
	if fm, ok := final.(model); ok {
		fm.persist()
	}
	return nil
}

// redirectLog sends slog output to a file for the duration of the session.
// Logging to stderr would scribble over the alternate screen.
func redirectLog() (func(), error) {
	dir := common.ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "log.txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
	return func() {
		slog.SetDefault(prev)
		_ = f.Close()
	}, nil
}

// persist writes everything worth keeping across runs: the UI state, the
// song store and every playlist.
func (m model) persist() {
	cache := &config.Cache{
		View:          m.view,
		PlayMode:      m.state.Mode().String(),
		Volume:        m.volume,
		Follow:        m.follow,
		BrowserDir:    m.browserDir,
		ShownPlaylist: m.shownPlaylist,
	}
	if err := cache.Save(common.CachePath()); err != nil {
		slog.Error("failed to save cache", "err", err)
	}
	if err := m.store.Save(common.SongStorePath()); err != nil {
		slog.Error("failed to save song store", "err", err)
	}
	for _, pl := range m.playlists {
		if err := pl.Save(common.PlaylistDir()); err != nil {
			slog.Error("failed to save playlist", "playlist", pl.Name, "err", err)
		}
	}
}
