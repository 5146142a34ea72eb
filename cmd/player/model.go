package player

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/gen2brain/beeep"
	"github.com/gigurra/canto/cmd/player/audio"
	"github.com/gigurra/canto/cmd/player/config"
	"github.com/gigurra/canto/cmd/player/decode"
	"github.com/gigurra/canto/cmd/player/library"
	"github.com/gigurra/canto/cmd/player/playstate"
)

const (
	// queueOffset is how much play time may remain before the upcoming
	// song is handed to the engine for a gapless transition.
	queueOffset = 2 * time.Second
	seekStep    = 5 * time.Second
	volumeStep  = 5
)

type infoMsg struct{ info audio.Info }

type browserChangeMsg struct{}

// viewPos is a cursor and scroll offset, kept per browsed directory so
// walking back up restores the old selection.
type viewPos struct {
	cursor int
	scroll int
}

// normalizeScroll clamps the scroll offset so the cursor stays visible in
// a window of numRows rows.
func (p *viewPos) normalizeScroll(numRows int) {
	p.scroll = max(p.scroll, p.cursor-numRows+1)
	p.scroll = min(p.scroll, p.cursor)
	p.scroll = max(p.scroll, 0)
}

// songStatus mirrors what the engine is audibly playing right now.
type songStatus struct {
	id         library.SongID
	title      string
	position   time.Duration
	duration   time.Duration
	queuedNext bool // a follow-on was already arranged (or found missing)
}

type model struct {
	post    func(audio.Event) bool
	infos   <-chan audio.Info
	watcher *fsnotify.Watcher

	store     *library.Store
	playlists []*library.Playlist
	state     *playstate.PlayState
	logs      *logBuffer

	view   string
	width  int
	height int

	// browser view
	browserDir string
	entries    []library.Entry
	positions  map[string]*viewPos

	// playlists view
	shownPlaylist int
	songPane      bool

	// new-playlist name input
	inputActive bool
	inputText   string
	inputSongs  []library.SongID

	nowPlaying *songStatus
	// pendingNext is the song we queued on the engine and that has not
	// started yet; when it does, the play state advances.
	pendingNext *library.SongID

	volume int
	follow bool
	notify bool
}

func newModel(cfg *config.Cache, store *library.Store, playlists []*library.Playlist,
	post func(audio.Event) bool, infos <-chan audio.Info, watcher *fsnotify.Watcher, notify bool) model {

	state := playstate.New()
	state.SetMode(playstate.ParseMode(cfg.PlayMode), playlists)

	m := model{
		post:      post,
		infos:     infos,
		watcher:   watcher,
		store:     store,
		playlists: playlists,
		state:     state,
		logs:      &logBuffer{},
		view:      cfg.View,
		width:     80,
		height:    24,
		positions: make(map[string]*viewPos),
		volume:    min(max(cfg.Volume, 0), 100),
		follow:    cfg.Follow,
		notify:    notify,
	}
	switch m.view {
	case config.ViewBrowser, config.ViewPlaylists, config.ViewLog:
	default:
		m.view = config.ViewBrowser
	}
	m.shownPlaylist = min(max(cfg.ShownPlaylist, 0), max(len(playlists)-1, 0))
	return m.setBrowserDir(normalizeDir(cfg.BrowserDir))
}

// normalizeDir climbs to the nearest existing directory, falling back to
// the working directory. Cached paths can go stale between runs.
func normalizeDir(dir string) string {
	for dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return string(filepath.Separator)
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForInfo(m.infos), waitForBrowserChange(m.watcher), tea.EnterAltScreen)
}

func waitForInfo(infos <-chan audio.Info) tea.Cmd {
	return func() tea.Msg {
		info, ok := <-infos
		if !ok {
			return nil
		}
		return infoMsg{info: info}
	}
}

// waitForBrowserChange delivers one message per file event under the
// watched directory; the handler re-arms it.
func waitForBrowserChange(w *fsnotify.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case _, ok := <-w.Events:
				if !ok {
					return nil
				}
				return browserChangeMsg{}
			case _, ok := <-w.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func notifyCmd(title string) tea.Cmd {
	return func() tea.Msg {
		_ = beeep.Notify("canto", title, "")
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inputActive {
			return m.updateInput(msg), nil
		}
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case infoMsg:
		m, cmd := m.applyInfo(msg.info)
		return m, tea.Batch(waitForInfo(m.infos), cmd)

	case browserChangeMsg:
		m = m.refreshBrowser()
		return m, waitForBrowserChange(m.watcher)
	}
	return m, nil
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1":
		m.view = config.ViewBrowser
	case "2":
		m.view = config.ViewPlaylists
	case "3":
		m.view = config.ViewLog
	case "c":
		m = m.togglePause()
	case "s":
		m.state.ToggleMode(m.playlists)
		m.logs.add("play mode: " + m.state.Mode().String())
	case "+", "=":
		m = m.changeVolume(volumeStep)
	case "-":
		m = m.changeVolume(-volumeStep)
	case "L":
		m = m.seek(audio.SeekForward)
	case "H":
		m = m.seek(audio.SeekBackward)
	case "J":
		m = m.startNextSong()
	case "f":
		m.follow = !m.follow
		m.logs.add(fmt.Sprintf("cursor follow: %v", m.follow))
	case "p":
		m = m.copyCurrentPath()
	default:
		switch m.view {
		case config.ViewPlaylists:
			m = m.updatePlaylistsKey(msg)
		case config.ViewLog:
			m = m.updateLogKey(msg)
		default:
			m = m.updateBrowserKey(msg)
		}
	}
	return m, nil
}

// updateInput edits the new-playlist name line.
func (m model) updateInput(msg tea.KeyMsg) model {
	switch msg.String() {
	case "esc":
		m.inputActive = false
		m.inputText = ""
		m.inputSongs = nil
	case "enter":
		m = m.commitPlaylistInput()
	case "backspace":
		if len(m.inputText) > 0 {
			m.inputText = m.inputText[:len(m.inputText)-1]
		}
	default:
		if len(msg.String()) == 1 && msg.String()[0] >= 32 && msg.String()[0] < 127 {
			m.inputText += msg.String()
		}
	}
	return m
}

func (m model) commitPlaylistInput() model {
	name := strings.TrimSpace(m.inputText)
	songs := m.inputSongs
	m.inputActive = false
	m.inputText = ""
	m.inputSongs = nil
	if name == "" {
		return m
	}
	for _, pl := range m.playlists {
		if pl.Name == name {
			m.logs.addError(fmt.Sprintf("playlist %q already exists", name))
			return m
		}
	}
	pl := library.NewPlaylist(name)
	pl.Songs = songs
	m.playlists = append(m.playlists, pl)
	m.shownPlaylist = len(m.playlists) - 1
	m.logs.add(fmt.Sprintf("created playlist %q with %d songs", name, len(songs)))
	return m
}

// ---- engine infos ----

func (m model) applyInfo(info audio.Info) (model, tea.Cmd) {
	switch info := info.(type) {
	case audio.PlayingInfo:
		m = m.applyPlaying(info)
	case audio.SongStartsInfo:
		return m.applySongStarts(info)
	case audio.SongDurationInfo:
		m.store.SetDuration(info.SongID, info.Duration)
		if m.nowPlaying != nil && m.nowPlaying.id == info.SongID {
			m.nowPlaying.duration = info.Duration
		}
	case audio.FailedOpenInfo:
		m.logs.addError(fmt.Sprintf("failed to open %s: %s", m.songName(info.SongID), info.Kind))
	}
	return m, nil
}

func (m model) applyPlaying(info audio.PlayingInfo) model {
	if m.nowPlaying == nil || m.nowPlaying.id != info.SongID {
		return m
	}
	m.nowPlaying.position = info.Position
	if m.nowPlaying.queuedNext || m.nowPlaying.duration <= 0 {
		return m
	}
	if m.nowPlaying.duration-info.Position >= queueOffset {
		return m
	}
	m.nowPlaying.queuedNext = true

	next := m.state.Next()
	if next == nil {
		m.logs.add("no next song to queue")
		return m
	}
	song, ok := m.store.Get(next.SongID())
	if !ok {
		m.logs.addError(fmt.Sprintf("no song with id %d", next.SongID()))
		return m
	}
	m.post(audio.QueueCommand{Song: *song})
	id := next.SongID()
	m.pendingNext = &id
	m.logs.add(fmt.Sprintf("queueing %q", song.Title))
	return m
}

func (m model) applySongStarts(info audio.SongStartsInfo) (model, tea.Cmd) {
	// A queued song becoming audible is the moment the play state advances.
	if m.pendingNext != nil && *m.pendingNext == info.SongID {
		m.pendingNext = nil
		if next := m.state.Next(); next != nil && next.SongID() == info.SongID {
			if pos, err := m.state.PlayNext(m.playlists); err == nil && m.follow {
				m = m.followCursor(pos)
			}
		}
	}

	title := m.songName(info.SongID)
	var duration time.Duration
	if song, ok := m.store.Get(info.SongID); ok {
		duration = song.Duration
	}
	m.nowPlaying = &songStatus{id: info.SongID, title: title, duration: duration}
	m.logs.add(fmt.Sprintf("start song %q", title))

	if m.notify {
		return m, notifyCmd(title)
	}
	return m, nil
}

func (m model) songName(id library.SongID) string {
	if song, ok := m.store.Get(id); ok {
		return song.Title
	}
	return fmt.Sprintf("song %d", id)
}

// ---- playback control ----

func (m model) togglePause() model {
	if m.state.Playing() {
		m.post(audio.PauseCommand{})
	} else {
		m.post(audio.UnpauseCommand{})
	}
	m.state.SetPlaying(!m.state.Playing())
	return m
}

func (m model) changeVolume(delta int) model {
	m.volume = min(max(m.volume+delta, 0), 100)
	m.post(audio.SetVolumeCommand{Volume: float32(m.volume) * 0.01})
	return m
}

func (m model) seek(dir audio.SeekDirection) model {
	m.post(audio.SeekCommand{Duration: seekStep, Direction: dir})
	if m.nowPlaying != nil {
		if dir == audio.SeekForward {
			m.nowPlaying.position += seekStep
			if m.nowPlaying.duration > 0 {
				m.nowPlaying.position = min(m.nowPlaying.position, m.nowPlaying.duration)
			}
		} else {
			m.nowPlaying.position = max(m.nowPlaying.position-seekStep, 0)
		}
	}
	return m
}

func (m model) startNextSong() model {
	pos, err := m.state.PlayNext(m.playlists)
	if err != nil {
		m.logs.add("no next song to play")
		return m
	}
	return m.playCurrent(pos)
}

// playCurrent posts the song behind the already-current position to the
// engine.
func (m model) playCurrent(pos playstate.PlayPosition) model {
	song, ok := m.store.Get(pos.SongID())
	if !ok {
		m.logs.addError(fmt.Sprintf("no song with id %d", pos.SongID()))
		return m
	}
	m.pendingNext = nil
	m.state.SetPlaying(true)
	m.post(audio.PlayCommand{Song: *song})
	if m.follow {
		m = m.followCursor(pos)
	}
	return m
}

// followCursor moves the playlist cursor onto the song that is being
// played, so the view tracks playback.
func (m model) followCursor(pos playstate.PlayPosition) model {
	p, ok := pos.(playstate.PlaylistPosition)
	if !ok || p.Playlist < 0 || p.Playlist >= len(m.playlists) {
		return m
	}
	pl := m.playlists[p.Playlist]
	if p.Index >= 0 && p.Index < len(pl.Songs) {
		pl.SetCursor(p.Index, m.listRows())
	}
	return m
}

func (m model) copyCurrentPath() model {
	cur := m.state.Current()
	if cur == nil {
		return m
	}
	song, ok := m.store.Get(cur.SongID())
	if !ok {
		return m
	}
	if err := clipboard.WriteAll(song.Path); err != nil {
		m.logs.addError("clipboard: " + err.Error())
		return m
	}
	m.logs.add(fmt.Sprintf("copied path of %q", song.Title))
	return m
}

// ---- browser view ----

func (m model) updateBrowserKey(msg tea.KeyMsg) model {
	switch msg.String() {
	case "j", "down":
		m = m.moveBrowserCursor(1)
	case "k", "up":
		m = m.moveBrowserCursor(-1)
	case "h", "left":
		m = m.browseParent()
	case "l", "right", "enter":
		m = m.browseInto()
	case "y":
		m = m.appendSelection()
	case "n":
		m = m.openPlaylistInput()
	case "i":
		m = m.importPlaylists()
	}
	return m
}

// browserPos returns the cursor state of the browsed directory, creating
// it on first visit.
func (m model) browserPos() *viewPos {
	p, ok := m.positions[m.browserDir]
	if !ok {
		p = &viewPos{}
		m.positions[m.browserDir] = p
	}
	return p
}

func (m model) moveBrowserCursor(delta int) model {
	p := m.browserPos()
	p.cursor = min(max(p.cursor+delta, 0), max(len(m.entries)-1, 0))
	p.normalizeScroll(m.listRows())
	return m
}

func (m model) setBrowserDir(dir string) model {
	if m.watcher != nil {
		if m.browserDir != "" {
			_ = m.watcher.Remove(m.browserDir)
		}
		if err := m.watcher.Add(dir); err != nil {
			m.logs.addError(fmt.Sprintf("cannot watch %s: %v", dir, err))
		}
	}
	m.browserDir = dir
	return m.refreshBrowser()
}

func (m model) refreshBrowser() model {
	m.entries = library.ListDir(m.browserDir)
	p := m.browserPos()
	if p.cursor >= len(m.entries) {
		p.cursor = max(len(m.entries)-1, 0)
	}
	p.normalizeScroll(m.listRows())
	return m
}

func (m model) selectedEntry() (library.Entry, bool) {
	p := m.browserPos()
	if p.cursor >= len(m.entries) {
		return library.Entry{}, false
	}
	return m.entries[p.cursor], true
}

func (m model) browseParent() model {
	parent := filepath.Dir(m.browserDir)
	if parent == m.browserDir {
		return m
	}
	leaving := m.browserDir
	m = m.setBrowserDir(parent)
	for i, e := range m.entries {
		if e.Path == leaving {
			p := m.browserPos()
			p.cursor = i
			p.normalizeScroll(m.listRows())
			break
		}
	}
	return m
}

func (m model) browseInto() model {
	e, ok := m.selectedEntry()
	if !ok {
		return m
	}
	if e.IsDir {
		return m.setBrowserDir(e.Path)
	}
	if library.IsSongFile(e.Name, decode.Extensions()) {
		id := m.store.Import(e.Path, "")
		pos := playstate.FilePosition{ID: id}
		m.state.PlaySong(pos, m.playlists)
		return m.playCurrent(pos)
	}
	return m
}

// songsFromEntry resolves a browser selection to song ids: a song file
// imports as itself, a directory recursively.
func (m model) songsFromEntry(e library.Entry) []library.SongID {
	if e.IsDir {
		return library.SongsFromDir(e.Path, decode.Extensions(), m.store)
	}
	if library.IsSongFile(e.Name, decode.Extensions()) {
		return []library.SongID{m.store.Import(e.Path, "")}
	}
	return nil
}

func (m model) appendSelection() model {
	pl := m.shownPlaylistRef()
	if pl == nil {
		m.logs.add("no playlist to add to")
		return m
	}
	e, ok := m.selectedEntry()
	if !ok {
		return m
	}
	ids := m.songsFromEntry(e)
	if len(ids) == 0 {
		m.logs.add("no songs under " + e.Name)
		return m
	}
	pl.Songs = append(pl.Songs, ids...)
	m.logs.add(fmt.Sprintf("adding %d songs to playlist %q", len(ids), pl.Name))
	return m
}

func (m model) openPlaylistInput() model {
	e, ok := m.selectedEntry()
	if !ok {
		return m
	}
	m.inputSongs = m.songsFromEntry(e)
	m.inputText = strings.ReplaceAll(strings.TrimSuffix(e.Name, filepath.Ext(e.Name)), " ", "")
	m.inputActive = true
	return m
}

func (m model) importPlaylists() model {
	imported := library.ImportPlaylists(m.browserDir, m.store)
	if len(imported) == 0 {
		m.logs.add("no playlists imported from " + m.browserDir)
		return m
	}
	m.playlists = append(m.playlists, imported...)
	m.logs.add(fmt.Sprintf("imported %d playlists", len(imported)))
	return m
}

// ---- playlists view ----

func (m model) updatePlaylistsKey(msg tea.KeyMsg) model {
	switch msg.String() {
	case "h", "left":
		m.songPane = false
	case "l", "right":
		m.songPane = true
	case "j", "down":
		m = m.movePlaylistCursor(1)
	case "k", "up":
		m = m.movePlaylistCursor(-1)
	case "enter":
		m = m.playShownSong()
	case "x":
		m = m.deleteShownSong()
	case "n":
		m.inputActive = true
	}
	return m
}

func (m model) shownPlaylistRef() *library.Playlist {
	if m.shownPlaylist < 0 || m.shownPlaylist >= len(m.playlists) {
		return nil
	}
	return m.playlists[m.shownPlaylist]
}

func (m model) movePlaylistCursor(delta int) model {
	if m.songPane {
		pl := m.shownPlaylistRef()
		if pl == nil || len(pl.Songs) == 0 {
			return m
		}
		pl.SetCursor(min(max(pl.Cursor+delta, 0), len(pl.Songs)-1), m.listRows())
		return m
	}
	if len(m.playlists) == 0 {
		return m
	}
	m.shownPlaylist = min(max(m.shownPlaylist+delta, 0), len(m.playlists)-1)
	return m
}

func (m model) playShownSong() model {
	pl := m.shownPlaylistRef()
	if pl == nil || pl.Cursor >= len(pl.Songs) {
		return m
	}
	pos := playstate.PlaylistPosition{
		ID:       pl.Songs[pl.Cursor],
		Playlist: m.shownPlaylist,
		Index:    pl.Cursor,
	}
	m.state.PlaySong(pos, m.playlists)
	return m.playCurrent(pos)
}

func (m model) deleteShownSong() model {
	pl := m.shownPlaylistRef()
	if pl == nil || pl.Cursor >= len(pl.Songs) {
		return m
	}
	index := pl.Cursor
	song, _ := m.store.Get(pl.Songs[index])
	pl.Songs = append(pl.Songs[:index], pl.Songs[index+1:]...)
	m.state.ApplyPlaylistDelete(m.shownPlaylist, index)
	if pl.Cursor >= len(pl.Songs) && pl.Cursor > 0 {
		pl.SetCursor(pl.Cursor-1, m.listRows())
	}
	if song != nil {
		m.logs.add(fmt.Sprintf("removed %q from %q", song.Title, pl.Name))
	}
	return m
}

// ---- log view ----

func (m model) updateLogKey(msg tea.KeyMsg) model {
	switch msg.String() {
	case "k", "up":
		m.logs.scrollBy(1, m.listRows())
	case "j", "down":
		m.logs.scrollBy(-1, m.listRows())
	}
	return m
}
