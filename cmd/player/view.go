package player

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/canto/cmd/common"
	"github.com/gigurra/canto/cmd/player/config"
	"github.com/gigurra/canto/cmd/player/playstate"
	"github.com/mattn/go-runewidth"
)

var (
	cursorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	shownStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("250")) // unfocused selection
	playedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))                                 // Yellow
	playedCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Background(lipgloss.Color("62"))
	dirStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // Blue
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // Bright red
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	inputStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")) // Black on cyan
)

// listRows is the number of content rows between the header line and the
// help and status lines.
func (m model) listRows() int {
	return max(m.height-3, 1)
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteString("\n")

	switch m.view {
	case config.ViewPlaylists:
		m.renderPlaylists(&b)
	case config.ViewLog:
		m.renderLog(&b)
	default:
		m.renderBrowser(&b)
	}

	if m.inputActive {
		b.WriteString(inputStyle.Render(" New playlist: " + m.inputText + "_"))
	} else {
		b.WriteString(helpStyle.Render(m.helpLine()))
	}
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m model) headerLine() string {
	tabs := []struct{ key, label, view string }{
		{"1", "browser", config.ViewBrowser},
		{"2", "playlists", config.ViewPlaylists},
		{"3", "log", config.ViewLog},
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := t.key + " " + t.label
		if m.view == t.view {
			parts = append(parts, headerStyle.Render(label))
		} else {
			parts = append(parts, helpStyle.Render(label))
		}
	}
	line := " " + strings.Join(parts, helpStyle.Render(" • "))
	if m.view == config.ViewBrowser {
		dir := runewidth.Truncate(m.browserDir, max(m.width-34, 10), "…")
		line += "  " + dirStyle.Render(dir)
	}
	return line
}

func (m model) helpLine() string {
	switch m.view {
	case config.ViewPlaylists:
		return "  h/l pane • j/k move • enter play • x remove • s shuffle • c pause • J next • q quit"
	case config.ViewLog:
		return "  j/k scroll • H/L seek • +/- volume • f follow • p copy path • q quit"
	default:
		return "  h/j/k/l navigate • enter play • y add • n new playlist • i import • c pause • J next • q quit"
	}
}

func (m model) renderBrowser(b *strings.Builder) {
	rows := m.listRows()
	p := m.browserPos()
	for i := 0; i < rows; i++ {
		idx := p.scroll + i
		if idx >= len(m.entries) {
			if idx == 0 {
				b.WriteString(helpStyle.Render("  (empty directory)"))
			}
			b.WriteString("\n")
			continue
		}
		e := m.entries[idx]
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		row := " " + runewidth.Truncate(name, max(m.width-2, 2), "…")
		switch {
		case idx == p.cursor:
			b.WriteString(cursorStyle.Render(row))
		case e.IsDir:
			b.WriteString(dirStyle.Render(row))
		default:
			b.WriteString(row)
		}
		b.WriteString("\n")
	}
}

// styleRow picks the row style for list entries: the cursor row gets a
// background (dimmed when its pane is not focused), rows in the play
// history show yellow.
func styleRow(text string, selected, focused, played bool) string {
	switch {
	case selected && focused && played:
		return playedCursorStyle.Render(text)
	case selected && focused:
		return cursorStyle.Render(text)
	case selected:
		return shownStyle.Render(text)
	case played:
		return playedStyle.Render(text)
	}
	return text
}

func (m model) renderPlaylists(b *strings.Builder) {
	rows := m.listRows()
	if len(m.playlists) == 0 {
		b.WriteString(helpStyle.Render("  (no playlists, press n in the browser to create one)"))
		for i := 0; i < rows; i++ {
			b.WriteString("\n")
		}
		return
	}

	leftW := min(24, max(m.width/3, 12))
	titleW := max(m.width-leftW-10, 8)
	ovScroll := max(m.shownPlaylist-rows+1, 0)

	pl := m.shownPlaylistRef()
	songScroll := 0
	if pl != nil {
		songScroll = min(max(pl.Scroll, pl.Cursor-rows+1), pl.Cursor)
		songScroll = max(songScroll, 0)
	}

	for i := 0; i < rows; i++ {
		// overview pane
		left := strings.Repeat(" ", leftW)
		if idx := ovScroll + i; idx < len(m.playlists) {
			name := m.playlists[idx].Name
			if m.state.IsPlaylistCurrent(idx) {
				name = "▶ " + name
			}
			cell := " " + runewidth.FillRight(runewidth.Truncate(name, leftW-2, "…"), leftW-2) + " "
			left = styleRow(cell, idx == m.shownPlaylist, !m.songPane, false)
		}
		b.WriteString(left)

		// song pane
		if pl != nil {
			if idx := songScroll + i; idx < len(pl.Songs) {
				id := pl.Songs[idx]
				title := m.songName(id)
				dur := ""
				if song, ok := m.store.Get(id); ok && song.Duration > 0 {
					dur = common.FormatDuration(song.Duration)
				}
				cell := fmt.Sprintf(" %s %6s ",
					runewidth.FillRight(runewidth.Truncate(title, titleW, "…"), titleW), dur)
				played := m.state.WasPlayed(m.shownPlaylist, idx)
				b.WriteString(styleRow(cell, idx == pl.Cursor, m.songPane, played))
			} else if i == 0 && len(pl.Songs) == 0 {
				b.WriteString(helpStyle.Render(" (empty)"))
			}
		}
		b.WriteString("\n")
	}
}

func (m model) renderLog(b *strings.Builder) {
	rows := m.listRows()
	window := m.logs.window(rows)
	for i := 0; i < rows; i++ {
		if i < len(window) {
			entry := window[i]
			text := " " + runewidth.Truncate(entry.text, max(m.width-2, 2), "…")
			if entry.isErr {
				b.WriteString(errorStyle.Render(text))
			} else {
				b.WriteString(text)
			}
		}
		b.WriteString("\n")
	}
}

func (m model) statusLine() string {
	var b strings.Builder
	if m.state.Mode() == playstate.ModeShuffle {
		b.WriteString(" S ")
	} else {
		b.WriteString("   ")
	}
	if m.nowPlaying != nil {
		if m.state.Playing() {
			b.WriteString("▶ ")
		} else {
			b.WriteString("⏸ ")
		}
		b.WriteString(m.nowPlaying.title)
		b.WriteString("  " + common.FormatDuration(m.nowPlaying.position))
		if m.nowPlaying.duration > 0 {
			b.WriteString(" / " + common.FormatDuration(m.nowPlaying.duration))
		}
	} else {
		b.WriteString("⏹ nothing playing")
	}
	b.WriteString(fmt.Sprintf("  vol: %d%%", m.volume))

	line := runewidth.Truncate(b.String(), m.width, "…")
	return statusStyle.Render(runewidth.FillRight(line, m.width))
}
