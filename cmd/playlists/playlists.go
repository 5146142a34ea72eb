// Package playlists implements `canto playlists`: a table of the saved
// playlists with their song counts and known play time.
package playlists

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/canto/cmd/common"
	"github.com/gigurra/canto/cmd/player/library"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Params struct {
	Dir string `long:"dir" optional:"true" help:"Playlist directory (default ~/.canto/playlists)."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "playlists",
		Short:       "List saved playlists",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runPlaylists(params, common.SongStorePath(), os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runPlaylists(params *Params, storePath string, out io.Writer) error {
	dir := params.Dir
	if dir == "" {
		dir = common.PlaylistDir()
	}

	lists, err := library.LoadPlaylists(dir)
	if err != nil {
		return fmt.Errorf("failed to read playlists from %s: %w", dir, err)
	}
	if len(lists) == 0 {
		fmt.Fprintf(out, "No playlists in %s\n", dir)
		return nil
	}

	store, err := library.LoadStore(storePath)
	if err != nil {
		return fmt.Errorf("failed to load song store: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Playlist", "Songs", "Duration"})

	for _, pl := range lists {
		total, known := playTime(pl, store)
		duration := common.FormatDuration(total)
		if !known {
			// some songs have never been decoded, the sum is a lower bound
			duration += "+"
		}
		t.AppendRow(table.Row{pl.Name, len(pl.Songs), duration})
	}
	t.Render()
	return nil
}

// playTime sums the known durations of the playlist's songs. known is false
// when at least one song has no recorded duration yet.
func playTime(pl *library.Playlist, store *library.Store) (total time.Duration, known bool) {
	known = true
	for _, id := range pl.Songs {
		song, ok := store.Get(id)
		if !ok || song.Duration == 0 {
			known = false
			continue
		}
		total += song.Duration
	}
	return total, known
}
