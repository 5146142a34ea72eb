// Package scan implements `canto scan`: walk a directory, import every
// playable file into the song store and print what was found.
package scan

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/canto/cmd/common"
	"github.com/gigurra/canto/cmd/player/audio"
	"github.com/gigurra/canto/cmd/player/decode"
	"github.com/gigurra/canto/cmd/player/library"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type Params struct {
	Dir       string `pos:"true" optional:"true" help:"Directory to scan." default:"."`
	Durations bool   `short:"d" help:"Decode files without a known duration to fill it in (slow)."`
	NoSave    bool   `long:"no-save" help:"Print the table without updating the song store."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "scan",
		Short:       "Scan a directory for playable songs",
		Long:        "Imports every playable file under the directory into the song library and lists the result. Known files keep their ids.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runScan(params, common.SongStorePath(), os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runScan(params *Params, storePath string, out io.Writer) error {
	dir, err := filepath.Abs(params.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", params.Dir, err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	store, err := library.LoadStore(storePath)
	if err != nil {
		return fmt.Errorf("failed to load song store: %w", err)
	}

	ids := library.SongsFromDir(dir, decode.Extensions(), store)
	if len(ids) == 0 {
		fmt.Fprintf(out, "No songs found under %s\n", dir)
		return nil
	}

	if params.Durations {
		fillDurations(ids, store)
	}
	renderTable(ids, store, dir, params.Durations, out)

	if !params.NoSave {
		if err := store.Save(storePath); err != nil {
			return fmt.Errorf("failed to save song store: %w", err)
		}
	}
	return nil
}

// fillDurations decodes every song that has no recorded duration yet.
// Undecodable files are skipped with a warning so one bad file does not
// abort the scan.
func fillDurations(ids []library.SongID, store *library.Store) {
	for _, id := range ids {
		song, ok := store.Get(id)
		if !ok || song.Duration > 0 {
			continue
		}
		d, err := decodedDuration(song.Path)
		if err != nil {
			slog.Warn("could not determine duration", "path", song.Path, "err", err)
			continue
		}
		store.SetDuration(id, d)
	}
}

func decodedDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	src, err := decode.Open(f, path)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	rate, channels := src.SampleRate(), src.Channels()
	if rate <= 0 || channels <= 0 {
		return 0, fmt.Errorf("unusable format: %d Hz, %d channels", rate, channels)
	}
	if total, ok := src.TotalSamples(); ok {
		return audio.PositionToDuration(int(total), rate, channels), nil
	}

	// No header total, count the samples the hard way.
	var buf [8192]float32
	total := 0
	for {
		n, err := src.ReadSamples(buf[:])
		total += n
		if err != nil {
			break
		}
	}
	return audio.PositionToDuration(total, rate, channels), nil
}

func renderTable(ids []library.SongID, store *library.Store, root string, withDurations bool, out io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(termWidth())

	header := table.Row{"ID", "Title", "Path", "Format"}
	if withDurations {
		header = append(header, "Duration")
	}
	t.AppendHeader(header)

	for _, id := range ids {
		song, ok := store.Get(id)
		if !ok {
			continue
		}
		rel, err := filepath.Rel(root, song.Path)
		if err != nil {
			rel = song.Path
		}
		row := table.Row{song.ID, song.Title, rel, strings.TrimPrefix(strings.ToLower(filepath.Ext(song.Path)), ".")}
		if withDurations {
			row = append(row, common.FormatDuration(song.Duration))
		}
		t.AppendRow(row)
	}
	t.Render()

	fmt.Fprintf(out, "\n%d songs under %s\n", len(ids), root)
}

func termWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 120
}
