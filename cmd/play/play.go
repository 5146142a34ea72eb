// Package play implements `canto play`: decode the given files and play
// them back to back on the default audio device.
package play

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/canto/cmd/common"
	"github.com/gigurra/canto/cmd/player/audio"
	"github.com/gigurra/canto/cmd/player/library"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type Params struct {
	Files  []string `pos:"true" required:"true" help:"Audio files to play, in order."`
	From   string   `long:"from" optional:"true" help:"Start offset into the first file, e.g. 1m30s."`
	Volume int      `short:"v" help:"Volume in percent." default:"100"`
	Quiet  bool     `short:"q" help:"Suppress the progress line."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "play",
		Short:       "Play audio files on the default output device",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			// a \r progress line is useless in a pipe
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				params.Quiet = true
			}
			sink, err := audio.NewSpeakerSink()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if err := runPlay(params, sink, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

// runPlay plays every file in order and returns when the last one has been
// consumed. It takes ownership of the sink.
func runPlay(params *Params, sink audio.Sink, out io.Writer) error {
	defer sink.Close()

	var from time.Duration
	if params.From != "" {
		d, err := time.ParseDuration(params.From)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid --from offset %q", params.From)
		}
		from = d
	}

	sink.SetVolume(float32(params.Volume) / 100)
	sink.Play()

	for i, path := range params.Files {
		skip := time.Duration(0)
		if i == 0 {
			skip = from
		}
		if err := playFile(sink, path, skip, params.Quiet, out); err != nil {
			return err
		}
	}
	return nil
}

// playFile appends one decoded file to the sink and blocks until the device
// has pulled it dry.
func playFile(sink audio.Sink, path string, skip time.Duration, quiet bool, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fs, err := openSource(f, path, sink.SampleRate())
	if err != nil {
		return err
	}
	defer fs.Close()

	title := library.TitleFromPath(path)
	total, hasTotal := fs.TotalDuration()

	var src audio.SampleSource = fs
	if skip > 0 {
		src = audio.SkipDuration(src, skip)
	}
	src = audio.OnStart(src, func() {
		slog.Info("song starts", "title", title, "path", path)
	})

	// The wrapper callbacks run on the audio thread, so progress reports
	// hop to this goroutine through a channel instead of printing there.
	ticks := make(chan time.Duration, 8)
	if !quiet {
		src = audio.Periodic(src, time.Second, func(elapsed time.Duration) {
			select {
			case ticks <- elapsed:
			default:
			}
		})
	}
	done := make(chan struct{})
	src = audio.OnDone(src, func() { close(done) })

	sink.Append(src)

	for {
		select {
		case elapsed := <-ticks:
			printProgress(out, title, skip+elapsed, total, hasTotal)
		case <-done:
			// flush the last progress report before moving on
			for {
				select {
				case elapsed := <-ticks:
					printProgress(out, title, skip+elapsed, total, hasTotal)
				default:
					if !quiet {
						fmt.Fprintln(out)
					}
					return nil
				}
			}
		}
	}
}

func printProgress(out io.Writer, title string, position, total time.Duration, hasTotal bool) {
	if hasTotal {
		fmt.Fprintf(out, "\r%s  %s / %s ", title, common.FormatDuration(position), common.FormatDuration(total))
		return
	}
	fmt.Fprintf(out, "\r%s  %s ", title, common.FormatDuration(position))
}
