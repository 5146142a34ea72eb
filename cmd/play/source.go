package play

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gigurra/canto/cmd/player/audio"
	"github.com/gigurra/canto/cmd/player/decode"
)

// fileSource adapts a decoder to the pull interface the effect wrappers and
// the device streamer work on. Unlike the engine path it decodes on the
// audio thread, which is fine for a foreground playback command.
type fileSource struct {
	src      decode.Source
	path     string
	rate     int
	channels int
	total    int64
	hasTotal bool

	buf [4096]float32
	n   int
	pos int
	err error
}

func openSource(r io.Reader, path string, targetRate int) (*fileSource, error) {
	src, err := decode.Open(r, path)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", path, err)
	}
	if targetRate > 0 {
		src = decode.Resampled(src, targetRate)
	}
	rate, channels := src.SampleRate(), src.Channels()
	if rate <= 0 || channels <= 0 {
		_ = src.Close()
		return nil, fmt.Errorf("%s reports an unusable format: %d Hz, %d channels", path, rate, channels)
	}
	fs := &fileSource{src: src, path: path, rate: rate, channels: channels}
	fs.total, fs.hasTotal = src.TotalSamples()
	return fs, nil
}

func (s *fileSource) Next() (float32, bool) {
	for s.pos >= s.n {
		if s.err != nil {
			return 0, false
		}
		n, err := s.src.ReadSamples(s.buf[:])
		if err == nil && n == 0 {
			err = io.EOF
		}
		if err != nil && !errors.Is(err, io.EOF) {
			slog.Warn("song decode ended early", "path", s.path, "err", err)
		}
		s.n, s.pos, s.err = n, 0, err
	}
	v := s.buf[s.pos]
	s.pos++
	return v, true
}

func (s *fileSource) Channels() int   { return s.channels }
func (s *fileSource) SampleRate() int { return s.rate }

func (s *fileSource) CurrentSpanLen() (int, bool) { return s.n - s.pos, true }

func (s *fileSource) TotalDuration() (time.Duration, bool) {
	if !s.hasTotal {
		return 0, false
	}
	return audio.PositionToDuration(int(s.total), s.rate, s.channels), true
}

func (s *fileSource) Close() error { return s.src.Close() }
