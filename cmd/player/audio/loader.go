package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gigurra/canto/cmd/player/decode"
	"github.com/gigurra/canto/cmd/player/library"
)

// LoadSong decodes the file behind song into ordered chunks and delivers
// them through post, one event at a time. It is meant to run on its own
// goroutine; post returning false means the receiving side is gone and the
// load aborts.
//
// When targetRate is positive the samples are resampled to it, so every
// chunk of every song arrives at the device rate. Exactly one chunk
// carries LastChunk=true, and it is always the final one posted, even when
// the song length is an exact multiple of the chunk size. Decode errors
// mid-stream are treated as truncation: whatever has been decoded plays,
// the rest is dropped.
func LoadSong(song library.Song, targetRate int, post func(Event) bool) {
	f, err := os.Open(song.Path)
	if err != nil {
		slog.Error("cannot open song file", "path", song.Path, "err", err)
		post(FailedOpenEvent{SongID: song.ID, Kind: OpenErrorFileNotFound, Err: err})
		return
	}
	defer f.Close()

	src, err := decode.Open(f, song.Path)
	if err != nil {
		slog.Error("cannot decode song file", "path", song.Path, "err", err)
		post(FailedOpenEvent{SongID: song.ID, Kind: OpenErrorNotDecodable, Err: err})
		return
	}
	if targetRate > 0 {
		src = decode.Resampled(src, targetRate)
	}
	defer src.Close()

	rate, channels := src.SampleRate(), src.Channels()
	if rate <= 0 || channels <= 0 {
		err := fmt.Errorf("invalid format: %d Hz, %d channels", rate, channels)
		slog.Error("cannot decode song file", "path", song.Path, "err", err)
		post(FailedOpenEvent{SongID: song.ID, Kind: OpenErrorNotDecodable, Err: err})
		return
	}

	advertised := false
	if total, ok := src.TotalSamples(); ok {
		advertised = true
		if !post(DurationEvent{SongID: song.ID, Duration: PositionToDuration(int(total), rate, channels)}) {
			return
		}
	}

	var (
		buf      [ChunkSize]float32
		filled   int
		decoded  int
		position int
		pending  *SamplesChunk // full chunk held back until we know whether it ends the song
	)
	makeChunk := func(length int) *SamplesChunk {
		data := buf
		c := &SamplesChunk{
			Channels:      channels,
			SampleRate:    rate,
			StartPosition: position,
			Length:        length,
			Data:          &data,
			SongID:        song.ID,
		}
		position += ChunkSize
		return c
	}
	emit := func(c *SamplesChunk) bool {
		return post(ChunkEvent{Chunk: c})
	}

	for {
		n, err := src.ReadSamples(buf[filled:])
		filled += n
		decoded += n
		if filled == ChunkSize {
			if pending != nil && !emit(pending) {
				return
			}
			pending = makeChunk(ChunkSize)
			filled = 0
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("song decode ended early", "path", song.Path, "err", err)
			}
			break
		}
	}

	if filled > 0 || pending == nil {
		// trailing partial chunk, or an entirely empty song
		if pending != nil && !emit(pending) {
			return
		}
		clear(buf[filled:])
		last := makeChunk(filled)
		last.LastChunk = true
		if !emit(last) {
			return
		}
	} else {
		pending.LastChunk = true
		if !emit(pending) {
			return
		}
	}

	if !advertised {
		post(DurationEvent{SongID: song.ID, Duration: PositionToDuration(decoded, rate, channels)})
	}
}
