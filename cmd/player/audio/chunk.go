// Package audio is the playback engine: one-shot loader goroutines decode
// songs into fixed-size sample chunks, a bounded queue carries them to a
// non-blocking pull source on the speaker thread, and a single engine
// goroutine owns all playback state in between.
package audio

import (
	"time"

	"github.com/gigurra/canto/cmd/player/library"
)

const (
	// ChunkSize is the number of interleaved float32 samples per chunk,
	// about 23ms of stereo 44.1kHz audio.
	ChunkSize = 1024

	// ChunkBufferSize caps the chunk queue between engine and speaker.
	ChunkBufferSize = 4
)

// SamplesChunk is one fixed-size window of a decoded song. The data buffer
// is shared between all copies of the chunk and is never written after the
// loader filled it.
type SamplesChunk struct {
	Channels   int
	SampleRate int
	// StartPosition is the index of Data[0] in the song's interleaved
	// sample stream. Always a multiple of ChunkSize.
	StartPosition int
	// Length is the number of valid samples in Data, at most ChunkSize.
	// Only the final chunk of a song may be shorter.
	Length    int
	Data      *[ChunkSize]float32
	SongID    library.SongID
	LastChunk bool
}

// StartTime is the play time of the chunk's first sample.
func (c *SamplesChunk) StartTime() time.Duration {
	return PositionToDuration(c.StartPosition, c.SampleRate, c.Channels)
}

// EndTime is the play time just past the chunk's final sample.
func (c *SamplesChunk) EndTime() time.Duration {
	return PositionToDuration(c.StartPosition+c.Length, c.SampleRate, c.Channels)
}

// PositionToDuration converts an interleaved sample position to play time.
// Pure integer microsecond arithmetic, so positions round-trip stably.
func PositionToDuration(position, sampleRate, channels int) time.Duration {
	if position <= 0 || sampleRate <= 0 || channels <= 0 {
		return 0
	}
	us := uint64(position) * 1_000_000 / uint64(sampleRate) / uint64(channels)
	return time.Duration(us) * time.Microsecond
}

// DurationToPosition converts play time to an interleaved sample position.
func DurationToPosition(d time.Duration, sampleRate, channels int) int {
	if d <= 0 || sampleRate <= 0 || channels <= 0 {
		return 0
	}
	return int(uint64(d.Microseconds()) * uint64(sampleRate) * uint64(channels) / 1_000_000)
}
