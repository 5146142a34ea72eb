package audio

import (
	"time"

	"github.com/gigurra/canto/cmd/player/library"
)

// SoftFadeoutDecay is the per-sample linear step toward zero used to mask
// chunk starvation instead of clicking to silence.
const SoftFadeoutDecay = 0.01

// Fallback metadata while no chunk has been received yet.
const (
	fallbackChannels   = 2
	fallbackSampleRate = 44100
)

// SampleSource is the pull side of playback: one interleaved sample per
// call plus stream metadata. Implementations are driven from the speaker
// thread and must never block.
type SampleSource interface {
	// Next returns the next interleaved sample, or false when the source
	// is exhausted.
	Next() (float32, bool)
	Channels() int
	SampleRate() int
	// CurrentSpanLen is the number of samples left for which the metadata
	// is known not to change, when known.
	CurrentSpanLen() (int, bool)
	// TotalDuration of the stream, when known.
	TotalDuration() (time.Duration, bool)
}

// ReceiverSource drains the engine's chunk queue on the speaker thread. It
// never blocks and never ends: when the queue runs dry it fades the last
// sample linearly to zero and emits silence until chunks arrive again.
//
// Every chunk boundary posts an update to the engine: SongStarts when the
// chunk belongs to a different song than the previous one, Playing
// otherwise. Updates are posted without blocking and may be dropped; the
// next boundary refreshes them.
type ReceiverSource struct {
	chunks <-chan *SamplesChunk
	post   func(Event) bool

	cur       *SamplesChunk
	index     int
	lastValue float32
	prevSong  library.SongID
	havePrev  bool
}

func NewReceiverSource(chunks <-chan *SamplesChunk, post func(Event) bool) *ReceiverSource {
	return &ReceiverSource{chunks: chunks, post: post}
}

func (r *ReceiverSource) Next() (float32, bool) {
	if r.cur == nil || r.index >= r.cur.Length {
		r.loadNextChunk()
	}
	if r.cur == nil || r.index >= r.cur.Length {
		// starvation: fade the last value toward zero, then hold it there
		if abs32(r.lastValue) < SoftFadeoutDecay {
			r.lastValue = 0
		} else {
			r.lastValue -= sign32(r.lastValue) * SoftFadeoutDecay
		}
		return r.lastValue, true
	}

	v := r.cur.Data[r.index]
	r.index++
	r.lastValue = v
	return v, true
}

func (r *ReceiverSource) loadNextChunk() {
	select {
	case chunk, ok := <-r.chunks:
		if !ok {
			return
		}
		if r.havePrev && chunk.SongID == r.prevSong {
			r.post(PlayingUpdate{SongID: chunk.SongID, SamplesPlayed: chunk.StartPosition})
		} else {
			r.post(SongStartsUpdate{SongID: chunk.SongID})
		}
		r.prevSong = chunk.SongID
		r.havePrev = true
		r.cur = chunk
		r.index = 0
	default:
	}
}

func (r *ReceiverSource) Channels() int {
	if r.cur != nil {
		return r.cur.Channels
	}
	return fallbackChannels
}

func (r *ReceiverSource) SampleRate() int {
	if r.cur != nil {
		return r.cur.SampleRate
	}
	return fallbackSampleRate
}

func (r *ReceiverSource) CurrentSpanLen() (int, bool) {
	if r.cur == nil {
		return 0, false
	}
	return max(r.cur.Length-r.index, 0), true
}

// TotalDuration is unknown: the source plays forever.
func (r *ReceiverSource) TotalDuration() (time.Duration, bool) {
	return 0, false
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sign32(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
