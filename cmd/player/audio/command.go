package audio

import (
	"time"

	"github.com/gigurra/canto/cmd/player/library"
)

// Event is anything the engine consumes on its single input queue: commands
// from the controller, updates from the speaker thread, and load events from
// loader goroutines.
type Event interface {
	isEvent()
}

// Commands from the controller.

type PlayCommand struct {
	Song library.Song
}

type QueueCommand struct {
	Song library.Song
}

type PauseCommand struct{}

type UnpauseCommand struct{}

type SeekCommand struct {
	Duration  time.Duration
	Direction SeekDirection
}

type SetVolumeCommand struct {
	Volume float32 // linear, 0..1
}

// Updates from the speaker-side source.

type SongStartsUpdate struct {
	SongID library.SongID
}

type PlayingUpdate struct {
	SongID library.SongID
	// SamplesPlayed is the interleaved start position of the chunk the
	// source just began playing.
	SamplesPlayed int
}

// Load events from loader goroutines.

type ChunkEvent struct {
	Chunk *SamplesChunk
}

type DurationEvent struct {
	SongID   library.SongID
	Duration time.Duration
}

type FailedOpenEvent struct {
	SongID library.SongID
	Kind   OpenErrorKind
	Err    error
}

func (PlayCommand) isEvent()      {}
func (QueueCommand) isEvent()     {}
func (PauseCommand) isEvent()     {}
func (UnpauseCommand) isEvent()   {}
func (SeekCommand) isEvent()      {}
func (SetVolumeCommand) isEvent() {}
func (SongStartsUpdate) isEvent() {}
func (PlayingUpdate) isEvent()    {}
func (ChunkEvent) isEvent()       {}
func (DurationEvent) isEvent()    {}
func (FailedOpenEvent) isEvent()  {}

type SeekDirection int

const (
	SeekForward SeekDirection = iota
	SeekBackward
)

func (d SeekDirection) String() string {
	if d == SeekBackward {
		return "backward"
	}
	return "forward"
}

// OpenErrorKind classifies why a song could not be loaded.
type OpenErrorKind int

const (
	OpenErrorFileNotFound OpenErrorKind = iota
	OpenErrorNotDecodable
)

func (k OpenErrorKind) String() string {
	if k == OpenErrorFileNotFound {
		return "file not found"
	}
	return "not decodable"
}

// signedSeconds folds the seek direction into a signed quantity so
// consecutive seeks can be summed.
func (c SeekCommand) signedSeconds() float64 {
	if c.Direction == SeekBackward {
		return -c.Duration.Seconds()
	}
	return c.Duration.Seconds()
}

func seekFromSeconds(secs float64) SeekCommand {
	dir := SeekBackward
	if secs > 0 {
		dir = SeekForward
	}
	if secs < 0 {
		secs = -secs
	}
	return SeekCommand{
		Duration:  time.Duration(secs * float64(time.Second)),
		Direction: dir,
	}
}

// Infos flow from the engine to the controller.

type Info interface {
	isInfo()
}

// PlayingInfo reports playback progress about ten times a second.
type PlayingInfo struct {
	SongID   library.SongID
	Position time.Duration
}

// SongStartsInfo reports that the speaker began a new song.
type SongStartsInfo struct {
	SongID library.SongID
}

// SongDurationInfo reports a song's total duration once known.
type SongDurationInfo struct {
	SongID   library.SongID
	Duration time.Duration
}

// FailedOpenInfo reports that a song could not be loaded.
type FailedOpenInfo struct {
	SongID library.SongID
	Kind   OpenErrorKind
}

func (PlayingInfo) isInfo()      {}
func (SongStartsInfo) isInfo()   {}
func (SongDurationInfo) isInfo() {}
func (FailedOpenInfo) isInfo()   {}

// Simplify coalesces a drained event batch so that a slow dispatch cycle
// cannot fall behind its producers. Only the last Play, the last Playing
// update and the last SetVolume matter; seeks join into a single signed sum.
// Load events keep their arrival order and run before the replayed commands
// so a replayed Play or Seek sees all chunks that arrived in the batch.
func Simplify(events []Event) []Event {
	if len(events) < 2 {
		return events
	}

	result := make([]Event, 0, len(events))
	var loadEvents []Event
	var lastPlay *PlayCommand
	var lastPlaying *PlayingUpdate
	var lastVolume *SetVolumeCommand
	var seekSum float64
	haveSeek := false

	for _, ev := range events {
		switch e := ev.(type) {
		case PlayCommand:
			lastPlay = &e
		case PlayingUpdate:
			lastPlaying = &e
		case SetVolumeCommand:
			lastVolume = &e
		case SeekCommand:
			seekSum += e.signedSeconds()
			haveSeek = true
		case ChunkEvent, DurationEvent, FailedOpenEvent:
			loadEvents = append(loadEvents, ev)
		default:
			// Pause, Unpause, Queue and SongStarts keep their order
			result = append(result, ev)
		}
	}

	result = append(result, loadEvents...)
	if lastPlay != nil {
		result = append(result, *lastPlay)
	}
	if lastPlaying != nil {
		result = append(result, *lastPlaying)
	}
	if haveSeek {
		result = append(result, seekFromSeconds(seekSum))
	}
	if lastVolume != nil {
		result = append(result, *lastVolume)
	}
	return result
}
