package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gigurra/canto/cmd/player/library"
)

const (
	eventQueueSize = 256
	infoQueueSize  = 64
)

// audioSong collects the decoded chunks of one song as its loader delivers
// them. Format metadata is taken from the first chunk.
type audioSong struct {
	id         library.SongID
	chunks     []*SamplesChunk
	sampleRate int // 0 until the first chunk arrives
	channels   int
}

func (a *audioSong) fullyLoaded() bool {
	return len(a.chunks) > 0 && a.chunks[len(a.chunks)-1].LastChunk
}

type currentSong struct {
	song         library.Song
	audio        *audioSong
	playPosition int // samples already handed to the chunk queue
}

type queuedSong struct {
	song  library.Song
	audio *audioSong
}

// Engine owns playback. Commands from the UI, chunks from loader
// goroutines and progress updates from the speaker thread all arrive on
// one queue, so playback state lives on a single goroutine and needs no
// locking. At most two songs are held at a time: the one playing and the
// one queued after it.
type Engine struct {
	sink   Sink
	events chan Event
	infos  chan Info
	chunks chan *SamplesChunk
	done   chan struct{}
	stop   sync.Once

	// spawnLoader starts decoding a song in the background; tests swap it
	// out to feed chunks directly.
	spawnLoader func(song library.Song)

	current *currentSong
	next    *queuedSong
}

// NewEngine wires a receiver source into sink and applies the initial
// volume. Nothing moves until Run is called.
func NewEngine(sink Sink, volume float32) *Engine {
	e := &Engine{
		sink:   sink,
		events: make(chan Event, eventQueueSize),
		infos:  make(chan Info, infoQueueSize),
		chunks: make(chan *SamplesChunk, ChunkBufferSize),
		done:   make(chan struct{}),
	}
	e.spawnLoader = func(song library.Song) {
		go LoadSong(song, e.sink.SampleRate(), e.Post)
	}
	sink.Append(NewReceiverSource(e.chunks, e.tryPost))
	sink.SetVolume(volume)
	sink.Play()
	return e
}

// Run processes events until Stop is called. Events are drained in
// batches and simplified before dispatch, so a burst of stale commands
// collapses into the few that still matter.
func (e *Engine) Run() {
	for {
		var first Event
		select {
		case first = <-e.events:
		case <-e.done:
			return
		}
		batch := []Event{first}
	drain:
		for {
			select {
			case ev := <-e.events:
				batch = append(batch, ev)
			default:
				break drain
			}
		}
		for _, ev := range Simplify(batch) {
			e.dispatch(ev)
		}
	}
}

// Stop makes Run return and unblocks pending posters. Closing the sink is
// left to its owner.
func (e *Engine) Stop() {
	e.stop.Do(func() { close(e.done) })
}

// Post hands an event to the engine, blocking while the queue is full. It
// returns false once the engine has stopped.
func (e *Engine) Post(ev Event) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.events <- ev:
		return true
	case <-e.done:
		return false
	}
}

// tryPost drops the event instead of blocking. The speaker thread posts
// through this; a dropped update is refreshed at the next chunk boundary.
func (e *Engine) tryPost(ev Event) bool {
	select {
	case e.events <- ev:
		return true
	default:
		return false
	}
}

// Infos delivers playback state changes to the UI.
func (e *Engine) Infos() <-chan Info {
	return e.infos
}

func (e *Engine) sendInfo(info Info) {
	select {
	case e.infos <- info:
	case <-e.done:
	}
}

func (e *Engine) Play(song library.Song)  { e.Post(PlayCommand{Song: song}) }
func (e *Engine) Queue(song library.Song) { e.Post(QueueCommand{Song: song}) }
func (e *Engine) Pause()                  { e.Post(PauseCommand{}) }
func (e *Engine) Unpause()                { e.Post(UnpauseCommand{}) }

func (e *Engine) Seek(d time.Duration, dir SeekDirection) {
	e.Post(SeekCommand{Duration: d, Direction: dir})
}

func (e *Engine) SetVolume(volume float32) { e.Post(SetVolumeCommand{Volume: volume}) }

func (e *Engine) dispatch(ev Event) {
	switch ev := ev.(type) {
	case PlayCommand:
		e.handlePlay(ev.Song)
	case QueueCommand:
		e.handleQueue(ev.Song)
	case PauseCommand:
		e.sink.Pause()
	case UnpauseCommand:
		e.sink.Play()
	case SeekCommand:
		e.handleSeek(ev)
	case SetVolumeCommand:
		e.sink.SetVolume(ev.Volume)
	case SongStartsUpdate:
		e.sendInfo(SongStartsInfo{SongID: ev.SongID})
	case PlayingUpdate:
		e.handlePlaying(ev)
	case ChunkEvent:
		e.handleChunk(ev.Chunk)
	case DurationEvent:
		e.sendInfo(SongDurationInfo{SongID: ev.SongID, Duration: ev.Duration})
	case FailedOpenEvent:
		slog.Error("failed to open song", "song", ev.SongID, "kind", ev.Kind, "err", ev.Err)
		e.sendInfo(FailedOpenInfo{SongID: ev.SongID, Kind: ev.Kind})
	}
}

func (e *Engine) handlePlay(song library.Song) {
	e.current = &currentSong{song: song, audio: e.audioFor(song)}
	e.sendNextChunks()
	e.sink.Play()
}

func (e *Engine) handleQueue(song library.Song) {
	e.next = &queuedSong{song: song, audio: e.audioFor(song)}
}

// audioFor reuses the already loading audio when the song is the current
// or queued one, and spawns a loader otherwise.
func (e *Engine) audioFor(song library.Song) *audioSong {
	if au := e.findAudio(song.ID); au != nil {
		return au
	}
	au := &audioSong{id: song.ID}
	e.spawnLoader(song)
	return au
}

func (e *Engine) findAudio(id library.SongID) *audioSong {
	if e.current != nil && e.current.audio.id == id {
		return e.current.audio
	}
	if e.next != nil && e.next.audio.id == id {
		return e.next.audio
	}
	return nil
}

func (e *Engine) handleChunk(chunk *SamplesChunk) {
	au := e.findAudio(chunk.SongID)
	if au == nil {
		// the song was replaced while its loader was still running
		slog.Debug("dropping chunk for unloaded song", "song", chunk.SongID)
		return
	}
	if au.sampleRate == 0 {
		au.sampleRate = chunk.SampleRate
		au.channels = chunk.Channels
	}
	au.chunks = append(au.chunks, chunk)
	e.sendNextChunks()
}

func (e *Engine) handlePlaying(u PlayingUpdate) {
	au := e.findAudio(u.SongID)
	if au == nil || au.sampleRate == 0 {
		slog.Debug("dropping playing update for unloaded song", "song", u.SongID)
		return
	}
	e.sendInfo(PlayingInfo{
		SongID:   u.SongID,
		Position: PositionToDuration(u.SamplesPlayed, au.sampleRate, au.channels),
	})
	e.sendNextChunks()
}

func (e *Engine) handleSeek(cmd SeekCommand) {
	cs := e.current
	if cs == nil || cs.audio.sampleRate == 0 {
		slog.Debug("ignoring seek, nothing playing with a known format")
		return
	}
	offset := DurationToPosition(cmd.Duration, cs.audio.sampleRate, cs.audio.channels)
	if cmd.Direction == SeekForward {
		cs.playPosition += offset
	} else {
		cs.playPosition = max(cs.playPosition-offset, 0)
	}
	e.sendNextChunks()
}

// sendNextChunks tops the chunk queue up from the current song. Sending is
// indexed off playPosition, so a seek takes effect just by moving it. Once
// the last chunk has been handed over (or a seek ran past the end of a
// fully loaded song), the queued song takes the current slot and sending
// continues without a gap.
func (e *Engine) sendNextChunks() {
	for e.current != nil {
		cs := e.current
		i := cs.playPosition/ChunkSize + 1
		var chunk *SamplesChunk
		if i < len(cs.audio.chunks) {
			chunk = cs.audio.chunks[i]
		}
		if chunk == nil {
			if cs.audio.fullyLoaded() {
				e.rotate()
				continue
			}
			return // wait for the loader to catch up
		}
		select {
		case e.chunks <- chunk:
			cs.playPosition += ChunkSize
			if chunk.LastChunk {
				e.rotate()
			}
		default:
			return // queue full; the next playing update retries
		}
	}
}

func (e *Engine) rotate() {
	if e.next != nil {
		e.current = &currentSong{song: e.next.song, audio: e.next.audio}
		e.next = nil
	} else {
		e.current = nil
	}
}
