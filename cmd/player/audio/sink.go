package audio

import "errors"

// ErrAudioUnavailable is returned by NewSpeakerSink in builds without an
// audio backend.
var ErrAudioUnavailable = errors.New("audio output not available in this build (requires cgo on linux)")

// Sink is the output device behind the engine. The speaker implementation
// lives in speaker_cgo.go; tests substitute their own.
type Sink interface {
	// SampleRate reports the rate the device runs at. Loaders resample
	// songs to it; zero means sources keep their native rate.
	SampleRate() int
	// Append installs the source the device pulls samples from.
	Append(src SampleSource)
	Play()
	Pause()
	// SetVolume takes a linear volume, 0 silencing the output entirely.
	SetVolume(volume float32)
	Close() error
}
