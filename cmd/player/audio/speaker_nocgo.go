//go:build !((linux && cgo) || windows || darwin)

package audio

// AudioAvailable reports whether this build can produce sound.
const AudioAvailable = false

// DeviceSampleRate is the rate loaders resample to, kept identical to the
// audio builds so the rest of the player behaves the same.
const DeviceSampleRate = 44100

// NewSpeakerSink always fails: this build has no audio backend.
func NewSpeakerSink() (Sink, error) {
	return nil, ErrAudioUnavailable
}
