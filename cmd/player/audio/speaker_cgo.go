//go:build (linux && cgo) || windows || darwin

package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable reports whether this build can produce sound.
const AudioAvailable = true

// DeviceSampleRate is the fixed rate the speaker is initialized with.
// Loaders resample every song to it.
const DeviceSampleRate = 44100

type speakerSink struct {
	mu     sync.Mutex
	ctrl   *beep.Ctrl
	volume *effects.Volume
}

// NewSpeakerSink initializes the system audio device. Only one speaker
// sink can exist per process.
func NewSpeakerSink() (Sink, error) {
	sr := beep.SampleRate(DeviceSampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return &speakerSink{}, nil
}

func (s *speakerSink) SampleRate() int { return DeviceSampleRate }

func (s *speakerSink) Append(src SampleSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	volume := &effects.Volume{
		Streamer: Streamer(src),
		Base:     2,
		Volume:   0,
	}
	ctrl := &beep.Ctrl{Streamer: volume}
	s.volume = volume
	s.ctrl = ctrl
	speaker.Play(ctrl)
}

func (s *speakerSink) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

func (s *speakerSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

// SetVolume maps the linear volume onto beep's exponential scale, so 1.0
// plays at unity gain and 0 is fully silent.
func (s *speakerSink) SetVolume(volume float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.volume == nil {
		return
	}
	speaker.Lock()
	if volume <= 0 {
		s.volume.Silent = true
	} else {
		s.volume.Silent = false
		s.volume.Volume = math.Log2(float64(volume))
	}
	speaker.Unlock()
}

func (s *speakerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	speaker.Clear()
	speaker.Close()
	return nil
}
