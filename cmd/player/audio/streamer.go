package audio

import "github.com/gopxl/beep/v2"

type beepStreamer struct {
	src     SampleSource
	drained bool
}

// Streamer adapts a SampleSource to a beep.Streamer, pairing interleaved
// samples into stereo frames. Mono sources play on both channels, anything
// beyond two channels keeps the first two.
func Streamer(src SampleSource) beep.Streamer {
	return &beepStreamer{src: src}
}

func (b *beepStreamer) Stream(samples [][2]float64) (int, bool) {
	if b.drained {
		return 0, false
	}
	for i := range samples {
		frame, ok := b.nextFrame()
		if !ok {
			b.drained = true
			return i, i > 0
		}
		samples[i] = frame
	}
	return len(samples), true
}

// nextFrame consumes one frame worth of samples. Channels is re-read every
// frame: the receiver source changes metadata between songs.
func (b *beepStreamer) nextFrame() ([2]float64, bool) {
	first, ok := b.src.Next()
	if !ok {
		return [2]float64{}, false
	}
	channels := b.src.Channels()
	if channels <= 1 {
		v := float64(first)
		return [2]float64{v, v}, true
	}
	second, ok := b.src.Next()
	if !ok {
		return [2]float64{}, false
	}
	for extra := channels - 2; extra > 0; extra-- {
		if _, ok := b.src.Next(); !ok {
			break
		}
	}
	return [2]float64{float64(first), float64(second)}, true
}

func (b *beepStreamer) Err() error { return nil }
