package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

type flacDecoder struct{}

func (flacDecoder) Decode(r io.Reader) (Source, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("flac: %w", err)
	}
	info := stream.Info
	return &flacSource{
		stream:   stream,
		rate:     int(info.SampleRate),
		channels: int(info.NChannels),
		scale:    float32(int64(1) << (info.BitsPerSample - 1)),
		total:    int64(info.NSamples) * int64(info.NChannels),
	}, nil
}

// flacSource interleaves the per-channel subframes of each flac frame.
type flacSource struct {
	stream   *flac.Stream
	rate     int
	channels int
	scale    float32
	total    int64

	buf []float32 // interleaved samples of the current frame
	pos int
}

func (s *flacSource) SampleRate() int { return s.rate }
func (s *flacSource) Channels() int   { return s.channels }

func (s *flacSource) TotalSamples() (int64, bool) {
	return s.total, s.total > 0
}

func (s *flacSource) Close() error {
	return s.stream.Close()
}

func (s *flacSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.pos >= len(s.buf) {
		if err := s.fillFrame(); err != nil {
			return 0, err
		}
	}
	n := copy(dst, s.buf[s.pos:])
	s.pos += n
	return n, nil
}

func (s *flacSource) fillFrame() error {
	frame, err := s.stream.ParseNext()
	if err != nil {
		return err // io.EOF at end of stream
	}
	blockLen := len(frame.Subframes[0].Samples)
	need := blockLen * s.channels
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	s.buf = s.buf[:need]
	for i := 0; i < blockLen; i++ {
		for c := 0; c < s.channels; c++ {
			s.buf[i*s.channels+c] = float32(frame.Subframes[c].Samples[i]) / s.scale
		}
	}
	s.pos = 0
	return nil
}
