package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

type mp3Decoder struct{}

func (mp3Decoder) Decode(r io.Reader) (Source, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return &mp3Source{dec: dec}, nil
}

// mp3Source adapts go-mp3, which always yields 16-bit little-endian stereo
// at the source sample rate.
type mp3Source struct {
	dec *mp3.Decoder
	buf []byte
}

func (s *mp3Source) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Source) Channels() int   { return 2 }
func (s *mp3Source) Close() error    { return nil }

func (s *mp3Source) TotalSamples() (int64, bool) {
	// Length is the decoded stream size in bytes, 2 per interleaved sample;
	// negative when the input cannot seek.
	n := s.dec.Length()
	if n <= 0 {
		return 0, false
	}
	return n / 2, true
}

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(s.buf) < len(dst)*2 {
		s.buf = make([]byte, len(dst)*2)
	}
	n, err := s.dec.Read(s.buf[:len(dst)*2])
	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
		dst[i] = float32(v) / 32768
	}
	if samples == 0 && err != nil {
		return 0, err
	}
	if err != nil && err != io.EOF {
		return samples, err
	}
	return samples, nil
}
