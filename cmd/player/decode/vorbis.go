package decode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

type vorbisDecoder struct{}

func (vorbisDecoder) Decode(r io.Reader) (Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	return &vorbisSource{dec: dec}, nil
}

// vorbisSource adapts oggvorbis, which already yields interleaved float32.
type vorbisSource struct {
	dec *oggvorbis.Reader
}

func (s *vorbisSource) SampleRate() int { return s.dec.SampleRate() }
func (s *vorbisSource) Channels() int   { return s.dec.Channels() }
func (s *vorbisSource) Close() error    { return nil }

func (s *vorbisSource) TotalSamples() (int64, bool) {
	// Length counts frames per channel and is zero for unseekable input.
	frames := s.dec.Length()
	if frames <= 0 {
		return 0, false
	}
	return frames * int64(s.dec.Channels()), true
}

func (s *vorbisSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	return s.dec.Read(dst)
}
