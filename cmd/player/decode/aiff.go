package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
)

type aiffDecoder struct{}

func (aiffDecoder) Decode(r io.Reader) (Source, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading aiff data: %w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}

	format := dec.Format()
	if format == nil {
		return nil, ErrNotAiffFile
	}

	return &pcmSource{
		reader:     dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   int(dec.BitDepth),
		total:      int64(dec.NumSampleFrames) * int64(format.NumChannels),
	}, nil
}
