package decode

import (
	"io"
)

// Resampled converts src to the given sample rate using linear interpolation,
// preserving the channel count. A source already at the target rate passes
// through unchanged.
func Resampled(src Source, rate int) Source {
	if rate <= 0 || src.SampleRate() == rate {
		return src
	}
	ch := src.Channels()
	return &resampler{
		src:      src,
		from:     src.SampleRate(),
		to:       rate,
		channels: ch,
		cur:      make([]float32, ch),
		nxt:      make([]float32, ch),
		out:      make([]float32, ch),
		outUsed:  ch,
		lastIdx:  -1,
	}
}

type resampler struct {
	src      Source
	from, to int
	channels int

	cur, nxt []float32 // source frames curIdx and curIdx+1
	out      []float32
	outUsed  int // samples of out already handed to the caller
	curIdx   int
	lastIdx  int // index of the final source frame, -1 until EOF
	outPos   int // output frames emitted
	primed   bool
}

func (r *resampler) SampleRate() int { return r.to }
func (r *resampler) Channels() int   { return r.channels }
func (r *resampler) Close() error    { return r.src.Close() }

func (r *resampler) TotalSamples() (int64, bool) {
	total, ok := r.src.TotalSamples()
	if !ok {
		return 0, false
	}
	frames := total / int64(r.channels)
	return frames * int64(r.to) / int64(r.from) * int64(r.channels), true
}

func (r *resampler) ReadSamples(dst []float32) (int, error) {
	written := 0
	for written < len(dst) {
		if r.outUsed == r.channels {
			if err := r.nextFrame(); err != nil {
				if written > 0 {
					return written, nil
				}
				return 0, err
			}
			r.outUsed = 0
		}
		n := copy(dst[written:], r.out[r.outUsed:])
		written += n
		r.outUsed += n
	}
	return written, nil
}

func (r *resampler) nextFrame() error {
	if !r.primed {
		if err := r.prime(); err != nil {
			return err
		}
	}

	// source position of the next output frame
	pos := float64(r.outPos) * float64(r.from) / float64(r.to)
	idx := int(pos)
	if err := r.advanceTo(idx); err != nil {
		return err
	}
	if idx > r.curIdx {
		return io.EOF // past the final source frame
	}

	frac := float32(pos - float64(idx))
	for c := 0; c < r.channels; c++ {
		r.out[c] = r.cur[c] + (r.nxt[c]-r.cur[c])*frac
	}
	r.outPos++
	return nil
}

func (r *resampler) prime() error {
	if err := r.readFrame(r.cur); err != nil {
		return err // empty source
	}
	if err := r.readFrame(r.nxt); err != nil {
		if err != io.EOF {
			return err
		}
		copy(r.nxt, r.cur)
		r.lastIdx = 0
	}
	r.primed = true
	return nil
}

func (r *resampler) advanceTo(idx int) error {
	for r.lastIdx < 0 && r.curIdx < idx {
		copy(r.cur, r.nxt)
		r.curIdx++
		err := r.readFrame(r.nxt)
		if err == io.EOF {
			r.lastIdx = r.curIdx
			copy(r.nxt, r.cur)
		} else if err != nil {
			return err
		}
	}
	return nil
}

// readFrame fills one whole frame; a truncated trailing frame counts as EOF.
func (r *resampler) readFrame(frame []float32) error {
	got := 0
	for {
		n, err := r.src.ReadSamples(frame[got:r.channels])
		got += n
		if got == r.channels {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return io.EOF
		}
	}
}
