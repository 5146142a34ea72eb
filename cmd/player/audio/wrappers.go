package audio

import "time"

// The wrappers below decorate a SampleSource with side effects driven by
// sample consumption. They run on whatever thread pulls the source, so the
// callbacks must be quick and must not block.

type onStartSource struct {
	SampleSource
	f     func()
	fired bool
}

// OnStart calls f once, immediately before the first sample is served.
func OnStart(src SampleSource, f func()) SampleSource {
	return &onStartSource{SampleSource: src, f: f}
}

func (o *onStartSource) Next() (float32, bool) {
	if !o.fired {
		o.fired = true
		o.f()
	}
	return o.SampleSource.Next()
}

type onDoneSource struct {
	SampleSource
	f     func()
	fired bool
}

// OnDone calls f once, when the source first reports exhaustion.
func OnDone(src SampleSource, f func()) SampleSource {
	return &onDoneSource{SampleSource: src, f: f}
}

func (o *onDoneSource) Next() (float32, bool) {
	v, ok := o.SampleSource.Next()
	if !ok && !o.fired {
		o.fired = true
		o.f()
	}
	return v, ok
}

type periodicSource struct {
	SampleSource
	f           func(elapsed time.Duration)
	period      time.Duration
	updateEvery int
	countdown   int
	elapsed     time.Duration
}

// Periodic calls f with the elapsed playback time after every period of
// consumed samples. The first call happens right after the first sample,
// with an elapsed time of zero. Exhausted sources stop ticking.
func Periodic(src SampleSource, period time.Duration, f func(elapsed time.Duration)) SampleSource {
	every := DurationToPosition(period, src.SampleRate(), src.Channels())
	if every < 1 {
		every = 1
	}
	return &periodicSource{
		SampleSource: src,
		f:            f,
		period:       period,
		updateEvery:  every,
		countdown:    1,
	}
}

func (p *periodicSource) Next() (float32, bool) {
	v, ok := p.SampleSource.Next()
	if !ok {
		return v, false
	}
	p.countdown--
	if p.countdown == 0 {
		p.f(p.elapsed)
		p.elapsed += p.period
		p.countdown = p.updateEvery
	}
	return v, true
}

type skipSource struct {
	SampleSource
	remaining int
}

// SkipDuration discards the first d worth of samples before serving any.
// A source that ends during the skip is simply exhausted.
func SkipDuration(src SampleSource, d time.Duration) SampleSource {
	return &skipSource{
		SampleSource: src,
		remaining:    DurationToPosition(d, src.SampleRate(), src.Channels()),
	}
}

func (s *skipSource) Next() (float32, bool) {
	for s.remaining > 0 {
		s.remaining--
		if _, ok := s.SampleSource.Next(); !ok {
			return 0, false
		}
	}
	return s.SampleSource.Next()
}
