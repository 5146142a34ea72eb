package audio

import (
	"testing"
	"time"
)

type scriptSource struct {
	samples  []float32
	pos      int
	channels int
	rate     int
}

func (s *scriptSource) Next() (float32, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	v := s.samples[s.pos]
	s.pos++
	return v, true
}

func (s *scriptSource) Channels() int   { return s.channels }
func (s *scriptSource) SampleRate() int { return s.rate }

func (s *scriptSource) CurrentSpanLen() (int, bool) {
	return len(s.samples) - s.pos, true
}

func (s *scriptSource) TotalDuration() (time.Duration, bool) {
	return 0, false
}

func ramp(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i) / 100
	}
	return out
}

func TestOnStartFiresBeforeFirstSample(t *testing.T) {
	src := &scriptSource{samples: ramp(3), channels: 1, rate: 4000}
	calls := 0
	posAtCall := -1
	wrapped := OnStart(src, func() {
		calls++
		posAtCall = src.pos
	})

	if v, ok := wrapped.Next(); !ok || v != 0 {
		t.Fatalf("Next() = (%v, %v), want (0, true)", v, ok)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
	if posAtCall != 0 {
		t.Errorf("callback ran after %d samples were pulled, want 0", posAtCall)
	}

	wrapped.Next()
	wrapped.Next()
	wrapped.Next() // exhausted
	if calls != 1 {
		t.Errorf("callback ran %d times after draining, want 1", calls)
	}
}

func TestOnDoneFiresOnceAtExhaustion(t *testing.T) {
	src := &scriptSource{samples: ramp(2), channels: 1, rate: 4000}
	calls := 0
	wrapped := OnDone(src, func() { calls++ })

	wrapped.Next()
	wrapped.Next()
	if calls != 0 {
		t.Fatalf("callback ran %d times before exhaustion, want 0", calls)
	}
	if _, ok := wrapped.Next(); ok {
		t.Fatal("source not exhausted after all samples")
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times at exhaustion, want 1", calls)
	}
	wrapped.Next()
	wrapped.Next()
	if calls != 1 {
		t.Errorf("callback ran %d times after repeated pulls, want 1", calls)
	}
}

func TestPeriodicTicks(t *testing.T) {
	// 1ms at 4000Hz mono is 4 samples per tick
	src := &scriptSource{samples: ramp(10), channels: 1, rate: 4000}
	var ticks []time.Duration
	wrapped := Periodic(src, time.Millisecond, func(elapsed time.Duration) {
		ticks = append(ticks, elapsed)
	})

	for {
		if _, ok := wrapped.Next(); !ok {
			break
		}
	}
	wrapped.Next() // exhausted pulls must not tick

	want := []time.Duration{0, time.Millisecond, 2 * time.Millisecond}
	if len(ticks) != len(want) {
		t.Fatalf("got %d ticks %v, want %v", len(ticks), ticks, want)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Errorf("tick %d = %v, want %v", i, ticks[i], want[i])
		}
	}
}

func TestPeriodicAccountsForChannels(t *testing.T) {
	// 1ms at 4000Hz stereo is 8 samples per tick
	src := &scriptSource{samples: ramp(9), channels: 2, rate: 4000}
	ticks := 0
	wrapped := Periodic(src, time.Millisecond, func(time.Duration) { ticks++ })

	for {
		if _, ok := wrapped.Next(); !ok {
			break
		}
	}
	if ticks != 2 {
		t.Errorf("got %d ticks over 9 stereo samples, want 2", ticks)
	}
}

func TestPeriodicClampsToOneSample(t *testing.T) {
	// a period shorter than one sample still ticks at most once per sample
	src := &scriptSource{samples: ramp(3), channels: 1, rate: 4000}
	var ticks []time.Duration
	wrapped := Periodic(src, time.Microsecond, func(elapsed time.Duration) {
		ticks = append(ticks, elapsed)
	})

	for {
		if _, ok := wrapped.Next(); !ok {
			break
		}
	}
	want := []time.Duration{0, time.Microsecond, 2 * time.Microsecond}
	if len(ticks) != len(want) {
		t.Fatalf("got %d ticks %v, want %v", len(ticks), ticks, want)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Errorf("tick %d = %v, want %v", i, ticks[i], want[i])
		}
	}
}

func TestSkipDuration(t *testing.T) {
	// 100ms at 100Hz mono is 10 samples
	src := &scriptSource{samples: ramp(20), channels: 1, rate: 100}
	wrapped := SkipDuration(src, 100*time.Millisecond)

	got, ok := wrapped.Next()
	if !ok {
		t.Fatal("source exhausted right after skip")
	}
	if want := float32(10) / 100; got != want {
		t.Errorf("first sample after skip = %v, want %v", got, want)
	}
	served := 1
	for {
		if _, ok := wrapped.Next(); !ok {
			break
		}
		served++
	}
	if served != 10 {
		t.Errorf("served %d samples after skip, want 10", served)
	}
}

func TestSkipDurationPastEnd(t *testing.T) {
	src := &scriptSource{samples: ramp(5), channels: 1, rate: 100}
	wrapped := SkipDuration(src, time.Second)
	if _, ok := wrapped.Next(); ok {
		t.Error("skipping past the end still produced a sample")
	}
}

func TestSkipDurationZero(t *testing.T) {
	src := &scriptSource{samples: ramp(5), channels: 1, rate: 100}
	wrapped := SkipDuration(src, 0)
	if got, ok := wrapped.Next(); !ok || got != 0 {
		t.Errorf("Next() = (%v, %v), want (0, true)", got, ok)
	}
}

func TestWrappersForwardMetadata(t *testing.T) {
	src := &scriptSource{samples: ramp(5), channels: 2, rate: 48000}
	wrapped := OnDone(Periodic(OnStart(SkipDuration(src, 0), func() {}), time.Second, func(time.Duration) {}), func() {})

	if got := wrapped.Channels(); got != 2 {
		t.Errorf("Channels() = %d, want 2", got)
	}
	if got := wrapped.SampleRate(); got != 48000 {
		t.Errorf("SampleRate() = %d, want 48000", got)
	}
	if got, ok := wrapped.CurrentSpanLen(); !ok || got != 5 {
		t.Errorf("CurrentSpanLen() = (%d, %v), want (5, true)", got, ok)
	}
}
