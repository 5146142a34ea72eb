package play

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gigurra/canto/cmd/player/audio"
)

func writeWav(t *testing.T, path string, sampleRate, channels int, samples []int16) {
	t.Helper()

	var data bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&data, binary.LittleEndian, s)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func rampInt16(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i % 3000)
	}
	return samples
}

func constInt16(n int, v int16) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = v
	}
	return samples
}

func closeTo(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

// drainSink pulls every appended source dry on its own goroutine, the way
// the speaker does, and records what it saw.
type drainSink struct {
	rate int

	mu      sync.Mutex
	pulled  []float32
	volume  float32
	playing bool
	closed  bool
}

func (d *drainSink) SampleRate() int { return d.rate }

func (d *drainSink) Append(src audio.SampleSource) {
	go func() {
		for {
			v, ok := src.Next()
			if !ok {
				return
			}
			d.mu.Lock()
			d.pulled = append(d.pulled, v)
			d.mu.Unlock()
		}
	}()
}

func (d *drainSink) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = true
}

func (d *drainSink) Pause() {}

func (d *drainSink) SetVolume(v float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = v
}

func (d *drainSink) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *drainSink) samples() []float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float32(nil), d.pulled...)
}

func TestFileSourceDrainsWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	writeWav(t, path, 8000, 1, rampInt16(500))

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	src, err := openSource(f, path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.SampleRate() != 8000 || src.Channels() != 1 {
		t.Fatalf("metadata = %d Hz, %d channels", src.SampleRate(), src.Channels())
	}
	if d, ok := src.TotalDuration(); !ok || d != 62500*time.Microsecond {
		t.Errorf("TotalDuration = %v, %v, want 62.5ms", d, ok)
	}

	v, ok := src.Next()
	if !ok || v != 0 {
		t.Fatalf("first sample = %v, %v", v, ok)
	}
	if span, ok := src.CurrentSpanLen(); !ok || span != 499 {
		t.Errorf("CurrentSpanLen after one pull = %d, %v", span, ok)
	}

	count := 1
	for {
		v, ok := src.Next()
		if !ok {
			break
		}
		if want := float32(count%3000) / 32768; !closeTo(v, want) {
			t.Fatalf("sample %d = %v, want %v", count, v, want)
		}
		count++
	}
	if count != 500 {
		t.Errorf("drained %d samples, want 500", count)
	}
	if _, ok := src.Next(); ok {
		t.Error("exhausted source served another sample")
	}
}

func TestFileSourceResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	writeWav(t, path, 8000, 1, rampInt16(500))

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	src, err := openSource(f, path, 16000)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.SampleRate() != 16000 {
		t.Fatalf("SampleRate = %d, want 16000", src.SampleRate())
	}
	// the advertised duration scales exactly with the rate
	if d, ok := src.TotalDuration(); !ok || d != 62500*time.Microsecond {
		t.Errorf("TotalDuration = %v, %v, want 62.5ms", d, ok)
	}

	count := 0
	for {
		if _, ok := src.Next(); !ok {
			break
		}
		count++
	}
	if count < 990 || count > 1010 {
		t.Errorf("drained %d samples, want about 1000", count)
	}
}

func TestRunPlayPlaysFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.wav")
	second := filepath.Join(dir, "second.wav")
	writeWav(t, first, 8000, 1, rampInt16(800))
	writeWav(t, second, 8000, 1, constInt16(400, 2000))

	sink := &drainSink{}
	err := runPlay(&Params{Files: []string{first, second}, Volume: 100, Quiet: true}, sink, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}

	got := sink.samples()
	if len(got) != 1200 {
		t.Fatalf("pulled %d samples, want 1200", len(got))
	}
	if !closeTo(got[10], 10.0/32768) {
		t.Errorf("sample 10 = %v, want ramp value", got[10])
	}
	if !closeTo(got[800], 2000.0/32768) {
		t.Errorf("sample 800 = %v, want first sample of the second file", got[800])
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.volume != 1.0 || !sink.playing || !sink.closed {
		t.Errorf("sink state: volume %v, playing %v, closed %v", sink.volume, sink.playing, sink.closed)
	}
}

func TestRunPlaySkipAppliesToFirstFileOnly(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.wav")
	second := filepath.Join(dir, "second.wav")
	writeWav(t, first, 8000, 1, rampInt16(8000))
	writeWav(t, second, 8000, 1, constInt16(400, 2000))

	sink := &drainSink{}
	params := &Params{Files: []string{first, second}, From: "500ms", Volume: 100, Quiet: true}
	if err := runPlay(params, sink, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	got := sink.samples()
	if len(got) != 4400 {
		t.Fatalf("pulled %d samples, want 4400", len(got))
	}
	// 500ms at 8000 Hz mono skips 4000 samples, so playback starts there
	if want := float32(4000%3000) / 32768; !closeTo(got[0], want) {
		t.Errorf("first pulled sample = %v, want %v", got[0], want)
	}
}

func TestRunPlayProgressOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	writeWav(t, path, 8000, 1, rampInt16(8000))

	var out bytes.Buffer
	sink := &drainSink{}
	if err := runPlay(&Params{Files: []string{path}, Volume: 100}, sink, &out); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.Contains(got, "song.wav") || !strings.Contains(got, "0:00 / 0:01") {
		t.Errorf("progress output missing title or position:\n%q", got)
	}
}

func TestRunPlayInvalidFrom(t *testing.T) {
	err := runPlay(&Params{Files: []string{"x.wav"}, From: "later"}, &drainSink{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected an error for an unparsable --from")
	}
}

func TestRunPlayMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.wav")
	err := runPlay(&Params{Files: []string{missing}, Volume: 100, Quiet: true}, &drainSink{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
