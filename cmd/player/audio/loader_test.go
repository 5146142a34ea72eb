package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gigurra/canto/cmd/player/library"
)

// writeWav writes a minimal canonical 16-bit PCM WAV file.
func writeWav(t *testing.T, path string, sampleRate, channels int, samples []int16) {
	t.Helper()
	buf := new(bytes.Buffer)

	numChannels := uint16(channels)
	bits := uint16(16)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bits/8)
	blockAlign := numChannels * bits / 8
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	for _, s := range samples {
		_ = binary.Write(buf, binary.LittleEndian, s)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing wav fixture: %v", err)
	}
}

func rampInt16(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(i % 3000)
	}
	return out
}

func collectEvents() (func(Event) bool, *[]Event) {
	var events []Event
	return func(ev Event) bool {
		events = append(events, ev)
		return true
	}, &events
}

func TestLoadSongChunksAndDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	writeWav(t, path, 8000, 1, rampInt16(2148))
	song := library.Song{ID: 3, Title: "song", Path: path}

	post, events := collectEvents()
	LoadSong(song, 0, post)

	if len(*events) != 4 {
		t.Fatalf("got %d events, want 4: %v", len(*events), *events)
	}

	dur, ok := (*events)[0].(DurationEvent)
	if !ok {
		t.Fatalf("first event = %#v, want DurationEvent", (*events)[0])
	}
	if want := 268500 * time.Microsecond; dur.SongID != 3 || dur.Duration != want {
		t.Errorf("duration event = %#v, want song 3 at %v", dur, want)
	}

	wantChunks := []struct {
		start  int
		length int
		last   bool
	}{
		{0, ChunkSize, false},
		{ChunkSize, ChunkSize, false},
		{2 * ChunkSize, 100, true},
	}
	for i, want := range wantChunks {
		ev, ok := (*events)[i+1].(ChunkEvent)
		if !ok {
			t.Fatalf("event %d = %#v, want ChunkEvent", i+1, (*events)[i+1])
		}
		c := ev.Chunk
		if c.SongID != 3 || c.SampleRate != 8000 || c.Channels != 1 {
			t.Errorf("chunk %d metadata = %+v", i, c)
		}
		if c.StartPosition != want.start || c.Length != want.length || c.LastChunk != want.last {
			t.Errorf("chunk %d = start %d len %d last %v, want %+v",
				i, c.StartPosition, c.Length, c.LastChunk, want)
		}
	}

	first := (*events)[1].(ChunkEvent).Chunk
	if got, want := first.Data[5], float32(5)/32768; !closeTo(got, want) {
		t.Errorf("first chunk sample 5 = %v, want %v", got, want)
	}
	final := (*events)[3].(ChunkEvent).Chunk
	if got, want := final.Data[99], float32(2147)/32768; !closeTo(got, want) {
		t.Errorf("final chunk sample 99 = %v, want %v", got, want)
	}
	if final.Data[100] != 0 {
		t.Errorf("final chunk tail = %v, want 0", final.Data[100])
	}
}

func TestLoadSongExactChunkMultiple(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	writeWav(t, path, 8000, 1, rampInt16(2*ChunkSize))
	song := library.Song{ID: 1, Path: path}

	post, events := collectEvents()
	LoadSong(song, 0, post)

	if len(*events) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(*events), *events)
	}
	final := (*events)[2].(ChunkEvent).Chunk
	if final.Length != ChunkSize || !final.LastChunk {
		t.Errorf("final chunk = len %d last %v, want a full last chunk", final.Length, final.LastChunk)
	}
	middle := (*events)[1].(ChunkEvent).Chunk
	if middle.LastChunk {
		t.Error("non-final chunk marked as last")
	}
}

func TestLoadSongMissingFile(t *testing.T) {
	song := library.Song{ID: 9, Path: filepath.Join(t.TempDir(), "missing.wav")}

	post, events := collectEvents()
	LoadSong(song, 0, post)

	if len(*events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(*events), *events)
	}
	failed, ok := (*events)[0].(FailedOpenEvent)
	if !ok {
		t.Fatalf("event = %#v, want FailedOpenEvent", (*events)[0])
	}
	if failed.SongID != 9 || failed.Kind != OpenErrorFileNotFound || failed.Err == nil {
		t.Errorf("failed open event = %#v, want file not found for song 9", failed)
	}
}

func TestLoadSongUndecodableFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"junk.wav", "junk.xyz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte("this is not audio"), 0644); err != nil {
				t.Fatal(err)
			}

			post, events := collectEvents()
			LoadSong(library.Song{ID: 2, Path: path}, 0, post)

			if len(*events) != 1 {
				t.Fatalf("got %d events, want 1: %v", len(*events), *events)
			}
			failed, ok := (*events)[0].(FailedOpenEvent)
			if !ok {
				t.Fatalf("event = %#v, want FailedOpenEvent", (*events)[0])
			}
			if failed.Kind != OpenErrorNotDecodable {
				t.Errorf("kind = %v, want not decodable", failed.Kind)
			}
		})
	}
}

func TestLoadSongStopsWhenPostRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	writeWav(t, path, 8000, 1, rampInt16(4*ChunkSize))

	attempts := 0
	LoadSong(library.Song{ID: 1, Path: path}, 0, func(Event) bool {
		attempts++
		return false
	})

	if attempts != 1 {
		t.Errorf("loader kept posting %d times after rejection, want 1", attempts)
	}
}

func TestLoadSongResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	writeWav(t, path, 4000, 1, rampInt16(1000))
	song := library.Song{ID: 6, Path: path}

	post, events := collectEvents()
	LoadSong(song, 8000, post)

	dur, ok := (*events)[0].(DurationEvent)
	if !ok {
		t.Fatalf("first event = %#v, want DurationEvent", (*events)[0])
	}
	if want := 250 * time.Millisecond; dur.Duration != want {
		t.Errorf("duration = %v, want %v", dur.Duration, want)
	}

	total := 0
	sawLast := false
	for i, ev := range (*events)[1:] {
		c, ok := ev.(ChunkEvent)
		if !ok {
			t.Fatalf("event %d = %#v, want ChunkEvent", i+1, ev)
		}
		if c.Chunk.SampleRate != 8000 {
			t.Errorf("chunk %d rate = %d, want 8000", i, c.Chunk.SampleRate)
		}
		if c.Chunk.StartPosition != i*ChunkSize {
			t.Errorf("chunk %d start = %d, want %d", i, c.Chunk.StartPosition, i*ChunkSize)
		}
		if sawLast {
			t.Error("chunk after the last chunk")
		}
		sawLast = c.Chunk.LastChunk
		total += c.Chunk.Length
	}
	if !sawLast {
		t.Error("no chunk marked as last")
	}
	if total < 1990 || total > 2010 {
		t.Errorf("resampled song to %d samples, want about 2000", total)
	}
}
