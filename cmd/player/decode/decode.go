// Package decode turns audio files into interleaved float32 sample streams.
// Decoders register per file extension; Open dispatches on the extension of
// the path being played.
package decode

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownFormat       = errors.New("unknown audio format")
	ErrNotWavFile          = errors.New("not a valid wav file")
	ErrNotAiffFile         = errors.New("not a valid aiff file")
	ErrUnsupportedBitDepth = errors.New("unsupported pcm bit depth")
)

// Source is a decoded PCM stream: interleaved float32 samples in [-1, 1].
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (1=mono, 2=stereo).
	Channels() int
	// TotalSamples reports the stream length in interleaved samples, when
	// the container advertises it.
	TotalSamples() (int64, bool)
	// ReadSamples fills dst with interleaved samples and returns how many
	// were written. (0, io.EOF) marks the end of the stream; a short read
	// with a nil error is not the end.
	ReadSamples(dst []float32) (int, error)
	// Close releases decoder resources. It does not close the underlying
	// reader.
	Close() error
}

// Decoder constructs a Source from an input stream.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps lowercase file extensions (".mp3") to decoders.
type Registry struct {
	mu       sync.Mutex
	decoders map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[ext] = d
}

func (r *Registry) Lookup(ext string) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.decoders[strings.ToLower(ext)]
	return d, ok
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	exts := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Open decodes rd using the decoder registered for path's extension.
func (r *Registry) Open(rd io.Reader, path string) (Source, error) {
	d, ok := r.Lookup(filepath.Ext(path))
	if !ok {
		return nil, ErrUnknownFormat
	}
	return d.Decode(rd)
}

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register(".wav", wavDecoder{})
	r.Register(".mp3", mp3Decoder{})
	r.Register(".ogg", vorbisDecoder{})
	r.Register(".oga", vorbisDecoder{})
	r.Register(".flac", flacDecoder{})
	r.Register(".aiff", aiffDecoder{})
	r.Register(".aif", aiffDecoder{})
	return r
}()

// Open decodes rd with the default registry.
func Open(rd io.Reader, path string) (Source, error) {
	return defaultRegistry.Open(rd, path)
}

// Extensions lists the extensions the default registry can decode.
func Extensions() []string {
	return defaultRegistry.Extensions()
}

// asReadSeeker hands the reader through when it can seek, and otherwise
// buffers it fully in memory (some container parsers need random access).
func asReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
