// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"slices"
	"sync"
)

// Source is a pull-based stream of decoded PCM.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
//
// Decoders must not read past what they need to report the stream format,
// so that a Source can be built over a network body that is still arriving.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps format keys (see DetectFormat) to decoders.
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.RWMutex{},
	}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats returns the registered keys in sorted order.
func (r *Registry) Formats() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	keys := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

// Lookup resolves the decoder for a resource from its URL and declared
// content type. It returns the detected format key alongside the decoder,
// and ErrUnsupportedFormat when nothing matches.
func (r *Registry) Lookup(url, contentType string) (string, Decoder, error) {
	format := DetectFormat(url, contentType)
	if format == "" {
		return "", nil, ErrUnsupportedFormat
	}

	d, ok := r.Get(format)
	if !ok {
		return format, nil, ErrUnsupportedFormat
	}

	return format, d, nil
}
