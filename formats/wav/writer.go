// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// Writer encodes interleaved float32 samples into an integer PCM WAV file.
// The header sizes are patched on Close, so the destination must be
// seekable.
type Writer struct {
	enc    *gowav.Encoder
	buf    *goaudio.IntBuffer
	bits   int
	closed bool
}

// NewWriter prepares a WAV encoder for the given layout. Supported bit
// depths are 16, 24 and 32.
func NewWriter(w io.WriteSeeker, sampleRate, channels, bits int) (*Writer, error) {
	switch bits {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bits)
	}
	if sampleRate < 1 || channels < 1 {
		return nil, ErrUnsupportedWavLayout
	}

	return &Writer{
		enc: gowav.NewEncoder(w, sampleRate, bits, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bits,
		},
		bits: bits,
	}, nil
}

// Write appends samples; values outside [-1,1] are clipped.
func (w *Writer) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	peak := float32(goaudio.IntMaxSignedValue(w.bits))
	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		s = max(-1, min(1, s))
		w.buf.Data[i] = int(s * peak)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav write: %w", err)
	}
	return nil
}

// Close finalizes the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wav close: %w", err)
	}
	return nil
}
