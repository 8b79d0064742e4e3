// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	"github.com/ik5/trackpool/audio"
)

// frameParser is an interface for flac.Stream to allow testing
type frameParser interface {
	ParseNext() (*frame.Frame, error)
}

type source struct {
	dec        frameParser
	sampleRate int
	channels   int
	bits       int
	cur        *frame.Frame
	pos        int // next sample index inside cur
	eof        bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return 4096 * s.channels }

// Close is a no-op; the caller owns the reader passed to Decode.
func (s *source) Close() error { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	n := 0
	for n < want {
		if s.cur == nil || s.pos >= len(s.cur.Subframes[0].Samples) {
			f, err := s.dec.ParseNext()
			if err != nil {
				if errors.Is(err, io.EOF) {
					s.eof = true
					return n, io.EOF
				}
				return n, fmt.Errorf("flac: %w", err)
			}
			if len(f.Subframes) != s.channels {
				return n, fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(f.Subframes), s.channels)
			}
			s.cur, s.pos = f, 0
			continue
		}

		bits := int(s.cur.BitsPerSample)
		if bits == 0 {
			bits = s.bits
		}
		if bits < 1 || bits > 32 {
			return n, fmt.Errorf("%w: %d bits per sample", ErrInvalidStream, bits)
		}
		scale := float32(int64(1) << (bits - 1))

		block := len(s.cur.Subframes[0].Samples)
		for s.pos < block && n < want {
			for _, sub := range s.cur.Subframes {
				dst[n] = float32(sub.Samples[s.pos]) / scale
				n++
			}
			s.pos++
		}
	}
	return n, nil
}

type Decoder struct{}

// Decode reads the fLaC signature and metadata blocks. Audio frames are
// parsed lazily as samples are requested.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStream, err)
	}

	info := stream.Info
	if info == nil || info.NChannels == 0 || info.SampleRate == 0 {
		return nil, ErrInvalidStream
	}
	if info.BitsPerSample == 0 || info.BitsPerSample > 32 {
		return nil, fmt.Errorf("%w: %d bits per sample", ErrInvalidStream, info.BitsPerSample)
	}

	return &source{
		dec:        stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bits:       int(info.BitsPerSample),
	}, nil
}
