// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/trackpool/audio"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE

	// written by streaming encoders that never seek back to patch the
	// header; the data then runs to the end of the stream.
	unknownSize = 0xFFFFFFFF
)

type wavSource struct {
	r          io.Reader
	sampleRate int
	channels   int
	bits       int
	float      bool
	remaining  int64 // bytes left in the data chunk, -1 when unknown
	buf        []byte
	eof        bool
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) BufSize() int    { return len(s.buf) }
func (s *wavSource) Close() error    { return nil }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	width := s.bits / 8
	block := width * s.channels
	frames := len(dst) / s.channels
	if frames == 0 {
		return 0, nil
	}

	want := int64(frames * block)
	if s.remaining >= 0 && want > s.remaining {
		want = s.remaining - s.remaining%int64(block)
	}
	if int64(cap(s.buf)) < want {
		s.buf = make([]byte, want)
	}
	buf := s.buf[:want]

	n, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
	case err == io.EOF, err == io.ErrUnexpectedEOF:
		// io.ReadFull returns these unwrapped; a truncated data chunk ends
		// the stream at the last whole frame
		s.eof = true
	default:
		return 0, fmt.Errorf("wav: %w", err)
	}

	n -= n % block
	if s.remaining >= 0 {
		s.remaining -= int64(n)
		if s.remaining < int64(block) {
			s.eof = true
		}
	}

	samples := n / width
	s.convert(dst[:samples], buf[:n])

	if s.eof {
		return samples, io.EOF
	}
	return samples, nil
}

func (s *wavSource) convert(dst []float32, raw []byte) {
	width := s.bits / 8
	if s.float {
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
		return
	}

	scale := float32(goaudio.IntMaxSignedValue(s.bits) + 1)
	for i := range dst {
		b := raw[width*i:]
		var v int32
		switch s.bits {
		case 8:
			v = int32(b[0]) - 128
		case 16:
			v = int32(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			v = int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
		case 32:
			v = int32(binary.LittleEndian.Uint32(b))
		}
		dst[i] = float32(v) / scale
	}
}

type fmtChunk struct {
	format     uint16
	channels   int
	sampleRate int
	bits       int
}

type Decoder struct{}

// Decode reads the RIFF header and walks chunks until the data chunk,
// skipping LIST and any other chunk it does not need. Sample data is then
// streamed from r on demand.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}
	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, ErrNotWavFile
	}

	var (
		format *fmtChunk
		chunk  [8]byte
	)
	for {
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, fmt.Errorf("%w: no data chunk: %w", ErrUnsupportedWavLayout, err)
		}
		id := string(chunk[:4])
		size := binary.LittleEndian.Uint32(chunk[4:])

		switch id {
		case "fmt ":
			f, err := readFmt(r, size)
			if err != nil {
				return nil, err
			}
			format = f
		case "data":
			if format == nil {
				return nil, ErrMissingFmtChunk
			}
			remaining := int64(size)
			if size == unknownSize {
				remaining = -1
			}
			return &wavSource{
				r:          r,
				sampleRate: format.sampleRate,
				channels:   format.channels,
				bits:       format.bits,
				float:      format.format == formatFloat,
				remaining:  remaining,
				buf:        make([]byte, 4096*format.channels*format.bits/8),
			}, nil
		default:
			// chunks are word aligned
			skip := int64(size) + int64(size%2)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("%w: chunk %q: %w", ErrUnsupportedWavLayout, id, err)
			}
		}
	}
}

func readFmt(r io.Reader, size uint32) (*fmtChunk, error) {
	if size < 16 {
		return nil, ErrUnsupportedWavLayout
	}
	raw := make([]byte, size+size%2)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: fmt chunk: %w", ErrUnsupportedWavLayout, err)
	}

	f := &fmtChunk{
		format:     binary.LittleEndian.Uint16(raw[0:2]),
		channels:   int(binary.LittleEndian.Uint16(raw[2:4])),
		sampleRate: int(binary.LittleEndian.Uint32(raw[4:8])),
		bits:       int(binary.LittleEndian.Uint16(raw[14:16])),
	}
	// WAVE_FORMAT_EXTENSIBLE carries the real format in the first two
	// bytes of the sub-format GUID.
	if f.format == formatExtensible && size >= 26 {
		f.format = binary.LittleEndian.Uint16(raw[24:26])
	}

	if f.channels < 1 || f.sampleRate < 1 {
		return nil, ErrUnsupportedWavLayout
	}
	switch {
	case f.format == formatPCM && (f.bits == 8 || f.bits == 16 || f.bits == 24 || f.bits == 32):
	case f.format == formatFloat && f.bits == 32:
	default:
		return nil, fmt.Errorf("%w: format %d, %d bits", ErrUnsupportedSampleFormat, f.format, f.bits)
	}
	return f, nil
}
