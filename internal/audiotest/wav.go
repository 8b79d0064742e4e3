// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// WAVOption tweaks the fixture produced by BuildWAV.
type WAVOption func(*wavFixture)

type wavFixture struct {
	sampleRate int
	channels   int
	bits       int
	float      bool
	extra      []byte // chunk inserted between fmt and data
}

// WithFloat32 writes IEEE float 32-bit samples instead of PCM integers.
func WithFloat32() WAVOption {
	return func(f *wavFixture) {
		f.float = true
		f.bits = 32
	}
}

// WithBits sets the integer PCM bit depth (8, 16, 24 or 32).
func WithBits(bits int) WAVOption {
	return func(f *wavFixture) { f.bits = bits }
}

// WithListChunk inserts a LIST chunk carrying payload before the data chunk.
func WithListChunk(payload string) WAVOption {
	return func(f *wavFixture) {
		buf := new(bytes.Buffer)
		buf.WriteString("LIST")
		_ = binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
		buf.WriteString(payload)
		if len(payload)%2 == 1 {
			buf.WriteByte(0)
		}
		f.extra = buf.Bytes()
	}
}

// BuildWAV encodes interleaved samples in [-1,1] as a RIFF/WAVE file.
// The default layout is 16-bit PCM.
func BuildWAV(sampleRate, channels int, samples []float32, opts ...WAVOption) []byte {
	f := &wavFixture{sampleRate: sampleRate, channels: channels, bits: 16}
	for _, opt := range opts {
		opt(f)
	}

	data := new(bytes.Buffer)
	for _, s := range samples {
		writeSample(data, f, s)
	}

	format := uint16(1)
	if f.float {
		format = 3
	}
	blockAlign := uint16(channels * f.bits / 8)

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(4+8+16+len(f.extra)+8+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, format)
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate)*uint32(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, uint16(f.bits))

	buf.Write(f.extra)

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	return buf.Bytes()
}

func writeSample(w *bytes.Buffer, f *wavFixture, s float32) {
	if f.float {
		_ = binary.Write(w, binary.LittleEndian, math.Float32bits(s))
		return
	}

	s = max(-1, min(1, s))
	switch f.bits {
	case 8:
		w.WriteByte(byte(int(s*127) + 128))
	case 16:
		_ = binary.Write(w, binary.LittleEndian, int16(s*32767))
	case 24:
		v := int32(s * 8388607)
		w.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16)})
	case 32:
		_ = binary.Write(w, binary.LittleEndian, int32(float64(s)*2147483647))
	}
}

// Ramp returns n interleaved samples counting up from 0 in steps of 1/scale,
// with every channel of a frame carrying the same value.
func Ramp(frames, channels int, scale float32) []float32 {
	out := make([]float32, 0, frames*channels)
	for i := range frames {
		for range channels {
			out = append(out, float32(i)/scale)
		}
	}
	return out
}
