// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/trackpool/internal/audiotest"
)

func readAll(t *testing.T, data []byte, bufSize int) ([]float32, int, int) {
	t.Helper()

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer src.Close()

	var out []float32
	buf := make([]float32, bufSize)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	return out, src.SampleRate(), src.Channels()
}

func TestDecoder_Metadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sampleRate int
		channels   int
	}{
		{"mono 8k", 8000, 1},
		{"stereo 44.1k", 44100, 2},
		{"quad 48k", 48000, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := audiotest.BuildWAV(tt.sampleRate, tt.channels, make([]float32, tt.channels*10))
			src, err := Decoder{}.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode() error = %v, want nil", err)
			}
			if src.SampleRate() != tt.sampleRate {
				t.Errorf("SampleRate() = %d, want %d", src.SampleRate(), tt.sampleRate)
			}
			if src.Channels() != tt.channels {
				t.Errorf("Channels() = %d, want %d", src.Channels(), tt.channels)
			}
		})
	}
}

func TestDecoder_SampleFormats(t *testing.T) {
	t.Parallel()

	samples := []float32{0, 0.5, -0.5, 0.25, -0.25, 0.9}

	tests := []struct {
		name      string
		opts      []audiotest.WAVOption
		tolerance float64
	}{
		{"pcm8", []audiotest.WAVOption{audiotest.WithBits(8)}, 0.02},
		{"pcm16", nil, 0.001},
		{"pcm24", []audiotest.WAVOption{audiotest.WithBits(24)}, 0.0001},
		{"pcm32", []audiotest.WAVOption{audiotest.WithBits(32)}, 0.0001},
		{"float32", []audiotest.WAVOption{audiotest.WithFloat32()}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := audiotest.BuildWAV(16000, 2, samples, tt.opts...)
			got, _, _ := readAll(t, data, 64)
			if len(got) != len(samples) {
				t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
			}
			for i := range samples {
				if math.Abs(float64(got[i]-samples[i])) > tt.tolerance {
					t.Errorf("sample[%d] = %v, want %v", i, got[i], samples[i])
				}
			}
		})
	}
}

func TestDecoder_NotWAVFile(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("NOT A WAV FILE DATA")))
	if !errors.Is(err, ErrNotWavFile) {
		t.Errorf("Decode() error = %v, want ErrNotWavFile", err)
	}
}

func TestDecoder_InvalidWAVEMarker(t *testing.T) {
	t.Parallel()

	data := audiotest.BuildWAV(8000, 1, []float32{0})
	copy(data[8:12], "NOPE")

	_, err := Decoder{}.Decode(bytes.NewReader(data))
	if !errors.Is(err, ErrNotWavFile) {
		t.Errorf("Decode() error = %v, want ErrNotWavFile", err)
	}
}

func TestDecoder_TruncatedHeader(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("RIFF")))
	if !errors.Is(err, ErrNotWavFile) {
		t.Errorf("Decode() error = %v, want ErrNotWavFile", err)
	}
}

func TestDecoder_NoDataChunk(t *testing.T) {
	t.Parallel()

	data := audiotest.BuildWAV(8000, 1, nil)
	// cut right after the fmt chunk
	_, err := Decoder{}.Decode(bytes.NewReader(data[:36]))
	if !errors.Is(err, ErrUnsupportedWavLayout) {
		t.Errorf("Decode() error = %v, want ErrUnsupportedWavLayout", err)
	}
}

func TestDecoder_UnsupportedFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format uint16
		bits   uint16
	}{
		{"pcm 12-bit", 1, 12},
		{"float 64-bit", 3, 64},
		{"a-law", 6, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := audiotest.BuildWAV(8000, 1, []float32{0, 0})
			binary.LittleEndian.PutUint16(data[20:22], tt.format)
			binary.LittleEndian.PutUint16(data[34:36], tt.bits)

			_, err := Decoder{}.Decode(bytes.NewReader(data))
			if !errors.Is(err, ErrUnsupportedSampleFormat) {
				t.Errorf("Decode() error = %v, want ErrUnsupportedSampleFormat", err)
			}
		})
	}
}

func TestDecoder_DataBeforeFmt(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(12))
	buf.WriteString("WAVE")
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(0))

	_, err := Decoder{}.Decode(buf)
	if !errors.Is(err, ErrMissingFmtChunk) {
		t.Errorf("Decode() error = %v, want ErrMissingFmtChunk", err)
	}
}

func TestDecoder_SkipsListChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{"even payload", "INFOISFT"},
		{"odd payload", "INFOabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			samples := audiotest.Ramp(20, 1, 100)
			data := audiotest.BuildWAV(8000, 1, samples, audiotest.WithListChunk(tt.payload))

			got, _, _ := readAll(t, data, 7)
			if len(got) != len(samples) {
				t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
			}
			for i := range samples {
				if math.Abs(float64(got[i]-samples[i])) > 0.001 {
					t.Fatalf("sample[%d] = %v, want %v", i, got[i], samples[i])
				}
			}
		})
	}
}

func TestDecoder_ExtensibleFormat(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(4+8+40+8+4))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(40))
	binary.Write(buf, binary.LittleEndian, uint16(formatExtensible))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(8000))
	binary.Write(buf, binary.LittleEndian, uint32(16000))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	binary.Write(buf, binary.LittleEndian, uint16(22)) // cbSize
	binary.Write(buf, binary.LittleEndian, uint16(16)) // valid bits
	binary.Write(buf, binary.LittleEndian, uint32(4))  // channel mask
	binary.Write(buf, binary.LittleEndian, uint16(formatPCM))
	buf.Write(make([]byte, 14)) // rest of the GUID
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(4))
	binary.Write(buf, binary.LittleEndian, int16(16384))
	binary.Write(buf, binary.LittleEndian, int16(-16384))

	got, _, _ := readAll(t, buf.Bytes(), 16)
	want := []float32{0.5, -0.5}
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSource_ReadSamples_EOF(t *testing.T) {
	t.Parallel()

	data := audiotest.BuildWAV(8000, 1, audiotest.Ramp(10, 1, 10))
	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	dst := make([]float32, 6)
	n, err := src.ReadSamples(dst)
	if n != 6 || err != nil {
		t.Fatalf("first ReadSamples() = (%d, %v), want (6, nil)", n, err)
	}

	n, err = src.ReadSamples(dst)
	if n != 4 || !errors.Is(err, io.EOF) {
		t.Fatalf("second ReadSamples() = (%d, %v), want (4, EOF)", n, err)
	}

	n, err = src.ReadSamples(dst)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() after EOF = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestSource_ReadSamples_WholeFrames(t *testing.T) {
	t.Parallel()

	data := audiotest.BuildWAV(8000, 2, audiotest.Ramp(10, 2, 10))
	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	// 5 values fit only 2 stereo frames
	dst := make([]float32, 5)
	n, err := src.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 4 {
		t.Errorf("ReadSamples() n = %d, want 4", n)
	}
}

func TestSource_ReadSamples_TruncatedData(t *testing.T) {
	t.Parallel()

	data := audiotest.BuildWAV(8000, 1, audiotest.Ramp(10, 1, 10))
	// drop the last sample and a half
	data = data[:len(data)-3]

	got, _, _ := readAll(t, data, 32)
	if len(got) != 8 {
		t.Errorf("decoded %d samples, want 8", len(got))
	}
}

func TestSource_ReadSamples_EmptyBuffer(t *testing.T) {
	t.Parallel()

	data := audiotest.BuildWAV(8000, 1, []float32{0.1, 0.2, 0.3})
	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	n, err := src.ReadSamples(nil)
	if n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestSource_ReadSamples_EmptyData(t *testing.T) {
	t.Parallel()

	got, _, _ := readAll(t, audiotest.BuildWAV(8000, 1, nil), 16)
	if len(got) != 0 {
		t.Errorf("decoded %d samples, want 0", len(got))
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestSource_ReadSamples_ReaderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	data := audiotest.BuildWAV(8000, 1, audiotest.Ramp(100, 1, 100))
	r := &failingReader{data: data[:44+20], err: boom}

	src, err := Decoder{}.Decode(r)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	_, err = src.ReadSamples(make([]float32, 100))
	if !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	data := audiotest.BuildWAV(44100, 2, audiotest.Ramp(44100, 2, 44100))
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		src, _ := Decoder{}.Decode(bytes.NewReader(data))
		for {
			_, err := src.ReadSamples(buf)
			if err != nil {
				break
			}
		}
	}
}

// appendChunk appends a RIFF chunk, padded to an even length.
func appendChunk(dst []byte, id string, payload []byte) []byte {
	dst = append(dst, id...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	dst = append(dst, payload...)
	if len(payload)%2 == 1 {
		dst = append(dst, 0)
	}
	return dst
}

func TestSource_ReadSamples_TrailingChunks(t *testing.T) {
	t.Parallel()

	list := []byte("INFOabcd")

	tests := []struct {
		name   string
		frames int
	}{
		{"empty data", 0},
		{"sized data", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := appendChunk(audiotest.BuildWAV(8000, 1, audiotest.Ramp(tt.frames, 1, 100)), "LIST", list)

			got, _, _ := readAll(t, data, 16)
			if len(got) != tt.frames {
				t.Fatalf("decoded %d samples, want %d", len(got), tt.frames)
			}
			for i, s := range got {
				if want := float32(i) / 100; math.Abs(float64(s-want)) > 1e-3 {
					t.Fatalf("sample %d = %v, want %v", i, s, want)
				}
			}
		})
	}
}

func TestSource_ReadSamples_UnknownSize(t *testing.T) {
	t.Parallel()

	data := audiotest.BuildWAV(8000, 1, audiotest.Ramp(30, 1, 100))
	// patch the data size the way a non-seeking encoder leaves it
	binary.LittleEndian.PutUint32(data[40:44], 0xFFFFFFFF)

	got, _, _ := readAll(t, data, 7)
	if len(got) != 30 {
		t.Errorf("decoded %d samples, want 30", len(got))
	}
}
