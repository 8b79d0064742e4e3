// SPDX-License-Identifier: EPL-2.0

// Package wav provides streaming WAV decoding and a WAV writer.
//
// # Supported Formats
//
// The decoder accepts:
//   - PCM 8, 16, 24 and 32-bit
//   - IEEE float 32-bit
//   - WAVE_FORMAT_EXTENSIBLE wrapping either of the above
//   - Any channel count and sample rate
//
// # Decoding
//
// The decoder walks the RIFF chunk list from an io.Reader without seeking.
// Chunks other than "fmt " and "data" (LIST, fact, cue, ...) are skipped,
// so the source is ready as soon as the data chunk header is read. Samples
// are then pulled from the reader on demand:
//
//	source, err := wav.Decoder{}.Decode(resp.Body)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// ReadSamples only returns whole frames. A data chunk cut short by the
// underlying stream ends at the last complete frame with io.EOF. Any
// other read error is returned wrapped.
//
// # Writing
//
// Writer wraps the github.com/go-audio/wav encoder and converts float32
// samples to 16, 24 or 32-bit PCM:
//
//	w, err := wav.NewWriter(file, 16000, 1, 16)
//	err = w.Write(samples)
//	err = w.Close()
//
// The destination must be an io.WriteSeeker because header sizes are
// patched on Close.
//
// # Errors
//
//   - ErrNotWavFile: no RIFF/WAVE header
//   - ErrUnsupportedWavLayout: malformed fmt chunk or no data chunk
//   - ErrUnsupportedSampleFormat: codec or bit depth not handled
//   - ErrMissingFmtChunk: data chunk appears before fmt
//   - ErrUnsupportedBitDepth: Writer asked for a depth it cannot encode
package wav
