// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MPEG-1/2
// Layer III streams as they arrive from an io.Reader:
//
//	source, err := mp3.Decoder{}.Decode(resp.Body)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// # Output Format
//
//   - Sample format: float32 in range [-1.0, 1.0]
//   - Channels: always 2; go-mp3 duplicates mono streams
//   - Sample rate: taken from the first frame header
//
// go-mp3 may hand back a read that ends mid-frame. The remainder is kept
// and completed on the next call, so ReadSamples only returns whole
// stereo frames. A partial frame at the very end of the stream is dropped.
//
// Use audio.NewMonoMixer and audio.NewResampler to reach another layout.
package mp3
