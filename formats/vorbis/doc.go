// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis decoding.
//
// This package uses github.com/jfreymuth/oggvorbis. Decoding is streaming:
// Decode consumes only the header packets, and audio pages are pulled from
// the reader as ReadSamples asks for more.
//
//	source, err := vorbis.Decoder{}.Decode(resp.Body)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// Output is interleaved float32 in [-1.0, 1.0] with the channel count and
// sample rate of the stream. ReadSamples always returns whole frames.
//
// Encoding is not supported.
package vorbis
