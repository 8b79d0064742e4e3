// SPDX-License-Identifier: EPL-2.0

// Package flac provides streaming FLAC decoding on top of
// github.com/mewkiz/flac.
//
// Decode reads the signature and metadata blocks; each ReadSamples call
// then parses only as many frames as it needs to fill the buffer. Samples
// are scaled by the frame's bit depth into [-1.0, 1.0] and interleaved in
// subframe order. The reader passed to Decode is not closed by the source.
package flac
