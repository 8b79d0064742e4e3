// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF audio decoding.
//
// This package wraps github.com/go-audio/aiff. Uncompressed PCM at 8, 16,
// 24 and 32 bits is supported; AIFF-C is not.
//
//	source, err := aiff.Decoder{}.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// # Limitations
//
// go-audio locates the SSND chunk with Seek. When Decode is given a reader
// that cannot seek, such as an HTTP body, the whole stream is read into
// memory first. Errors from that read are returned wrapped, so callers can
// still match the transport error with errors.As.
package aiff
