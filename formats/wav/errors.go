// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile              = errors.New("not a WAV file")
	ErrUnsupportedWavLayout    = errors.New("unsupported WAV layout")
	ErrUnsupportedSampleFormat = errors.New("unsupported WAV sample format")
	ErrMissingFmtChunk         = errors.New("data chunk before fmt chunk")
	ErrUnsupportedBitDepth     = errors.New("unsupported bit depth for writing")
)
