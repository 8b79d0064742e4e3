// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

var (
	// ErrInvalidStream is returned when the fLaC signature or STREAMINFO
	// block cannot be read.
	ErrInvalidStream = errors.New("invalid FLAC stream")

	// ErrChannelMismatch is returned when a frame carries a different
	// number of subframes than STREAMINFO announced.
	ErrChannelMismatch = errors.New("FLAC frame channel count mismatch")
)
