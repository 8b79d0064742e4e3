// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

// ErrInvalidStream is returned when the Ogg Vorbis headers cannot be parsed.
var ErrInvalidStream = errors.New("invalid Ogg Vorbis stream")
