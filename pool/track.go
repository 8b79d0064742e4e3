// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"time"

	"github.com/ik5/trackpool/utils"
)

// TrackState is the lifecycle position of one input URL.
type TrackState int

const (
	TrackPending TrackState = iota
	TrackFetching
	TrackDecoding
	TrackCompleted
	TrackFailed
)

func (s TrackState) String() string {
	switch s {
	case TrackPending:
		return "pending"
	case TrackFetching:
		return "fetching"
	case TrackDecoding:
		return "decoding"
	case TrackCompleted:
		return "completed"
	case TrackFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s TrackState) Terminal() bool {
	return s == TrackCompleted || s == TrackFailed
}

// Track is a snapshot of one input URL. Format, SampleRate and Channels
// are filled once decoding starts and describe the emitted chunks, after
// any resampling or downmix.
type Track struct {
	Index      int
	URL        string
	State      TrackState
	Format     string
	SampleRate int
	Channels   int
	Chunks     int
	Err        error
}

// Chunk is a contiguous run of decoded audio from one track. It is not
// modified after the pool hands it out.
type Chunk struct {
	Track int
	URL   string
	// Data holds SampleCount interleaved float32 values, little-endian.
	Data        []byte
	SampleCount int
	Channels    int
	SampleRate  int
	// Seq is the position of the chunk within its track, from 0.
	Seq int
	// Final marks the last chunk of a track that decoded to the end. It
	// may carry no samples.
	Final bool
	// SpeedFactor is 2^(-StepFactor/12) when chunking by duration, else 1.
	// StepFactor is the semitone step it was drawn from.
	SpeedFactor float64
	StepFactor  int
}

// Samples decodes Data into a new slice.
func (c *Chunk) Samples() []float32 {
	return utils.DecodeFloat32LE(nil, c.Data)
}

// Int16 returns the samples clipped and scaled to 16-bit PCM.
func (c *Chunk) Int16() []int16 {
	return utils.Float32sToInt16(nil, c.Samples())
}

// Frames returns the number of multi-channel frames in the chunk.
func (c *Chunk) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return c.SampleCount / c.Channels
}

// Duration returns the playback time covered by the chunk.
func (c *Chunk) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}
