// SPDX-License-Identifier: EPL-2.0

package trackpool

import (
	"context"
	"errors"
	"io"

	"github.com/ik5/trackpool/pool"
	"github.com/ik5/trackpool/utils"
)

// TrackPCM is one whole track converted to 16-bit PCM.
type TrackPCM struct {
	Index      int
	URL        string
	SampleRate int
	Channels   int
	// Samples are interleaved when Channels > 1.
	Samples []int16
	// Err is the *pool.PoolError of a failed track. Samples then hold
	// whatever arrived before the failure.
	Err error
}

// CollectInt16 reads p to the end and returns one TrackPCM per input URL,
// in input order. Track failures are reported in TrackPCM.Err; the returned
// error is set only when ctx ends or the pool is closed first.
//
// Every track is held in memory. Use Pool.Next directly for long inputs.
func CollectInt16(ctx context.Context, p *pool.Pool) ([]TrackPCM, error) {
	tracks := p.Tracks()
	out := make([]TrackPCM, len(tracks))
	for i, t := range tracks {
		out[i] = TrackPCM{Index: i, URL: t.URL}
	}

	var buf []float32
	for {
		c, err := p.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}

		var perr *pool.PoolError
		if errors.As(err, &perr) && perr.Track >= 0 {
			out[perr.Track].Err = perr
			continue
		}
		if err != nil {
			return out, err
		}

		t := &out[c.Track]
		t.SampleRate, t.Channels = c.SampleRate, c.Channels

		buf = utils.DecodeFloat32LE(buf[:0], c.Data)
		start := len(t.Samples)
		t.Samples = append(t.Samples, make([]int16, len(buf))...)
		utils.Float32sToInt16(t.Samples[start:], buf)
	}
}
