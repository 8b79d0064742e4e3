// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/trackpool/utils"
)

const (
	resamplerBlockFrames = 1024
	maxEmptyReads        = 100
)

// Resampler converts an interleaved Source to another sample rate with
// Catmull-Rom interpolation. The channel count is preserved. When
// downsampling, incoming frames pass through a one-pole low-pass filter to
// soften aliasing.
type Resampler struct {
	src      Source
	channels int
	srcRate  int
	dstRate  int

	// hist holds frames t-1, t0, t+1, t+2 around the current position.
	hist  [4][]float32
	valid [4]bool
	// acc/dstRate is the fractional position between hist[1] and hist[2].
	// Integer bookkeeping keeps output lengths exact for any rate pair.
	acc int

	in           []float32
	inPos, inLen int
	eof          bool
	primed       bool
	done         bool

	lowpass   bool
	alpha     float32
	state     []float32
	stateInit bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()

	r := &Resampler{
		src:      src,
		channels: channels,
		srcRate:  src.SampleRate(),
		dstRate:  dstRate,
		in:       make([]float32, resamplerBlockFrames*channels),
		lowpass:  src.SampleRate() > dstRate,
		alpha:    0.5,
		state:    make([]float32, channels),
	}
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler: %w", err)
	}
	return nil
}

// pull copies the next source frame into dst. It reports false once the
// source is exhausted.
func (r *Resampler) pull(dst []float32) (bool, error) {
	empty := 0
	for r.inPos >= r.inLen {
		if r.eof {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n/r.channels
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return false, fmt.Errorf("resampler: %w", err)
		}

		if n == 0 {
			empty++
			if empty > maxEmptyReads {
				return false, io.ErrNoProgress
			}
		}
	}

	frame := r.in[r.inPos*r.channels : (r.inPos+1)*r.channels]
	r.inPos++

	if r.lowpass {
		if !r.stateInit {
			copy(r.state, frame)
			r.stateInit = true
		}
		for c, x := range frame {
			r.state[c] = r.alpha*x + (1-r.alpha)*r.state[c]
		}
		frame = r.state
	}
	copy(dst, frame)

	return true, nil
}

func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.pull(r.hist[1])
	if err != nil || !ok {
		return err
	}
	copy(r.hist[0], r.hist[1])
	r.valid[0], r.valid[1] = true, true

	for i := 2; i < 4; i++ {
		ok, err = r.pull(r.hist[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.hist[i], r.hist[i-1])
		}
		r.valid[i] = ok
	}

	return nil
}

func (r *Resampler) advance() error {
	first := r.hist[0]
	copy(r.hist[:], r.hist[1:])
	copy(r.valid[:], r.valid[1:])
	r.hist[3] = first

	ok, err := r.pull(r.hist[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.hist[3], r.hist[2])
	}
	r.valid[3] = ok

	return nil
}

// ReadSamples produces interleaved samples at the destination rate.
// len(dst) must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
		r.done = !r.valid[1]
	}
	if r.done {
		return 0, io.EOF
	}

	frames := len(dst) / r.channels
	written := 0
	for written < frames {
		for r.acc >= r.dstRate {
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
			r.acc -= r.dstRate
		}

		if !r.valid[1] {
			r.done = true
			break
		}

		x := float32(r.acc) / float32(r.dstRate)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.hist[0][c], r.hist[1][c], r.hist[2][c], r.hist[3][c], x)
		}

		written++
		r.acc += r.srcRate
	}

	if r.done {
		if written == 0 {
			return 0, io.EOF
		}
		return written * r.channels, io.EOF
	}

	return written * r.channels, nil
}
