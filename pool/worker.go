// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/ik5/trackpool/audio"
	"github.com/ik5/trackpool/fetch"
	"github.com/ik5/trackpool/utils"
)

// maxStalls is how many empty reads in a row a decoder may return before
// the track is failed.
const maxStalls = 100

// worker drives a single track from fetch to its last chunk. It is used
// once and owned by its goroutine.
type worker struct {
	p   *Pool
	idx int
	url string
	log zerolog.Logger

	channels   int
	sampleRate int
	seq        int

	// chunkLen is the sample count of the next regrouped chunk, 0 for one
	// chunk per read. step and speed are the factors it is cut for.
	chunkLen int
	step     int
	speed    float64
}

func (p *Pool) work(i int) {
	w := &worker{
		p:   p,
		idx: i,
		url: p.urls[i],
		log: p.log.With().Int("track", i).Str("url", p.urls[i]).Logger(),
	}
	w.log.Debug().Msg("track admitted")

	err := w.run()
	switch {
	case err == nil:
		w.log.Info().Int("chunks", w.seq).Msg("track completed")
	case p.ctx.Err() != nil:
		// closed: nobody is reading, so no terminal item is queued
		err = closedError()
		w.log.Debug().Msg("track abandoned on close")
	default:
		pe := classify(i, w.url, err)
		err = pe
		w.log.Warn().Err(pe.Err).Str("kind", pe.Kind.String()).Msg("track failed")
		_ = p.send(item{err: pe})
	}

	p.finish(i, err)
}

func (w *worker) run() error {
	w.state(TrackFetching)

	resp, err := w.fetch()
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	w.state(TrackDecoding)

	format, dec, err := w.p.cfg.Registry.Lookup(resp.URL, resp.ContentType)
	if err != nil {
		return fmt.Errorf("%w: content type %q", err, resp.ContentType)
	}
	w.log = w.log.With().Str("format", format).Logger()

	src, err := dec.Decode(resp.Body)
	if err != nil {
		return fmt.Errorf("decode %s: %w", format, err)
	}
	src = w.stages(src)
	defer src.Close()

	w.channels, w.sampleRate = src.Channels(), src.SampleRate()
	if w.channels < 1 || w.sampleRate < 1 {
		return fmt.Errorf("decode %s: invalid layout %d Hz, %d channels", format, w.sampleRate, w.channels)
	}
	w.p.setFormat(w.idx, format, w.sampleRate, w.channels)
	w.log.Debug().Int("sample_rate", w.sampleRate).Int("channels", w.channels).Msg("decoding")

	return w.pump(src)
}

func (w *worker) state(s TrackState) {
	w.p.setState(w.idx, s)
	w.log.Debug().Stringer("state", s).Msg("track state")
}

// fetch opens the track, retrying transient failures when configured.
// Nothing has been read from the body at that point, so a retry cannot
// duplicate audio.
func (w *worker) fetch() (*fetch.Response, error) {
	cfg := w.p.cfg
	if cfg.Retry.MaxAttempts <= 1 {
		return cfg.Fetcher.Fetch(w.p.ctx, w.url)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.Retry.InitialInterval
	b.MaxInterval = cfg.Retry.MaxInterval
	b.Multiplier = cfg.Retry.Multiplier

	op := func() (*fetch.Response, error) {
		resp, err := cfg.Fetcher.Fetch(w.p.ctx, w.url)
		if err != nil && !fetch.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	}

	return backoff.Retry(w.p.ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.Retry.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			w.log.Debug().Err(err).Dur("retry_in", next).Msg("fetch failed, retrying")
		}),
	)
}

// stages wraps src with the configured downmix and resampler.
func (w *worker) stages(src audio.Source) audio.Source {
	if w.p.cfg.Mono && src.Channels() > 1 {
		src = audio.NewMonoMixer(src)
	}
	if rate := w.p.cfg.TargetSampleRate; rate > 0 && rate != src.SampleRate() {
		src = audio.NewResampler(src, rate)
	}
	return src
}

// pump reads the decoder to the end, queueing chunks as it goes. Each
// chunk is sent before more input is read, which bounds the audio held
// per worker to one read.
func (w *worker) pump(src audio.Source) error {
	buf := make([]float32, w.p.cfg.ReadFrames*w.channels)
	w.chunkLen, w.speed = w.p.cfg.ChunkFrames*w.channels, 1
	w.draw()

	var pending []float32
	if w.chunkLen > 0 {
		pending = make([]float32, 0, w.chunkLen+len(buf))
	}

	stalls := 0
	for {
		n, err := src.ReadSamples(buf)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			// keep what was decoded before the failure
			if n > 0 {
				if serr := w.emitAll(&pending, buf[:n], false); serr != nil {
					return serr
				}
			}
			return err
		}

		if n == 0 && !eof {
			stalls++
			if stalls >= maxStalls {
				return fmt.Errorf("decoder stalled: %w", io.ErrNoProgress)
			}
			continue
		}
		stalls = 0

		if err := w.emitAll(&pending, buf[:n], eof); err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

// draw picks the speed factor and length of the next chunk when chunking
// by duration.
func (w *worker) draw() {
	sc := w.p.cfg.Speed
	if sc.Target <= 0 {
		return
	}
	w.step = sc.Step()
	w.speed = Factor(w.step)
	frames := int(math.Round(sc.Target.Seconds() * w.speed * float64(w.sampleRate)))
	w.chunkLen = max(frames, 1) * w.channels
}

// emitAll queues samples, regrouped to w.chunkLen values when non-zero.
// In regroup mode one full chunk is always held back, so the Final chunk
// carries audio even when the decoder reports the end on an empty read.
// With final set the remainder goes out as the Final chunk; it is empty
// only for a track without audio.
func (w *worker) emitAll(pending *[]float32, samples []float32, final bool) error {
	if w.chunkLen == 0 {
		if len(samples) == 0 && !final {
			return nil
		}
		return w.emit(samples, final)
	}

	buf := append(*pending, samples...)
	off := 0
	for len(buf)-off > w.chunkLen {
		if err := w.emit(buf[off:off+w.chunkLen], false); err != nil {
			return err
		}
		off += w.chunkLen
		w.draw()
	}
	*pending = append(buf[:0], buf[off:]...)

	if final {
		return w.emit(*pending, true)
	}
	return nil
}

func (w *worker) emit(samples []float32, final bool) error {
	c := &Chunk{
		Track:       w.idx,
		URL:         w.url,
		Data:        utils.AppendFloat32LE(make([]byte, 0, 4*len(samples)), samples),
		SampleCount: len(samples),
		Channels:    w.channels,
		SampleRate:  w.sampleRate,
		Seq:         w.seq,
		Final:       final,
		SpeedFactor: w.speed,
		StepFactor:  w.step,
	}

	if err := w.p.send(item{chunk: c}); err != nil {
		return err
	}

	w.p.mtx.Lock()
	w.p.chunks++
	w.p.tracks[w.idx].Chunks++
	w.p.mtx.Unlock()

	w.seq++
	return nil
}
