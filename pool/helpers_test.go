// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/ik5/trackpool/audio"
	"github.com/ik5/trackpool/fetch"
	"github.com/ik5/trackpool/formats/wav"
	"github.com/ik5/trackpool/internal/audiotest"
	"github.com/ik5/trackpool/internal/fetchtest"
)

const testRate = 8000

// wavRoute serves a ramp of frames frames at 8 kHz.
func wavRoute(frames, channels int) fetchtest.Route {
	return fetchtest.Route{
		Body:        audiotest.BuildWAV(testRate, channels, audiotest.Ramp(frames, channels, float32(frames))),
		ContentType: "audio/wav",
	}
}

func newRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(audio.FormatWAV, wav.Decoder{})
	return r
}

func newTestPool(t *testing.T, limit int, urls []string, f fetch.Fetcher, opts ...Option) *Pool {
	t.Helper()

	base := []Option{WithRegistry(newRegistry()), WithFetcher(f)}
	p, err := New(context.Background(), limit, urls, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

type result struct {
	chunks map[int][]*Chunk
	errs   map[int][]*PoolError
	// order lists the track index of every item in arrival order.
	order []int
}

// collect drains p until io.EOF.
func collect(t *testing.T, p *Pool) result {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := result{chunks: make(map[int][]*Chunk), errs: make(map[int][]*PoolError)}
	for {
		c, err := p.Next(ctx)
		if errors.Is(err, io.EOF) {
			return r
		}

		var pe *PoolError
		switch {
		case errors.As(err, &pe):
			if pe.Kind == KindClosed {
				t.Fatalf("Next() = %v before EOF", err)
			}
			r.errs[pe.Track] = append(r.errs[pe.Track], pe)
			r.order = append(r.order, pe.Track)
		case err != nil:
			t.Fatalf("Next() error = %v", err)
		default:
			r.chunks[c.Track] = append(r.chunks[c.Track], c)
			r.order = append(r.order, c.Track)
		}
	}
}

// checkTrack asserts chunks form one complete track: consecutive Seq,
// a single Final at the end, and samples matching the served ramp.
func checkTrack(t *testing.T, chunks []*Chunk, frames, channels int) {
	t.Helper()

	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}

	var samples []float32
	for i, c := range chunks {
		if c.Seq != i {
			t.Fatalf("chunk %d has Seq %d", i, c.Seq)
		}
		if c.Final != (i == len(chunks)-1) {
			t.Fatalf("chunk %d of %d has Final = %v", i, len(chunks), c.Final)
		}
		if c.Channels != channels || c.SampleRate != testRate {
			t.Fatalf("chunk %d layout = %d Hz/%d ch", i, c.SampleRate, c.Channels)
		}
		if len(c.Data) != 4*c.SampleCount {
			t.Fatalf("chunk %d carries %d bytes for %d samples", i, len(c.Data), c.SampleCount)
		}
		samples = append(samples, c.Samples()...)
	}

	want := audiotest.Ramp(frames, channels, float32(frames))
	if len(samples) != len(want) {
		t.Fatalf("track has %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if math.Abs(float64(samples[i]-want[i])) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, samples[i], want[i])
		}
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
