// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// item is one entry on the shared queue: a chunk or a track failure.
type item struct {
	chunk *Chunk
	err   *PoolError
}

// Stats is a point-in-time view of pool progress.
type Stats struct {
	Total      int
	Admitted   int
	Active     int
	PeakActive int
	Completed  int
	Failed     int
	// Chunks counts chunks handed to the queue.
	Chunks int
	// Buffered counts chunks and failures produced but not yet returned by
	// Next, including ones a worker is blocked sending.
	Buffered     int
	PeakBuffered int
}

// Pool downloads and decodes a fixed list of tracks with at most limit
// workers running at once. Output is consumed with Next from a single
// goroutine.
type Pool struct {
	id    string
	urls  []string
	limit int
	cfg   Config
	log   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	out  chan item
	sem  chan struct{}
	wg   sync.WaitGroup
	done chan struct{}

	closeOnce sync.Once

	mtx          sync.Mutex
	tracks       []Track
	next         int
	active       int
	peakActive   int
	completed    int
	failed       int
	chunks       int
	buffered     int
	peakBuffered int
}

// New validates its arguments and starts admitting tracks in input order.
// Cancelling ctx has the same effect as Close.
func New(ctx context.Context, limit int, urls []string, opts ...Option) (*Pool, error) {
	if limit < 1 {
		return nil, invalidArgument("limit must be at least 1, got %d", limit)
	}
	if len(urls) == 0 {
		return nil, invalidArgument("no track URLs")
	}
	for i, u := range urls {
		if u == "" {
			return nil, invalidArgument("track %d has an empty URL", i)
		}
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, invalidArgument("%w", err)
	}

	p := &Pool{
		id:     uuid.NewString(),
		urls:   append([]string(nil), urls...),
		limit:  limit,
		cfg:    cfg,
		out:    make(chan item, cfg.BufferSize),
		sem:    make(chan struct{}, limit),
		done:   make(chan struct{}),
		tracks: make([]Track, len(urls)),
	}
	p.log = cfg.Logger.With().Str("pool_id", p.id).Logger()
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i, u := range p.urls {
		p.tracks[i] = Track{Index: i, URL: u, State: TrackPending}
	}

	p.log.Debug().Int("tracks", len(urls)).Int("limit", limit).Msg("pool started")

	go p.run()

	return p, nil
}

// ID returns the UUID attached to every log line of this pool.
func (p *Pool) ID() string { return p.id }

// run admits tracks in order as slots free up, then waits for the last
// worker and closes the queue.
func (p *Pool) run() {
	defer func() {
		p.wg.Wait()
		close(p.out)
		close(p.done)
		p.log.Debug().Msg("pool drained")
	}()

	for i := range p.urls {
		select {
		case p.sem <- struct{}{}:
		case <-p.ctx.Done():
			return
		}

		p.mtx.Lock()
		p.next = i + 1
		p.active++
		p.peakActive = max(p.peakActive, p.active)
		p.mtx.Unlock()

		p.wg.Add(1)
		go p.work(i)
	}
}

// Next blocks until the next chunk is available. It returns a *PoolError
// for a failed track, io.EOF once every track finished and the queue is
// empty, ctx.Err() when ctx is done, and a KindClosed *PoolError after
// Close. io.EOF and KindClosed are repeated on every later call.
func (p *Pool) Next(ctx context.Context) (*Chunk, error) {
	if p.ctx.Err() != nil {
		return nil, closedError()
	}

	select {
	case it, ok := <-p.out:
		if !ok {
			if p.ctx.Err() != nil {
				return nil, closedError()
			}
			return nil, io.EOF
		}

		p.mtx.Lock()
		p.buffered--
		p.mtx.Unlock()

		if it.err != nil {
			return nil, it.err
		}
		return it.chunk, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, closedError()
	}
}

// All ranges over Next until end of stream or close. Track failures are
// yielded with a nil chunk and iteration continues; ctx errors and close
// are yielded once and end the sequence.
func (p *Pool) All(ctx context.Context) iter.Seq2[*Chunk, error] {
	return func(yield func(*Chunk, error) bool) {
		for {
			c, err := p.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			var pe *PoolError
			if err != nil && (!errors.As(err, &pe) || pe.Kind == KindClosed) {
				yield(nil, err)
				return
			}
			if !yield(c, err) {
				return
			}
		}
	}
}

// Close cancels all workers, waits for them to release their downloads,
// and makes Next return KindClosed. It is safe to call more than once.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		<-p.done
		p.log.Debug().Msg("pool closed")
	})
	return nil
}

// Wait blocks until every admitted worker has exited and no more tracks
// will be admitted. Chunks must still be drained with Next for workers to
// finish.
func (p *Pool) Wait() {
	<-p.done
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return Stats{
		Total:        len(p.urls),
		Admitted:     p.next,
		Active:       p.active,
		PeakActive:   p.peakActive,
		Completed:    p.completed,
		Failed:       p.failed,
		Chunks:       p.chunks,
		Buffered:     p.buffered,
		PeakBuffered: p.peakBuffered,
	}
}

// Track returns a snapshot of track i. ok is false when i is out of range.
func (p *Pool) Track(i int) (Track, bool) {
	if i < 0 || i >= len(p.urls) {
		return Track{}, false
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.tracks[i], true
}

// Tracks returns snapshots of all tracks in input order.
func (p *Pool) Tracks() []Track {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return append([]Track(nil), p.tracks...)
}

// send queues it, blocking while the queue is full. It gives up when the
// pool is closed.
func (p *Pool) send(it item) error {
	p.mtx.Lock()
	p.buffered++
	p.peakBuffered = max(p.peakBuffered, p.buffered)
	p.mtx.Unlock()

	select {
	case p.out <- it:
		return nil
	case <-p.ctx.Done():
		p.mtx.Lock()
		p.buffered--
		p.mtx.Unlock()
		return p.ctx.Err()
	}
}

func (p *Pool) setState(i int, s TrackState) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.tracks[i].State = s
}

func (p *Pool) setFormat(i int, format string, sampleRate, channels int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	t := &p.tracks[i]
	t.Format, t.SampleRate, t.Channels = format, sampleRate, channels
}

// finish records the terminal state of track i and frees its slot.
func (p *Pool) finish(i int, err error) {
	p.mtx.Lock()
	t := &p.tracks[i]
	if err == nil {
		t.State = TrackCompleted
		p.completed++
	} else {
		t.State = TrackFailed
		t.Err = err
		p.failed++
	}
	p.active--
	p.mtx.Unlock()

	<-p.sem
	p.wg.Done()
}
