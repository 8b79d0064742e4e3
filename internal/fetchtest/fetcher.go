// SPDX-License-Identifier: EPL-2.0

// Package fetchtest provides an in-memory fetch.Fetcher that records how
// many downloads are open at once.
package fetchtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ik5/trackpool/fetch"
)

// ErrConnReset is the cause carried by BreakAfter failures.
var ErrConnReset = errors.New("connection reset by peer")

// Route describes how one URL responds.
type Route struct {
	Body        []byte
	ContentType string

	// Status, when non-zero and not 2xx, fails the fetch with *fetch.StatusError.
	Status int
	// Err fails the fetch outright.
	Err error
	// FailTimes limits Err and Status to the first n calls; 0 means always.
	FailTimes int

	// Delay postpones the response headers.
	Delay time.Duration
	// Hold blocks body reads until it is closed or the request is canceled.
	Hold <-chan struct{}
	// BreakAfter fails body reads with a *fetch.NetworkError once that many
	// bytes were served; 0 disables it.
	BreakAfter int
}

// Fetcher serves registered routes. The zero value is not usable; call New.
type Fetcher struct {
	mtx    sync.Mutex
	routes map[string]Route
	calls  map[string]int
	order  []string
	open   int
	peak   int
}

var _ fetch.Fetcher = (*Fetcher)(nil)

func New() *Fetcher {
	return &Fetcher{
		routes: make(map[string]Route),
		calls:  make(map[string]int),
	}
}

// Handle registers r for url, replacing any previous route.
func (f *Fetcher) Handle(url string, r Route) *Fetcher {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.routes[url] = r
	return f
}

// Fetch implements fetch.Fetcher. Unknown URLs answer 404.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*fetch.Response, error) {
	f.mtx.Lock()
	route, ok := f.routes[url]
	f.calls[url]++
	call := f.calls[url]
	f.order = append(f.order, url)
	f.open++
	f.peak = max(f.peak, f.open)
	f.mtx.Unlock()

	if route.Delay > 0 {
		select {
		case <-time.After(route.Delay):
		case <-ctx.Done():
			f.release()
			return nil, &fetch.NetworkError{URL: url, Op: "request", Err: ctx.Err()}
		}
	}

	failing := route.FailTimes == 0 || call <= route.FailTimes
	switch {
	case !ok:
		f.release()
		return nil, &fetch.StatusError{URL: url, Code: http.StatusNotFound}
	case route.Err != nil && failing:
		f.release()
		return nil, route.Err
	case route.Status != 0 && (route.Status < 200 || route.Status > 299) && failing:
		f.release()
		return nil, &fetch.StatusError{URL: url, Code: route.Status}
	}

	return &fetch.Response{
		URL:           url,
		ContentType:   route.ContentType,
		ContentLength: int64(len(route.Body)),
		Body: &body{
			ctx:   ctx,
			url:   url,
			r:     bytes.NewReader(route.Body),
			route: route,
			done:  f.release,
		},
	}, nil
}

func (f *Fetcher) release() {
	f.mtx.Lock()
	f.open--
	f.mtx.Unlock()
}

// Peak returns the highest number of simultaneously open downloads, counted
// from Fetch until the body is closed.
func (f *Fetcher) Peak() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.peak
}

// Open returns the number of downloads whose body has not been closed.
func (f *Fetcher) Open() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.open
}

// Calls returns how many times url was fetched.
func (f *Fetcher) Calls(url string) int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.calls[url]
}

// Order returns the URLs in the order Fetch was called.
func (f *Fetcher) Order() []string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]string(nil), f.order...)
}

var _ io.ReadCloser = (*body)(nil)

type body struct {
	ctx    context.Context
	url    string
	r      *bytes.Reader
	route  Route
	served int
	once   sync.Once
	done   func()
}

func (b *body) Read(p []byte) (int, error) {
	if b.route.Hold != nil {
		select {
		case <-b.route.Hold:
		case <-b.ctx.Done():
			return 0, &fetch.NetworkError{URL: b.url, Op: "read", Err: b.ctx.Err()}
		}
	}
	if err := b.ctx.Err(); err != nil {
		return 0, &fetch.NetworkError{URL: b.url, Op: "read", Err: err}
	}

	if b.route.BreakAfter > 0 {
		left := b.route.BreakAfter - b.served
		if left <= 0 {
			return 0, &fetch.NetworkError{URL: b.url, Op: "read", Err: ErrConnReset}
		}
		if len(p) > left {
			p = p[:left]
		}
	}

	n, err := b.r.Read(p)
	b.served += n
	return n, err
}

func (b *body) Close() error {
	b.once.Do(b.done)
	return nil
}
