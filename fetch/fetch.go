// SPDX-License-Identifier: EPL-2.0

package fetch

import (
	"context"
	"io"
)

// Fetcher opens a remote audio file as a byte stream.
//
// Fetch returns once the response headers are in; the body is then read
// lazily. Implementations must not retry on their own.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Response is an open download. Body is finite, not restartable, and must
// be closed by the caller.
type Response struct {
	URL           string
	ContentType   string
	ContentLength int64 // -1 when unknown
	Body          io.ReadCloser
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (*Response, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*Response, error) {
	return f(ctx, url)
}
