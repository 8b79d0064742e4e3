// SPDX-License-Identifier: EPL-2.0

package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// drainLimit bounds how much of an error response body is read so the
// connection can be reused.
const drainLimit = 4 << 10

// HTTP fetches tracks with net/http.
type HTTP struct {
	client *http.Client
	config Config
}

var _ Fetcher = (*HTTP)(nil)

// NewHTTP creates an HTTP fetcher with the given configuration.
func NewHTTP(cfg Config) (*HTTP, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := cfg.Client
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = cfg.HeaderTimeout
		transport.MaxResponseHeaderBytes = cfg.MaxHeaderBytes
		client = &http.Client{Transport: transport}
	}

	return &HTTP{client: client, config: cfg}, nil
}

// Fetch issues a GET and returns as soon as headers arrive. Non-2xx
// responses are closed and reported as *StatusError.
func (h *HTTP) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", url, ErrInvalidURL, err)
	}
	if (req.URL.Scheme != "http" && req.URL.Scheme != "https") || req.URL.Host == "" {
		return nil, fmt.Errorf("fetch %s: %w: need an absolute http or https URL", url, ErrInvalidURL)
	}
	req.Header.Set("Accept", "audio/*")
	req.Header.Set("User-Agent", h.config.UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Op: "request", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
		_ = resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	return &Response{
		URL:           url,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body: &body{
			url: url,
			rc:  resp.Body,
			br:  bufio.NewReaderSize(resp.Body, h.config.ReadBufferSize),
		},
	}, nil
}

// body tags transport errors while streaming so decoders pass them up as
// network failures rather than corrupt data.
type body struct {
	url string
	rc  io.ReadCloser
	br  *bufio.Reader
}

func (b *body) Read(p []byte) (int, error) {
	n, err := b.br.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &NetworkError{URL: b.url, Op: "read", Err: err}
	}
	return n, err
}

func (b *body) Close() error {
	if err := b.rc.Close(); err != nil {
		return fmt.Errorf("fetch close %s: %w", b.url, err)
	}
	return nil
}
