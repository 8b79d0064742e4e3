// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"errors"
	"fmt"

	"github.com/ik5/trackpool/fetch"
)

// ErrorKind classifies a PoolError.
type ErrorKind int

const (
	// KindInvalidArgument is a construction error: bad limit, empty URL
	// list, or an invalid option.
	KindInvalidArgument ErrorKind = iota + 1
	// KindNetwork is a transport failure while fetching or streaming.
	KindNetwork
	// KindHTTPStatus is a non-2xx response.
	KindHTTPStatus
	// KindDecode is an unknown format or malformed audio data.
	KindDecode
	// KindClosed is returned by Next once the pool was closed.
	KindClosed
	// KindInvalidURL is a track URL that cannot be fetched at all.
	KindInvalidURL
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindDecode:
		return "decode"
	case KindClosed:
		return "closed"
	case KindInvalidURL:
		return "invalid_url"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *PoolError of the same kind.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNetwork         = errors.New("network failure")
	ErrHTTPStatus      = errors.New("unexpected HTTP status")
	ErrDecode          = errors.New("decode failure")
	ErrPoolClosed      = errors.New("pool closed")
	ErrInvalidURL      = errors.New("invalid URL")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindNetwork:
		return ErrNetwork
	case KindHTTPStatus:
		return ErrHTTPStatus
	case KindDecode:
		return ErrDecode
	case KindClosed:
		return ErrPoolClosed
	case KindInvalidURL:
		return ErrInvalidURL
	default:
		return nil
	}
}

// PoolError reports a failure of the pool or of one track.
type PoolError struct {
	Kind ErrorKind
	// Track is the input index, or -1 for pool-level errors.
	Track int
	URL   string
	// StatusCode is set for KindHTTPStatus.
	StatusCode int
	Err        error
}

func (e *PoolError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Kind == KindHTTPStatus {
		msg = fmt.Sprintf("%s %d", msg, e.StatusCode)
	}
	if e.Track >= 0 {
		msg = fmt.Sprintf("track %d (%s): %s", e.Track, e.URL, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("pool: %s: %v", msg, e.Err)
	}
	return "pool: " + msg
}

func (e *PoolError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *PoolError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func invalidArgument(format string, args ...any) *PoolError {
	return &PoolError{Kind: KindInvalidArgument, Track: -1, Err: fmt.Errorf(format, args...)}
}

func closedError() *PoolError {
	return &PoolError{Kind: KindClosed, Track: -1}
}

// classify maps a worker failure to its kind. Transport errors surfaced
// through a decoder still count as network failures.
func classify(track int, url string, err error) *PoolError {
	pe := &PoolError{Kind: KindDecode, Track: track, URL: url, Err: err}

	var se *fetch.StatusError
	var ne *fetch.NetworkError
	switch {
	case errors.Is(err, fetch.ErrInvalidURL):
		pe.Kind = KindInvalidURL
	case errors.As(err, &se):
		pe.Kind = KindHTTPStatus
		pe.StatusCode = se.Code
	case errors.As(err, &ne):
		pe.Kind = KindNetwork
	}
	return pe
}
