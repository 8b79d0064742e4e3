// SPDX-License-Identifier: EPL-2.0

package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrInvalidURL reports a URL that cannot be requested over HTTP. It is
// never retryable.
var ErrInvalidURL = errors.New("invalid URL")

// NetworkError is a transport failure: DNS, dial, TLS, timeout, or a read
// error while streaming the body.
type NetworkError struct {
	URL string
	// Op is "request" for failures before headers arrive and "read" for
	// failures while streaming the body.
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying error is a timeout.
func (e *NetworkError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// StatusError is a completed request with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Temporary reports whether the status may succeed on a later attempt.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsRetryable reports whether a Fetch error is worth another attempt:
// network failures and 429/5xx statuses.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrInvalidURL) {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Temporary()
}
